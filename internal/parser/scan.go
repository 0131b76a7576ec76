package parser

import (
	"errors"
	"io/fs"
	"iter"
	"os"
	"path/filepath"

	"github.com/zhaobenny/codextop/internal/model"
)

// Source is one session log and its lazily read usage events
type Source struct {
	Path   string
	Events iter.Seq[model.UsageEvent]
}

// DefaultSessionsRoot returns $CODEX_HOME/sessions, falling back to ~/.codex/sessions
func DefaultSessionsRoot() (string, error) {
	if home := os.Getenv("CODEX_HOME"); home != "" {
		return filepath.Join(home, "sessions"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".codex", "sessions"), nil
}

// FindSessionFiles finds all JSONL files under root.
// A missing root is not an error; it simply has no sessions.
func FindSessionFiles(root string) ([]string, error) {
	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && filepath.Ext(path) == ".jsonl" {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

// Sources returns one Source per session log under root
func Sources(root string) ([]Source, error) {
	files, err := FindSessionFiles(root)
	if err != nil {
		return nil, err
	}

	sources := make([]Source, 0, len(files))
	for _, path := range files {
		sources = append(sources, Source{Path: path, Events: FileEvents(path)})
	}
	return sources, nil
}
