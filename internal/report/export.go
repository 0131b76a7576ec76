package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
)

// ExportVersion is the envelope version written by Export
const ExportVersion = 1

// ErrNoData is returned when an imported document carries no daily series
var ErrNoData = errors.New("document does not contain usage data")

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Envelope wraps an exported report
type Envelope struct {
	Version    int    `json:"version"`
	ExportedAt string `json:"exported_at"`
	Data       *Data  `json:"data"`
}

// Write encodes d as indented JSON
func Write(w io.Writer, d *Data) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// WriteFile writes d to path as indented JSON, creating parent directories
func WriteFile(path string, d *Data) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	var buf bytes.Buffer
	if err := Write(&buf, d); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// Export writes d wrapped in a versioned envelope
func Export(w io.Writer, d *Data, now time.Time) error {
	env := Envelope{
		Version:    ExportVersion,
		ExportedAt: now.UTC().Format(time.RFC3339),
		Data:       d,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

// ExportFile writes an envelope to path. Paths ending in .zst are compressed.
func ExportFile(path string, d *Data, now time.Time) error {
	var buf bytes.Buffer
	if strings.EqualFold(filepath.Ext(path), ".zst") {
		encoder, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		if err := Export(encoder, d, now); err != nil {
			encoder.Close()
			return fmt.Errorf("failed to encode export: %w", err)
		}
		if err := encoder.Close(); err != nil {
			return fmt.Errorf("failed to finalize compression: %w", err)
		}
	} else if err := Export(&buf, d, now); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// dailyProbe detects whether a document has a daily series
type dailyProbe struct {
	Daily *struct {
		Labels []string `json:"labels"`
	} `json:"daily"`
}

func (p dailyProbe) ok() bool {
	return p.Daily != nil && p.Daily.Labels != nil
}

// Import decodes a report written by Export or WriteFile. Both the envelope
// and a bare report are accepted, compressed with zstd or not.
func Import(r io.Reader) (*Data, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read import: %w", err)
	}
	if bytes.HasPrefix(raw, zstdMagic) {
		decoder, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		defer decoder.Close()
		if raw, err = decoder.DecodeAll(raw, nil); err != nil {
			return nil, fmt.Errorf("failed to decompress import: %w", err)
		}
	}

	var wrapped struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to decode import: %w", err)
	}

	body := raw
	var inner, bare dailyProbe
	if len(wrapped.Data) > 0 && json.Unmarshal(wrapped.Data, &inner) == nil && inner.ok() {
		body = wrapped.Data
	} else if err := json.Unmarshal(raw, &bare); err != nil || !bare.ok() {
		return nil, ErrNoData
	}

	var d Data
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &d, nil
}

// ImportFile reads a report or export from path
func ImportFile(path string) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d, err := Import(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}
