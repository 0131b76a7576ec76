package parser

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/zhaobenny/codextop/internal/model"
)

const maxLineSize = 16 * 1024 * 1024

// rawRecord is the envelope shared by every line of a Codex session log
type rawRecord struct {
	Type      string          `json:"type"`
	Timestamp timestamp       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

type turnContextPayload struct {
	Model     string `json:"model"`
	ModelName string `json:"model_name"`
	ModelID   string `json:"model_id"`
}

type eventMsgPayload struct {
	Type      string    `json:"type"`
	Timestamp timestamp `json:"timestamp"`
	Info      *struct {
		TotalTokenUsage tokenUsage `json:"total_token_usage"`
	} `json:"info"`
}

type tokenUsage struct {
	InputTokens           counter `json:"input_tokens"`
	CachedInputTokens     counter `json:"cached_input_tokens"`
	OutputTokens          counter `json:"output_tokens"`
	ReasoningOutputTokens counter `json:"reasoning_output_tokens"`
	TotalTokens           counter `json:"total_tokens"`
}

// counter accepts integers, floats, numeric strings and null
type counter int64

func (c *counter) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if s == "" || s == "null" {
		*c = 0
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*c = counter(n)
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	if math.IsNaN(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return fmt.Errorf("token count %s out of range", s)
	}
	*c = counter(f)
	return nil
}

// timestamp keeps string values. Any other JSON value reads as empty, so the
// line still counts as a snapshot without an event time.
type timestamp string

func (ts *timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*ts = ""
		return nil
	}
	*ts = timestamp(s)
	return nil
}

// record is one decoded log line: contextRecord, usageRecord or unknownRecord
type record interface {
	isRecord()
}

type contextRecord struct {
	Model string
}

type usageRecord struct {
	Snapshot  model.Usage
	Timestamp string
}

type unknownRecord struct{}

func (contextRecord) isRecord() {}
func (usageRecord) isRecord()   {}
func (unknownRecord) isRecord() {}

// decodeRecord decodes a single line. ok is false for lines that are not JSON.
func decodeRecord(line []byte) (rec record, ok bool) {
	var raw rawRecord
	if err := json.Unmarshal(line, &raw); err != nil {
		return nil, false
	}

	switch raw.Type {
	case "turn_context":
		var p turnContextPayload
		if len(raw.Payload) > 0 && json.Unmarshal(raw.Payload, &p) != nil {
			return unknownRecord{}, true
		}
		name := firstNonEmpty(p.Model, p.ModelName, p.ModelID)
		if name == "" {
			return unknownRecord{}, true
		}
		return contextRecord{Model: name}, true

	case "event_msg":
		var p eventMsgPayload
		if len(raw.Payload) == 0 || json.Unmarshal(raw.Payload, &p) != nil {
			return unknownRecord{}, true
		}
		if p.Type != "token_count" {
			return unknownRecord{}, true
		}
		var total tokenUsage
		if p.Info != nil {
			total = p.Info.TotalTokenUsage
		}
		return usageRecord{
			Snapshot: model.Usage{
				InputTokens:           int64(total.InputTokens),
				CachedInputTokens:     int64(total.CachedInputTokens),
				OutputTokens:          int64(total.OutputTokens),
				ReasoningOutputTokens: int64(total.ReasoningOutputTokens),
				TotalTokens:           int64(total.TotalTokens),
			},
			Timestamp: firstNonEmpty(string(raw.Timestamp), string(p.Timestamp)),
		}, true
	}

	return unknownRecord{}, true
}

// timestampLayouts are tried in order. Layouts without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
}

// ParseTimestamp parses an ISO-8601 timestamp, optionally Z-suffixed
func ParseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// readLine returns the next line including its newline. A line longer than
// maxLineSize is consumed in full but returned empty with tooLong set.
func readLine(r *bufio.Reader) (line []byte, tooLong bool, err error) {
	for {
		chunk, err := r.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(chunk) > maxLineSize+1 {
				tooLong = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return line, tooLong, err
	}
}

// Deltas streams usage events out of one session log.
// The sequence is single-pass: it consumes r as it is iterated.
func Deltas(r io.Reader) iter.Seq[model.UsageEvent] {
	return func(yield func(model.UsageEvent) bool) {
		var state Counter
		currentModel := model.UnknownModel
		reader := bufio.NewReaderSize(r, 64*1024)

		for {
			raw, tooLong, err := readLine(reader)
			if tooLong {
				slog.Warn("skipping oversized line in session log", "limit", maxLineSize)
			}

			// Malformed lines decode as !ok and are skipped
			if line := bytes.TrimSpace(raw); len(line) > 0 {
				if rec, ok := decodeRecord(line); ok {
					switch rec := rec.(type) {
					case contextRecord:
						currentModel = model.NormalizeName(rec.Model)
					case usageRecord:
						delta := state.Advance(rec.Snapshot)
						// An unparsable time drops the event but keeps the new baseline
						if ts, ok := ParseTimestamp(rec.Timestamp); ok {
							if !yield(model.UsageEvent{Timestamp: ts, Model: currentModel, Usage: delta}) {
								return
							}
						}
					}
				}
			}

			if err != nil {
				if !errors.Is(err, io.EOF) {
					slog.Warn("stopped reading session log", "error", err)
				}
				return
			}
		}
	}
}

// FileEvents streams usage events from the session log at path.
// The file is opened when iteration starts; an unreadable file yields nothing.
func FileEvents(path string) iter.Seq[model.UsageEvent] {
	return func(yield func(model.UsageEvent) bool) {
		file, err := os.Open(path)
		if err != nil {
			slog.Warn("skipping unreadable session log", "path", path, "error", err)
			return
		}
		defer file.Close()

		for ev := range Deltas(file) {
			if !yield(ev) {
				return
			}
		}
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
