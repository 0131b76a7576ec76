package pricing

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// LocalFile is the price table picked up from the working directory
const LocalFile = "pricing.json"

//go:embed default_pricing.json
var defaultPricing []byte

// PriceRecord holds USD prices per million tokens
type PriceRecord struct {
	Input       decimal.Decimal
	CachedInput decimal.NullDecimal // absent when the model has no cached-input rate
	Output      decimal.Decimal
}

// CachedRate returns the cached-input price, falling back to the input price
func (p PriceRecord) CachedRate() decimal.Decimal {
	if p.CachedInput.Valid {
		return p.CachedInput.Decimal
	}
	return p.Input
}

// Meta describes where a price table came from
type Meta struct {
	Tier       string `json:"tier" yaml:"tier"`
	Currency   string `json:"currency" yaml:"currency"`
	SourceURL  string `json:"source_url" yaml:"source_url"`
	SourceDate string `json:"source_date" yaml:"source_date"`
}

// Family maps a loose model name onto known price keys when no direct match exists.
// A family matches when the base name contains Contains and starts with Prefix;
// empty fields are not checked, but at least one must be set.
type Family struct {
	Contains string   `json:"contains,omitempty" yaml:"contains,omitempty"`
	Prefix   string   `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Targets  []string `json:"targets" yaml:"targets"`
}

// Matches reports whether base belongs to the family
func (f Family) Matches(base string) bool {
	if f.Contains == "" && f.Prefix == "" {
		return false
	}
	if f.Contains != "" && !strings.Contains(base, f.Contains) {
		return false
	}
	if f.Prefix != "" && !strings.HasPrefix(base, f.Prefix) {
		return false
	}
	return true
}

// DefaultFamilies returns the built-in fallbacks for unlisted gpt-5 variants
func DefaultFamilies() []Family {
	return []Family{
		{Contains: "gpt-5.3", Targets: []string{"gpt-5.2", "gpt-5"}},
		{Contains: "gpt-5.2", Targets: []string{"gpt-5.2"}},
		{Contains: "gpt-5.1", Targets: []string{"gpt-5.1"}},
		{Prefix: "gpt-5", Targets: []string{"gpt-5"}},
	}
}

// Table is an explicit price table passed to the resolver and cost calculator
type Table struct {
	Prices   map[string]PriceRecord
	Aliases  map[string]string
	Families []Family
	Meta     Meta
}

// Format of a price table document
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatOf picks the document format from a file extension
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// priceValue accepts a decimal written as a string or a number.
// null, "" and "-" leave it unset.
type priceValue struct {
	value decimal.Decimal
	set   bool
}

func (v *priceValue) parse(s string) error {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		*v = priceValue{}
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid price %q: %w", s, err)
	}
	*v = priceValue{value: d, set: true}
	return nil
}

func (v *priceValue) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*v = priceValue{}
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		return v.parse(s)
	}
	return v.parse(raw)
}

func (v *priceValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: price must be a scalar", node.Line)
	}
	if node.Tag == "!!null" {
		*v = priceValue{}
		return nil
	}
	return v.parse(node.Value)
}

func (v priceValue) orZero() decimal.Decimal {
	if v.set {
		return v.value
	}
	return decimal.Zero
}

type priceEntry struct {
	Input       priceValue `json:"input" yaml:"input"`
	CachedInput priceValue `json:"cached_input" yaml:"cached_input"`
	Output      priceValue `json:"output" yaml:"output"`
}

// document is the on-disk price table layout
type document struct {
	Meta     `yaml:",inline"`
	Aliases  map[string]string      `json:"aliases" yaml:"aliases"`
	Prices   map[string]*priceEntry `json:"prices" yaml:"prices"`
	Families []Family               `json:"families" yaml:"families"`
}

// Parse decodes a price table document. Missing meta fields take the
// built-in values and a document without families gets DefaultFamilies.
func Parse(data []byte, format Format) (*Table, error) {
	var doc document
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	default:
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode price table: %w", err)
	}

	t := &Table{
		Prices:   make(map[string]PriceRecord, len(doc.Prices)),
		Aliases:  doc.Aliases,
		Families: doc.Families,
		Meta:     doc.Meta,
	}
	if t.Aliases == nil {
		t.Aliases = map[string]string{}
	}
	if t.Families == nil {
		t.Families = DefaultFamilies()
	}
	for name, entry := range doc.Prices {
		if entry == nil {
			continue
		}
		t.Prices[name] = PriceRecord{
			Input:       entry.Input.orZero(),
			CachedInput: decimal.NullDecimal{Decimal: entry.CachedInput.value, Valid: entry.CachedInput.set},
			Output:      entry.Output.orZero(),
		}
	}

	if t.Meta.Tier == "" {
		t.Meta.Tier = "standard"
	}
	if t.Meta.Currency == "" {
		t.Meta.Currency = "USD"
	}
	if t.Meta.SourceURL == "" {
		t.Meta.SourceURL = "https://platform.openai.com/pricing"
	}
	if t.Meta.SourceDate == "" {
		t.Meta.SourceDate = "2025-12-27"
	}

	return t, nil
}

// Default returns the built-in standard tier price table
func Default() *Table {
	t, err := Parse(defaultPricing, FormatJSON)
	if err != nil {
		panic(fmt.Sprintf("pricing: embedded table is invalid: %v", err))
	}
	return t
}

// LoadFile reads a JSON or YAML price table from path
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read price table: %w", err)
	}
	t, err := Parse(data, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Load returns the price table at path, or ./pricing.json when path is empty
// or missing, or the built-in table. An unreadable or invalid file is logged
// and replaced by the built-in table.
func Load(path string) *Table {
	for _, candidate := range []string{path, LocalFile} {
		if candidate == "" {
			continue
		}
		if _, err := os.Stat(candidate); errors.Is(err, os.ErrNotExist) {
			continue
		}
		t, err := LoadFile(candidate)
		if err != nil {
			slog.Warn("using built-in prices", "path", candidate, "error", err)
			return Default()
		}
		slog.Debug("loaded price table", "path", candidate, "models", len(t.Prices))
		return t
	}
	return Default()
}
