package pricing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

func TestDefault(t *testing.T) {
	table := Default()

	if len(table.Prices) == 0 {
		t.Fatal("embedded table has no prices")
	}
	p, ok := table.Prices["gpt-5.2"]
	if !ok {
		t.Fatal("gpt-5.2 missing from embedded table")
	}
	if !p.Input.Equal(decimal.RequireFromString("1.75")) || !p.Output.Equal(decimal.RequireFromString("14")) {
		t.Errorf("gpt-5.2 = %+v", p)
	}
	if pro := table.Prices["gpt-5-pro"]; pro.CachedInput.Valid {
		t.Errorf("gpt-5-pro should have no cached rate, got %v", pro.CachedInput.Decimal)
	}
	if table.Aliases["gpt-5.2-codex"] != "gpt-5.2" {
		t.Errorf("aliases = %v", table.Aliases)
	}
	if len(table.Families) != 4 {
		t.Errorf("families = %d, want 4", len(table.Families))
	}
	if table.Meta.Tier != "standard" || table.Meta.Currency != "USD" {
		t.Errorf("meta = %+v", table.Meta)
	}
}

func TestParse_JSON(t *testing.T) {
	doc := `{
		"currency": "EUR",
		"aliases": {"fast": "m1"},
		"prices": {
			"m1": {"input": 1.5, "cached_input": "0.15", "output": "6"},
			"m2": {"input": "2", "cached_input": "-", "output": 8},
			"m3": {"input": "3", "cached_input": null},
			"m4": null
		}
	}`
	table, err := Parse([]byte(doc), FormatJSON)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if len(table.Prices) != 3 {
		t.Errorf("prices = %d, want 3 (null entry skipped)", len(table.Prices))
	}
	m1 := table.Prices["m1"]
	if !m1.Input.Equal(decimal.RequireFromString("1.5")) || !m1.CachedInput.Valid || !m1.CachedInput.Decimal.Equal(decimal.RequireFromString("0.15")) {
		t.Errorf("m1 = %+v", m1)
	}
	if table.Prices["m2"].CachedInput.Valid {
		t.Error(`"-" cached price should be absent`)
	}
	if !table.Prices["m3"].Output.IsZero() {
		t.Error("missing output price should be zero")
	}
	if table.Meta.Currency != "EUR" || table.Meta.Tier != "standard" {
		t.Errorf("meta = %+v", table.Meta)
	}
	if len(table.Families) != len(DefaultFamilies()) {
		t.Error("document without families should get the defaults")
	}
}

func TestParse_YAML(t *testing.T) {
	doc := `
tier: flex
prices:
  gpt-5:
    input: 0.625
    cached_input: ~
    output: "5.00"
families:
  - prefix: gpt-
    targets: [gpt-5]
`
	table, err := Parse([]byte(doc), FormatYAML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	p := table.Prices["gpt-5"]
	if !p.Input.Equal(decimal.RequireFromString("0.625")) || p.CachedInput.Valid || !p.Output.Equal(decimal.NewFromInt(5)) {
		t.Errorf("gpt-5 = %+v", p)
	}
	if table.Meta.Tier != "flex" {
		t.Errorf("tier = %q", table.Meta.Tier)
	}
	if len(table.Families) != 1 || table.Families[0].Prefix != "gpt-" {
		t.Errorf("families = %+v", table.Families)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{"broken json", `{"prices":`, FormatJSON},
		{"bad number", `{"prices": {"m": {"input": "abc"}}}`, FormatJSON},
		{"yaml mapping price", "prices:\n  m:\n    input: {a: 1}\n", FormatYAML},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data), tt.format); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestFormatOf(t *testing.T) {
	tests := map[string]Format{
		"prices.yaml": FormatYAML,
		"prices.YML":  FormatYAML,
		"prices.json": FormatJSON,
		"prices":      FormatJSON,
	}
	for path, want := range tests {
		if got := FormatOf(path); got != want {
			t.Errorf("FormatOf(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	custom := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(custom, []byte("prices:\n  only-model:\n    input: 1\n    output: 2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Run("explicit path", func(t *testing.T) {
		table := Load(custom)
		if _, ok := table.Prices["only-model"]; !ok || len(table.Prices) != 1 {
			t.Errorf("prices = %v", table.Prices)
		}
	})

	t.Run("missing path falls back to built-in", func(t *testing.T) {
		table := Load(filepath.Join(dir, "nope.json"))
		if _, ok := table.Prices["gpt-5"]; !ok {
			t.Error("expected built-in table")
		}
	})

	t.Run("invalid file falls back to built-in", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		if err := os.WriteFile(bad, []byte("{not json"), 0644); err != nil {
			t.Fatal(err)
		}
		table := Load(bad)
		if _, ok := table.Prices["gpt-5"]; !ok {
			t.Error("expected built-in table")
		}
	})

	t.Run("local pricing.json", func(t *testing.T) {
		if err := os.WriteFile(filepath.Join(dir, LocalFile), []byte(`{"prices":{"local-model":{"input":"1","output":"1"}}}`), 0644); err != nil {
			t.Fatal(err)
		}
		defer os.Remove(filepath.Join(dir, LocalFile))

		table := Load("")
		if _, ok := table.Prices["local-model"]; !ok {
			t.Errorf("prices = %v", table.Prices)
		}
	})
}
