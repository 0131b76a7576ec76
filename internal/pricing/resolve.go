package pricing

import (
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/zhaobenny/codextop/internal/model"
)

// Resolve finds the price for a model name. The boolean is false when the
// model is not priced; callers must not treat that as a zero cost.
func (t *Table) Resolve(name string) (PriceRecord, bool) {
	key, ok := t.ResolveKey(name)
	if !ok {
		return PriceRecord{}, false
	}
	return t.Prices[key], true
}

// ResolveKey returns the price table key a model name resolves to.
//
// Lookup order: alias with a priced target, exact name, exact base name
// (before the first colon), longest key k such that the base starts with
// k+"-", then the first matching family.
func (t *Table) ResolveKey(name string) (string, bool) {
	name = model.NormalizeName(name)

	if target, ok := t.Aliases[name]; ok {
		if _, priced := t.Prices[target]; priced {
			return target, true
		}
	}
	if _, ok := t.Prices[name]; ok {
		return name, true
	}

	base, _, _ := strings.Cut(name, ":")
	if _, ok := t.Prices[base]; ok {
		return base, true
	}

	if key, ok := t.longestPrefix(base); ok {
		return key, true
	}

	for _, family := range t.Families {
		if !family.Matches(base) {
			continue
		}
		for _, target := range family.Targets {
			if _, ok := t.Prices[target]; ok {
				return target, true
			}
		}
		// first matching family decides
		return "", false
	}

	return "", false
}

func (t *Table) longestPrefix(base string) (string, bool) {
	keys := lo.Keys(t.Prices)
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	for _, key := range keys {
		if strings.HasPrefix(base, key+"-") {
			return key, true
		}
	}
	return "", false
}
