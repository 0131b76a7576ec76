package pricing

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/zhaobenny/codextop/internal/model"
)

var oneMillion = decimal.NewFromInt(1_000_000)

// Cost calculates the USD cost of usage at the given prices.
// Cached input is billed at the cached rate, the rest of the input at the
// input rate, and reasoning tokens at the output rate.
func Cost(u model.Usage, p PriceRecord) decimal.Decimal {
	billable := max(0, u.InputTokens-u.CachedInputTokens)
	output := u.OutputTokens + u.ReasoningOutputTokens

	cost := decimal.NewFromInt(billable).Mul(p.Input)
	cost = cost.Add(decimal.NewFromInt(u.CachedInputTokens).Mul(p.CachedRate()))
	cost = cost.Add(decimal.NewFromInt(output).Mul(p.Output))
	return cost.Div(oneMillion)
}

// ModelCost resolves name against t and prices u. ok is false when the model
// is not priced.
func (t *Table) ModelCost(name string, u model.Usage) (decimal.Decimal, bool) {
	price, ok := t.Resolve(name)
	if !ok {
		return decimal.Zero, false
	}
	return Cost(u, price), true
}

// Costs is the priced view of per-model usage
type Costs struct {
	PerModel map[string]decimal.Decimal
	Unpriced []string
	Total    decimal.Decimal // sum over priced models only
	Priced   int
}

// ModelCosts prices every model in models against t
func ModelCosts(models map[string]model.Usage, t *Table) Costs {
	c := Costs{PerModel: make(map[string]decimal.Decimal, len(models))}
	for name, u := range models {
		cost, ok := t.ModelCost(name, u)
		if !ok {
			c.Unpriced = append(c.Unpriced, name)
			continue
		}
		c.PerModel[name] = cost
		c.Total = c.Total.Add(cost)
		c.Priced++
	}
	sort.Strings(c.Unpriced)
	return c
}

// Known reports whether any model was priced
func (c Costs) Known() bool {
	return c.Priced > 0
}

// Partial reports whether Total leaves out unpriced models
func (c Costs) Partial() bool {
	return c.Priced > 0 && len(c.Unpriced) > 0
}

// TotalString renders the total, or "n/a" when no model was priced
func (c Costs) TotalString() string {
	if !c.Known() {
		return FormatCost(decimal.Decimal{}, false)
	}
	return FormatCost(c.Total, true)
}

// FormatCost renders a USD amount with two decimals from $1 up and four below.
// ok=false renders "n/a".
func FormatCost(d decimal.Decimal, ok bool) string {
	if !ok {
		return "n/a"
	}
	if d.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return "$" + d.StringFixed(2)
	}
	return "$" + d.StringFixed(4)
}
