// Package tax computes the tax lines applied to invoices and statements.
// Rates are engine constants; amounts are integer minor units. The total is
// the gross times the combined rate, rounded half away from zero, and the
// final component absorbs the rounding remainder so the lines sum to it.
package tax

import (
	"math"

	"go.uber.org/fx"
)

// Line is one computed tax component.
type Line struct {
	Code   string
	Label  string
	Rate   float64
	Amount int64
}

// Calculator derives tax lines from a gross amount in minor units.
type Calculator interface {
	Calculate(gross int64) []Line
}

const (
	CodeGST         = "IN_GST"
	CodeWithholding = "IN_WITHHOLDING"
)

// CompositeCalculator applies a fixed set of rate components.
type CompositeCalculator struct {
	components []Line
}

// NewDefault returns the platform default: 18% GST plus 1% withholding.
func NewDefault() *CompositeCalculator {
	return &CompositeCalculator{
		components: []Line{
			{Code: CodeGST, Label: "GST (18%)", Rate: 0.18},
			{Code: CodeWithholding, Label: "Withholding (1%)", Rate: 0.01},
		},
	}
}

func (c *CompositeCalculator) Calculate(gross int64) []Line {
	var combined float64
	for _, component := range c.components {
		combined += component.Rate
	}
	total := int64(math.Round(float64(gross) * combined))

	lines := make([]Line, 0, len(c.components))
	var allocated int64
	for i, component := range c.components {
		amount := int64(math.Round(float64(gross) * component.Rate))
		if i == len(c.components)-1 {
			amount = total - allocated
		}
		allocated += amount
		lines = append(lines, Line{
			Code:   component.Code,
			Label:  component.Label,
			Rate:   component.Rate,
			Amount: amount,
		})
	}
	return lines
}

// Total sums the line amounts.
func Total(lines []Line) int64 {
	var total int64
	for _, line := range lines {
		total += line.Amount
	}
	return total
}

var Module = fx.Module("tax",
	fx.Provide(func() Calculator { return NewDefault() }),
)
