package services

import (
	"assembly/contexts/assembly-governance/voting-rights/domain/entities"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Quorum is the coefficient-weighted share of an assembly currently present.
type Quorum struct {
	AssemblyID         string
	TotalCoefficient   decimal.Decimal
	PresentCoefficient decimal.Decimal
	Ratio              decimal.Decimal
	Percentage         decimal.Decimal
	TotalUnits         int
	PresentUnits       int
}

// BalancedTotal reports whether the assembly's coefficients add up to 1.
func (q Quorum) BalancedTotal() bool {
	return q.TotalCoefficient.Equal(decimal.NewFromInt(1))
}

// ComputeQuorum divides the present coefficient by the actual total rather
// than assuming the roll sums to 1.
func ComputeQuorum(assemblyID string, units []entities.Unit, present map[string]bool) Quorum {
	result := Quorum{
		AssemblyID:         assemblyID,
		TotalCoefficient:   decimal.Zero,
		PresentCoefficient: decimal.Zero,
		Ratio:              decimal.Zero,
		Percentage:         decimal.Zero,
		TotalUnits:         len(units),
	}
	for _, unit := range units {
		result.TotalCoefficient = result.TotalCoefficient.Add(unit.Coefficient)
		if present[unit.UnitID] {
			result.PresentCoefficient = result.PresentCoefficient.Add(unit.Coefficient)
			result.PresentUnits++
		}
	}
	if result.TotalCoefficient.IsPositive() {
		result.Ratio = result.PresentCoefficient.Div(result.TotalCoefficient)
		result.Percentage = result.Ratio.Mul(hundred).Round(4)
	}
	return result
}
