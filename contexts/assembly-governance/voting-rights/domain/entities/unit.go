package entities

import "github.com/shopspring/decimal"

// Unit is a property with a fixed share of its assembly's voting weight.
// CurrentRepresentativeID is written only by the representation ledger.
type Unit struct {
	UnitID                  string
	AssemblyID              string
	Label                   string
	Coefficient             decimal.Decimal
	OwnerDocumentID         DocumentID
	CurrentRepresentativeID string
	OwnerEmail              string
	OwnerPhone              string
}

func (u Unit) RepresentedBy(identityID string) bool {
	return identityID != "" && u.CurrentRepresentativeID == identityID
}

func (u Unit) OwnedBy(document DocumentID) bool {
	return !document.IsZero() && u.OwnerDocumentID == document
}

// SumCoefficients adds unit coefficients without float rounding.
func SumCoefficients(units []Unit) decimal.Decimal {
	total := decimal.Zero
	for _, unit := range units {
		total = total.Add(unit.Coefficient)
	}
	return total
}
