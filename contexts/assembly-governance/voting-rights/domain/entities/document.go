package entities

import (
	"strings"
	"unicode"

	domainerrors "assembly/contexts/assembly-governance/voting-rights/domain/errors"

	"golang.org/x/text/unicode/norm"
)

// DocumentID is a canonical owner/representative document number. Every
// owner match in the ledger compares DocumentID values, never raw input.
type DocumentID string

// NewDocumentID canonicalizes raw input: NFKC folding, upper case, and
// removal of whitespace and punctuation separators.
func NewDocumentID(raw string) (DocumentID, error) {
	folded := norm.NFKC.String(raw)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	if b.Len() == 0 {
		return "", domainerrors.ErrInvalidDocumentID
	}
	return DocumentID(b.String()), nil
}

// MustDocumentID is intended for fixtures and seed data.
func MustDocumentID(raw string) DocumentID {
	id, err := NewDocumentID(raw)
	if err != nil {
		panic(err)
	}
	return id
}

func (d DocumentID) String() string {
	return string(d)
}

func (d DocumentID) IsZero() bool {
	return d == ""
}
