package model

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ProductRef identifies the product a proposal line refers to.
type ProductRef struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// Matches reports whether r and other name the same product. IDs win when
// both sides carry one; otherwise names are compared by ProductKey.
func (r ProductRef) Matches(other ProductRef) bool {
	a, b := strings.TrimSpace(r.ID), strings.TrimSpace(other.ID)
	if a != "" && b != "" {
		return a == b
	}
	return ProductKey(r.Name) != "" && ProductKey(r.Name) == ProductKey(other.Name)
}

// ProductKey folds a product name for comparison: accents removed, case
// folded and inner whitespace collapsed, so "Areia Média " and "areia media"
// are the same key.
func ProductKey(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(t, name)
	if err != nil {
		s = name
	}
	s = cases.Fold().String(s)
	return strings.Join(strings.Fields(s), " ")
}
