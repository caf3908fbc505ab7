package model

import "strings"

// Category is a product lifecycle classification ("gamme").
type Category string

const (
	CategoryA Category = "A" // core / permanent
	CategoryB Category = "B" // complementary
	CategoryC Category = "C" // seasonal
	CategoryZ Category = "Z" // discontinue
)

// Valid reports whether c is one of the known category codes.
func (c Category) Valid() bool {
	switch c {
	case CategoryA, CategoryB, CategoryC, CategoryZ:
		return true
	default:
		return false
	}
}

// Rank orders categories for consistency checks: A > B > C > Z.
// Unknown codes rank below Z.
func (c Category) Rank() int {
	switch c {
	case CategoryA:
		return 3
	case CategoryB:
		return 2
	case CategoryC:
		return 1
	case CategoryZ:
		return 0
	default:
		return -1
	}
}

// ParseCategory converts a free-form code into a Category. The second return
// value is false when s is not a known code.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	return c, c.Valid()
}
