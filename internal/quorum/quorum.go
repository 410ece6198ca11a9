// Package quorum computes the required-voter threshold for a poll from a
// chat's configured formula and population.
//
// Formulas form a closed whitelist; the selector strings are stored verbatim
// in chat and poll records but are only ever dispatched to the explicit pure
// functions below. Free-form expressions are never evaluated.
package quorum

import "math"

// Formula selects one of the whitelisted quorum formulas. The string value
// is what admins type and what gets persisted.
type Formula string

const (
	Zero       Formula = "0"
	Four       Formula = "4"
	SqrtDouble Formula = "ceil(sqrt(n*2))"
	FloorSqrt  Formula = "floor(sqrt(n))"
	Half       Formula = "n/2"
	Third      Formula = "n/3"
)

// Formulas lists every supported formula, in display order.
var Formulas = []Formula{Zero, Four, SqrtDouble, FloorSqrt, Half, Third}

// Parse validates a user-supplied selector against the whitelist.
func Parse(s string) (Formula, bool) {
	for _, f := range Formulas {
		if s == string(f) {
			return f, true
		}
	}
	return "", false
}

// eval returns the raw formula value before rounding. Unknown selectors
// (possible when a stored record predates a whitelist change) evaluate to
// zero rather than failing.
func eval(f Formula, population int) float64 {
	n := float64(population)
	switch f {
	case Four:
		return 4
	case SqrtDouble:
		return math.Ceil(math.Sqrt(n * 2))
	case FloorSqrt:
		return math.Floor(math.Sqrt(n))
	case Half:
		return n / 2
	case Third:
		return n / 3
	default:
		return 0
	}
}

// Required computes how many distinct voters a poll needs. Every formula's
// value is rounded up to the nearest integer; this single ceil rule applies
// uniformly, so formulas that floor internally (FloorSqrt) do so as part of
// the formula itself.
func Required(f Formula, population int) int {
	if population < 0 {
		population = 0
	}
	return int(math.Ceil(eval(f, population)))
}

// Reached reports whether votes cast satisfies the formula for the given
// population.
func Reached(f Formula, population, votes int) bool {
	return votes >= Required(f, population)
}
