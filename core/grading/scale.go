package grading

import (
	"strconv"
	"strings"

	"github.com/trezcool/shule/core"
)

// Boundary maps a letter to the inclusive minimum percentage it requires.
type Boundary struct {
	Letter string
	Min    float64
}

// Scale is a letter grade boundary table: boundaries in strictly descending
// threshold order plus a fallback letter for everything below the lowest one.
type Scale struct {
	boundaries []Boundary
	fallback   string
}

// NewScale validates and builds a Scale. Thresholds must be strictly
// descending so that every percentage maps to exactly one letter.
func NewScale(fallback string, boundaries ...Boundary) (Scale, error) {
	if fallback == "" {
		return Scale{}, core.NewConfigError("grading: fallback grade is required")
	}
	prev := 0.0
	for i, b := range boundaries {
		if b.Letter == "" {
			return Scale{}, core.NewConfigError("grading: boundary %d has no letter", i)
		}
		if i > 0 && b.Min >= prev {
			return Scale{}, core.NewConfigError(
				"grading: boundary thresholds must be strictly descending, got %s:%v after %v", b.Letter, b.Min, prev)
		}
		prev = b.Min
	}
	return Scale{boundaries: boundaries, fallback: fallback}, nil
}

// ParseScale builds a Scale from its config representation,
// e.g. "A:90,B:80,C:70,D:60" with fallback "F".
func ParseScale(spec, fallback string) (Scale, error) {
	var boundaries []Boundary
	for _, pair := range strings.Split(spec, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			return Scale{}, core.NewConfigError("grading: malformed boundary %q", pair)
		}
		min, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return Scale{}, core.NewConfigError("grading: malformed boundary threshold %q", pair)
		}
		boundaries = append(boundaries, Boundary{
			Letter: strings.ToUpper(strings.TrimSpace(parts[0])),
			Min:    min,
		})
	}
	return NewScale(fallback, boundaries...)
}

// DefaultScale returns the standard A>=90, B>=80, C>=70, D>=60, else F table.
func DefaultScale() Scale {
	scale, _ := NewScale(
		"F",
		Boundary{Letter: "A", Min: 90},
		Boundary{Letter: "B", Min: 80},
		Boundary{Letter: "C", Min: 70},
		Boundary{Letter: "D", Min: 60},
	)
	return scale
}

// LetterFor returns the first letter whose inclusive minimum the percentage
// meets or exceeds, else the fallback. Pure and total.
func (s Scale) LetterFor(percentage float64) string {
	for _, b := range s.boundaries {
		if percentage >= b.Min {
			return b.Letter
		}
	}
	return s.fallback
}

func (s Scale) Boundaries() []Boundary {
	out := make([]Boundary, len(s.boundaries))
	copy(out, s.boundaries)
	return out
}

func (s Scale) Fallback() string { return s.fallback }
