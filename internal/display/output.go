// Package display finds outputs on the host X server through RandR and
// optionally enables one next to another.
package display

import (
	"errors"
	"fmt"
	"strings"
)

// Output is a host output and its geometry in the root window.
type Output struct {
	Name      string
	X         int32
	Y         int32
	Width     uint32
	Height    uint32
	Enabled   bool
	Connected bool
}

// Bounds returns the output's boundaries
func (o Output) Bounds() (x1, y1, x2, y2 int32) {
	return o.X, o.Y, o.X + int32(o.Width), o.Y + int32(o.Height)
}

// Contains checks if a point is within this output
func (o Output) Contains(x, y int32) bool {
	x1, y1, x2, y2 := o.Bounds()
	return x >= x1 && x < x2 && y >= y1 && y < y2
}

func (o Output) String() string {
	if !o.Enabled {
		return o.Name + " (disabled)"
	}
	return fmt.Sprintf("%s %dx%d+%d+%d", o.Name, o.Width, o.Height, o.X, o.Y)
}

// Relation places an output relative to an anchor output.
type Relation byte

const (
	RightOf Relation = 'R'
	LeftOf  Relation = 'L'
	Above   Relation = 'A'
	Below   Relation = 'B'
)

func (r Relation) String() string {
	switch r {
	case RightOf:
		return "right"
	case LeftOf:
		return "left"
	case Above:
		return "above"
	case Below:
		return "below"
	default:
		return fmt.Sprintf("relation(%q)", byte(r))
	}
}

// ErrBadRelation is returned by ParseRelation for unknown tags.
var ErrBadRelation = errors.New("unknown relation")

// ParseRelation accepts R, L, A, B and right, left, above, below in any case.
// An empty string means RightOf.
func ParseRelation(s string) (Relation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "r", "right", "right-of":
		return RightOf, nil
	case "l", "left", "left-of":
		return LeftOf, nil
	case "a", "above":
		return Above, nil
	case "b", "below":
		return Below, nil
	default:
		return 0, fmt.Errorf("%w %q (want R, L, A or B)", ErrBadRelation, s)
	}
}
