package profile

import (
	"errors"
	"fmt"
)

// ErrInvalidDirection is returned by ValidateDirections.
var ErrInvalidDirection = errors.New("invalid direction")

// Axis names.
const (
	WestEast           = "West-East"
	NorthSouth         = "North-South"
	NorthwestSoutheast = "Northwest-Southeast"
	NortheastSouthwest = "Northeast-Southwest"
)

// Direction is one ray of the profile: a named sub-direction belonging to an
// axis, and the unit step taken per distance increment.
type Direction struct {
	Axis    string `json:"axis" yaml:"axis"`
	Name    string `json:"name" yaml:"name"`
	RowStep int    `json:"row_step" yaml:"row_step"`
	ColStep int    `json:"col_step" yaml:"col_step"`
}

// Compass is the fixed set of eight sub-directions in output order: axes
// West-East, North-South, Northwest-Southeast, Northeast-Southwest, two
// sub-directions each. Row steps follow raster order, so North is -1.
var Compass = []Direction{
	{WestEast, "West", 0, -1},
	{WestEast, "East", 0, 1},
	{NorthSouth, "North", -1, 0},
	{NorthSouth, "South", 1, 0},
	{NorthwestSoutheast, "Northwest", -1, -1},
	{NorthwestSoutheast, "Southeast", 1, 1},
	{NortheastSouthwest, "Northeast", -1, 1},
	{NortheastSouthwest, "Southwest", 1, -1},
}

// CompassDirections returns a copy of Compass that callers may modify.
func CompassDirections() []Direction {
	out := make([]Direction, len(Compass))
	copy(out, Compass)
	return out
}

// ValidateDirections checks a direction list: at least one entry, non-empty
// names, steps in {-1, 0, 1} and not both zero, and unique sub-direction names.
func ValidateDirections(dirs []Direction) error {
	if len(dirs) == 0 {
		return fmt.Errorf("%w: empty direction list", ErrInvalidDirection)
	}
	seen := make(map[string]bool, len(dirs))
	for i, d := range dirs {
		if d.Axis == "" || d.Name == "" {
			return fmt.Errorf("%w: entry %d has an empty axis or name", ErrInvalidDirection, i)
		}
		if !unitStep(d.RowStep) || !unitStep(d.ColStep) {
			return fmt.Errorf("%w: %s steps (%d,%d) must be -1, 0 or 1", ErrInvalidDirection, d.Name, d.RowStep, d.ColStep)
		}
		if d.RowStep == 0 && d.ColStep == 0 {
			return fmt.Errorf("%w: %s has a zero step", ErrInvalidDirection, d.Name)
		}
		if seen[d.Name] {
			return fmt.Errorf("%w: duplicate sub-direction %s", ErrInvalidDirection, d.Name)
		}
		seen[d.Name] = true
	}
	return nil
}

// Axes returns the distinct axis names of dirs in first-seen order.
func Axes(dirs []Direction) []string {
	var axes []string
	seen := make(map[string]bool)
	for _, d := range dirs {
		if !seen[d.Axis] {
			seen[d.Axis] = true
			axes = append(axes, d.Axis)
		}
	}
	return axes
}

func unitStep(s int) bool {
	return s >= -1 && s <= 1
}
