// Package rules holds the gravity rule that gates every cube addition.
package rules

import "cubecheck.ai/internal/sim/grid"

// CanPlace reports whether a cube may be added at c in edit. Cells on the ground are always
// supported; higher cells need a cube directly beneath them in at least one support structure.
// Occupancy is checked against edit only. CanPlace never mutates its arguments.
func CanPlace(edit *grid.Structure, c grid.Cell, support ...*grid.Structure) bool {
	if !c.InBounds() {
		return false
	}
	if edit.Contains(c) {
		return false
	}
	if c.Y == 0 {
		return true
	}
	below := c.Below()
	for _, s := range support {
		if s.Contains(below) {
			return true
		}
	}
	return false
}

// Supported reports whether an existing cube at c rests on the ground or on another cube of s.
func Supported(s *grid.Structure, c grid.Cell) bool {
	return c.Y == 0 || s.Contains(c.Below())
}

// Unsupported lists the cubes of s that float, in insertion order.
// Removal leaves such cubes in place; this is only used for reporting.
func Unsupported(s *grid.Structure) []grid.Cell {
	var out []grid.Cell
	for _, c := range s.Cells() {
		if !Supported(s, c) {
			out = append(out, c)
		}
	}
	return out
}
