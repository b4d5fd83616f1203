// Package solve grades a player structure against its target and derives the orthographic
// hints shown for a target.
package solve

import (
	"sort"

	"cubecheck.ai/internal/sim/grid"
)

// Normalize shifts s so its minimum coordinate on each axis is zero. The result is sorted by
// (x, y, z) so two normalized structures can be compared element by element.
func Normalize(s *grid.Structure) []grid.Cell {
	min, ok := s.Min()
	if !ok {
		return []grid.Cell{}
	}
	out := make([]grid.Cell, 0, s.Len())
	for _, c := range s.Cells() {
		out = append(out, c.Sub(min))
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func less(a, b grid.Cell) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.Z < b.Z
}

// IsSolved reports whether player matches target up to translation. Rotations are not accepted.
func IsSolved(target, player *grid.Structure) bool {
	if target.Len() != player.Len() {
		return false
	}
	a, b := Normalize(target), Normalize(player)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
