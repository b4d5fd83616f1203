package rules

import (
	"testing"

	"cubecheck.ai/internal/sim/grid"
)

func TestCanPlace_EmptyStructure(t *testing.T) {
	empty := grid.NewStructure()
	cases := []struct {
		name string
		c    grid.Cell
		want bool
	}{
		{"negative x", grid.C(-1, 0, 0), false},
		{"floating", grid.C(0, 1, 0), false},
		{"origin", grid.C(0, 0, 0), true},
		{"far corner ground", grid.C(3, 0, 3), true},
		{"x overflow", grid.C(4, 0, 0), false},
		{"y overflow", grid.C(0, 4, 0), false},
		{"z negative", grid.C(0, 0, -1), false},
	}
	for _, tc := range cases {
		if got := CanPlace(empty, tc.c, empty); got != tc.want {
			t.Fatalf("%s: CanPlace(%v) = %v want %v", tc.name, tc.c, got, tc.want)
		}
	}
}

func TestCanPlace_SupportSources(t *testing.T) {
	player := grid.NewStructure(grid.C(0, 0, 0))
	target := grid.NewStructure(grid.C(2, 0, 2))

	if CanPlace(player, grid.C(0, 0, 0), player) {
		t.Fatalf("occupied cell accepted")
	}
	if !CanPlace(player, grid.C(0, 1, 0), player) {
		t.Fatalf("cell above own cube rejected")
	}
	if CanPlace(player, grid.C(2, 1, 2), player) {
		t.Fatalf("cell above a cube of another structure accepted without that support")
	}
	if !CanPlace(player, grid.C(2, 1, 2), player, target) {
		t.Fatalf("union support should accept cell above target cube")
	}
	// Occupancy only comes from the edited structure.
	if !CanPlace(player, grid.C(2, 0, 2), player, target) {
		t.Fatalf("ground cell occupied only in support rejected")
	}
}

func TestCanPlace_Pure(t *testing.T) {
	s := grid.NewStructure(grid.C(1, 0, 1), grid.C(1, 1, 1))
	before := s.Bits()
	for _, c := range []grid.Cell{grid.C(1, 2, 1), grid.C(0, 3, 0), grid.C(1, 1, 1)} {
		a := CanPlace(s, c, s)
		b := CanPlace(s, c, s)
		if a != b {
			t.Fatalf("non-deterministic result for %v", c)
		}
	}
	if s.Bits() != before || s.Len() != 2 {
		t.Fatalf("CanPlace mutated its input")
	}
}

func TestUnsupported(t *testing.T) {
	s := grid.NewStructure(grid.C(0, 0, 0), grid.C(1, 1, 0), grid.C(0, 1, 0))
	got := Unsupported(s)
	if len(got) != 1 || got[0] != grid.C(1, 1, 0) {
		t.Fatalf("unexpected floating cubes: %v", got)
	}
}
