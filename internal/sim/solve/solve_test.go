package solve

import (
	"math/rand"
	"strings"
	"testing"

	"cubecheck.ai/internal/sim/gen"
	"cubecheck.ai/internal/sim/grid"
)

func TestIsSolved_Reflexive(t *testing.T) {
	for seed := int64(1); seed <= 50; seed++ {
		res := gen.Generate(rand.New(rand.NewSource(seed)), gen.DefaultConfig())
		if !IsSolved(res.Target, res.Target) {
			t.Fatalf("seed %d: target not equivalent to itself", seed)
		}
		if !IsSolved(res.Player, res.Player.Clone()) {
			t.Fatalf("seed %d: player not equivalent to its clone", seed)
		}
	}
}

func TestIsSolved_TranslationInvariant(t *testing.T) {
	base := grid.NewStructure(grid.C(0, 0, 0), grid.C(1, 0, 0), grid.C(1, 1, 0))
	shifted := grid.NewStructure(grid.C(2, 1, 3), grid.C(3, 1, 3), grid.C(3, 2, 3))
	if !IsSolved(base, shifted) {
		t.Fatalf("translated structure rejected")
	}
	// Insertion order is irrelevant.
	reordered := grid.NewStructure(grid.C(3, 2, 3), grid.C(2, 1, 3), grid.C(3, 1, 3))
	if !IsSolved(base, reordered) {
		t.Fatalf("reordered structure rejected")
	}
}

func TestIsSolved_Rejects(t *testing.T) {
	base := grid.NewStructure(grid.C(0, 0, 0), grid.C(1, 0, 0), grid.C(1, 1, 0))
	cases := []struct {
		name   string
		player *grid.Structure
	}{
		{"fewer cubes", grid.NewStructure(grid.C(0, 0, 0), grid.C(1, 0, 0))},
		{"more cubes", grid.NewStructure(grid.C(0, 0, 0), grid.C(1, 0, 0), grid.C(1, 1, 0), grid.C(2, 0, 0))},
		{"mirrored", grid.NewStructure(grid.C(0, 0, 0), grid.C(1, 0, 0), grid.C(0, 1, 0))},
		{"rotated", grid.NewStructure(grid.C(0, 0, 0), grid.C(0, 0, 1), grid.C(0, 1, 1))},
		{"empty", grid.NewStructure()},
	}
	for _, tc := range cases {
		if IsSolved(base, tc.player) {
			t.Fatalf("%s: accepted", tc.name)
		}
	}
	if !IsSolved(grid.NewStructure(), grid.NewStructure()) {
		t.Fatalf("two empty structures should match")
	}
}

func TestNormalize(t *testing.T) {
	got := Normalize(grid.NewStructure(grid.C(3, 2, 1), grid.C(2, 1, 1)))
	want := []grid.Cell{grid.C(0, 0, 0), grid.C(1, 1, 0)}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestSilhouettes(t *testing.T) {
	target := grid.NewStructure(grid.C(1, 0, 2), grid.C(2, 0, 2), grid.C(2, 1, 2))
	v := Silhouettes(target)
	if len(v.Top) != 2 || len(v.Top[0]) != 1 {
		t.Fatalf("top dims: %dx%d", len(v.Top), len(v.Top[0]))
	}
	if len(v.Front) != 2 || len(v.Front[0]) != 2 {
		t.Fatalf("front dims: %dx%d", len(v.Front), len(v.Front[0]))
	}
	if len(v.Left) != 1 || len(v.Left[0]) != 2 {
		t.Fatalf("left dims: %dx%d", len(v.Left), len(v.Left[0]))
	}
	if !v.Top[0][0] || !v.Top[1][0] {
		t.Fatalf("top: %v", v.Top)
	}
	if !v.Front[0][0] || !v.Front[1][0] || !v.Front[1][1] || v.Front[0][1] {
		t.Fatalf("front: %v", v.Front)
	}
	if !v.Left[0][0] || !v.Left[0][1] {
		t.Fatalf("left: %v", v.Left)
	}
}

func TestSilhouettes_SkipsFloatingCubes(t *testing.T) {
	target := grid.NewStructure(grid.C(0, 0, 0), grid.C(1, 1, 0))
	v := Silhouettes(target)
	if v.Front[1][1] || v.Top[1][0] {
		t.Fatalf("unsupported cube projected: %v %v", v.Front, v.Top)
	}
	if !v.Front[0][0] {
		t.Fatalf("ground cube missing: %v", v.Front)
	}
}

func TestSilhouettes_Empty(t *testing.T) {
	v := Silhouettes(grid.NewStructure())
	if len(v.Top) != 0 || len(v.Front) != 0 || len(v.Left) != 0 {
		t.Fatalf("expected empty views: %+v", v)
	}
	if strings.Contains(v.Render(), "#") {
		t.Fatalf("empty views rendered filled cells")
	}
}

func TestViews_Render(t *testing.T) {
	v := Silhouettes(grid.NewStructure(grid.C(0, 0, 0), grid.C(1, 0, 0), grid.C(1, 1, 0)))
	out := v.Render()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %q", out)
	}
	if !strings.HasPrefix(lines[0], "top") {
		t.Fatalf("missing header: %q", lines[0])
	}
	// Front view, upper row: only x=1 is filled.
	if !strings.Contains(lines[1], ".#") {
		t.Fatalf("front upper row missing: %q", out)
	}
}
