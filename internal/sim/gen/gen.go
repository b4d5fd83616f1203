// Package gen builds puzzle instances: a gravity-valid target structure grown from a single
// ground cube, and the perturbed player structure the puzzle starts from.
//
// All functions are stateless and draw randomness only from the Source they are given.
package gen

import (
	"cubecheck.ai/internal/sim/grid"
	"cubecheck.ai/internal/sim/rules"
)

// Source is the randomness a generator consumes. *math/rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
}

type Config struct {
	MinCubes int
	MaxCubes int
	Removals int
	Decoys   int
}

func DefaultConfig() Config {
	return Config{MinCubes: 2, MaxCubes: 4, Removals: 2, Decoys: 2}
}

type Result struct {
	Target *grid.Structure
	Player *grid.Structure

	// Requested is the cube count drawn for the target. Stalled is set when growth ran out of
	// candidates before reaching it.
	Requested int
	Stalled   bool

	Removed []grid.Cell
	Decoys  []grid.Cell
}

// horizontal neighbour offsets in enumeration order.
var sideSteps = [4][2]int{{-1, 0}, {0, -1}, {0, 1}, {1, 0}}

func Generate(rng Source, cfg Config) Result {
	target, requested := Target(rng, cfg)
	player, removed, decoys := Player(rng, target, cfg)
	return Result{
		Target:    target,
		Player:    player,
		Requested: requested,
		Stalled:   target.Len() < requested,
		Removed:   removed,
		Decoys:    decoys,
	}
}

// Target grows a structure from a random ground cube until the drawn count is reached or no
// candidate remains. It returns the structure and the drawn count.
func Target(rng Source, cfg Config) (*grid.Structure, int) {
	lo, hi := cfg.MinCubes, cfg.MaxCubes
	if lo < 1 {
		lo = 1
	}
	if hi > grid.Cells {
		hi = grid.Cells
	}
	if hi < lo {
		hi = lo
	}
	want := lo + rng.Intn(hi-lo+1)
	x := rng.Intn(grid.Size)
	z := rng.Intn(grid.Size)

	s := grid.NewStructure(grid.C(x, 0, z))
	for s.Len() < want {
		cands := candidates(s, func(c grid.Cell) bool {
			return rules.CanPlace(s, c, s)
		})
		if len(cands) == 0 {
			break
		}
		s.Add(cands[rng.Intn(len(cands))])
	}
	return s, want
}

// Player copies target, removes cfg.Removals cubes at random (skipped when the copy is smaller
// than that), then adds up to cfg.Decoys cubes adjacent to the in-progress player structure
// that are absent from target and supported by the player structure alone.
func Player(rng Source, target *grid.Structure, cfg Config) (player *grid.Structure, removed, decoys []grid.Cell) {
	player = target.Clone()

	if cfg.Removals > 0 && player.Len() >= cfg.Removals {
		for i := 0; i < cfg.Removals && player.Len() > 0; i++ {
			cells := player.Cells()
			c := cells[rng.Intn(len(cells))]
			player.Remove(c)
			removed = append(removed, c)
		}
	}

	for i := 0; i < cfg.Decoys; i++ {
		cands := candidates(player, func(c grid.Cell) bool {
			return !target.Contains(c) && rules.CanPlace(player, c, player)
		})
		if len(cands) == 0 {
			continue
		}
		c := cands[rng.Intn(len(cands))]
		player.Add(c)
		decoys = append(decoys, c)
	}
	return player, removed, decoys
}

// candidates enumerates, per cube of s in insertion order, the cell above it and its four
// horizontal neighbours, keeping those accepted by ok. A cell reachable from several cubes is
// listed once per cube, which weights the uniform pick toward well-connected cells.
func candidates(s *grid.Structure, ok func(grid.Cell) bool) []grid.Cell {
	var out []grid.Cell
	for _, c := range s.Cells() {
		if up := c.Above(); ok(up) {
			out = append(out, up)
		}
		for _, d := range sideSteps {
			if n := c.Offset(d[0], 0, d[1]); ok(n) {
				out = append(out, n)
			}
		}
	}
	return out
}
