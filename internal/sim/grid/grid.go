// Package grid holds the bounded 4x4x4 cube lattice shared by every puzzle component.
package grid

import (
	"fmt"

	"github.com/elliotchance/orderedmap/v2"
)

// Size is the edge length of the puzzle volume on every axis.
const Size = 4

// Cells is the number of lattice positions in the volume.
const Cells = Size * Size * Size

// Cell is an integer lattice coordinate. Two cells with equal coordinates are the same cell.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

func C(x, y, z int) Cell { return Cell{X: x, Y: y, Z: z} }

func (c Cell) InBounds() bool {
	return c.X >= 0 && c.X < Size && c.Y >= 0 && c.Y < Size && c.Z >= 0 && c.Z < Size
}

func (c Cell) Below() Cell { return Cell{X: c.X, Y: c.Y - 1, Z: c.Z} }
func (c Cell) Above() Cell { return Cell{X: c.X, Y: c.Y + 1, Z: c.Z} }

func (c Cell) Offset(dx, dy, dz int) Cell {
	return Cell{X: c.X + dx, Y: c.Y + dy, Z: c.Z + dz}
}

func (c Cell) Sub(o Cell) Cell {
	return Cell{X: c.X - o.X, Y: c.Y - o.Y, Z: c.Z - o.Z}
}

func (c Cell) Array() [3]int { return [3]int{c.X, c.Y, c.Z} }

func FromArray(a [3]int) Cell { return Cell{X: a[0], Y: a[1], Z: a[2]} }

func (c Cell) String() string { return fmt.Sprintf("(%d,%d,%d)", c.X, c.Y, c.Z) }

// Index maps an on-grid cell to its bit position (x + 4z + 16y). ok is false off-grid.
func (c Cell) Index() (idx int, ok bool) {
	if !c.InBounds() {
		return 0, false
	}
	return c.X + Size*c.Z + Size*Size*c.Y, true
}

func FromIndex(idx int) Cell {
	return Cell{X: idx % Size, Z: (idx / Size) % Size, Y: idx / (Size * Size)}
}

// Structure is a set of occupied cells. Membership is unique; iteration follows insertion order,
// which generation relies on to reproduce growth history.
type Structure struct {
	cells *orderedmap.OrderedMap[Cell, struct{}]
}

func NewStructure(cells ...Cell) *Structure {
	s := &Structure{cells: orderedmap.NewOrderedMap[Cell, struct{}]()}
	for _, c := range cells {
		s.Add(c)
	}
	return s
}

func (s *Structure) Len() int {
	if s == nil || s.cells == nil {
		return 0
	}
	return s.cells.Len()
}

func (s *Structure) Contains(c Cell) bool {
	if s == nil || s.cells == nil {
		return false
	}
	_, ok := s.cells.Get(c)
	return ok
}

// Add inserts c and reports whether it was new. Callers validate legality first.
func (s *Structure) Add(c Cell) bool {
	if s.cells == nil {
		s.cells = orderedmap.NewOrderedMap[Cell, struct{}]()
	}
	if s.Contains(c) {
		return false
	}
	s.cells.Set(c, struct{}{})
	return true
}

func (s *Structure) Remove(c Cell) bool {
	if s == nil || s.cells == nil {
		return false
	}
	return s.cells.Delete(c)
}

// Cells returns the members in insertion order.
func (s *Structure) Cells() []Cell {
	out := make([]Cell, 0, s.Len())
	if s.Len() == 0 {
		return out
	}
	for el := s.cells.Front(); el != nil; el = el.Next() {
		out = append(out, el.Key)
	}
	return out
}

func (s *Structure) Clone() *Structure {
	return NewStructure(s.Cells()...)
}

// Min returns the per-axis minimum coordinates. ok is false for an empty structure.
func (s *Structure) Min() (Cell, bool) {
	return s.bound(func(a, b int) bool { return a < b })
}

// Max returns the per-axis maximum coordinates. ok is false for an empty structure.
func (s *Structure) Max() (Cell, bool) {
	return s.bound(func(a, b int) bool { return a > b })
}

func (s *Structure) bound(better func(a, b int) bool) (Cell, bool) {
	cells := s.Cells()
	if len(cells) == 0 {
		return Cell{}, false
	}
	out := cells[0]
	for _, c := range cells[1:] {
		if better(c.X, out.X) {
			out.X = c.X
		}
		if better(c.Y, out.Y) {
			out.Y = c.Y
		}
		if better(c.Z, out.Z) {
			out.Z = c.Z
		}
	}
	return out, true
}

// Bits packs the on-grid members into a 64-bit occupancy mask. Off-grid cells are dropped.
func (s *Structure) Bits() uint64 {
	var m uint64
	for _, c := range s.Cells() {
		if idx, ok := c.Index(); ok {
			m |= 1 << uint(idx)
		}
	}
	return m
}

// FromBits rebuilds a structure from an occupancy mask in index order.
func FromBits(m uint64) *Structure {
	s := NewStructure()
	for idx := 0; idx < Cells; idx++ {
		if m&(1<<uint(idx)) != 0 {
			s.Add(FromIndex(idx))
		}
	}
	return s
}

func (s *Structure) Arrays() [][3]int {
	cells := s.Cells()
	out := make([][3]int, 0, len(cells))
	for _, c := range cells {
		out = append(out, c.Array())
	}
	return out
}

func FromArrays(in [][3]int) *Structure {
	s := NewStructure()
	for _, a := range in {
		s.Add(FromArray(a))
	}
	return s
}

func (s *Structure) String() string {
	return fmt.Sprint(s.Cells())
}
