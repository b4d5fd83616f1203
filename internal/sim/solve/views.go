package solve

import (
	"strings"

	"cubecheck.ai/internal/sim/grid"
)

// Views holds the three orthographic projections of a target, indexed relative to the target's
// minimum corner: Top[x][z], Front[x][y] and Left[z][y].
type Views struct {
	Top   [][]bool `json:"top"`
	Front [][]bool `json:"front"`
	Left  [][]bool `json:"left"`
}

// Silhouettes projects the supported cubes of target. A cube counts only when it sits on the
// lowest layer or has a cube directly beneath it in target.
func Silhouettes(target *grid.Structure) Views {
	min, ok := target.Min()
	if !ok {
		return Views{Top: [][]bool{}, Front: [][]bool{}, Left: [][]bool{}}
	}
	max, _ := target.Max()
	w := extent(min.X, max.X)
	h := extent(min.Y, max.Y)
	d := extent(min.Z, max.Z)

	v := Views{Top: plane(w, d), Front: plane(w, h), Left: plane(d, h)}
	for _, c := range target.Cells() {
		n := c.Sub(min)
		if n.X >= w || n.Y >= h || n.Z >= d {
			continue
		}
		if n.Y != 0 && !target.Contains(c.Below()) {
			continue
		}
		v.Top[n.X][n.Z] = true
		v.Front[n.X][n.Y] = true
		v.Left[n.Z][n.Y] = true
	}
	return v
}

func extent(lo, hi int) int {
	n := hi - lo + 1
	if n > grid.Size {
		n = grid.Size
	}
	return n
}

func plane(a, b int) [][]bool {
	out := make([][]bool, a)
	for i := range out {
		out[i] = make([]bool, b)
	}
	return out
}

// Render draws the views side by side as text, '#' for filled and '.' for empty, with y
// growing upward in the front and left views.
func (v Views) Render() string {
	top := renderTop(v.Top)
	front := renderUp(v.Front)
	left := renderUp(v.Left)

	cols := [][]string{
		append([]string{"top"}, top...),
		append([]string{"front"}, front...),
		append([]string{"left"}, left...),
	}
	rows := 0
	for _, c := range cols {
		if len(c) > rows {
			rows = len(c)
		}
	}
	var b strings.Builder
	for r := 0; r < rows; r++ {
		for i, c := range cols {
			cell := ""
			if r < len(c) {
				cell = c[r]
			}
			if i < len(cols)-1 {
				cell += strings.Repeat(" ", 8-len(cell))
			}
			b.WriteString(cell)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// renderTop prints rows of x with z across.
func renderTop(p [][]bool) []string {
	out := make([]string, 0, len(p))
	for _, row := range p {
		out = append(out, line(row))
	}
	return out
}

// renderUp prints the second index upward, the first index across.
func renderUp(p [][]bool) []string {
	if len(p) == 0 {
		return nil
	}
	h := len(p[0])
	out := make([]string, 0, h)
	for y := h - 1; y >= 0; y-- {
		row := make([]bool, len(p))
		for a := range p {
			row[a] = p[a][y]
		}
		out = append(out, line(row))
	}
	return out
}

func line(row []bool) string {
	var b strings.Builder
	for _, on := range row {
		if on {
			b.WriteByte('#')
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}
