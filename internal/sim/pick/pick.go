// Package pick turns camera rays into grid cells: the cell a new cube would occupy, or the
// existing cube a ray hits.
package pick

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"cubecheck.ai/internal/sim/grid"
)

const (
	// Tolerance widens every face by this much on each side so rays grazing an edge still hit.
	Tolerance = 0.05
	// Epsilon is the smallest |direction·normal| treated as non-parallel.
	Epsilon = 1e-6
)

type Ray struct {
	Origin mgl64.Vec3
	Dir    mgl64.Vec3
}

// NewRay normalizes dir. A zero direction yields a ray that hits nothing.
func NewRay(origin, dir mgl64.Vec3) Ray {
	if l := dir.Len(); l > 0 {
		dir = dir.Mul(1 / l)
	}
	return Ray{Origin: origin, Dir: dir}
}

func (r Ray) At(t float64) mgl64.Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

type Face int

const (
	Bottom Face = iota
	Top
	Left
	Right
	Front
	Back
)

var faceNames = [...]string{"bottom", "top", "left", "right", "front", "back"}

func (f Face) String() string {
	if f < 0 || int(f) >= len(faceNames) {
		return "unknown"
	}
	return faceNames[f]
}

// faces lists, per face, a point on the face relative to the cube's min corner and its outward normal.
var faces = [6]struct {
	point  mgl64.Vec3
	normal mgl64.Vec3
}{
	Bottom: {mgl64.Vec3{0.5, 0, 0.5}, mgl64.Vec3{0, -1, 0}},
	Top:    {mgl64.Vec3{0.5, 1, 0.5}, mgl64.Vec3{0, 1, 0}},
	Left:   {mgl64.Vec3{0, 0.5, 0.5}, mgl64.Vec3{-1, 0, 0}},
	Right:  {mgl64.Vec3{1, 0.5, 0.5}, mgl64.Vec3{1, 0, 0}},
	Front:  {mgl64.Vec3{0.5, 0.5, 0}, mgl64.Vec3{0, 0, -1}},
	Back:   {mgl64.Vec3{0.5, 0.5, 1}, mgl64.Vec3{0, 0, 1}},
}

var up = mgl64.Vec3{0, 1, 0}

// Hit is a picking result. For placement Cell is the cell to fill; for removal it is the cube hit.
type Hit struct {
	Cell   grid.Cell
	T      float64
	Point  mgl64.Vec3
	Face   Face
	Ground bool
}

// IntersectPlane returns the ray parameter where r crosses the plane through point with the
// given normal. ok is false for near-parallel rays and for crossings behind the origin.
func IntersectPlane(r Ray, point, normal mgl64.Vec3) (t float64, ok bool) {
	denom := normal.Dot(r.Dir)
	if math.Abs(denom) <= Epsilon {
		return 0, false
	}
	t = point.Sub(r.Origin).Dot(normal) / denom
	if t < 0 {
		return 0, false
	}
	return t, true
}

// IntersectFace intersects r with one face of the unit cube at c, accepting points inside the
// cube's bounds widened by Tolerance.
func IntersectFace(r Ray, c grid.Cell, f Face) (t float64, p mgl64.Vec3, ok bool) {
	min := cellMin(c)
	fc := faces[f]
	t, ok = IntersectPlane(r, min.Add(fc.point), fc.normal)
	if !ok {
		return 0, p, false
	}
	p = r.At(t)
	if !within(p.X(), min.X()) || !within(p.Y(), min.Y()) || !within(p.Z(), min.Z()) {
		return 0, p, false
	}
	return t, p, true
}

// Place finds the cell a new cube would occupy. Top faces of player cubes whose upper
// neighbour passes valid are tried first, closest along the ray winning; otherwise the ray
// falls back to the ground cell containing its y=0 crossing, clamped into the grid.
func Place(r Ray, player *grid.Structure, valid func(grid.Cell) bool) (Hit, bool) {
	best := Hit{T: math.MaxFloat64}
	found := false
	for _, c := range player.Cells() {
		min := cellMin(c)
		t, ok := IntersectPlane(r, min.Add(faces[Top].point), up)
		if !ok || t >= best.T {
			continue
		}
		p := r.At(t)
		if !within(p.X(), min.X()) || !within(p.Z(), min.Z()) {
			continue
		}
		above := c.Above()
		if !valid(above) {
			continue
		}
		best = Hit{Cell: above, T: t, Point: p, Face: Top}
		found = true
	}
	if found {
		return best, true
	}
	return Ground(r, valid)
}

// Ground intersects r with the y=0 plane and snaps the crossing to the cell containing it.
func Ground(r Ray, valid func(grid.Cell) bool) (Hit, bool) {
	t, ok := IntersectPlane(r, mgl64.Vec3{}, up)
	if !ok {
		return Hit{}, false
	}
	p := r.At(t)
	c := grid.C(floorClamp(p.X()), 0, floorClamp(p.Z()))
	if !valid(c) {
		return Hit{}, false
	}
	return Hit{Cell: c, T: t, Point: p, Face: Top, Ground: true}, true
}

// Remove finds the player cube whose faces the ray hits first.
func Remove(r Ray, player *grid.Structure) (Hit, bool) {
	best := Hit{T: math.MaxFloat64}
	found := false
	for _, c := range player.Cells() {
		for f := Bottom; f <= Back; f++ {
			t, p, ok := IntersectFace(r, c, f)
			if !ok || t >= best.T {
				continue
			}
			best = Hit{Cell: c, T: t, Point: p, Face: f}
			found = true
		}
	}
	return best, found
}

func cellMin(c grid.Cell) mgl64.Vec3 {
	return mgl64.Vec3{float64(c.X), float64(c.Y), float64(c.Z)}
}

func within(v, lo float64) bool {
	return v >= lo-Tolerance && v <= lo+1+Tolerance
}

// floorClamp snaps a coordinate to the nearest on-grid cell index. Clamping happens before the
// int conversion, which is undefined for values outside the int range.
func floorClamp(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(mgl64.Clamp(math.Floor(v), 0, grid.Size-1))
}
