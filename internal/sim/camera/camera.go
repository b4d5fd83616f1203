// Package camera models the orbiting perspective camera clients use to turn cursor positions
// into picking rays.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"cubecheck.ai/internal/sim/pick"
)

const (
	MinPhi = 0.1
	MaxPhi = math.Pi - 0.1
)

// Orbit places the eye on a sphere around Pivot and aims it at LookAt.
// Theta is the azimuth and Phi the polar angle, both in radians.
type Orbit struct {
	Theta  float64    `json:"theta"`
	Phi    float64    `json:"phi"`
	Radius float64    `json:"radius"`
	Speed  float64    `json:"speed"`
	FovDeg float64    `json:"fov_deg"`
	Pivot  mgl64.Vec3 `json:"pivot"`
	LookAt mgl64.Vec3 `json:"look_at"`
}

func Default() Orbit {
	return Orbit{
		Theta:  math.Pi,
		Phi:    math.Pi / 2,
		Radius: 10,
		Speed:  0.005,
		FovDeg: 60,
		Pivot:  mgl64.Vec3{2, 3, 0},
		LookAt: mgl64.Vec3{2, 0, 2},
	}
}

// Rotate applies a pointer drag of (dx, dy) pixels.
func (o *Orbit) Rotate(dx, dy float64) {
	o.Theta -= dx * o.Speed
	o.Phi -= dy * o.Speed
	o.clamp()
}

func (o *Orbit) clamp() {
	o.Phi = mgl64.Clamp(o.Phi, MinPhi, MaxPhi)
}

func (o Orbit) Position() mgl64.Vec3 {
	sinPhi := math.Sin(o.Phi)
	off := mgl64.Vec3{
		-o.Radius * sinPhi * math.Cos(o.Theta),
		o.Radius * math.Cos(o.Phi),
		o.Radius * sinPhi * math.Sin(o.Theta),
	}
	return o.Pivot.Add(off)
}

func (o Orbit) LookDirection() mgl64.Vec3 {
	return o.LookAt.Sub(o.Position())
}

var worldUp = mgl64.Vec3{0, 1, 0}

// Ray projects the pixel (px, py) of a w×h viewport through a pinhole camera.
// ok is false for an empty viewport or when the view direction is vertical.
func (o Orbit) Ray(px, py, w, h float64) (pick.Ray, bool) {
	if w <= 0 || h <= 0 {
		return pick.Ray{}, false
	}
	eye := o.Position()
	look := o.LookDirection()
	if look.Len() == 0 || look.Normalize().Cross(worldUp).Len() < 1e-9 {
		return pick.Ray{}, false
	}

	nx := 2*px/w - 1
	ny := 1 - 2*py/h
	tanHalf := math.Tan(mgl64.DegToRad(o.FovDeg) / 2)
	view := mgl64.Vec4{nx * tanHalf * (w / h), ny * tanHalf, -1, 0}

	toWorld := mgl64.LookAtV(eye, eye.Add(look), worldUp).Inv()
	dir := toWorld.Mul4x1(view).Vec3()
	return pick.NewRay(eye, dir), true
}
