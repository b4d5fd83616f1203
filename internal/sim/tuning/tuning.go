package tuning

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"cubecheck.ai/internal/sim/camera"
	"cubecheck.ai/internal/sim/gen"
	"cubecheck.ai/internal/sim/grid"
	"cubecheck.ai/internal/sim/session"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	Puzzle     Puzzle `yaml:"puzzle"`
	Camera     Camera `yaml:"camera"`
	HitHistory int    `yaml:"hit_history"`

	// Seconds a disconnected session stays resumable in memory before only its snapshot remains.
	ResumeTTLSec int `yaml:"resume_ttl_sec"`
}

type Puzzle struct {
	MinCubes int `yaml:"min_cubes"`
	MaxCubes int `yaml:"max_cubes"`
	Removals int `yaml:"removals"`
	Decoys   int `yaml:"decoys"`
}

type Camera struct {
	Radius        float64 `yaml:"radius"`
	RotationSpeed float64 `yaml:"rotation_speed"`
	FovDeg        float64 `yaml:"fov_deg"`
	Theta         float64 `yaml:"theta"`
	Phi           float64 `yaml:"phi"`
}

func Defaults() Tuning {
	cam := camera.Default()
	g := gen.DefaultConfig()
	return Tuning{
		ProtocolVersion: "1.0",
		Puzzle:          Puzzle{MinCubes: g.MinCubes, MaxCubes: g.MaxCubes, Removals: g.Removals, Decoys: g.Decoys},
		Camera:          Camera{Radius: cam.Radius, RotationSpeed: cam.Speed, FovDeg: cam.FovDeg, Theta: cam.Theta, Phi: cam.Phi},
		HitHistory:      10,
		ResumeTTLSec:    600,
	}
}

// Load reads a tuning file on top of Defaults, so a file only needs the keys it changes.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	p := t.Puzzle
	if p.MinCubes < 1 || p.MaxCubes < p.MinCubes || p.MaxCubes > grid.Cells {
		return fmt.Errorf("puzzle: cube range [%d,%d] invalid", p.MinCubes, p.MaxCubes)
	}
	if p.Removals < 0 || p.Decoys < 0 {
		return fmt.Errorf("puzzle: removals and decoys must be >= 0")
	}
	c := t.Camera
	if c.Radius <= 0 {
		return fmt.Errorf("camera: radius must be > 0")
	}
	if c.FovDeg <= 0 || c.FovDeg >= 180 {
		return fmt.Errorf("camera: fov_deg %v out of range", c.FovDeg)
	}
	if c.Phi < camera.MinPhi || c.Phi > camera.MaxPhi {
		return fmt.Errorf("camera: phi %v outside [%v,%v]", c.Phi, camera.MinPhi, camera.MaxPhi)
	}
	if math.IsNaN(c.Theta) || math.IsNaN(c.RotationSpeed) {
		return fmt.Errorf("camera: NaN angle")
	}
	if t.HitHistory < 0 {
		return fmt.Errorf("hit_history must be >= 0")
	}
	return nil
}

// SessionConfig maps the tuning onto the session configuration.
func (t Tuning) SessionConfig() session.Config {
	cam := camera.Default()
	cam.Radius = t.Camera.Radius
	cam.Speed = t.Camera.RotationSpeed
	cam.FovDeg = t.Camera.FovDeg
	cam.Theta = t.Camera.Theta
	cam.Phi = t.Camera.Phi
	return session.Config{
		Gen: gen.Config{
			MinCubes: t.Puzzle.MinCubes,
			MaxCubes: t.Puzzle.MaxCubes,
			Removals: t.Puzzle.Removals,
			Decoys:   t.Puzzle.Decoys,
		},
		Camera:     cam,
		HitHistory: t.HitHistory,
	}
}
