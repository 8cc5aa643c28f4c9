package data

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidScene wraps every validation failure of a scene file.
var ErrInvalidScene = errors.New("invalid scene")

// MeshDef registers one mesh under Key.
type MeshDef struct {
	Key   string     `yaml:"key"`
	Shape string     `yaml:"shape"`
	Size  [3]float32 `yaml:"size"`
}

// MaterialDef registers one material under Key. Color is linear RGBA.
type MaterialDef struct {
	Key   string     `yaml:"key"`
	Color [4]float32 `yaml:"color"`
}

// GridDef is the cube of background jobs spawned when the menu opens.
type GridDef struct {
	Size     int     `yaml:"size"`     // jobs per axis
	Spacing  float32 `yaml:"spacing"`  // world units between cells
	Mesh     string  `yaml:"mesh"`     // MeshDef key used by every cube
	Material string  `yaml:"material"` // MaterialDef key used by every cube
}

type CameraDef struct {
	Distance float32 `yaml:"distance"` // along +z from the grid center
	Order    int     `yaml:"order"`
}

type LightDef struct {
	Position  [3]float32 `yaml:"position"`
	Intensity float32    `yaml:"intensity"`
}

// SceneDef is the menu screen layout loaded from scene.yaml.
type SceneDef struct {
	Grid      GridDef       `yaml:"grid"`
	Meshes    []MeshDef     `yaml:"meshes"`
	Materials []MaterialDef `yaml:"materials"`
	Camera    CameraDef     `yaml:"camera"`
	Light     LightDef      `yaml:"light"`
	Panels    []string      `yaml:"panels"` // UI panel names under the menu root
}

// LoadScene loads and validates a scene file.
func LoadScene(path string) (*SceneDef, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	def := &SceneDef{
		Grid:   GridDef{Size: 6, Spacing: 1},
		Camera: CameraDef{Distance: 15, Order: 1},
		Light:  LightDef{Position: [3]float32{4, 12, 15}, Intensity: 1500},
	}
	if err := yaml.Unmarshal(raw, def); err != nil {
		return nil, fmt.Errorf("parse scene %s: %w", path, err)
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	return def, nil
}

// Validate checks that the grid references registered assets.
func (d *SceneDef) Validate() error {
	if d.Grid.Size <= 0 {
		return fmt.Errorf("%w: grid.size must be positive", ErrInvalidScene)
	}
	meshes := make(map[string]bool, len(d.Meshes))
	for _, m := range d.Meshes {
		if m.Key == "" {
			return fmt.Errorf("%w: mesh without key", ErrInvalidScene)
		}
		meshes[m.Key] = true
	}
	materials := make(map[string]bool, len(d.Materials))
	for _, m := range d.Materials {
		if m.Key == "" {
			return fmt.Errorf("%w: material without key", ErrInvalidScene)
		}
		materials[m.Key] = true
	}
	if !meshes[d.Grid.Mesh] {
		return fmt.Errorf("%w: grid.mesh %q is not defined", ErrInvalidScene, d.Grid.Mesh)
	}
	if !materials[d.Grid.Material] {
		return fmt.Errorf("%w: grid.material %q is not defined", ErrInvalidScene, d.Grid.Material)
	}
	return nil
}

// Cells returns the number of jobs the grid spawns.
func (d *SceneDef) Cells() int {
	return d.Grid.Size * d.Grid.Size * d.Grid.Size
}

// Center is the grid midpoint in cell units: n/2 - 0.5 for even n, n/2 for odd.
func (d *SceneDef) Center() float32 {
	n := d.Grid.Size
	if n%2 == 0 {
		return float32(n/2) - 0.5
	}
	return float32(n / 2)
}
