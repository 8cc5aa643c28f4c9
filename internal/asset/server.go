// Package asset is the shared resource registry: immutable meshes and
// materials published once and handed to background jobs by clone.
package asset

// Mesh describes a renderable shape. The display layer interprets it.
type Mesh struct {
	Shape string     // "cuboid", "sphere", ...
	Size  [3]float32 // extents along x, y, z
}

// Material describes a surface appearance as linear RGBA.
type Material struct {
	Color [4]float32
}

// Server owns one Store per asset type. It lives as long as the scheduler
// that was built with it.
type Server struct {
	Meshes    *Store[Mesh]
	Materials *Store[Material]
}

func NewServer() *Server {
	return &Server{
		Meshes:    NewStore[Mesh]("mesh"),
		Materials: NewStore[Material]("material"),
	}
}
