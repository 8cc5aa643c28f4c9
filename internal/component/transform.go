package component

// Vec3 is a position or direction in world units.
type Vec3 struct {
	X, Y, Z float32
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

func (v Vec3) Scale(s float32) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Cell is an integer grid coordinate in the spawn cube.
type Cell struct {
	X, Y, Z int
}

// Transform places an entity in the world.
type Transform struct {
	Translation Vec3
}
