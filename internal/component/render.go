package component

import "github.com/cubefield/server/internal/asset"

// Renderable pairs a shape with an appearance. Both are shared handles.
type Renderable struct {
	Mesh     asset.Handle[asset.Mesh]
	Material asset.Handle[asset.Material]
}

// Camera is a viewpoint looking from its Transform toward Target.
type Camera struct {
	Target Vec3
	Order  int
}

// PointLight emits in every direction from its Transform.
type PointLight struct {
	Intensity float32
}

// UINode is an opaque widget owned by the UI collaborator.
type UINode struct {
	Name string
}
