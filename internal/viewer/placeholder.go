package viewer

import (
	"github.com/philipparndt/goifc/internal/scene"
	"github.com/philipparndt/goifc/pkg/geometry"
)

// PlaceholderName names the demo box shown before the first file is opened
const PlaceholderName = "placeholder"

// NewPlaceholder builds the 5x5x5 demo box resting on the ground with a white outline
func NewPlaceholder() *scene.Node {
	mat := scene.NewStandardMaterial()
	mat.SetColor(scene.Hex(0x0066ff))
	mat.Metalness = 0.3
	mat.Roughness = 0.6

	geom := scene.BoxGeometry(5, 5, 5)
	box := scene.NewMesh(PlaceholderName, geom, mat)
	box.SetPosition(geometry.NewVector3(0, 2.5, 0))
	box.Mesh.CastShadow = true
	box.Mesh.ReceiveShadow = true

	// every face of a box is a crease, so any threshold gives the 12 edges
	if segments, err := scene.Edges(geom, 1); err == nil {
		box.Add(scene.NewLines(PlaceholderName+"-edges", segments, scene.NewLineMaterial(scene.Hex(0xffffff), 1)))
	}
	return box
}
