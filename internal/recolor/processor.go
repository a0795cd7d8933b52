package recolor

import (
	"context"
	"errors"
	"log/slog"

	"github.com/philipparndt/goifc/internal/scene"
)

// Edge line appearance
const (
	EdgeColor   = 0x000000
	EdgeOpacity = 0.3
)

// Processor runs a strategy over a loaded tree and optionally collects outline edges
type Processor struct {
	Strategy Strategy
	Edges    bool
	// EdgeThreshold is the crease angle in degrees; 0 means scene.DefaultEdgeThreshold
	EdgeThreshold float64
}

// Result of a Process run
type Result struct {
	Meshes int
	// EdgeGroup holds one line node per mesh, in scene space. It is nil when
	// edges are disabled.
	EdgeGroup *scene.Node
}

// Process recolors root in place and builds its edge group
func (p *Processor) Process(ctx context.Context, root *scene.Node, model ModelRef) (*Result, error) {
	strategy := p.Strategy
	if strategy == nil {
		strategy = StyleAware{}
	}
	if err := strategy.Apply(ctx, root, model); err != nil {
		return nil, err
	}

	res := &Result{Meshes: scene.CountMeshes(root)}
	if !p.Edges {
		return res, nil
	}

	threshold := p.EdgeThreshold
	if threshold <= 0 {
		threshold = scene.DefaultEdgeThreshold
	}
	group := scene.NewGroup("edges")
	skipped := 0
	err := scene.Walk(ctx, root, scene.MeshFunc(func(_ context.Context, n *scene.Node) error {
		segments, err := scene.Edges(n.Mesh.Geometry, threshold)
		if err != nil {
			if !errors.Is(err, scene.ErrNoEdges) {
				skipped++
			}
			return nil
		}
		lines := scene.NewLines(n.Name, segments, scene.NewLineMaterial(scene.Hex(EdgeColor), EdgeOpacity))
		lines.Transform = n.WorldMatrix()
		group.Add(lines)
		return nil
	}))
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		slog.Debug("skipped meshes without usable edges", "count", skipped)
	}
	res.EdgeGroup = group
	return res, nil
}
