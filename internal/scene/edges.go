package scene

import (
	"errors"
	"fmt"
	"math"

	"github.com/philipparndt/goifc/pkg/geometry"
)

// ErrNoEdges is returned for geometry that has no usable triangles
var ErrNoEdges = errors.New("geometry has no edges")

// DefaultEdgeThreshold is the crease angle in degrees above which an edge is drawn
const DefaultEdgeThreshold = 15.0

type edgeKey struct {
	a, b [3]int64
}

type halfEdge struct {
	a, b   geometry.Vector3
	normal geometry.Vector3
}

// Edges returns outline segments of g as point pairs: every boundary edge plus every
// edge whose adjacent faces meet at more than thresholdDeg degrees. Vertices closer
// than 1e-4 are merged before comparing faces.
func Edges(g *Geometry, thresholdDeg float64) ([]geometry.Vector3, error) {
	if g == nil || g.TriangleCount() == 0 {
		return nil, ErrNoEdges
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("edges: %w", err)
	}

	cosThreshold := math.Cos(thresholdDeg * math.Pi / 180)
	open := make(map[edgeKey]halfEdge)
	var keys []edgeKey // preserves first-seen order for deterministic output
	var segments []geometry.Vector3

	for t := 0; t < g.TriangleCount(); t++ {
		tri := g.Triangle(t)
		normal := tri.Normal()
		if normal.IsZero() {
			continue
		}
		verts := [3]geometry.Vector3{tri.V1, tri.V2, tri.V3}
		for i := 0; i < 3; i++ {
			a, b := verts[i], verts[(i+1)%3]
			ha, hb := quantize(a), quantize(b)
			if ha == hb {
				continue
			}
			reverse := edgeKey{a: hb, b: ha}
			if other, ok := open[reverse]; ok {
				if normal.Dot(other.normal) <= cosThreshold {
					segments = append(segments, other.a, other.b)
				}
				delete(open, reverse)
				continue
			}
			key := edgeKey{a: ha, b: hb}
			if _, dup := open[key]; !dup {
				keys = append(keys, key)
			}
			open[key] = halfEdge{a: a, b: b, normal: normal}
		}
	}

	for _, k := range keys {
		if e, ok := open[k]; ok {
			segments = append(segments, e.a, e.b)
		}
	}

	if len(segments) == 0 {
		return nil, ErrNoEdges
	}
	return segments, nil
}

func quantize(v geometry.Vector3) [3]int64 {
	const precision = 1e4
	return [3]int64{
		int64(math.Round(v.X * precision)),
		int64(math.Round(v.Y * precision)),
		int64(math.Round(v.Z * precision)),
	}
}
