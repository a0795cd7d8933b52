package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEdgesOfBoxKeepsOnlyCreases(t *testing.T) {
	segments, err := Edges(BoxGeometry(2, 2, 2), DefaultEdgeThreshold)
	require.NoError(t, err)

	// 12 box edges, face diagonals are coplanar and dropped
	assert.Len(t, segments, 24)
}

func TestEdgesOfQuadAreBoundary(t *testing.T) {
	g := &Geometry{
		Positions: []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0},
		Indices:   []uint32{0, 1, 2, 0, 2, 3},
	}

	segments, err := Edges(g, DefaultEdgeThreshold)
	require.NoError(t, err)
	assert.Len(t, segments, 8)
}

func TestEdgesFailsOnDegenerateGeometry(t *testing.T) {
	_, err := Edges(&Geometry{}, DefaultEdgeThreshold)
	assert.ErrorIs(t, err, ErrNoEdges)

	flat := &Geometry{Positions: []float32{0, 0, 0, 1, 1, 1, 2, 2, 2}}
	_, err = Edges(flat, DefaultEdgeThreshold)
	assert.ErrorIs(t, err, ErrNoEdges)
}

func TestEdgesRejectsInvalidIndices(t *testing.T) {
	g := &Geometry{
		Positions: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
		Indices:   []uint32{0, 1, 5},
	}
	_, err := Edges(g, DefaultEdgeThreshold)
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}
