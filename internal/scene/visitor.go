package scene

import "context"

// Visitor receives the nodes of a walk, dispatched on Node.Kind.
// Line nodes carry no material worth visiting and are skipped.
type Visitor interface {
	VisitGroup(ctx context.Context, n *Node) error
	VisitMesh(ctx context.Context, n *Node) error
}

// Walk visits n and its descendants depth-first in child order. Mesh
// children are walked too, matching loaders that nest meshes under meshes.
// The walk stops at the first error or when ctx is done.
func Walk(ctx context.Context, n *Node, v Visitor) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var err error
	switch n.Kind {
	case KindGroup:
		err = v.VisitGroup(ctx, n)
	case KindMesh:
		err = v.VisitMesh(ctx, n)
	}
	if err != nil {
		return err
	}

	// copy so visitors may attach siblings without disturbing the walk
	children := append([]*Node(nil), n.Children...)
	for _, c := range children {
		if err := Walk(ctx, c, v); err != nil {
			return err
		}
	}
	return nil
}

// MeshFunc adapts a function to a Visitor that ignores groups
type MeshFunc func(ctx context.Context, n *Node) error

func (f MeshFunc) VisitGroup(context.Context, *Node) error { return nil }

func (f MeshFunc) VisitMesh(ctx context.Context, n *Node) error { return f(ctx, n) }
