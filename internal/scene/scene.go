package scene

// Scene owns the root of the node tree that gets drawn
type Scene struct {
	Root *Node
}

// New creates an empty scene
func New() *Scene {
	return &Scene{Root: NewGroup("scene")}
}

// Add attaches n directly under the root
func (s *Scene) Add(n *Node) {
	s.Root.Add(n)
}

// Remove detaches a direct child of the root. It reports whether n was attached.
func (s *Scene) Remove(n *Node) bool {
	if n == nil {
		return false
	}
	return s.Root.Remove(n)
}

// Contains reports whether n is a direct child of the root
func (s *Scene) Contains(n *Node) bool {
	if n == nil {
		return false
	}
	for _, c := range s.Root.Children {
		if c == n {
			return true
		}
	}
	return false
}

// Meshes returns every mesh node currently reachable from the root
func (s *Scene) Meshes() []*Node {
	var out []*Node
	s.Root.traverseVisible(func(n *Node) {
		if n.Kind == KindMesh {
			out = append(out, n)
		}
	})
	return out
}

// LineNodes returns every line node currently reachable from the root
func (s *Scene) LineNodes() []*Node {
	var out []*Node
	s.Root.traverseVisible(func(n *Node) {
		if n.Kind == KindLines {
			out = append(out, n)
		}
	})
	return out
}

func (n *Node) traverseVisible(fn func(*Node)) {
	if !n.Visible {
		return
	}
	fn(n)
	for _, c := range n.Children {
		c.traverseVisible(fn)
	}
}
