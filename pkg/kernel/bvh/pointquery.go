package bvh

import "github.com/chazu/resin/pkg/kernel"

// PointQuery walks the tree around q.Point, visiting the primitives
// of every leaf whose bounds lie within the current radius. The
// radius is re-read after every visit, so a shrinking visitor prunes
// the remaining traversal.
func (t *Tree) PointQuery(q *kernel.PointQuery, visit kernel.PointQueryFunc) {
	if t.root == nil {
		return
	}

	var stackArr [64]*node
	stack := append(stackArr[:0], t.root)

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if n.bounds.distanceSq(q.Point) > q.Radius*q.Radius {
			continue
		}

		if n.leaf() {
			for i := range n.prims {
				p := &n.prims[i]
				if p.bounds.distanceSq(q.Point) > q.Radius*q.Radius {
					continue
				}
				visit(p.geomID, p.primID)
			}
			continue
		}

		// Descend into the nearer child first so the radius shrinks
		// before the farther subtree is considered.
		ld := n.left.bounds.distanceSq(q.Point)
		rd := n.right.bounds.distanceSq(q.Point)
		if ld <= rd {
			stack = append(stack, n.right, n.left)
		} else {
			stack = append(stack, n.left, n.right)
		}
	}
}
