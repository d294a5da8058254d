package skeleton

import "slices"

// BindNode attaches an external node to a bone so it receives the bone's
// global pose whenever the bone is recomputed. Binding twice is a no-op.
func (s *Skeleton) BindNode(bone int, id NodeID) error {
	if !s.validIndex(bone) {
		return s.rangeErr("bind node", bone)
	}
	b := &s.bones[bone]
	if slices.Contains(b.nodesBound, id) {
		return nil
	}
	b.nodesBound = append(b.nodesBound, id)
	return nil
}

// UnbindNode detaches a node from a bone. Unknown ids are ignored.
func (s *Skeleton) UnbindNode(bone int, id NodeID) error {
	if !s.validIndex(bone) {
		return s.rangeErr("unbind node", bone)
	}
	b := &s.bones[bone]
	if i := slices.Index(b.nodesBound, id); i >= 0 {
		b.nodesBound = slices.Delete(b.nodesBound, i, i+1)
	}
	return nil
}

// BoundNodes returns the nodes attached to a bone in binding order.
func (s *Skeleton) BoundNodes(bone int) ([]NodeID, error) {
	if !s.validIndex(bone) {
		return nil, s.rangeErr("bound nodes", bone)
	}
	return slices.Clone(s.bones[bone].nodesBound), nil
}

// NodeRemoved is the scene graph's notification that a node is gone. The
// node is unbound from every bone.
func (s *Skeleton) NodeRemoved(id NodeID) {
	for i := range s.bones {
		b := &s.bones[i]
		b.nodesBound = slices.DeleteFunc(b.nodesBound, func(n NodeID) bool { return n == id })
	}
}
