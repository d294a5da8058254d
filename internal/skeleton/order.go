package skeleton

import "fmt"

// ProcessOrder returns bone indices ordered so that, for an acyclic
// hierarchy, every bone comes after its parent. The order is recomputed
// only after a structural change.
func (s *Skeleton) ProcessOrder() []int {
	s.resolveOrder()
	out := make([]int, len(s.processOrder))
	copy(out, s.processOrder)
	return out
}

// ProcessOrderAt returns the bone at position i of the process order.
func (s *Skeleton) ProcessOrderAt(i int) (int, error) {
	if !s.validIndex(i) {
		return NotFound, s.rangeErr("process order", i)
	}
	s.resolveOrder()
	return s.processOrder[i], nil
}

// resolveOrder runs bubble passes over the order array, swapping a bone with
// its parent whenever the parent sorts later. A valid order is reached when a
// pass makes no swap. A cyclic graph never stabilises, so passes are capped at
// N*N and the last order is kept.
func (s *Skeleton) resolveOrder() {
	if !s.orderDirty {
		return
	}

	n := len(s.bones)
	order := make([]int, n)
	for i := range s.bones {
		b := &s.bones[i]
		if b.parent != NotFound && !s.validIndex(b.parent) {
			s.report(Diagnostic{
				Kind:    DiagInvalidParent,
				Bone:    i,
				Parent:  b.parent,
				Bind:    -1,
				Message: fmt.Sprintf("bone %q has parent %d outside [0,%d), reset to root", b.name, b.parent, n),
			})
			b.parent = NotFound
		}
		order[i] = i
		b.sortIndex = i
	}

	maxPasses := n * n
	passes := 0
	stable := n == 0
	for !stable && passes < maxPasses {
		swapped := false
		for i := 0; i < n; i++ {
			parent := s.bones[order[i]].parent
			if parent == NotFound {
				continue
			}
			parentPos := s.bones[parent].sortIndex
			if parentPos > i {
				s.bones[order[i]].sortIndex = parentPos
				s.bones[parent].sortIndex = i
				order[i], order[parentPos] = order[parentPos], order[i]
				swapped = true
			}
		}
		if !swapped {
			stable = true
			break
		}
		passes++
	}

	cyclic := !stable
	if cyclic {
		s.report(Diagnostic{
			Kind:    DiagCyclicGraph,
			Bone:    -1,
			Parent:  -1,
			Bind:    -1,
			Message: fmt.Sprintf("parent graph is cyclic, order left unresolved after %d passes", passes),
		})
	}

	s.processOrder = order
	s.orderDirty = false
	if s.hooks.OnOrderResolved != nil {
		s.hooks.OnOrderResolved(passes, cyclic)
	}
}
