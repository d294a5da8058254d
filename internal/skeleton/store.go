package skeleton

import (
	"fmt"
	"strings"

	"mu-skeleton/internal/mathutil"
)

// AddBone appends a bone with identity rest and pose. The name must be
// non-empty, unique and free of ':' and '/' so it can appear in node paths.
func (s *Skeleton) AddBone(name string) error {
	if name == "" || strings.ContainsAny(name, ":/") {
		return fmt.Errorf("skeleton: add bone %q: %w", name, ErrInvalidName)
	}
	if s.FindBone(name) != NotFound {
		return fmt.Errorf("skeleton: add bone %q: %w", name, ErrDuplicateName)
	}

	s.bones = append(s.bones, newBone(name))
	s.orderDirty = true
	s.version++
	s.makeDirty()
	return nil
}

// FindBone returns the index of the bone with exactly this name, or NotFound.
func (s *Skeleton) FindBone(name string) int {
	for i := range s.bones {
		if s.bones[i].name == name {
			return i
		}
	}
	return NotFound
}

// BoneCount returns the number of bones.
func (s *Skeleton) BoneCount() int {
	return len(s.bones)
}

// BoneName returns the name of a bone.
func (s *Skeleton) BoneName(bone int) (string, error) {
	if !s.validIndex(bone) {
		return "", s.rangeErr("bone name", bone)
	}
	return s.bones[bone].name, nil
}

// SetBoneParent reparents a bone. parent may be NotFound for a root, or any
// valid index. Cycles, including a bone parented to itself, are accepted
// here and handled when the process order is resolved.
func (s *Skeleton) SetBoneParent(bone, parent int) error {
	if !s.validIndex(bone) {
		return s.rangeErr("set bone parent", bone)
	}
	if parent != NotFound && !s.validIndex(parent) {
		return fmt.Errorf("skeleton: set bone parent %d -> %d: %w", bone, parent, ErrInvalidParent)
	}

	s.bones[bone].parent = parent
	s.bones[bone].dirty = true
	s.orderDirty = true
	s.makeDirty()
	return nil
}

// BoneParent returns a bone's parent index, NotFound for roots.
func (s *Skeleton) BoneParent(bone int) (int, error) {
	if !s.validIndex(bone) {
		return NotFound, s.rangeErr("bone parent", bone)
	}
	return s.bones[bone].parent, nil
}

// BoneChildren returns the indices of bones whose parent is bone.
func (s *Skeleton) BoneChildren(bone int) ([]int, error) {
	if !s.validIndex(bone) {
		return nil, s.rangeErr("bone children", bone)
	}
	var out []int
	for i := range s.bones {
		if s.bones[i].parent == bone {
			out = append(out, i)
		}
	}
	return out, nil
}

// ParentlessBones returns the indices of root bones.
func (s *Skeleton) ParentlessBones() []int {
	var out []int
	for i := range s.bones {
		if s.bones[i].parent == NotFound {
			out = append(out, i)
		}
	}
	return out
}

func (s *Skeleton) SetBoneRest(bone int, rest mathutil.Transform) error {
	if !s.validIndex(bone) {
		return s.rangeErr("set bone rest", bone)
	}
	s.bones[bone].rest = rest
	s.markBone(bone)
	return nil
}

func (s *Skeleton) BoneRest(bone int) (mathutil.Transform, error) {
	if !s.validIndex(bone) {
		return mathutil.Identity(), s.rangeErr("bone rest", bone)
	}
	return s.bones[bone].rest, nil
}

func (s *Skeleton) SetBonePose(bone int, pose mathutil.Transform) error {
	if !s.validIndex(bone) {
		return s.rangeErr("set bone pose", bone)
	}
	s.bones[bone].pose = pose
	s.markBone(bone)
	return nil
}

func (s *Skeleton) BonePose(bone int) (mathutil.Transform, error) {
	if !s.validIndex(bone) {
		return mathutil.Identity(), s.rangeErr("bone pose", bone)
	}
	return s.bones[bone].pose, nil
}

// SetBoneEnabled toggles whether the bone's pose is applied. The rest
// transform is still applied while disabled.
func (s *Skeleton) SetBoneEnabled(bone int, enabled bool) error {
	if !s.validIndex(bone) {
		return s.rangeErr("set bone enabled", bone)
	}
	s.bones[bone].enabled = enabled
	s.markBone(bone)
	return nil
}

func (s *Skeleton) IsBoneEnabled(bone int) (bool, error) {
	if !s.validIndex(bone) {
		return false, s.rangeErr("bone enabled", bone)
	}
	return s.bones[bone].enabled, nil
}

// SetBoneDisableRest makes evaluation skip the bone's rest transform.
func (s *Skeleton) SetBoneDisableRest(bone int, disable bool) error {
	if !s.validIndex(bone) {
		return s.rangeErr("set bone disable rest", bone)
	}
	s.bones[bone].disableRest = disable
	s.markBone(bone)
	return nil
}

func (s *Skeleton) IsBoneRestDisabled(bone int) (bool, error) {
	if !s.validIndex(bone) {
		return false, s.rangeErr("bone disable rest", bone)
	}
	return s.bones[bone].disableRest, nil
}

// ResetBonePoses sets every bone's pose back to identity and drops any
// global pose override.
func (s *Skeleton) ResetBonePoses() {
	for i := range s.bones {
		b := &s.bones[i]
		b.pose = mathutil.Identity()
		b.overridePose = mathutil.Identity()
		b.overrideAmount = 0
		b.overridePersistent = false
		b.dirty = true
	}
	if len(s.bones) > 0 {
		s.makeDirty()
	}
}

// ancestors returns the bone's parent chain, nearest first. The walk stops
// at a root, at an out-of-range parent, or where the chain loops back on
// itself.
func (s *Skeleton) ancestors(bone int) []int {
	var out []int
	seen := make([]bool, len(s.bones))
	seen[bone] = true
	for parent := s.bones[bone].parent; s.validIndex(parent) && !seen[parent]; parent = s.bones[parent].parent {
		seen[parent] = true
		out = append(out, parent)
	}
	return out
}

// IsBoneParentOf reports whether ancestor appears anywhere in the bone's
// parent chain.
func (s *Skeleton) IsBoneParentOf(bone, ancestor int) (bool, error) {
	if !s.validIndex(bone) {
		return false, s.rangeErr("is bone parent of", bone)
	}
	for _, a := range s.ancestors(bone) {
		if a == ancestor {
			return true, nil
		}
	}
	return false, nil
}

// BoneGlobalRest composes the bone's rest with every ancestor's rest,
// yielding the rest transform in skeleton space. A cyclic chain contributes
// each bone once.
func (s *Skeleton) BoneGlobalRest(bone int) (mathutil.Transform, error) {
	if !s.validIndex(bone) {
		return mathutil.Identity(), s.rangeErr("bone global rest", bone)
	}
	t := s.bones[bone].rest
	for _, a := range s.ancestors(bone) {
		t = s.bones[a].rest.Mul(t)
	}
	return t, nil
}

// UnparentBoneAndRest detaches a bone from its parent while keeping its
// skeleton-space rest transform: the ancestor rests are folded into the
// bone's own rest, nearest parent first. Roots are left unchanged.
func (s *Skeleton) UnparentBoneAndRest(bone int) error {
	if !s.validIndex(bone) {
		return s.rangeErr("unparent bone", bone)
	}

	// Resolve first so out-of-range parents are already reset to root.
	s.resolveOrder()

	b := &s.bones[bone]
	if b.parent == NotFound {
		return nil
	}

	for _, a := range s.ancestors(bone) {
		b.rest = s.bones[a].rest.Mul(b.rest)
	}
	b.parent = NotFound
	b.dirty = true

	s.orderDirty = true
	s.makeDirty()
	return nil
}

// LocalizeRests converts rests that were authored in skeleton space into
// parent-relative rests. Bones are visited children first so every parent
// rest is still global when its children are converted.
func (s *Skeleton) LocalizeRests() {
	s.resolveOrder()
	for i := len(s.processOrder) - 1; i >= 0; i-- {
		idx := s.processOrder[i]
		b := &s.bones[idx]
		if b.parent == NotFound {
			continue
		}
		b.rest = s.bones[b.parent].rest.Inverse().Mul(b.rest)
		s.markBone(idx)
	}
}

// ClearBones removes every bone. Bound nodes and overrides go with them.
func (s *Skeleton) ClearBones() {
	s.bones = nil
	s.processOrder = nil
	s.orderDirty = true
	s.version++
	s.makeDirty()
}

func (s *Skeleton) markBone(bone int) {
	s.bones[bone].dirty = true
	s.makeDirty()
}

func (s *Skeleton) rangeErr(op string, bone int) error {
	return fmt.Errorf("skeleton: %s %d (count %d): %w", op, bone, len(s.bones), ErrIndexOutOfRange)
}
