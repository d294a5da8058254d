package skeleton

import (
	"fmt"
	"math"

	"mu-skeleton/internal/mathutil"
)

// Evaluate runs one update tick. Bones are visited in process order; a bone
// is recomputed when it or any ancestor is dirty, otherwise its previous
// global pose is kept. Recomputed poses are pushed to bound nodes, then skin
// bindings are refreshed, then every dirty flag is cleared. The skeleton
// stays dirty while any skin binding could not be brought up to date.
//
// Getters never trigger evaluation; they return the result of the last tick.
func (s *Skeleton) Evaluate() {
	if !s.dirty {
		return
	}
	s.resolveOrder()

	recomputed := 0
	for _, idx := range s.processOrder {
		b := &s.bones[idx]

		parentGlobal := mathutil.Identity()
		if b.parent != NotFound {
			p := &s.bones[b.parent]
			b.dirty = b.dirty || p.dirty
			parentGlobal = p.globalFinal
		}
		if !b.dirty {
			continue
		}

		computed := parentGlobal
		if !b.disableRest {
			computed = computed.Mul(b.rest)
		}
		if b.enabled {
			computed = computed.Mul(b.pose)
		}
		b.globalNoOverride = computed

		switch a := b.overrideAmount; {
		case a >= 1-CMPEpsilon:
			b.globalFinal = b.overridePose
		case a >= CMPEpsilon:
			b.globalFinal = computed.InterpolateWith(b.overridePose, a)
		default:
			b.globalFinal = computed
		}
		if !b.overridePersistent {
			b.overrideAmount = 0
		}

		if s.nodeSink != nil {
			for _, id := range b.nodesBound {
				s.nodeSink.SetWorldTransform(id, b.globalFinal)
			}
		}
		recomputed++
	}

	s.updateSkins()

	for i := range s.bones {
		s.bones[i].dirty = false
	}
	// A binding left stale by a failed resize is retried next tick.
	s.dirty = s.skinsStale()

	if s.hooks.OnEvaluate != nil {
		s.hooks.OnEvaluate(recomputed)
	}
}

// BoneGlobalPose returns the skeleton-space pose computed by the last
// Evaluate, including any override.
func (s *Skeleton) BoneGlobalPose(bone int) (mathutil.Transform, error) {
	if !s.validIndex(bone) {
		return mathutil.Identity(), s.rangeErr("bone global pose", bone)
	}
	return s.bones[bone].globalFinal, nil
}

// BoneGlobalPoseNoOverride returns the last evaluated pose before override
// blending.
func (s *Skeleton) BoneGlobalPoseNoOverride(bone int) (mathutil.Transform, error) {
	if !s.validIndex(bone) {
		return mathutil.Identity(), s.rangeErr("bone global pose no override", bone)
	}
	return s.bones[bone].globalNoOverride, nil
}

// PoseOverride describes a global pose override on one bone.
type PoseOverride struct {
	Pose       mathutil.Transform
	Amount     float64
	Persistent bool
}

// SetBoneGlobalPoseOverride blends pose into the bone's evaluated global pose
// by amount, clamped to [0,1]. A non-persistent override applies to the next
// recomputation of the bone only.
func (s *Skeleton) SetBoneGlobalPoseOverride(bone int, pose mathutil.Transform, amount float64, persistent bool) error {
	if !s.validIndex(bone) {
		return s.rangeErr("set bone global pose override", bone)
	}
	if math.IsNaN(amount) {
		return fmt.Errorf("skeleton: set bone global pose override %d: amount is NaN: %w", bone, ErrTypeMismatch)
	}
	amount = min(max(amount, 0), 1)

	b := &s.bones[bone]
	b.overridePose = pose
	b.overrideAmount = amount
	b.overridePersistent = persistent
	s.markBone(bone)
	return nil
}

// BoneGlobalPoseOverride returns the override currently set on a bone.
func (s *Skeleton) BoneGlobalPoseOverride(bone int) (PoseOverride, error) {
	if !s.validIndex(bone) {
		return PoseOverride{}, s.rangeErr("bone global pose override", bone)
	}
	b := &s.bones[bone]
	return PoseOverride{Pose: b.overridePose, Amount: b.overrideAmount, Persistent: b.overridePersistent}, nil
}

// ClearBoneGlobalPoseOverrides drops every override.
func (s *Skeleton) ClearBoneGlobalPoseOverrides() {
	for i := range s.bones {
		if s.bones[i].overrideAmount > 0 {
			s.bones[i].overrideAmount = 0
			s.markBone(i)
		}
	}
}

// BoneToWorld maps a skeleton-space transform into world space using the
// skeleton's global transform.
func (s *Skeleton) BoneToWorld(t mathutil.Transform) mathutil.Transform {
	return s.global.Mul(t)
}

// WorldToBone maps a world-space transform into skeleton space.
func (s *Skeleton) WorldToBone(t mathutil.Transform) mathutil.Transform {
	return s.global.Inverse().Mul(t)
}
