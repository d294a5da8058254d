package skeleton

import (
	"fmt"

	"mu-skeleton/internal/mathutil"
)

// SkinBind maps one skinning-buffer slot to a bone. When Name is set the
// bone is looked up by name, otherwise Bone is used as an index. A negative
// Bone with no Name resolves to bone 0. Pose is the
// bind-pose offset applied after the bone's global pose.
type SkinBind struct {
	Name string             `json:"name,omitempty" yaml:"name,omitempty"`
	Bone int                `json:"bone" yaml:"bone"`
	Pose mathutil.Transform `json:"pose" yaml:"pose"`
}

// Skin is a skin descriptor shared by any number of skeletons. Mutating it
// notifies every binding that uses it.
type Skin struct {
	binds     []SkinBind
	listeners map[*SkinBinding]func()
}

// NewSkin creates an empty skin.
func NewSkin() *Skin {
	return &Skin{listeners: make(map[*SkinBinding]func())}
}

// AddBind appends a bind point resolved by bone index.
func (k *Skin) AddBind(bone int, pose mathutil.Transform) int {
	k.binds = append(k.binds, SkinBind{Bone: bone, Pose: pose})
	k.Changed()
	return len(k.binds) - 1
}

// AddNamedBind appends a bind point resolved by bone name.
func (k *Skin) AddNamedBind(name string, pose mathutil.Transform) int {
	k.binds = append(k.binds, SkinBind{Name: name, Pose: pose})
	k.Changed()
	return len(k.binds) - 1
}

// SetBindPose replaces the bind-pose offset of one bind point.
func (k *Skin) SetBindPose(i int, pose mathutil.Transform) error {
	if i < 0 || i >= len(k.binds) {
		return fmt.Errorf("skin: set bind pose %d (count %d): %w", i, len(k.binds), ErrIndexOutOfRange)
	}
	k.binds[i].Pose = pose
	k.Changed()
	return nil
}

// BindCount returns the number of bind points.
func (k *Skin) BindCount() int {
	return len(k.binds)
}

// Bind returns one bind point.
func (k *Skin) Bind(i int) (SkinBind, error) {
	if i < 0 || i >= len(k.binds) {
		return SkinBind{}, fmt.Errorf("skin: bind %d (count %d): %w", i, len(k.binds), ErrIndexOutOfRange)
	}
	return k.binds[i], nil
}

// Changed notifies every binding using this skin that its bind data is stale.
// Call it after the skin is modified outside its own setters or before it is
// discarded.
func (k *Skin) Changed() {
	for _, fn := range k.listeners {
		fn()
	}
}

func (k *Skin) subscribe(sb *SkinBinding, fn func()) {
	if k.listeners == nil {
		k.listeners = make(map[*SkinBinding]func())
	}
	k.listeners[sb] = fn
}

func (k *Skin) unsubscribe(sb *SkinBinding) {
	delete(k.listeners, sb)
}

// SkinBinding ties a Skin to a Skeleton and a skinning buffer. The skeleton
// keeps it in its registry until the last Release.
type SkinBinding struct {
	handle   SkinHandle
	skin     *Skin
	skeleton *Skeleton
	refs     int

	skeletonVersion uint64
	allocated       int
	bindBones       []int
}

func (sb *SkinBinding) Handle() SkinHandle { return sb.handle }
func (sb *SkinBinding) Skin() *Skin        { return sb.skin }

// BindBones returns the bone index each bind point resolved to on the last
// full update.
func (sb *SkinBinding) BindBones() []int {
	out := make([]int, len(sb.bindBones))
	copy(out, sb.bindBones)
	return out
}

// Retain adds a reference.
func (sb *SkinBinding) Retain() {
	sb.refs++
}

// Release drops a reference. The last release removes the binding from its
// skeleton and releases the skinning buffer.
func (sb *SkinBinding) Release() {
	if sb.refs <= 0 {
		return
	}
	sb.refs--
	if sb.refs == 0 {
		sb.skeleton.unregisterSkin(sb)
	}
}

// RegisterSkin binds a skin to this skeleton. Registering a skin that is
// already bound returns the existing binding with an extra reference. A nil
// skin yields a fresh default skin built from the current rest pose.
func (s *Skeleton) RegisterSkin(skin *Skin) (*SkinBinding, error) {
	if skin != nil {
		for _, sb := range s.skins {
			if sb.skin == skin {
				sb.Retain()
				return sb, nil
			}
		}
	} else {
		skin = s.restSkin()
	}

	h := s.nextHandle
	if err := s.skinSink.Allocate(h, skin.BindCount()); err != nil {
		return nil, fmt.Errorf("skeleton: register skin: %w", err)
	}
	s.nextHandle++

	sb := &SkinBinding{
		handle:    h,
		skin:      skin,
		skeleton:  s,
		refs:      1,
		allocated: skin.BindCount(),
	}
	skin.subscribe(sb, func() { s.skinChanged(sb) })
	s.skins = append(s.skins, sb)
	s.makeDirty()
	return sb, nil
}

// Skins returns the registered bindings in registration order.
func (s *Skeleton) Skins() []*SkinBinding {
	out := make([]*SkinBinding, len(s.skins))
	copy(out, s.skins)
	return out
}

// restSkin builds a skin whose bind poses are the inverse of each bone's
// skeleton-space rest, so an unposed skeleton skins to identity.
func (s *Skeleton) restSkin() *Skin {
	s.resolveOrder()

	globals := make([]mathutil.Transform, len(s.bones))
	for i := range globals {
		globals[i] = mathutil.Identity()
	}
	for _, idx := range s.processOrder {
		b := &s.bones[idx]
		if b.parent != NotFound {
			globals[idx] = globals[b.parent].Mul(b.rest)
		} else {
			globals[idx] = b.rest
		}
	}

	skin := NewSkin()
	for i, g := range globals {
		skin.binds = append(skin.binds, SkinBind{Bone: i, Pose: g.Inverse()})
	}
	return skin
}

func (s *Skeleton) skinChanged(sb *SkinBinding) {
	sb.skeletonVersion = 0
	s.makeDirty()
}

func (s *Skeleton) unregisterSkin(sb *SkinBinding) {
	for i, cur := range s.skins {
		if cur == sb {
			s.skins = append(s.skins[:i], s.skins[i+1:]...)
			break
		}
	}
	sb.skin.unsubscribe(sb)
	s.skinSink.Release(sb.handle)
}

// updateSkins writes bone poses into each binding's buffer. A binding whose
// skeleton version is stale gets its bind-to-bone table rebuilt and every
// slot rewritten; otherwise only slots whose bone was recomputed this tick.
func (s *Skeleton) updateSkins() {
	for _, sb := range s.skins {
		full := sb.skeletonVersion != s.version
		if full {
			count := sb.skin.BindCount()
			if count != sb.allocated {
				if err := s.skinSink.Allocate(sb.handle, count); err != nil {
					s.report(Diagnostic{
						Kind:    DiagSkinAllocation,
						Bone:    -1,
						Parent:  -1,
						Bind:    -1,
						Message: fmt.Sprintf("resize skin %d to %d binds: %v", sb.handle, count, err),
					})
					continue
				}
				sb.allocated = count
			}
			s.resolveBinds(sb)
			sb.skeletonVersion = s.version
		}
		if len(s.bones) == 0 {
			continue
		}

		for i, bi := range sb.bindBones {
			b := &s.bones[bi]
			if !full && !b.dirty {
				continue
			}
			s.skinSink.Write(sb.handle, i, b.globalFinal.Mul(sb.skin.binds[i].Pose))
		}
	}
}

func (s *Skeleton) skinsStale() bool {
	for _, sb := range s.skins {
		if sb.skeletonVersion != s.version {
			return true
		}
	}
	return false
}

func (s *Skeleton) resolveBinds(sb *SkinBinding) {
	binds := sb.skin.binds
	sb.bindBones = make([]int, len(binds))
	for i, bind := range binds {
		bi := bind.Bone
		if bind.Name != "" {
			bi = s.FindBone(bind.Name)
			if bi == NotFound {
				s.report(Diagnostic{
					Kind:    DiagUnresolvedBind,
					Bone:    0,
					Parent:  -1,
					Bind:    i,
					Message: fmt.Sprintf("skin bind %d names unknown bone %q, using bone 0", i, bind.Name),
				})
				bi = 0
			}
		} else if bi < 0 {
			s.report(Diagnostic{
				Kind:    DiagUnresolvedBind,
				Bone:    0,
				Parent:  -1,
				Bind:    i,
				Message: fmt.Sprintf("skin bind %d has neither a name nor a bone index, using bone 0", i),
			})
			bi = 0
		} else if !s.validIndex(bi) {
			s.report(Diagnostic{
				Kind:    DiagUnresolvedBind,
				Bone:    0,
				Parent:  -1,
				Bind:    i,
				Message: fmt.Sprintf("skin bind %d references bone %d outside [0,%d), using bone 0", i, bi, len(s.bones)),
			})
			bi = 0
		}
		sb.bindBones[i] = bi
	}
}
