// Package skeleton evaluates bone hierarchies: it stores bones in an
// append-only arena, resolves a parent-first process order, propagates dirty
// state from parents to children, blends global pose overrides and mirrors
// the resulting transforms into skin bindings and bound nodes.
//
// A Skeleton is owned by a single goroutine. Mutations and Evaluate must not
// run concurrently; callers that share one across goroutines serialise access.
package skeleton

import (
	"errors"
	"log/slog"

	"mu-skeleton/internal/logging"
	"mu-skeleton/internal/mathutil"
)

// NotFound is returned by FindBone when no bone matches. It doubles as the
// "no parent" marker.
const NotFound = -1

// CMPEpsilon bounds the override amount below which the computed pose is
// used untouched, and above 1-CMPEpsilon the override replaces it.
const CMPEpsilon = 1e-6

var (
	ErrInvalidName      = errors.New("invalid bone name")
	ErrDuplicateName    = errors.New("duplicate bone name")
	ErrIndexOutOfRange  = errors.New("bone index out of range")
	ErrInvalidParent    = errors.New("invalid parent index")
	ErrUnknownProperty  = errors.New("unknown property")
	ErrReadOnlyProperty = errors.New("read-only property")
	ErrTypeMismatch     = errors.New("property value type mismatch")
)

// NodeID identifies an externally owned scene object bound to a bone.
type NodeID uint64

// Hooks are optional callbacks fired synchronously from the evaluation pass.
type Hooks struct {
	// OnEvaluate runs once per Evaluate call that had work to do.
	OnEvaluate func(recomputed int)
	// OnOrderResolved runs after each process-order recomputation.
	OnOrderResolved func(passes int, cyclic bool)
	// OnDiagnostic runs for every auto-corrected structural fault.
	OnDiagnostic func(d Diagnostic)
}

// Skeleton holds bones and the state derived from them.
type Skeleton struct {
	bones   []bone
	version uint64
	global  mathutil.Transform

	processOrder []int
	orderDirty   bool
	dirty        bool

	skins      []*SkinBinding
	nextHandle SkinHandle
	skinSink   SkinSink
	nodeSink   NodeSink

	logger *slog.Logger
	hooks  Hooks
}

// Option configures a Skeleton.
type Option func(*Skeleton)

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Skeleton) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithHooks installs evaluation callbacks.
func WithHooks(h Hooks) Option {
	return func(s *Skeleton) { s.hooks = h }
}

// WithGlobalTransform places the skeleton in the world. BoneToWorld and
// WorldToBone convert through it.
func WithGlobalTransform(t mathutil.Transform) Option {
	return func(s *Skeleton) { s.global = t }
}

// WithSkinSink sets the skinning buffer collaborator.
func WithSkinSink(sink SkinSink) Option {
	return func(s *Skeleton) { s.skinSink = sink }
}

// WithNodeSink sets the receiver of bound-node transforms.
func WithNodeSink(sink NodeSink) Option {
	return func(s *Skeleton) { s.nodeSink = sink }
}

// New creates an empty skeleton.
func New(opts ...Option) *Skeleton {
	s := &Skeleton{
		version:    1,
		orderDirty: true,
		nextHandle: 1,
		skinSink:   NewMemorySkinSink(),
		global:     mathutil.Identity(),
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Version increments on every structural change (bone added, bones cleared).
func (s *Skeleton) Version() uint64 {
	return s.version
}

// SetGlobalTransform moves the skeleton in the world. Bone poses are
// skeleton-relative and are not re-evaluated.
func (s *Skeleton) SetGlobalTransform(t mathutil.Transform) {
	s.global = t
}

// GlobalTransform returns the skeleton's world transform.
func (s *Skeleton) GlobalTransform() mathutil.Transform {
	return s.global
}

// IsDirty reports whether the next Evaluate has work to do.
func (s *Skeleton) IsDirty() bool {
	return s.dirty
}

func (s *Skeleton) makeDirty() {
	s.dirty = true
}

func (s *Skeleton) validIndex(i int) bool {
	return i >= 0 && i < len(s.bones)
}

// bone is one joint. Fields are only touched through Skeleton methods.
type bone struct {
	name        string
	parent      int
	rest        mathutil.Transform
	pose        mathutil.Transform
	enabled     bool
	disableRest bool

	dirty bool

	overridePose       mathutil.Transform
	overrideAmount     float64
	overridePersistent bool

	globalFinal      mathutil.Transform
	globalNoOverride mathutil.Transform

	sortIndex  int
	nodesBound []NodeID
}

func newBone(name string) bone {
	return bone{
		name:             name,
		parent:           NotFound,
		rest:             mathutil.Identity(),
		pose:             mathutil.Identity(),
		enabled:          true,
		dirty:            true,
		overridePose:     mathutil.Identity(),
		globalFinal:      mathutil.Identity(),
		globalNoOverride: mathutil.Identity(),
	}
}
