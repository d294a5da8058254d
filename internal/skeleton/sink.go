package skeleton

import "mu-skeleton/internal/mathutil"

// SkinHandle identifies a skin binding's buffer in the SkinSink. Handles are
// unique per Skeleton and never reused.
type SkinHandle uint64

// SkinSink owns skinning buffers. Allocate is also called to resize an
// existing buffer when a skin's bind count changes.
type SkinSink interface {
	Allocate(h SkinHandle, count int) error
	Write(h SkinHandle, index int, t mathutil.Transform)
	Release(h SkinHandle)
}

// NodeSink receives the global pose of bones that have bound nodes.
type NodeSink interface {
	SetWorldTransform(id NodeID, t mathutil.Transform)
}

// NodeSinkFunc adapts a function to NodeSink.
type NodeSinkFunc func(id NodeID, t mathutil.Transform)

func (f NodeSinkFunc) SetWorldTransform(id NodeID, t mathutil.Transform) {
	f(id, t)
}

// MemorySkinSink keeps skinning buffers in process memory.
type MemorySkinSink struct {
	// FailAllocate, when set, is returned from every Allocate call.
	FailAllocate error

	buffers map[SkinHandle][]mathutil.Transform
	writes  int
}

// NewMemorySkinSink creates an empty in-memory sink.
func NewMemorySkinSink() *MemorySkinSink {
	return &MemorySkinSink{buffers: make(map[SkinHandle][]mathutil.Transform)}
}

func (m *MemorySkinSink) Allocate(h SkinHandle, count int) error {
	if m.FailAllocate != nil {
		return m.FailAllocate
	}
	buf := m.buffers[h]
	if count <= len(buf) {
		m.buffers[h] = buf[:count]
		return nil
	}
	grown := make([]mathutil.Transform, count)
	copy(grown, buf)
	for i := len(buf); i < count; i++ {
		grown[i] = mathutil.Identity()
	}
	m.buffers[h] = grown
	return nil
}

func (m *MemorySkinSink) Write(h SkinHandle, index int, t mathutil.Transform) {
	buf, ok := m.buffers[h]
	if !ok || index < 0 || index >= len(buf) {
		return
	}
	buf[index] = t
	m.writes++
}

func (m *MemorySkinSink) Release(h SkinHandle) {
	delete(m.buffers, h)
}

// Buffer returns a copy of a buffer's contents.
func (m *MemorySkinSink) Buffer(h SkinHandle) ([]mathutil.Transform, bool) {
	buf, ok := m.buffers[h]
	if !ok {
		return nil, false
	}
	out := make([]mathutil.Transform, len(buf))
	copy(out, buf)
	return out, true
}

// Writes returns the number of accepted Write calls.
func (m *MemorySkinSink) Writes() int {
	return m.writes
}
