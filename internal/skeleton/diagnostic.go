package skeleton

import "fmt"

// DiagnosticKind classifies an auto-corrected structural fault.
type DiagnosticKind int

const (
	// DiagInvalidParent: a parent index was out of range and was reset to root.
	DiagInvalidParent DiagnosticKind = iota
	// DiagCyclicGraph: process-order resolution hit its pass budget.
	DiagCyclicGraph
	// DiagUnresolvedBind: a skin bind point matched no bone and fell back to bone 0.
	DiagUnresolvedBind
	// DiagSkinAllocation: the skin sink refused to resize a binding's buffer.
	DiagSkinAllocation
)

func (k DiagnosticKind) String() string {
	switch k {
	case DiagInvalidParent:
		return "invalid_parent"
	case DiagCyclicGraph:
		return "cyclic_graph"
	case DiagUnresolvedBind:
		return "unresolved_bind"
	case DiagSkinAllocation:
		return "skin_allocation"
	default:
		return "unknown"
	}
}

// Diagnostic describes one fault found and corrected during evaluation.
// Bone, Parent and Bind are -1 when not applicable.
type Diagnostic struct {
	Kind    DiagnosticKind
	Bone    int
	Parent  int
	Bind    int
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s", d.Kind, d.Message)
}

func (s *Skeleton) report(d Diagnostic) {
	s.logger.Warn("skeleton diagnostic",
		"kind", d.Kind.String(),
		"bone", d.Bone,
		"parent", d.Parent,
		"bind", d.Bind,
		"msg", d.Message,
	)
	if s.hooks.OnDiagnostic != nil {
		s.hooks.OnDiagnostic(d)
	}
}
