package graph

import (
	"fmt"
	"strings"

	"mu-skeleton/internal/skeleton"
)

// Overlay contains per-bone state to highlight on the graph.
type Overlay struct {
	// Selected bones are drawn with a thick outline.
	Selected []int
}

// GenerateMermaid produces a Mermaid flowchart of the bone hierarchy.
// It applies semantic styling:
// - Root: ((Circle))
// - Bone with bound nodes: [[Subroutine]]
// - Default: [Rectangle]
// Bones whose pose is disabled are dashed, as are the edges leading to them.
func GenerateMermaid(s *skeleton.Skeleton, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	var disabled []string
	for _, idx := range s.ProcessOrder() {
		id := nodeID(idx)
		name, _ := s.BoneName(idx)
		parent, _ := s.BoneParent(idx)
		bound, _ := s.BoundNodes(idx)
		enabled, _ := s.IsBoneEnabled(idx)

		opener, closer := "[", "]"
		switch {
		case parent == skeleton.NotFound:
			opener, closer = "((", "))"
		case len(bound) > 0:
			opener, closer = "[[", "]]"
		}

		label := fmt.Sprintf("%d: %s", idx, escapeLabel(name))
		if len(bound) > 0 {
			label += fmt.Sprintf(" <br/> bound: %d", len(bound))
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, label, closer)

		if parent != skeleton.NotFound {
			arrow := "-->"
			if !enabled {
				arrow = "-.->"
			}
			fmt.Fprintf(&sb, "    %s %s %s\n", nodeID(parent), arrow, id)
		}
		if !enabled {
			disabled = append(disabled, id)
		}
	}

	if len(disabled) > 0 {
		sb.WriteString("\n    classDef disabled stroke-dasharray:5 5,color:#777;\n")
		fmt.Fprintf(&sb, "    class %s disabled;\n", strings.Join(disabled, ","))
	}

	if overlay != nil && len(overlay.Selected) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef selected fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		seen := make(map[int]bool)
		for _, idx := range overlay.Selected {
			if seen[idx] || idx < 0 || idx >= s.BoneCount() {
				continue
			}
			seen[idx] = true
			fmt.Fprintf(&sb, "    class %s selected;\n", nodeID(idx))
		}
	}

	return sb.String()
}

// nodeID keeps Mermaid ids independent of bone names, which may contain
// characters Mermaid rejects.
func nodeID(idx int) string {
	return fmt.Sprintf("b%d", idx)
}

func escapeLabel(name string) string {
	return strings.ReplaceAll(name, "\"", "'")
}
