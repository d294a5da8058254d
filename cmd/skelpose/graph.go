package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mu-skeleton/internal/graph"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <file>",
	Short: "Export the bone hierarchy as a Mermaid diagram",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		selected, _ := cmd.Flags().GetStringSlice("select")

		s, err := loadSkeleton(args[0])
		if err != nil {
			return err
		}

		var overlay *graph.Overlay
		if len(selected) > 0 {
			overlay = &graph.Overlay{}
			for _, name := range selected {
				idx := s.FindBone(name)
				if idx < 0 {
					return fmt.Errorf("no bone named %q", name)
				}
				overlay.Selected = append(overlay.Selected, idx)
			}
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(s, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringSlice("select", nil, "Bone names to highlight")
}
