package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mu-skeleton/internal/skeleton"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Print the bone table and evaluated global poses",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var diags []skeleton.Diagnostic
		s, err := loadSkeleton(args[0], skeleton.WithHooks(skeleton.Hooks{
			OnDiagnostic: func(d skeleton.Diagnostic) { diags = append(diags, d) },
		}))
		if err != nil {
			return err
		}
		s.Evaluate()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "File: %s\n", args[0])
		fmt.Fprintf(out, "Bones: %d  Version: %d\n\n", s.BoneCount(), s.Version())
		fmt.Fprintf(out, "%4s  %-24s %6s %5s  %s\n", "idx", "name", "parent", "pose", "global origin")
		for _, i := range s.ProcessOrder() {
			name, _ := s.BoneName(i)
			parent, _ := s.BoneParent(i)
			enabled, _ := s.IsBoneEnabled(i)
			g, _ := s.BoneGlobalPose(i)
			pose := "on"
			if !enabled {
				pose = "off"
			}
			fmt.Fprintf(out, "%4d  %-24s %6d %5s  (%.4f, %.4f, %.4f)\n",
				i, name, parent, pose, g.Origin[0], g.Origin[1], g.Origin[2])
		}

		if len(diags) > 0 {
			fmt.Fprintf(out, "\nDiagnostics:\n")
			for _, d := range diags {
				fmt.Fprintf(out, "  [%s] %s\n", d.Kind, d.Message)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
