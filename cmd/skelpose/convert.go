package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mu-skeleton/internal/scenefile"
)

var convertCmd = &cobra.Command{
	Use:   "convert <in.bmd|in.yaml> <out.yaml>",
	Short: "Write a skeleton as a YAML scene file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSkeleton(args[0])
		if err != nil {
			return err
		}
		if err := scenefile.SaveFile(args[1], s); err != nil {
			return err
		}
		logger.Info("converted", "input", args[0], "output", args[1], "bones", s.BoneCount())
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bones to %s\n", s.BoneCount(), args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
}
