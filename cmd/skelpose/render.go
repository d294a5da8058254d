package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"mu-skeleton/internal/batch"
	"mu-skeleton/internal/config"
	"mu-skeleton/internal/preview"
	"mu-skeleton/internal/skeleton"
)

var renderCmd = &cobra.Command{
	Use:   "render <file>...",
	Short: "Render stick-figure previews of evaluated skeletons",
	Long: `Loads every input, evaluates it and writes <name>.webp or <name>.tga to the
output directory. Inputs are processed on a worker pool.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outDir, _ := cmd.Flags().GetString("out")
		size, _ := cmd.Flags().GetInt("size")
		format, _ := cmd.Flags().GetString("format")
		workers, _ := cmd.Flags().GetInt("workers")
		manifest, _ := cmd.Flags().GetBool("manifest")

		cfg.Resolve(config.Flags{OutputDir: outDir, Size: size, Format: format, Workers: workers})
		if cfg.Format != preview.FormatWebP && cfg.Format != preview.FormatTGA {
			return fmt.Errorf("unsupported format %q", cfg.Format)
		}

		results := batch.Run(batch.Config{
			OutputDir:  cfg.OutputDir,
			Format:     cfg.Format,
			PreviewFor: previewOptions,
			Workers:    cfg.Workers,
			Load: func(path string) (*skeleton.Skeleton, error) {
				return loadSkeleton(path)
			},
			Logger: logger,
		}, args)

		failed := 0
		out := cmd.OutOrStdout()
		for _, r := range results {
			if r.Success {
				fmt.Fprintf(out, "  %s -> %s (%d bones)\n", r.Input, r.Output, r.Bones)
			} else {
				failed++
				fmt.Fprintf(out, "  %s: FAILED %s\n", r.Input, r.Error)
			}
		}
		fmt.Fprintf(out, "Rendered %d/%d\n", len(results)-failed, len(results))

		if manifest {
			path := filepath.Join(cfg.OutputDir, "manifest.json")
			if err := batch.WriteManifest(path, results); err != nil {
				return fmt.Errorf("write manifest: %w", err)
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d renders failed", failed, len(results))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringP("out", "o", "", "Output directory (default: config output_dir or current directory)")
	renderCmd.Flags().Int("size", 0, "Image size in pixels (default 256)")
	renderCmd.Flags().String("format", "", "Image format: webp or tga (default webp)")
	renderCmd.Flags().IntP("workers", "j", 0, "Parallel renders (default: number of CPUs)")
	renderCmd.Flags().Bool("manifest", false, "Write manifest.json next to the images")
}
