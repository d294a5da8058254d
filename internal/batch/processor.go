// Package batch renders previews for many skeleton files on a worker pool.
package batch

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"mu-skeleton/internal/logging"
	"mu-skeleton/internal/preview"
	"mu-skeleton/internal/skeleton"
)

// LoadFunc opens one input file as a skeleton.
type LoadFunc func(path string) (*skeleton.Skeleton, error)

// Config holds all shared resources for a batch run.
type Config struct {
	OutputDir string
	Format    string
	Preview   preview.Options
	Workers   int
	Load      LoadFunc
	Logger    *slog.Logger

	// PreviewFor, when set, picks options per input instead of Preview.
	PreviewFor func(input string) preview.Options

	// ProgressEvery is the progress log interval. Zero means two seconds.
	ProgressEvery time.Duration
}

// Result holds the outcome of rendering one input.
type Result struct {
	Input   string
	Output  string
	Bones   int
	Success bool
	Error   string
}

// Run renders every input and returns results in input order.
func Run(cfg Config, inputs []string) []Result {
	total := len(inputs)
	results := make([]Result, total)
	var processed atomic.Int64

	log := cfg.Logger
	if log == nil {
		log = logging.NewNop()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	every := cfg.ProgressEvery
	if every <= 0 {
		every = 2 * time.Second
	}

	start := time.Now()

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if p := processed.Load(); p > 0 {
					rate := float64(p) / time.Since(start).Seconds()
					log.Info("render progress", "done", p, "total", total, "per_sec", rate)
				}
			}
		}
	}()

	outputs := OutputPaths(cfg.OutputDir, inputs, cfg.Format)
	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = renderOne(cfg, inputs[idx], outputs[idx])
				if !results[idx].Success {
					log.Warn("render failed", "input", inputs[idx], "error", results[idx].Error)
				}
				processed.Add(1)
			}
		}()
	}

	for i := range inputs {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	close(done)

	log.Info("render finished", "total", total, "elapsed", time.Since(start))
	return results
}

// OutputPaths maps each input to its preview path under dir. An input whose
// base name is already taken gets its input index appended. Names are
// compared case-insensitively.
func OutputPaths(dir string, inputs []string, format string) []string {
	out := make([]string, len(inputs))
	taken := make(map[string]bool, len(inputs))
	for i, input := range inputs {
		base := filepath.Base(input)
		base = strings.TrimSuffix(base, filepath.Ext(base))
		name := base
		for n := i; taken[strings.ToLower(name)]; n += len(inputs) {
			name = fmt.Sprintf("%s_%d", base, n)
		}
		taken[strings.ToLower(name)] = true
		out[i] = filepath.Join(dir, name+"."+format)
	}
	return out
}

func renderOne(cfg Config, input, output string) Result {
	res := Result{Input: input}

	s, err := cfg.Load(input)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Bones = s.BoneCount()
	if res.Bones == 0 {
		res.Error = "no bones"
		return res
	}

	s.Evaluate()
	opts := cfg.Preview
	if cfg.PreviewFor != nil {
		opts = cfg.PreviewFor(input)
	}
	img := preview.Render(s, opts)

	res.Output = output
	if err := preview.WriteFile(res.Output, img, cfg.Format); err != nil {
		res.Error = fmt.Sprintf("write: %v", err)
		return res
	}
	res.Success = true
	return res
}
