package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"mu-skeleton/internal/bmd"
	"mu-skeleton/internal/preview"
	"mu-skeleton/internal/scenefile"
	"mu-skeleton/internal/skeleton"
)

// loadSkeleton opens a .bmd model or a .yaml/.yml scene file.
func loadSkeleton(path string, opts ...skeleton.Option) (*skeleton.Skeleton, error) {
	opts = append([]skeleton.Option{skeleton.WithLogger(logger)}, opts...)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".bmd":
		return bmd.Load(path, opts...)
	case ".yaml", ".yml":
		return scenefile.LoadFile(path, opts...)
	}
	return nil, fmt.Errorf("unsupported input %s: want .bmd, .yaml or .yml", path)
}

// previewOptions builds preview settings from the resolved config. BMD
// models are Z-up and left-handed.
func previewOptions(path string) preview.Options {
	isBMD := strings.EqualFold(filepath.Ext(path), ".bmd")
	return preview.Options{
		Size:        cfg.PreviewSize,
		Supersample: cfg.Supersample,
		Yaw:         cfg.Yaw,
		Pitch:       cfg.Pitch,
		ZUp:         isBMD,
		Mirror:      isBMD,
	}
}
