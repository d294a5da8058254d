package batch

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// ManifestEntry represents one rendered input in the output manifest.
type ManifestEntry struct {
	Input string `json:"input"`
	Image string `json:"image"`
	Bones int    `json:"bones"`
}

// WriteManifest writes the successful results to path as JSON. Image paths
// are stored relative to the manifest's directory.
func WriteManifest(path string, results []Result) error {
	dir := filepath.Dir(path)
	entries := make([]ManifestEntry, 0, len(results))
	for _, r := range results {
		if !r.Success {
			continue
		}
		img, err := filepath.Rel(dir, r.Output)
		if err != nil {
			img = r.Output
		}
		entries = append(entries, ManifestEntry{
			Input: r.Input,
			Image: filepath.ToSlash(img),
			Bones: r.Bones,
		})
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
