package batch

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mu-skeleton/internal/mathutil"
	"mu-skeleton/internal/preview"
	"mu-skeleton/internal/skeleton"
)

func fakeLoad(path string) (*skeleton.Skeleton, error) {
	switch filepath.Base(path) {
	case "broken.bmd":
		return nil, errors.New("bad magic")
	case "empty.bmd":
		return skeleton.New(), nil
	}
	s := skeleton.New()
	if err := s.AddBone("root"); err != nil {
		return nil, err
	}
	if err := s.AddBone("tip"); err != nil {
		return nil, err
	}
	if err := s.SetBoneParent(1, 0); err != nil {
		return nil, err
	}
	return s, s.SetBoneRest(1, mathutil.Translation(0, 1, 0))
}

func TestRun_MixedInputs(t *testing.T) {
	out := t.TempDir()
	inputs := []string{"in/a.bmd", "in/broken.bmd", "in/b.yaml", "in/empty.bmd"}

	results := Run(Config{
		OutputDir: out,
		Format:    preview.FormatTGA,
		Preview:   preview.Options{Size: 16},
		Workers:   3,
		Load:      fakeLoad,
	}, inputs)

	require.Len(t, results, 4)
	for i, r := range results {
		assert.Equal(t, inputs[i], r.Input)
	}

	assert.True(t, results[0].Success)
	assert.Equal(t, 2, results[0].Bones)
	assert.Equal(t, filepath.Join(out, "a.tga"), results[0].Output)
	assert.FileExists(t, results[0].Output)
	assert.True(t, results[2].Success)

	assert.False(t, results[1].Success)
	assert.Equal(t, "bad magic", results[1].Error)
	assert.Equal(t, "no bones", results[3].Error)

	manifest := filepath.Join(out, "manifest.json")
	require.NoError(t, WriteManifest(manifest, results))
	data, err := os.ReadFile(manifest)
	require.NoError(t, err)
	var entries []ManifestEntry
	require.NoError(t, json.Unmarshal(data, &entries))
	assert.Equal(t, []ManifestEntry{
		{Input: "in/a.bmd", Image: "a.tga", Bones: 2},
		{Input: "in/b.yaml", Image: "b.tga", Bones: 2},
	}, entries)
}

func TestOutputPaths(t *testing.T) {
	got := OutputPaths("out", []string{
		"/data/Player.bmd",
		"/other/Player.bmd",
		"/data/Player_1.yaml",
		"/more/player.bmd",
		"/data/Monster.bmd",
	}, "webp")

	assert.Equal(t, []string{
		filepath.Join("out", "Player.webp"),
		filepath.Join("out", "Player_1.webp"),
		filepath.Join("out", "Player_1_2.webp"),
		filepath.Join("out", "player_3.webp"),
		filepath.Join("out", "Monster.webp"),
	}, got)
}

func TestRun_SameBaseNameDoesNotCollide(t *testing.T) {
	out := t.TempDir()
	results := Run(Config{
		OutputDir: out,
		Format:    preview.FormatTGA,
		Preview:   preview.Options{Size: 16},
		Workers:   2,
		Load:      fakeLoad,
	}, []string{"x/rig.bmd", "y/rig.bmd"})

	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.True(t, results[1].Success)
	assert.NotEqual(t, results[0].Output, results[1].Output)
	assert.FileExists(t, results[0].Output)
	assert.FileExists(t, results[1].Output)
}
