package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rigYAML = `version: 1
skeleton:
  bones:
    - name: root
    - name: arm
      parent: 0
      rest:
        basis: [1, 0, 0, 0, 1, 0, 0, 0, 1]
        origin: [1, 0, 0]
    - name: hand
      parent: 1
      enabled: false
`

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--log-level", "error"))
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func writeRig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rig.yaml")
	require.NoError(t, os.WriteFile(path, []byte(rigYAML), 0o644))
	return path
}

func TestInspect(t *testing.T) {
	out := run(t, "inspect", writeRig(t))

	assert.Contains(t, out, "Bones: 3")
	assert.Contains(t, out, "(1.0000, 0.0000, 0.0000)")
	assert.Regexp(t, `2\s+hand\s+1\s+off`, out)
}

func TestConvertRoundTrip(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "copy.yaml")

	out := run(t, "convert", writeRig(t), dst)
	assert.Contains(t, out, "Wrote 3 bones")

	s, err := loadSkeleton(dst)
	require.NoError(t, err)
	assert.Equal(t, 2, s.FindBone("hand"))
}

func TestGraph(t *testing.T) {
	out := run(t, "graph", writeRig(t), "--select", "arm")

	assert.Contains(t, out, "b0 --> b1")
	assert.Contains(t, out, "b1 -.-> b2")
	assert.Contains(t, out, "class b1 selected;")
}

func TestRender(t *testing.T) {
	dir := t.TempDir()
	out := run(t, "render", writeRig(t), "-o", dir, "--format", "tga", "--size", "32", "--manifest")

	assert.Contains(t, out, "Rendered 1/1")
	assert.FileExists(t, filepath.Join(dir, "rig.tga"))
	assert.FileExists(t, filepath.Join(dir, "manifest.json"))
}

func TestLoadSkeleton_UnknownExtension(t *testing.T) {
	_, err := loadSkeleton("model.obj")
	assert.ErrorContains(t, err, "unsupported input")
}
