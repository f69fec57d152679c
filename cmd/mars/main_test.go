package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, src string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
}

func TestRunStopsAfterTicks(t *testing.T) {
	dir := t.TempDir()
	scripts := filepath.Join(dir, "scripts")
	require.NoError(t, os.Mkdir(scripts, 0o755))
	writeFile(t, filepath.Join(scripts, "s.lua"), `
steps = 0
function walk(id, dt) steps = steps + 1 end`)
	scene := filepath.Join(dir, "scene.yaml")
	writeFile(t, scene, `
entities:
  - name: walker
    transform: {x: 0, y: 0}
    step: walk
`)
	cfg := filepath.Join(dir, "mars.toml")
	writeFile(t, cfg, "[engine]\ndt = 0.001\n\n[scripting]\ndir = \""+filepath.ToSlash(scripts)+"\"\n")

	err := run([]string{"-c", cfg, "--scene", scene, "--ticks", "5", "-v", "0"})
	assert.NoError(t, err)
}

func TestRunRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	assert.Error(t, run([]string{"-c", filepath.Join(dir, "none.toml"), "--scene", filepath.Join(dir, "none.yaml"), "-v", "0"}))
	assert.Error(t, run([]string{"--profile", "gpu", "-v", "0", "-c", filepath.Join(dir, "none.toml")}))
	assert.Error(t, run([]string{"--no-such-flag"}))
	assert.NoError(t, run([]string{"--help"}))
}

func TestParseFlags(t *testing.T) {
	opts, fs, err := parseFlags([]string{"-v", "3", "--ticks", "9", "--seed", "4"}, "x.toml")
	require.NoError(t, err)
	assert.Equal(t, "x.toml", opts.configPath)
	assert.Equal(t, uint8(3), opts.verbosity)
	assert.Equal(t, uint64(9), opts.ticks)
	assert.Equal(t, uint32(4), opts.seed)
	assert.True(t, fs.Changed("verbosity"))
	assert.False(t, fs.Changed("scene"))
}
