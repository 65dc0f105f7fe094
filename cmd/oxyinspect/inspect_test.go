package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cameraDocument = `{
  "cameras": {"eye": {"type": "perspective", "perspective": {"yfov": 0.8, "znear": 0.1, "zfar": 100}}},
  "nodes": {
    "rig": {"camera": "eye", "translation": [0, 0, 5]},
    "empty": {}
  },
  "scenes": {"only": {"nodes": ["rig", "empty"]}},
  "scene": "only"
}`

func writeScene(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "camera.gltf")
	require.NoError(t, os.WriteFile(path, []byte(cameraDocument), 0o644))
	return path
}

func TestRun_Report(t *testing.T) {
	var out bytes.Buffer
	err := run(options{frames: 3, paths: []string{writeScene(t)}}, &out, io.Discard)
	require.NoError(t, err)

	assert.Regexp(t, `nodes\W+2\b`, out.String())
	assert.Regexp(t, `cameras\W+1\b`, out.String())
	assert.Regexp(t, `active scene\W+only\b`, out.String())
	assert.Regexp(t, `frames\W+3\b`, out.String())
	assert.Regexp(t, `draws\W+0\b`, out.String())
}

func TestRun_WithoutCameraNode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.gltf")
	require.NoError(t, os.WriteFile(path, []byte(`{"nodes": {"empty": {}}}`), 0o644))

	var out bytes.Buffer
	require.NoError(t, run(options{frames: 2, paths: []string{path}}, &out, io.Discard))
	assert.Regexp(t, `cameras\W+0\b`, out.String())
	assert.Regexp(t, `active scene\W+default\b`, out.String())
	assert.Regexp(t, `frames\W+2\b`, out.String())
}

func TestRun_Errors(t *testing.T) {
	path := writeScene(t)
	tests := []struct {
		name string
		opts options
	}{
		{name: "missing file", opts: options{frames: 1, paths: []string{filepath.Join(t.TempDir(), "none.gltf")}}},
		{name: "unknown sub-scene", opts: options{frames: 1, subScene: "elsewhere", paths: []string{path}}},
		{name: "unknown camera", opts: options{frames: 1, camera: "ghost", paths: []string{path}}},
		{name: "missing config", opts: options{configPath: filepath.Join(t.TempDir(), "none.toml"), paths: []string{path}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, run(tt.opts, io.Discard, io.Discard))
		})
	}
}
