package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/engine/container"
	"github.com/Carmen-Shannon/oxy-scene/engine/gfx"
	"github.com/Carmen-Shannon/oxy-scene/engine/gfx/recorder"
	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/chewxy/math32"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const triangleVertex = `precision highp float;
uniform mat4 u_mvp;
attribute vec3 a_position;
void main()
{
	gl_Position = u_mvp * vec4( a_position, 1.0 );
}
`

const triangleFragment = `precision mediump float;
uniform vec4 u_color;
void main()
{
	gl_FragColor = u_color;
}
`

const triangleDocument = `{
  "buffers": {{BUFFERS}},
  "bufferViews": {
    "positions": {"buffer": "{{BUFFER}}", "byteOffset": 0, "byteLength": 36, "target": 34962},
    "indices": {"buffer": "{{BUFFER}}", "byteOffset": 36, "byteLength": 3, "target": 34963},
    "keys": {"buffer": "{{BUFFER}}", "byteOffset": 40, "byteLength": 32}
  },
  "accessors": {
    "pos": {"bufferView": "positions", "componentType": 5126, "type": "VEC3", "count": 3, "min": [0, 0, 0], "max": [1, 1, 0]},
    "idx": {"bufferView": "indices", "componentType": 5121, "type": "SCALAR", "count": 3},
    "times": {"bufferView": "keys", "componentType": 5126, "type": "SCALAR", "count": 2},
    "offsets": {"bufferView": "keys", "byteOffset": 8, "componentType": 5126, "type": "VEC3", "count": 2}
  },
  "shaders": {
    "vs": {"type": 35633, "uri": "{{VS}}"},
    "fs": {"type": 35632, "uri": "{{FS}}"}
  },
  "programs": {"prog": {"vertexShader": "vs", "fragmentShader": "fs", "attributes": ["a_position"]}},
  "techniques": {
    "tech": {
      "program": "prog",
      "parameters": {
        "position": {"semantic": "POSITION", "type": 35665},
        "mvp": {"semantic": "MODELVIEWPROJECTION", "type": 35676},
        "color": {"type": 35666, "value": [1, 0, 0, 1]}
      },
      "attributes": {"a_position": "position"},
      "uniforms": {"u_mvp": "mvp", "u_color": "color"},
      "states": {"enable": [2929]}
    }
  },
  "materials": {"red": {"technique": "tech", "values": {"color": [0, 1, 0, 1]}}},
  "meshes": {"tri": {"primitives": [{"attributes": {"POSITION": "pos"}, "indices": "idx", "material": "red", "mode": 4}]}},
  "animations": {
    "move": {
      "parameters": {"TIME": "times", "translation": "offsets"},
      "samplers": {"s": {"input": "TIME", "output": "translation", "interpolation": "LINEAR"}},
      "channels": [{"sampler": "s", "target": {"id": "{{TARGET}}", "path": "translation"}}]
    }
  },
  "nodes": {
    "child": {"meshes": ["tri"]},
    "root": {"children": ["{{CHILD}}"], "translation": [0.25, 0, 0]},
    "lone": {"children": [{{LONE}}]}
  },
  "scenes": {
    "main": {"nodes": ["root"]},
    "all": {"nodes": ["root", "lone"]}
  },
  "scene": "all"
}`

// triangleBlob holds three positions, three 8-bit indices padded to four bytes, two key
// times and two translation keys.
func triangleBlob() []byte {
	var b []byte
	f32 := func(vs ...float32) {
		for _, v := range vs {
			b = binary.LittleEndian.AppendUint32(b, math32.Float32bits(v))
		}
	}
	f32(0, 0, 0, 1, 0, 0, 0, 1, 0)
	b = append(b, 0, 1, 2, 0)
	f32(0, 1)
	f32(0, 0, 0, 0, 0.5, 0)
	return b
}

func dataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

type fixture struct {
	buffers string
	buffer  string
	child   string
	target  string

	// lone lists the quoted children of the "lone" node.
	lone string
}

func defaultFixture() fixture {
	return fixture{
		buffers: `{"geo": {"byteLength": 72, "uri": "` + dataURI("application/octet-stream", triangleBlob()) + `"}}`,
		buffer:  "geo",
		child:   "child",
		target:  "child",
	}
}

func (f fixture) document() []byte {
	return []byte(strings.NewReplacer(
		"{{BUFFERS}}", f.buffers,
		"{{BUFFER}}", f.buffer,
		"{{CHILD}}", f.child,
		"{{TARGET}}", f.target,
		"{{LONE}}", f.lone,
		"{{VS}}", dataURI("text/plain", []byte(triangleVertex)),
		"{{FS}}", dataURI("text/plain", []byte(triangleFragment)),
	).Replace(triangleDocument))
}

func newTestLoader(options ...recorder.RecorderBuilderOption) (Loader, recorder.Recorder) {
	rec := recorder.NewRecorder(options...)
	return NewLoader(rec, BackendTypeGLTF, WithAllowExternal(false)), rec
}

func TestLoader_LoadBytes(t *testing.T) {
	l, rec := newTestLoader()

	s, err := l.LoadBytes("triangle", defaultFixture().document())
	require.NoError(t, err)
	d := s.Data()

	counts := d.Counts()
	assert.Equal(t, 3, counts["nodes"])
	assert.Equal(t, 1, counts["meshes"])
	assert.Equal(t, 1, counts["geometries"])
	assert.Equal(t, 1, counts["animations"])
	assert.Equal(t, 1, counts["timelines"])
	assert.Equal(t, 2, counts["subtrees"])
	assert.Equal(t, 2, counts["scenes"])

	for name, want := range map[string]int{"root": 0, "child": 1, "lone": 2} {
		got, ok := s.FindNode(name)
		require.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}
	assert.Equal(t, 0, d.Nodes[1].Parent)
	assert.Equal(t, 1, d.Nodes[0].SubtreeCount)
	assert.Equal(t, []int{0}, d.Nodes[1].Models)

	assert.Equal(t, 1, d.DefaultSubScene)
	assert.Equal(t, []int{0}, d.SubScenes[0].SubTrees)
	assert.Equal(t, []int{0, 1}, d.SubScenes[1].SubTrees)
	assert.Equal(t, []int{0}, d.SubTrees[0].Animations)
	assert.Equal(t, []int{0}, d.SubTrees[0].TimeLines)
	assert.Empty(t, d.SubTrees[1].Animations)
	assert.Equal(t, 1, d.Animations[0].Channels[0].Node)

	tech := &d.Techniques[0]
	assert.Equal(t, model.None, parameterIndex(tech, "mvp"))
	color := parameterIndex(tech, "color")
	require.NotEqual(t, model.None, color)
	require.Len(t, d.Materials[0].Values, 1)
	assert.Equal(t, color, d.Materials[0].Values[0].Parameter)
	assert.Equal(t, []float32{0, 1, 0, 1}, d.Materials[0].Values[0].Value)

	geo := d.Geometries[0]
	assert.Equal(t, 3, geo.IndexCount)
	assert.Equal(t, model.ComponentUnsignedShort, d.Accessors[geo.Indices].ComponentType)
	assert.Equal(t, 1, rec.Created(recorder.KindGeometry))
	assert.Equal(t, 1, rec.Created(recorder.KindProgram))
	assert.Equal(t, 1, rec.Created(recorder.KindPipeline))
}

func TestLoader_FrameAfterLoad(t *testing.T) {
	l, rec := newTestLoader()
	s, err := l.LoadBytes("triangle", defaultFixture().document())
	require.NoError(t, err)

	stats, err := s.Frame(0.5, rec)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Draws)
	assert.Len(t, rec.Commands(), 1)

	global := s.GlobalTransform(1)
	assert.InDelta(t, 0.25, global[12], 1e-6)
	assert.InDelta(t, 0.25, global[13], 1e-6)
}

func TestLoader_Idempotent(t *testing.T) {
	l, _ := newTestLoader()
	doc := defaultFixture().document()

	a, err := l.LoadBytes("a", doc)
	require.NoError(t, err)
	b, err := l.LoadBytes("b", doc)
	require.NoError(t, err)

	da, db := a.Data(), b.Data()
	assert.Equal(t, da.Counts(), db.Counts())
	assert.Equal(t, da.Nodes, db.Nodes)
	assert.Equal(t, da.SubTrees, db.SubTrees)
	assert.Equal(t, da.SubScenes, db.SubScenes)
	assert.Equal(t, da.Animations, db.Animations)
	assert.Equal(t, da.TimeLines, db.TimeLines)
	for i := range da.Geometries {
		assert.Equal(t, da.Geometries[i].Key, db.Geometries[i].Key)
	}

	again, err := l.LoadBytes("a", doc)
	require.NoError(t, err)
	assert.Same(t, a, again)
}

func TestLoader_Unload(t *testing.T) {
	l, rec := newTestLoader()
	_, err := l.LoadBytes("triangle", defaultFixture().document())
	require.NoError(t, err)
	require.NotNil(t, l.Get("triangle"))
	assert.Len(t, l.Scenes(), 1)

	assert.True(t, l.Unload("triangle"))
	assert.False(t, l.Unload("triangle"))
	assert.Nil(t, l.Get("triangle"))
	for _, kind := range []recorder.Kind{recorder.KindBuffer, recorder.KindProgram, recorder.KindGeometry, recorder.KindPipeline} {
		assert.Zero(t, rec.Live(kind), kind)
	}
}

func TestLoader_LoadErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *fixture)
		target error
		link   *LinkError
	}{
		{
			name:   "missing child",
			mutate: func(f *fixture) { f.child = "ghost" },
			target: ErrUnresolved,
			link:   &LinkError{Kind: sectionNodes, Name: "ghost", Referrer: "node root"},
		},
		{
			name:   "missing channel target",
			mutate: func(f *fixture) { f.target = "nobody" },
			target: ErrUnresolved,
			link:   &LinkError{Kind: sectionNodes, Name: "nobody", Referrer: "animation move"},
		},
		{
			name:   "missing buffer",
			mutate: func(f *fixture) { f.buffer = "elsewhere" },
			target: ErrUnresolved,
			link:   &LinkError{Kind: sectionBuffers, Name: "elsewhere", Referrer: "bufferView positions"},
		},
		{
			name:   "cycle",
			mutate: func(f *fixture) { f.child = "root" },
			target: scene.ErrCycle,
		},
		{
			name:   "two parents",
			mutate: func(f *fixture) { f.lone = `"child"` },
			target: scene.ErrMultipleParents,
		},
		{
			name: "short buffer",
			mutate: func(f *fixture) {
				f.buffers = `{"geo": {"byteLength": 80, "uri": "` + dataURI("application/octet-stream", triangleBlob()) + `"}}`
			},
			target: ErrBufferSize,
		},
		{
			name:   "binary buffer without container",
			mutate: func(f *fixture) { f.buffers, f.buffer = `{"binary_glTF": {"byteLength": 72}}`, "binary_glTF" },
			target: container.ErrNoBinaryBlob,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, rec := newTestLoader()
			f := defaultFixture()
			tt.mutate(&f)

			s, err := l.LoadBytes("broken", f.document())
			require.Error(t, err)
			assert.Nil(t, s)
			assert.True(t, errors.Is(err, tt.target), err.Error())
			if tt.link != nil {
				var linkErr *LinkError
				require.True(t, errors.As(err, &linkErr))
				assert.Equal(t, tt.link, linkErr)
			}

			for _, kind := range []recorder.Kind{recorder.KindBuffer, recorder.KindTexture, recorder.KindProgram, recorder.KindGeometry, recorder.KindPipeline} {
				assert.Zero(t, rec.Live(kind), kind)
			}
			assert.Nil(t, l.Get("broken"))
		})
	}
}

func TestLoader_BinaryContainer(t *testing.T) {
	l, _ := newTestLoader()
	f := defaultFixture()
	f.buffers, f.buffer = `{"binary_glTF": {"byteLength": 72}}`, "binary_glTF"
	blob := triangleBlob()

	s, err := l.LoadBytes("packed", container.Encode(f.document(), blob))
	require.NoError(t, err)
	assert.Equal(t, blob, s.Data().Buffers[0].Data)
	assert.Len(t, s.Data().Geometries, 1)
}

func TestLoader_LoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "triangle.gltf")
	require.NoError(t, os.WriteFile(path, defaultFixture().document(), 0o644))

	l, _ := newTestLoader()
	s, err := l.Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, s.Name())

	_, err = l.Load(filepath.Join(dir, "triangle.obj"))
	assert.Error(t, err)
}

func pngURI(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return dataURI("image/png", buf.Bytes())
}

func TestLoader_ImageVersions(t *testing.T) {
	doc := []byte(`{
  "images": {"img": {"uri": "` + pngURI(t) + `", "extensions": {"EXT_image_versions": {"versions": [
    {"container": "ktx", "glInternalFormat": 33777, "uri": "data:application/octet-stream;base64,AAAAAA=="}
  ]}}}},
  "samplers": {"samp": {"magFilter": 9729, "minFilter": 9987, "wrapS": 33071, "wrapT": 10497}},
  "textures": {"tex": {"source": "img", "sampler": "samp"}}
}`)

	tests := []struct {
		name      string
		formats   []wgpu.TextureFormat
		version   int
		container string
	}{
		{name: "compressed supported", formats: []wgpu.TextureFormat{wgpu.TextureFormatBC1RGBAUnorm}, version: 0, container: "ktx"},
		{name: "fallback to default", version: 1, container: "raw"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, rec := newTestLoader(recorder.WithCaps(gfx.Caps{
				API:            wgpu.BackendTypeOpenGL,
				Version:        330,
				TextureFormats: tt.formats,
				MaxJoints:      64,
			}))
			s, err := l.LoadBytes("textured", doc)
			require.NoError(t, err)

			d := s.Data()
			require.Len(t, d.Images[0].Versions, 2)
			tex := d.Textures[0]
			assert.Equal(t, tt.version, tex.Version)

			desc, ok := rec.Texture(tex.GPU)
			require.True(t, ok)
			assert.Equal(t, tt.container, desc.Container)
			assert.Equal(t, wgpu.AddressModeClampToEdge, desc.Sampler.AddressModeU)
			if tt.container == "raw" {
				assert.Equal(t, uint32(2), desc.Width)
				assert.Len(t, desc.Data, 16)
			}
		})
	}
}
