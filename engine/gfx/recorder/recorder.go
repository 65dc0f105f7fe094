// Package recorder provides an in-memory gfx.Backend and gfx.CommandStream that keep every
// resource description and draw command for inspection.
package recorder

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-scene/engine/gfx"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	ErrUnknownHandle = errors.New("unknown handle")
	ErrNotMapped     = errors.New("buffer is not mapped")
)

// Kind names a resource category.
type Kind string

const (
	KindBuffer   Kind = "buffer"
	KindTexture  Kind = "texture"
	KindProgram  Kind = "program"
	KindGeometry Kind = "geometry"
	KindPipeline Kind = "pipeline"
)

type bufferRecord struct {
	desc   gfx.BufferDesc
	data   []byte
	mapped bool
	writes int
}

// recorder is the implementation of the Recorder interface.
type recorder struct {
	mu       sync.Mutex
	caps     gfx.Caps
	next     uint32
	failures map[Kind]error

	buffers    map[gfx.Buffer]*bufferRecord
	textures   map[gfx.Texture]gfx.TextureDesc
	programs   map[gfx.Program]gfx.ProgramDesc
	geometries map[gfx.Geometry]gfx.GeometryDesc
	pipelines  map[gfx.Pipeline]gfx.PipelineDesc

	created  map[Kind]int
	commands []gfx.Command
}

// Recorder is a backend that creates no GPU objects. Buffers are plain byte slices, every other
// resource keeps its description, and submitted commands are appended to a list.
type Recorder interface {
	gfx.Backend
	gfx.CommandStream

	// Commands returns the commands submitted since the last Reset.
	//
	// Returns:
	//   - []gfx.Command: the recorded commands in submission order
	Commands() []gfx.Command

	// Reset drops the recorded commands, keeping resources.
	Reset()

	// BufferData returns a copy of a buffer's content.
	//
	// Parameters:
	//   - b: the buffer handle
	//
	// Returns:
	//   - []byte: the content
	//   - bool: false if the buffer does not exist
	BufferData(b gfx.Buffer) ([]byte, bool)

	// BufferWrites returns how many times a buffer was mapped and unmapped.
	BufferWrites(b gfx.Buffer) int

	// Program returns the description a program was created from.
	Program(p gfx.Program) (gfx.ProgramDesc, bool)

	// Texture returns the description a texture was created from.
	Texture(t gfx.Texture) (gfx.TextureDesc, bool)

	// Pipeline returns the description a pipeline was created from.
	Pipeline(p gfx.Pipeline) (gfx.PipelineDesc, bool)

	// Live returns the number of resources of a kind that are created and not yet destroyed.
	Live(kind Kind) int

	// Created returns the number of resources of a kind created so far.
	Created(kind Kind) int
}

var _ Recorder = &recorder{}

// NewRecorder creates an empty recorder. Without options it reports OpenGL 3.30 capabilities.
//
// Parameters:
//   - options: optional RecorderBuilderOption functions
//
// Returns:
//   - Recorder: the new recorder
func NewRecorder(options ...RecorderBuilderOption) Recorder {
	r := &recorder{
		caps: gfx.Caps{
			API:       wgpu.BackendTypeOpenGL,
			Version:   330,
			MaxJoints: 64,
		},
		failures:   make(map[Kind]error),
		buffers:    make(map[gfx.Buffer]*bufferRecord),
		textures:   make(map[gfx.Texture]gfx.TextureDesc),
		programs:   make(map[gfx.Program]gfx.ProgramDesc),
		geometries: make(map[gfx.Geometry]gfx.GeometryDesc),
		pipelines:  make(map[gfx.Pipeline]gfx.PipelineDesc),
		created:    make(map[Kind]int),
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// handle allocates the next handle of a kind, or returns the configured failure.
func (r *recorder) handle(kind Kind) (uint32, error) {
	if err := r.failures[kind]; err != nil {
		return 0, fmt.Errorf("create %s: %w", kind, err)
	}
	r.next++
	r.created[kind]++
	return r.next, nil
}

func (r *recorder) Caps() gfx.Caps {
	return r.caps
}

func (r *recorder) CreateBuffer(desc gfx.BufferDesc) (gfx.Buffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, err := r.handle(KindBuffer)
	if err != nil {
		return 0, err
	}
	data := make([]byte, max(desc.Size, len(desc.Data)))
	copy(data, desc.Data)
	desc.Data = nil
	r.buffers[gfx.Buffer(h)] = &bufferRecord{desc: desc, data: data}
	return gfx.Buffer(h), nil
}

func (r *recorder) DestroyBuffer(b gfx.Buffer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.buffers, b)
}

func (r *recorder) MapBuffer(b gfx.Buffer) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.buffers[b]
	if !ok {
		return nil, fmt.Errorf("%w: buffer %d", ErrUnknownHandle, b)
	}
	if rec.mapped {
		return nil, gfx.ErrBufferMapped
	}
	rec.mapped = true
	return rec.data, nil
}

func (r *recorder) UnmapBuffer(b gfx.Buffer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.buffers[b]
	if !ok {
		return fmt.Errorf("%w: buffer %d", ErrUnknownHandle, b)
	}
	if !rec.mapped {
		return ErrNotMapped
	}
	rec.mapped = false
	rec.writes++
	return nil
}

func (r *recorder) CreateTexture(desc gfx.TextureDesc) (gfx.Texture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, err := r.handle(KindTexture)
	if err != nil {
		return 0, err
	}
	r.textures[gfx.Texture(h)] = desc
	return gfx.Texture(h), nil
}

func (r *recorder) DestroyTexture(t gfx.Texture) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.textures, t)
}

func (r *recorder) CreateProgram(desc gfx.ProgramDesc) (gfx.Program, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, err := r.handle(KindProgram)
	if err != nil {
		return 0, err
	}
	r.programs[gfx.Program(h)] = desc
	return gfx.Program(h), nil
}

func (r *recorder) DestroyProgram(p gfx.Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.programs, p)
}

func (r *recorder) CreateGeometry(desc gfx.GeometryDesc) (gfx.Geometry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range desc.Attributes {
		if _, ok := r.buffers[a.Buffer]; !ok {
			return 0, fmt.Errorf("%w: vertex buffer %d", ErrUnknownHandle, a.Buffer)
		}
	}
	if desc.IndexBuffer != 0 {
		if _, ok := r.buffers[desc.IndexBuffer]; !ok {
			return 0, fmt.Errorf("%w: index buffer %d", ErrUnknownHandle, desc.IndexBuffer)
		}
	}
	h, err := r.handle(KindGeometry)
	if err != nil {
		return 0, err
	}
	r.geometries[gfx.Geometry(h)] = desc
	return gfx.Geometry(h), nil
}

func (r *recorder) DestroyGeometry(g gfx.Geometry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.geometries, g)
}

func (r *recorder) CreatePipeline(desc gfx.PipelineDesc) (gfx.Pipeline, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.programs[desc.Program]; !ok {
		return 0, fmt.Errorf("%w: program %d", ErrUnknownHandle, desc.Program)
	}
	if _, ok := r.geometries[desc.Geometry]; !ok {
		return 0, fmt.Errorf("%w: geometry %d", ErrUnknownHandle, desc.Geometry)
	}
	h, err := r.handle(KindPipeline)
	if err != nil {
		return 0, err
	}
	r.pipelines[gfx.Pipeline(h)] = desc
	return gfx.Pipeline(h), nil
}

func (r *recorder) DestroyPipeline(p gfx.Pipeline) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pipelines, p)
}

func (r *recorder) Submit(cmd gfx.Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, cmd)
}

func (r *recorder) Commands() []gfx.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.commands
}

func (r *recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = nil
}

func (r *recorder) BufferData(b gfx.Buffer) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.buffers[b]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), rec.data...), true
}

func (r *recorder) BufferWrites(b gfx.Buffer) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.buffers[b]; ok {
		return rec.writes
	}
	return 0
}

func (r *recorder) Program(p gfx.Program) (gfx.ProgramDesc, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	desc, ok := r.programs[p]
	return desc, ok
}

func (r *recorder) Texture(t gfx.Texture) (gfx.TextureDesc, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	desc, ok := r.textures[t]
	return desc, ok
}

func (r *recorder) Pipeline(p gfx.Pipeline) (gfx.PipelineDesc, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	desc, ok := r.pipelines[p]
	return desc, ok
}

func (r *recorder) Live(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch kind {
	case KindBuffer:
		return len(r.buffers)
	case KindTexture:
		return len(r.textures)
	case KindProgram:
		return len(r.programs)
	case KindGeometry:
		return len(r.geometries)
	case KindPipeline:
		return len(r.pipelines)
	}
	return 0
}

func (r *recorder) Created(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.created[kind]
}
