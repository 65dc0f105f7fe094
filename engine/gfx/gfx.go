// Package gfx defines the graphics backend capability layer consumed by the scene runtime:
// resource creation and destruction behind opaque handles, scoped buffer mapping and
// command submission.
package gfx

import (
	"errors"
	"fmt"
)

// ErrBufferMapped is returned when a buffer is mapped while a previous mapping is still open.
var ErrBufferMapped = errors.New("buffer is already mapped")

// Backend defines the resource verbs the scene runtime needs from a graphics API.
// Handles are only valid for the backend that created them.
type Backend interface {
	// Caps returns the capability profile used for shader adaptation and texture selection.
	//
	// Returns:
	//   - Caps: the backend capabilities
	Caps() Caps

	// CreateBuffer creates a vertex, index or uniform buffer.
	//
	// Parameters:
	//   - desc: the buffer description including optional initial data
	//
	// Returns:
	//   - Buffer: the new buffer handle
	//   - error: error if creation fails
	CreateBuffer(desc BufferDesc) (Buffer, error)

	// DestroyBuffer releases a buffer. Unknown handles are ignored.
	DestroyBuffer(b Buffer)

	// MapBuffer acquires exclusive CPU write access to a buffer's staging memory.
	// Every successful MapBuffer must be paired with UnmapBuffer; prefer WithMappedBuffer.
	//
	// Parameters:
	//   - b: the buffer to map
	//
	// Returns:
	//   - []byte: the writable staging memory, valid until UnmapBuffer
	//   - error: error if the buffer is unknown or already mapped
	MapBuffer(b Buffer) ([]byte, error)

	// UnmapBuffer releases the mapping and makes the written data visible to the GPU.
	//
	// Parameters:
	//   - b: the mapped buffer
	//
	// Returns:
	//   - error: error if the buffer is not mapped
	UnmapBuffer(b Buffer) error

	// CreateTexture uploads a texture from raw pixels or a compressed container blob.
	CreateTexture(desc TextureDesc) (Texture, error)

	// DestroyTexture releases a texture. Unknown handles are ignored.
	DestroyTexture(t Texture)

	// CreateProgram compiles a program from vertex and fragment source.
	CreateProgram(desc ProgramDesc) (Program, error)

	// DestroyProgram releases a program. Unknown handles are ignored.
	DestroyProgram(p Program)

	// CreateGeometry binds vertex and index buffers to a vertex layout.
	CreateGeometry(desc GeometryDesc) (Geometry, error)

	// DestroyGeometry releases a geometry. The underlying buffers are not destroyed.
	DestroyGeometry(g Geometry)

	// CreatePipeline creates a graphics pipeline from a program, a geometry layout and a state block.
	CreatePipeline(desc PipelineDesc) (Pipeline, error)

	// DestroyPipeline releases a pipeline. Unknown handles are ignored.
	DestroyPipeline(p Pipeline)
}

// CommandStream receives draw submissions for one frame.
type CommandStream interface {
	// Submit records one draw command.
	//
	// Parameters:
	//   - cmd: the pipeline, geometry and bound parameter values for the draw
	Submit(cmd Command)
}

// WithMappedBuffer maps a buffer, hands the staging memory to fn and always unmaps it
// afterwards, even when fn fails or panics.
//
// Parameters:
//   - b: the backend owning the buffer
//   - buf: the buffer to write
//   - fn: writes into the mapped memory; the slice must not be retained
//
// Returns:
//   - error: the mapping error, the error from fn, or the unmap error, in that order of precedence
func WithMappedBuffer(b Backend, buf Buffer, fn func(mem []byte) error) (err error) {
	mem, err := b.MapBuffer(buf)
	if err != nil {
		return fmt.Errorf("failed to map buffer %d: %w", buf, err)
	}
	defer func() {
		if unmapErr := b.UnmapBuffer(buf); unmapErr != nil && err == nil {
			err = fmt.Errorf("failed to unmap buffer %d: %w", buf, unmapErr)
		}
	}()
	return fn(mem)
}
