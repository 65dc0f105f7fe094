// Package config reads the TOML file describing the graphics backend profile, shader
// conversion, viewport and simulation settings of a scene host.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Carmen-Shannon/oxy-scene/engine/gfx"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/pelletier/go-toml/v2"
)

var (
	ErrUnknownAPI           = errors.New("unknown backend api")
	ErrUnknownTextureFormat = errors.New("unknown texture format")
	ErrInvalidValue         = errors.New("invalid configuration value")
)

var apis = map[string]wgpu.BackendType{
	"opengl":   wgpu.BackendTypeOpenGL,
	"opengles": wgpu.BackendTypeOpenGLES,
	"vulkan":   wgpu.BackendTypeVulkan,
}

var textureFormats = map[string]wgpu.TextureFormat{
	"bc1":        wgpu.TextureFormatBC1RGBAUnorm,
	"bc3":        wgpu.TextureFormatBC3RGBAUnorm,
	"bc7":        wgpu.TextureFormatBC7RGBAUnorm,
	"etc2_rgb8":  wgpu.TextureFormatETC2RGB8Unorm,
	"etc2_rgba8": wgpu.TextureFormatETC2RGBA8Unorm,
	"astc_4x4":   wgpu.TextureFormatASTC4x4Unorm,
}

// Config is the root of the configuration file.
type Config struct {
	Backend  Backend  `toml:"backend"`
	Shader   Shader   `toml:"shader"`
	Viewport Viewport `toml:"viewport"`
	Run      Run      `toml:"run"`
	Log      Log      `toml:"log"`
}

// Backend describes the capabilities of the graphics backend.
type Backend struct {
	// API is one of "opengl", "opengles" or "vulkan".
	API       string `toml:"api"`
	Version   int    `toml:"version"`
	MaxJoints int    `toml:"max_joints"`
	// TextureFormats names the compressed formats the backend samples from
	// ("bc1", "bc3", "bc7", "etc2_rgb8", "etc2_rgba8", "astc_4x4").
	TextureFormats []string `toml:"texture_formats"`
}

// Shader holds the shader conversion flags. Flags the backend version cannot express are
// cleared when the conversion is built.
type Shader struct {
	JointBuffer          bool `toml:"joint_buffer"`
	ViewProjectionBuffer bool `toml:"view_projection_buffer"`
	Multiview            bool `toml:"multiview"`
	ExplicitLayout       bool `toml:"explicit_layout"`
}

// Viewport is the render target rectangle in pixels.
type Viewport struct {
	X      float32 `toml:"x"`
	Y      float32 `toml:"y"`
	Width  float32 `toml:"width"`
	Height float32 `toml:"height"`
}

// Run holds the simulation settings of a host loop.
type Run struct {
	// Workers bounds how many scenes load concurrently.
	Workers   int     `toml:"workers"`
	Frames    int     `toml:"frames"`
	FrameRate float32 `toml:"frame_rate"`
	Culling   bool    `toml:"culling"`
}

// Log selects the log level ("debug", "info", "warn" or "error").
type Log struct {
	Level string `toml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Backend: Backend{
			API:       "opengl",
			Version:   330,
			MaxJoints: shader.DefaultMaxJoints,
		},
		Shader: Shader{
			JointBuffer: true,
		},
		Viewport: Viewport{Width: 1280, Height: 720},
		Run: Run{
			Workers:   4,
			Frames:    120,
			FrameRate: 60,
			Culling:   true,
		},
		Log: Log{Level: "info"},
	}
}

// Load reads a configuration file. Fields missing from the file keep their defaults.
//
// Parameters:
//   - path: the TOML file path
//
// Returns:
//   - Config: the configuration
//   - error: error if the file cannot be read, has unknown keys or holds invalid values
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg, err := Read(bytes.NewReader(data))
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Read decodes a configuration over the defaults and validates it.
//
// Parameters:
//   - r: the TOML source
//
// Returns:
//   - Config: the configuration
//   - error: a decode error or a validation error
func Read(r io.Reader) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return Config{}, fmt.Errorf("line %d column %d: %w", row, col, err)
		}
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Encode writes the configuration as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Validate checks every enumerated and numeric field.
func (c Config) Validate() error {
	if _, ok := apis[strings.ToLower(c.Backend.API)]; !ok {
		return fmt.Errorf("backend api %q: %w", c.Backend.API, ErrUnknownAPI)
	}
	for _, f := range c.Backend.TextureFormats {
		if _, ok := textureFormats[strings.ToLower(f)]; !ok {
			return fmt.Errorf("backend texture format %q: %w", f, ErrUnknownTextureFormat)
		}
	}
	if c.Backend.Version < 0 || c.Backend.MaxJoints < 0 {
		return fmt.Errorf("backend version and max_joints must not be negative: %w", ErrInvalidValue)
	}
	if c.Run.Workers < 1 {
		return fmt.Errorf("run workers %d: %w", c.Run.Workers, ErrInvalidValue)
	}
	if c.Run.Frames < 0 || c.Run.FrameRate <= 0 {
		return fmt.Errorf("run frames %d frame_rate %g: %w", c.Run.Frames, c.Run.FrameRate, ErrInvalidValue)
	}
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		return fmt.Errorf("viewport %gx%g: %w", c.Viewport.Width, c.Viewport.Height, ErrInvalidValue)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// Caps converts the backend section into backend capabilities.
func (c Config) Caps() gfx.Caps {
	caps := gfx.Caps{
		API:       apis[strings.ToLower(c.Backend.API)],
		Version:   c.Backend.Version,
		MaxJoints: c.Backend.MaxJoints,
	}
	for _, f := range c.Backend.TextureFormats {
		caps.TextureFormats = append(caps.TextureFormats, textureFormats[strings.ToLower(f)])
	}
	return caps
}

// Conversion builds the shader conversion for the configured backend.
func (c Config) Conversion() shader.Conversion {
	return shader.Conversion{
		API:                  apis[strings.ToLower(c.Backend.API)],
		Version:              c.Backend.Version,
		JointBuffer:          c.Shader.JointBuffer,
		ViewProjectionBuffer: c.Shader.ViewProjectionBuffer,
		Multiview:            c.Shader.Multiview,
		ExplicitLayout:       c.Shader.ExplicitLayout,
		MaxJoints:            c.Backend.MaxJoints,
	}.Normalized()
}

// Aspect returns the viewport width over its height.
func (c Config) Aspect() float32 {
	return c.Viewport.Width / c.Viewport.Height
}

// FrameDelta returns the simulated seconds per frame.
func (c Config) FrameDelta() float32 {
	return 1 / c.Run.FrameRate
}

// LogLevel parses the configured log level.
func (c Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", c.Log.Level, ErrInvalidValue)
	}
	return level, nil
}
