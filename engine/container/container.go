// Package container reads and writes the combined binary scene container: a fixed header,
// a document section and a binary resource blob.
package container

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// Magic is the little-endian encoding of "glTF".
	Magic uint32 = 0x46546C67
	// Version is the only container version understood by this package.
	Version uint32 = 1
	// ContentFormatJSON marks a document section holding JSON text.
	ContentFormatJSON uint32 = 0
	// HeaderSize is the encoded size of Header in bytes.
	HeaderSize = 20
)

var (
	ErrBadMagic         = errors.New("invalid container magic")
	ErrBadVersion       = errors.New("unsupported container version")
	ErrBadContentFormat = errors.New("unsupported container content format")
	ErrUnaligned        = errors.New("container content length is not 4-byte aligned")
	ErrTruncated        = errors.New("container is truncated")
)

// Header is the fixed container header.
type Header struct {
	Magic         uint32
	Version       uint32
	Length        uint32
	ContentLength uint32
	ContentFormat uint32
}

// Container is a decoded binary container.
type Container struct {
	Header Header
	// Content is the document section.
	Content []byte
	// Binary is the resource blob addressed by binary-range URIs.
	Binary []byte
}

// IsContainer reports whether data starts with the container magic.
func IsContainer(data []byte) bool {
	return len(data) >= 4 && binary.LittleEndian.Uint32(data[:4]) == Magic
}

// Parse decodes a binary container. The returned slices alias data.
//
// Parameters:
//   - data: the complete container bytes
//
// Returns:
//   - *Container: the header and both sections
//   - error: a wrapped ErrBadMagic, ErrBadVersion, ErrBadContentFormat, ErrUnaligned or ErrTruncated
func Parse(data []byte) (*Container, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("header needs %d bytes, have %d: %w", HeaderSize, len(data), ErrTruncated)
	}

	var h Header
	if err := binary.Read(bytes.NewReader(data[:HeaderSize]), binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("failed to read container header: %w", err)
	}

	if h.Magic != Magic {
		return nil, fmt.Errorf("magic 0x%08x: %w", h.Magic, ErrBadMagic)
	}
	if h.Version != Version {
		return nil, fmt.Errorf("version %d: %w", h.Version, ErrBadVersion)
	}
	if h.ContentFormat != ContentFormatJSON {
		return nil, fmt.Errorf("content format %d: %w", h.ContentFormat, ErrBadContentFormat)
	}
	if h.ContentLength%4 != 0 {
		return nil, fmt.Errorf("content length %d: %w", h.ContentLength, ErrUnaligned)
	}
	if uint64(h.Length) > uint64(len(data)) || uint64(h.ContentLength)+HeaderSize > uint64(h.Length) {
		return nil, fmt.Errorf("length %d, content length %d, have %d bytes: %w", h.Length, h.ContentLength, len(data), ErrTruncated)
	}

	contentEnd := HeaderSize + int(h.ContentLength)
	return &Container{
		Header:  h,
		Content: data[HeaderSize:contentEnd],
		Binary:  data[contentEnd:h.Length],
	}, nil
}

// Encode builds a container around a document section and a binary blob. The
// document section is padded with spaces to a 4-byte boundary.
//
// Parameters:
//   - content: the JSON document section
//   - blob: the binary resource blob
//
// Returns:
//   - []byte: the encoded container
func Encode(content, blob []byte) []byte {
	padded := len(content)
	if rem := padded % 4; rem != 0 {
		padded += 4 - rem
	}

	h := Header{
		Magic:         Magic,
		Version:       Version,
		Length:        uint32(HeaderSize + padded + len(blob)),
		ContentLength: uint32(padded),
		ContentFormat: ContentFormatJSON,
	}

	var buf bytes.Buffer
	buf.Grow(int(h.Length))
	_ = binary.Write(&buf, binary.LittleEndian, &h)
	buf.Write(content)
	for i := len(content); i < padded; i++ {
		buf.WriteByte(' ')
	}
	buf.Write(blob)
	return buf.Bytes()
}
