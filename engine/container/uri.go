package container

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// BinaryRangeScheme prefixes URIs that address a byte range inside the container's
// binary blob: "bin:<hex offset>:<hex length>".
const BinaryRangeScheme = "bin:"

var (
	ErrInvalidDataURI    = errors.New("invalid data URI")
	ErrInvalidRangeURI   = errors.New("invalid binary range URI")
	ErrRangeOutOfBounds  = errors.New("binary range outside the binary blob")
	ErrNoBinaryBlob      = errors.New("binary range URI used without a binary blob")
	ErrExternalForbidden = errors.New("external resource URIs are disabled")
)

// DataURI is a decoded "data:" URI.
type DataURI struct {
	MediaType string
	Data      []byte
}

// ParseDataURI decodes a data URI carrying plain text, base64 text or base64 binary.
// Format: data:[<mediatype>][;base64],<data>
//
// Parameters:
//   - uri: the full URI including the "data:" prefix
//
// Returns:
//   - DataURI: the media type and payload bytes
//   - error: error if the URI is malformed
func ParseDataURI(uri string) (DataURI, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return DataURI{}, ErrInvalidDataURI
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return DataURI{}, fmt.Errorf("missing payload separator: %w", ErrInvalidDataURI)
	}

	mediaType, isBase64 := strings.CutSuffix(header, ";base64")
	if isBase64 {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return DataURI{}, fmt.Errorf("failed to decode base64: %w", err)
		}
		return DataURI{MediaType: mediaType, Data: data}, nil
	}

	text, err := url.PathUnescape(payload)
	if err != nil {
		return DataURI{}, fmt.Errorf("failed to unescape payload: %w", err)
	}
	return DataURI{MediaType: mediaType, Data: []byte(text)}, nil
}

// ParseBinaryRange parses a "bin:<hex offset>:<hex length>" URI.
//
// Parameters:
//   - uri: the full URI including the scheme
//
// Returns:
//   - int: byte offset into the binary blob
//   - int: byte length
//   - error: error if the URI is malformed
func ParseBinaryRange(uri string) (int, int, error) {
	rest, ok := strings.CutPrefix(uri, BinaryRangeScheme)
	if !ok {
		return 0, 0, ErrInvalidRangeURI
	}
	offStr, lenStr, ok := strings.Cut(rest, ":")
	if !ok {
		return 0, 0, fmt.Errorf("%q: %w", uri, ErrInvalidRangeURI)
	}
	offset, err := strconv.ParseUint(offStr, 16, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("%q offset: %w", uri, ErrInvalidRangeURI)
	}
	length, err := strconv.ParseUint(lenStr, 16, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("%q length: %w", uri, ErrInvalidRangeURI)
	}
	return int(offset), int(length), nil
}

// BinaryRangeURI formats the URI addressing length bytes at offset inside the binary blob.
func BinaryRangeURI(offset, length int) string {
	return fmt.Sprintf("%s%x:%x", BinaryRangeScheme, offset, length)
}

// Resolver fetches the bytes behind resource URIs referenced by a document.
type Resolver struct {
	// BaseDir is the directory relative file URIs are resolved against.
	BaseDir string
	// Binary is the container's binary blob, nil for plain documents.
	Binary []byte
	// AllowExternal enables reading files referenced by relative or absolute paths.
	AllowExternal bool
}

// Resolve returns the bytes addressed by uri.
//
// Parameters:
//   - uri: a data URI, a binary range URI or a file path
//
// Returns:
//   - []byte: the resource bytes; binary ranges alias the blob
//   - string: the media type when the URI carries one
//   - error: error if the resource cannot be fetched
func (r *Resolver) Resolve(uri string) ([]byte, string, error) {
	switch {
	case strings.HasPrefix(uri, "data:"):
		d, err := ParseDataURI(uri)
		if err != nil {
			return nil, "", err
		}
		return d.Data, d.MediaType, nil
	case strings.HasPrefix(uri, BinaryRangeScheme):
		offset, length, err := ParseBinaryRange(uri)
		if err != nil {
			return nil, "", err
		}
		if r.Binary == nil {
			return nil, "", ErrNoBinaryBlob
		}
		if offset+length > len(r.Binary) {
			return nil, "", fmt.Errorf("%q exceeds %d bytes: %w", uri, len(r.Binary), ErrRangeOutOfBounds)
		}
		return r.Binary[offset : offset+length], "", nil
	}

	if !r.AllowExternal {
		return nil, "", fmt.Errorf("%q: %w", uri, ErrExternalForbidden)
	}
	path := uri
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.BaseDir, filepath.FromSlash(uri))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read resource %q: %w", uri, err)
	}
	return data, "", nil
}
