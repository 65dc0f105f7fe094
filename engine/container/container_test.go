package container

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeParseRoundTrip(t *testing.T) {
	content := []byte(`{"asset":{}}`) // 12 bytes, already aligned
	blob := []byte{1, 2, 3, 4, 5}

	data := Encode(content, blob)
	require.True(t, IsContainer(data))

	c, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, content, c.Content)
	assert.Equal(t, blob, c.Binary)
	assert.Equal(t, uint32(len(data)), c.Header.Length)
}

func TestEncodePadsContent(t *testing.T) {
	data := Encode([]byte(`{"a":1}`), nil)
	c, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(8), c.Header.ContentLength)
	assert.Equal(t, `{"a":1} `, string(c.Content))
	assert.Empty(t, c.Binary)
}

func TestParseErrors(t *testing.T) {
	valid := Encode([]byte(`{}  `), []byte{9, 9})

	corrupt := func(offset int, v uint32) []byte {
		b := append([]byte(nil), valid...)
		binary.LittleEndian.PutUint32(b[offset:], v)
		return b
	}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"short header", valid[:10], ErrTruncated},
		{"magic", corrupt(0, 0x12345678), ErrBadMagic},
		{"version", corrupt(4, 2), ErrBadVersion},
		{"content format", corrupt(16, 1), ErrBadContentFormat},
		{"unaligned", corrupt(12, 3), ErrUnaligned},
		{"length past end", corrupt(8, 4096), ErrTruncated},
		{"content past length", corrupt(12, 4096), ErrTruncated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseDataURI(t *testing.T) {
	plain, err := ParseDataURI("data:text/plain,void%20main()%7B%7D")
	require.NoError(t, err)
	assert.Equal(t, "text/plain", plain.MediaType)
	assert.Equal(t, "void main(){}", string(plain.Data))

	text, err := ParseDataURI("data:text/plain;base64,dm9pZCBtYWluKCl7fQ==")
	require.NoError(t, err)
	assert.Equal(t, "void main(){}", string(text.Data))

	bin, err := ParseDataURI("data:application/octet-stream;base64,AAECAw==")
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2, 3}, bin.Data)

	_, err = ParseDataURI("data:application/octet-stream;base64")
	assert.ErrorIs(t, err, ErrInvalidDataURI)
}

func TestResolveBinaryRange(t *testing.T) {
	r := &Resolver{Binary: []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}}

	data, _, err := r.Resolve(BinaryRangeURI(0x0a, 3))
	require.NoError(t, err)
	assert.Equal(t, []byte{10, 11, 12}, data)

	_, _, err = r.Resolve("bin:10:4")
	assert.ErrorIs(t, err, ErrRangeOutOfBounds)

	_, _, err = r.Resolve("bin:zz:4")
	assert.ErrorIs(t, err, ErrInvalidRangeURI)

	_, _, err = (&Resolver{}).Resolve("bin:0:1")
	assert.ErrorIs(t, err, ErrNoBinaryBlob)
}

func TestResolveExternal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shader.vs"), []byte("void main(){}"), 0o644))

	_, _, err := (&Resolver{BaseDir: dir}).Resolve("shader.vs")
	assert.ErrorIs(t, err, ErrExternalForbidden)

	data, _, err := (&Resolver{BaseDir: dir, AllowExternal: true}).Resolve("shader.vs")
	require.NoError(t, err)
	assert.Equal(t, "void main(){}", string(data))
}
