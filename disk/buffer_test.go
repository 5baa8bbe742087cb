package disk

import (
	"os"
	"path/filepath"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBuffer(t *testing.T) {
	b, err := NewBuffer(512)
	require.NoError(t, err)
	defer b.Close()

	buf := b.Bytes()
	require.Len(t, buf, 512)
	assert.Zero(t, uintptr(unsafe.Pointer(&buf[0]))%uintptr(os.Getpagesize()), "buffer is not page aligned")

	for i := range buf {
		buf[i] = byte(i)
	}
	assert.Equal(t, byte(255), b.Bytes()[255])

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	assert.Nil(t, b.Bytes())
}

func TestNewBufferRejectsEmpty(t *testing.T) {
	_, err := NewBuffer(0)
	assert.Error(t, err)
}

func TestLoadPayload(t *testing.T) {
	name := filepath.Join(t.TempDir(), "payload.bin")
	data := make([]byte, 1024)
	for i := range data {
		data[i] = byte(i * 7)
	}
	require.NoError(t, os.WriteFile(name, data, 0o600))

	p, err := LoadPayload(name)
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, name, p.Name())
	assert.Equal(t, 1024, p.Len())
	assert.Equal(t, data, []byte(p.Bytes()))

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
}

func TestLoadPayloadFailures(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadPayload(filepath.Join(dir, "missing.bin"))
	assert.ErrorIs(t, err, ErrFilePayload)
	assert.ErrorIs(t, err, os.ErrNotExist)

	empty := filepath.Join(dir, "empty.bin")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	_, err = LoadPayload(empty)
	assert.ErrorIs(t, err, ErrFilePayload)

	_, err = LoadPayload(dir)
	assert.ErrorIs(t, err, ErrFilePayload)
}
