package source

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compress(t *testing.T, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = enc.Write(data)
	require.NoError(t, err)
	require.NoError(t, enc.Close())
	return buf.Bytes()
}

func TestWrap_Plain(t *testing.T) {
	t.Parallel()

	data := []byte("\x04\x00\x00\x00plain archive bytes")
	s, err := Wrap(bytes.NewReader(data))
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, CompressionNone, s.Compression())
	got, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestWrap_Short(t *testing.T) {
	t.Parallel()

	for _, data := range [][]byte{nil, {0x28}, {0x28, 0xb5, 0x2f}} {
		s, err := Wrap(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, CompressionNone, s.Compression())

		got, err := io.ReadAll(s)
		require.NoError(t, err)
		assert.Equal(t, len(data), len(got))
		require.NoError(t, s.Close())
	}
}

func TestWrap_Zstd(t *testing.T) {
	t.Parallel()

	data := bytes.Repeat([]byte("archive payload "), 1024)
	s, err := Wrap(bytes.NewReader(compress(t, data)))
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, CompressionZstd, s.Compression())
	got, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestWrap_CorruptZstd(t *testing.T) {
	t.Parallel()

	frame := compress(t, bytes.Repeat([]byte("x"), 4096))
	s, err := Wrap(bytes.NewReader(frame[:len(frame)/2]))
	require.NoError(t, err)
	defer s.Close()

	_, err = io.ReadAll(s)
	require.Error(t, err)
}

func TestOpen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	data := []byte("hello archive")

	plain := filepath.Join(dir, "app.asar")
	require.NoError(t, os.WriteFile(plain, data, 0o644))
	packed := filepath.Join(dir, "app.asar.zst")
	require.NoError(t, os.WriteFile(packed, compress(t, data), 0o644))

	for _, name := range []string{plain, packed} {
		s, err := Open(name)
		require.NoError(t, err)
		got, err := io.ReadAll(s)
		require.NoError(t, err)
		assert.Equal(t, data, got)
		require.NoError(t, s.Close())
		require.NoError(t, s.Close(), "close is idempotent")
	}
}

func TestOpen_Missing(t *testing.T) {
	t.Parallel()

	_, err := Open(filepath.Join(t.TempDir(), "missing.asar"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestCompression_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "none", CompressionNone.String())
	assert.Equal(t, "zstd", CompressionZstd.String())
	assert.Equal(t, "unknown", Compression(7).String())
}
