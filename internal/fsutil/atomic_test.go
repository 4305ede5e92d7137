package fsutil

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	fs := afero.NewMemMapFs()

	require.NoError(t, WriteFileAtomic(fs, "a/b/body.md", []byte("first")))
	require.NoError(t, WriteFileAtomic(fs, "a/b/body.md", []byte("second")))

	data, err := afero.ReadFile(fs, "a/b/body.md")
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := afero.ReadDir(fs, "a/b")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "body.md", entries[0].Name())
}

func TestWriteFileAtomic_ReadOnly(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	assert.Error(t, WriteFileAtomic(fs, "body.md", []byte("x")))
}

func TestReadInput(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "note.md", []byte("from file"), 0o644))
	stdin := func() ([]byte, error) { return []byte("from stdin"), nil }

	data, err := ReadInput(fs, "note.md", stdin)
	require.NoError(t, err)
	assert.Equal(t, "from file", string(data))

	for _, path := range []string{"", "-"} {
		data, err = ReadInput(fs, path, stdin)
		require.NoError(t, err)
		assert.Equal(t, "from stdin", string(data))
	}

	_, err = ReadInput(fs, "missing.md", stdin)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.md")

	boom := errors.New("boom")
	_, err = ReadInput(fs, "-", func() ([]byte, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
}
