package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.txt")
	require.NoError(t, os.WriteFile(path, []byte("test fixture content"), 0644))

	assert.Equal(t, "test fixture content", string(LoadFixture(t, path)))
}

func TestWriteGolden_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "out.golden")

	WriteGolden(t, path, []byte("SELECT 1"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", string(data))
}

func TestCompareWithGolden(t *testing.T) {
	t.Run("creates missing file", func(t *testing.T) {
		t.Setenv(UpdateGoldenEnv, "")
		path := filepath.Join(t.TempDir(), "golden", "new.golden")

		CompareWithGolden(t, path, []byte("first"))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "first", string(data))
	})

	t.Run("matches existing file", func(t *testing.T) {
		t.Setenv(UpdateGoldenEnv, "")
		path := filepath.Join(t.TempDir(), "same.golden")
		require.NoError(t, os.WriteFile(path, []byte("same"), 0644))

		CompareWithGolden(t, path, []byte("same"))
	})

	t.Run("update rewrites file", func(t *testing.T) {
		t.Setenv(UpdateGoldenEnv, "1")
		path := filepath.Join(t.TempDir(), "stale.golden")
		require.NoError(t, os.WriteFile(path, []byte("stale"), 0644))

		CompareWithGolden(t, path, []byte("fresh"))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "fresh", string(data))
	})
}

func TestPaths(t *testing.T) {
	assert.Equal(t, filepath.Join("testdata", "users.json"), FixturePath("users.json"))
	assert.Equal(t, filepath.Join("testdata", "golden", "find.sql"), GoldenPath("find.sql"))
}

func TestLoadRows(t *testing.T) {
	rows := LoadRows(t, FixturePath("users.json"))

	require.Len(t, rows, 4)
	assert.Equal(t, int64(1), rows[0]["id"])
	assert.Equal(t, "ada@example.com", rows[0]["email"])
	assert.Nil(t, rows[2]["name"])
	assert.Equal(t, int64(7), rows[3]["id"])
}
