package migrations

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_results.sql", "001_init.sql", "README.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "003_dir.sql"), 0o700))

	files, err := MigrationFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "001_init.sql"),
		filepath.Join(dir, "002_results.sql"),
	}, files)
}

func TestMigrationFilesMissingDirectory(t *testing.T) {
	_, err := MigrationFiles(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestVersionOf(t *testing.T) {
	assert.Equal(t, "001", versionOf("migrations/001_init.sql"))
	assert.Equal(t, "002", versionOf("002_grading_rules_position.sql"))
	assert.Equal(t, "plain.sql", versionOf("plain.sql"))
}
