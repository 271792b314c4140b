package fileutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("log:\n  level: debug\n"), 0o600))

	assert.True(t, FileExists(file))
	assert.False(t, FileExists(dir))
	assert.False(t, FileExists(filepath.Join(dir, "missing.yaml")))

	assert.True(t, DirectoryExists(dir))
	assert.False(t, DirectoryExists(file))
}

func TestEnsureParentDir(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "data", "nested", "recurring.db")

	require.NoError(t, EnsureParentDir(db))
	assert.True(t, DirectoryExists(filepath.Dir(db)))

	// Existing directories and bare file names are left alone.
	require.NoError(t, EnsureParentDir(db))
	require.NoError(t, EnsureParentDir("recurring.db"))

	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))
	assert.Error(t, EnsureParentDir(filepath.Join(blocker, "sub", "x.db")))
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		in       string
		expected string
	}{
		{"~", home},
		{"~/.recurring-ledger/recurring.db", filepath.Join(home, ".recurring-ledger", "recurring.db")},
		{"/var/lib/recurring.db", "/var/lib/recurring.db"},
		{"recurring.db", "recurring.db"},
		{"~other/recurring.db", "~other/recurring.db"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ExpandHome(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
