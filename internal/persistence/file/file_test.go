package file

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/codehive-dev/codehive/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteThenReadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	p := New(filepath.Join(dir, "nested", "registry.json"))

	hash := "abc123"
	snapshots := []*domain.RoomSnapshot{
		{Code: "HIVE-ABCDEF", CreatedAt: 1000, CreatedBy: "Zeus", HasPassword: true, PasswordHash: &hash, IsPublic: true, LastActivity: 1000},
	}

	require.NoError(t, p.Write(context.Background(), snapshots))

	got, err := p.Read(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "HIVE-ABCDEF", got[0].Code)
	assert.Equal(t, "abc123", *got[0].PasswordHash)
}

func TestReadMissingFileReturnsEmptyNotError(t *testing.T) {
	dir := t.TempDir()
	p := New(filepath.Join(dir, "does-not-exist.json"))

	got, err := p.Read(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWriteLeavesNoTempFileBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "registry.json")
	p := New(path)

	require.NoError(t, p.Write(context.Background(), nil))

	entries, err := filepathGlobTmp(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func filepathGlobTmp(dir string) ([]string, error) {
	return filepath.Glob(filepath.Join(dir, "*.tmp.*"))
}
