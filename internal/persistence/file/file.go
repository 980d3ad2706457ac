// Package file implements persistence.Persister by atomically writing
// the registry snapshot to a local JSON file.
package file

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/codehive-dev/codehive/internal/domain"
	"github.com/codehive-dev/codehive/internal/persistence"
)

const filePerm = 0o600

// Persister writes the registry snapshot to a single JSON file at
// Path, replacing it atomically (write-temp-then-rename) so a crash
// mid-write never leaves a truncated file on disk.
type Persister struct {
	Path string
}

// New returns a file-backed Persister writing to path.
func New(path string) *Persister { return &Persister{Path: path} }

var _ persistence.Persister = (*Persister)(nil)

// Write atomically replaces the snapshot file with snapshots.
func (p *Persister) Write(_ context.Context, snapshots []*domain.RoomSnapshot) error {
	data, err := json.Marshal(snapshots)
	if err != nil {
		return fmt.Errorf("marshal snapshots: %w", err)
	}

	dir := filepath.Dir(p.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create persistence dir: %w", err)
	}

	tmpPath := p.Path + ".tmp." + randomSuffix()
	tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, p.Path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Read loads the snapshot file. A missing file is not an error; it
// returns an empty slice, matching a fresh relay's first boot.
func (p *Persister) Read(_ context.Context) ([]*domain.RoomSnapshot, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot file: %w", err)
	}

	var snapshots []*domain.RoomSnapshot
	if err := json.Unmarshal(data, &snapshots); err != nil {
		return nil, fmt.Errorf("unmarshal snapshots: %w", err)
	}
	return snapshots, nil
}

func randomSuffix() string {
	var b [8]byte
	rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
