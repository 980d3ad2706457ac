package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWatcher(t *testing.T, root string) (*Watcher, *recorder) {
	rec := &recorder{}
	w, err := New(root, rec.record)
	require.NoError(t, err)
	w.debounce = 30 * time.Millisecond
	return w, rec
}

type recorder struct {
	mu      sync.Mutex
	changes []Change
}

func (r *recorder) record(c Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
}

func (r *recorder) snapshot() []Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Change, len(r.changes))
	copy(out, r.changes)
	return out
}

func waitForChanges(t *testing.T, rec *recorder, n int) []Change {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if len(rec.snapshot()) >= n {
			return rec.snapshot()
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d changes, got %d", n, len(rec.snapshot()))
	return nil
}

func TestWatcherReportsTextAdd(t *testing.T) {
	root := t.TempDir()
	w, rec := newTestWatcher(t, root)
	require.NoError(t, w.Start())
	defer w.Stop()

	path := filepath.Join(root, "a.go")
	require.NoError(t, os.WriteFile(path, []byte("line1\nline2\n"), 0o644))

	changes := waitForChanges(t, rec, 1)
	assert.Equal(t, "add", changes[0].ChangeType)
	assert.Equal(t, 3, changes[0].LinesAdded)
}

func TestWatcherReportsTextChangeWithDiff(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "b.go")
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\nthree\n"), 0o644))

	w, rec := newTestWatcher(t, root)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("one\nTWO\nthree\n"), 0o644))

	changes := waitForChanges(t, rec, 1)
	assert.Equal(t, "change", changes[0].ChangeType)
	require.NotNil(t, changes[0].Diff)
	assert.Equal(t, 1, changes[0].LinesAdded)
	assert.Equal(t, 1, changes[0].LinesRemoved)
}

func TestWatcherReportsUnlink(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "c.go")
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\n"), 0o644))

	w, rec := newTestWatcher(t, root)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.Remove(path))

	changes := waitForChanges(t, rec, 1)
	assert.Equal(t, "unlink", changes[0].ChangeType)
	assert.Equal(t, 3, changes[0].LinesRemoved)
}

func TestWatcherIgnoresDotGitAndNodeModules(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules"), 0o755))

	w, rec := newTestWatcher(t, root)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "HEAD"), []byte("ref: refs/heads/main\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "node_modules", "x.js"), []byte("noop\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "tracked.go"), []byte("package x\n"), 0o644))

	changes := waitForChanges(t, rec, 1)
	require.Len(t, changes, 1)
	assert.Equal(t, filepath.Join(root, "tracked.go"), changes[0].Path)
}

func TestWatcherDebounceCoalescesRapidWrites(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "d.go")
	require.NoError(t, os.WriteFile(path, []byte("a\n"), 0o644))

	w, rec := newTestWatcher(t, root)
	require.NoError(t, w.Start())
	defer w.Stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("a\nb\n"), 0o644))
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(500 * time.Millisecond)
	assert.Len(t, rec.snapshot(), 1)
}

func TestWatcherBinaryFileRecordsSizeOnly(t *testing.T) {
	root := t.TempDir()
	w, rec := newTestWatcher(t, root)
	require.NoError(t, w.Start())
	defer w.Stop()

	path := filepath.Join(root, "img.png")
	require.NoError(t, os.WriteFile(path, []byte{0x89, 0x50, 0x4e, 0x47, 0, 0, 0, 0}, 0o644))

	changes := waitForChanges(t, rec, 1)
	require.NotNil(t, changes[0].SizeAfter)
	assert.EqualValues(t, 8, *changes[0].SizeAfter)
	assert.Nil(t, changes[0].Diff)
}

func TestComputeDiffSimpleSubstitution(t *testing.T) {
	result := computeDiff("one\ntwo\nthree\n", "one\nTWO\nthree\n")
	assert.Equal(t, 1, result.LinesAdded)
	assert.Equal(t, 1, result.LinesRemoved)
}

func TestComputeDiffExcerptsToTenAddedTenRemovedWithSummaryTail(t *testing.T) {
	oldLines := make([]string, 0, 30)
	newLines := make([]string, 0, 30)
	for i := 0; i < 30; i++ {
		oldLines = append(oldLines, fmt.Sprintf("old%d", i))
		newLines = append(newLines, fmt.Sprintf("new%d", i))
	}
	result := computeDiff(strings.Join(oldLines, "\n")+"\n", strings.Join(newLines, "\n")+"\n")

	assert.Equal(t, 30, result.LinesAdded)
	assert.Equal(t, 30, result.LinesRemoved)

	var added, removed int
	for _, line := range strings.Split(result.Diff, "\n") {
		switch {
		case strings.HasPrefix(line, "+"):
			added++
		case strings.HasPrefix(line, "-"):
			removed++
		}
	}
	assert.LessOrEqual(t, added, 10)
	assert.LessOrEqual(t, removed, 10)
	assert.Contains(t, result.Diff, "30 added, 30 removed total")
}

func TestComputeDiffAboveMaxDiffLinesFallsBackToPlaceholder(t *testing.T) {
	big := make([]byte, 0)
	for i := 0; i < maxDiffLines+10; i++ {
		big = append(big, []byte("x\n")...)
	}
	result := computeDiff(string(big), string(big)+"y\n")
	assert.Contains(t, result.Diff, "diff suppressed")
	assert.Equal(t, 1, result.LinesAdded)
}

func TestContentCacheEvictsOldestOnInsertionOrder(t *testing.T) {
	c := newContentCache(2)
	c.set("a", "1")
	c.set("b", "2")
	c.set("c", "3")

	_, ok := c.get("a")
	assert.False(t, ok)
	_, ok = c.get("b")
	assert.True(t, ok)
	_, ok = c.get("c")
	assert.True(t, ok)
}

func TestIsIgnoredMatchesDotfilesAndLockfiles(t *testing.T) {
	assert.True(t, isIgnored(".env"))
	assert.True(t, isIgnored("go.sum"))
	assert.True(t, isIgnored("vendor/lib/x.go"))
	assert.False(t, isIgnored("src/main.go"))
}
