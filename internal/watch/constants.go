package watch

import "time"

const (
	// DefaultDebounce coalesces repeated fs events for the same path.
	DefaultDebounce = 300 * time.Millisecond

	// stabilityWait/stabilityPoll: how long a file must sit unmodified
	// before it's considered safe to read.
	stabilityWait = 200 * time.Millisecond
	stabilityPoll = 50 * time.Millisecond

	// cacheCapacity bounds the previous-content cache used for diffing.
	cacheCapacity = 500

	// maxDiffLines bounds the per-side line count the diff algorithm
	// will fully process before falling back to a placeholder.
	maxDiffLines = 2000
)

// ignoreGlobs lists the directory/file globs never walked or watched.
var ignoreGlobs = []string{
	".git", ".svn", ".hg",
	"node_modules", "vendor", "dist", "build", "out", "target", ".next", ".cache",
	"*.lock", "package-lock.json", "yarn.lock", "pnpm-lock.yaml", "go.sum",
	".DS_Store", ".env", ".*",
}
