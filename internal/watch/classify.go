package watch

import (
	"path/filepath"
	"strings"
)

// binaryExt is the extension set treated as binary: no diffing, just
// size bookkeeping.
var binaryExt = map[string]bool{
	// images
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true, ".ico": true, ".webp": true, ".svg": true,
	// audio/video
	".mp3": true, ".wav": true, ".flac": true, ".ogg": true, ".mp4": true, ".mov": true, ".avi": true, ".mkv": true, ".webm": true,
	// archives
	".zip": true, ".tar": true, ".gz": true, ".bz2": true, ".7z": true, ".rar": true, ".xz": true,
	// documents
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true, ".ppt": true, ".pptx": true,
	// fonts
	".woff": true, ".woff2": true, ".ttf": true, ".otf": true, ".eot": true,
	// executables / native binaries
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".bin": true, ".wasm": true,
	// sqlite/db
	".db": true, ".sqlite": true, ".sqlite3": true,
}

// isBinaryPath classifies a file by extension alone; content is never
// sniffed, matching the spec's fixed-extension-set approach.
func isBinaryPath(path string) bool {
	return binaryExt[strings.ToLower(filepath.Ext(path))]
}

// isIgnored reports whether any path segment matches an ignore glob.
func isIgnored(relPath string) bool {
	if relPath == "." {
		return false
	}
	for _, seg := range strings.Split(filepath.ToSlash(relPath), "/") {
		if seg == "" {
			continue
		}
		for _, g := range ignoreGlobs {
			if ok, _ := filepath.Match(g, seg); ok {
				return true
			}
		}
	}
	return false
}
