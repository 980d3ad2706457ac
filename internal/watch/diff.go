package watch

import (
	"fmt"
	"strings"
)

// DiffResult is the outcome of diffing a file's previous content
// against its current content.
type DiffResult struct {
	Diff         string
	LinesAdded   int
	LinesRemoved int
}

// computeDiff runs a single forward scan with lookahead: on a
// mismatch it searches ahead on both sides for the first reappearance
// of the other side's current line, advances whichever side's match
// is nearer (emitting the skipped lines as added/removed), and falls
// back to a remove+add pair when neither side finds a match. Inputs
// larger than maxDiffLines on either side short-circuit to a
// length-delta placeholder rather than paying for the full scan.
func computeDiff(oldContent, newContent string) DiffResult {
	oldLines := strings.Split(oldContent, "\n")
	newLines := strings.Split(newContent, "\n")

	if len(oldLines) > maxDiffLines || len(newLines) > maxDiffLines {
		added, removed := 0, 0
		if len(newLines) > len(oldLines) {
			added = len(newLines) - len(oldLines)
		} else {
			removed = len(oldLines) - len(newLines)
		}
		return DiffResult{
			Diff:         fmt.Sprintf("(diff suppressed: %d -> %d lines)", len(oldLines), len(newLines)),
			LinesAdded:   added,
			LinesRemoved: removed,
		}
	}

	var out []string
	added, removed := 0, 0
	i, j := 0, 0
	for i < len(oldLines) && j < len(newLines) {
		if oldLines[i] == newLines[j] {
			i++
			j++
			continue
		}

		matchInOld := indexFrom(oldLines, i, newLines[j])
		matchInNew := indexFrom(newLines, j, oldLines[i])

		switch {
		case matchInOld >= 0 && (matchInNew < 0 || (matchInOld-i) <= (matchInNew-j)):
			for k := i; k < matchInOld; k++ {
				out = append(out, "-"+oldLines[k])
				removed++
			}
			i = matchInOld
		case matchInNew >= 0:
			for k := j; k < matchInNew; k++ {
				out = append(out, "+"+newLines[k])
				added++
			}
			j = matchInNew
		default:
			out = append(out, "-"+oldLines[i], "+"+newLines[j])
			removed++
			added++
			i++
			j++
		}
	}
	for ; i < len(oldLines); i++ {
		out = append(out, "-"+oldLines[i])
		removed++
	}
	for ; j < len(newLines); j++ {
		out = append(out, "+"+newLines[j])
		added++
	}

	return DiffResult{Diff: excerpt(out, added, removed), LinesAdded: added, LinesRemoved: removed}
}

// excerptLines caps how many added/removed lines a reported diff
// carries; full counts still travel in LinesAdded/LinesRemoved.
const excerptLines = 10

// excerpt trims out to at most excerptLines added and excerptLines
// removed lines, preserving their relative order, and appends a
// summary tail when anything was cut.
func excerpt(out []string, added, removed int) string {
	if added <= excerptLines && removed <= excerptLines {
		return strings.Join(out, "\n")
	}

	kept := make([]string, 0, 2*excerptLines)
	addedSeen, removedSeen := 0, 0
	for _, line := range out {
		if strings.HasPrefix(line, "+") {
			if addedSeen >= excerptLines {
				continue
			}
			addedSeen++
		} else {
			if removedSeen >= excerptLines {
				continue
			}
			removedSeen++
		}
		kept = append(kept, line)
	}

	kept = append(kept, fmt.Sprintf("... (%d added, %d removed total; excerpt truncated to %d each)", added, removed, excerptLines))
	return strings.Join(kept, "\n")
}

// indexFrom returns the first index >= from where lines[idx] == target,
// or -1.
func indexFrom(lines []string, from int, target string) int {
	for k := from; k < len(lines); k++ {
		if lines[k] == target {
			return k
		}
	}
	return -1
}
