// Package diff produces line-level diffs between two blob contents,
// used by difftree to populate a Modified change's Summary.
package diff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Result holds the line-granularity diff between two texts.
type Result struct {
	Insertions int
	Removals   int
	// Text is a unified-style body: context lines prefixed " ",
	// additions prefixed "+", removals prefixed "-".
	Text string
}

// Lines diffs old and new content at line granularity. Either side may
// be empty (covering the added/deleted-file edge cases); binary content
// (detected by a NUL byte) is reported with an empty Text body and zero
// counts, since line diffing a binary blob is meaningless.
func Lines(oldContent, newContent []byte) Result {
	if looksBinary(oldContent) || looksBinary(newContent) {
		return Result{}
	}

	dmp := diffmatchpatch.New()

	lineText1, lineText2, lineArray := dmp.DiffLinesToChars(string(oldContent), string(newContent))
	diffs := dmp.DiffMain(lineText1, lineText2, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var b strings.Builder
	ins, rem := 0, 0
	for _, d := range diffs {
		lines := splitKeepingEmpty(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			ins += countNonEmptyLines(lines)
			for _, l := range lines {
				if l == "" {
					continue
				}
				b.WriteString("+" + l + "\n")
			}
		case diffmatchpatch.DiffDelete:
			rem += countNonEmptyLines(lines)
			for _, l := range lines {
				if l == "" {
					continue
				}
				b.WriteString("-" + l + "\n")
			}
		case diffmatchpatch.DiffEqual:
			for _, l := range lines {
				if l == "" {
					continue
				}
				b.WriteString(" " + l + "\n")
			}
		}
	}

	return Result{Insertions: ins, Removals: rem, Text: b.String()}
}

func looksBinary(content []byte) bool {
	for _, b := range content {
		if b == 0 {
			return true
		}
	}
	return false
}

func splitKeepingEmpty(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func countNonEmptyLines(lines []string) int {
	n := 0
	for _, l := range lines {
		if l != "" {
			n++
		}
	}
	return n
}
