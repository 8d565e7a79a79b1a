// Package merge implements three-way reconciliation of file trees and
// file contents against a common ancestor.
package merge

import (
	"bytes"
	"fmt"
	"strings"
)

// FileConflict is a path the merge could not resolve. Content fields are
// nil for sides where the file does not exist.
type FileConflict struct {
	Path         string
	BaseContent  []byte
	OurContent   []byte
	TheirContent []byte
	IsBinary     bool
}

func (c *FileConflict) String() string {
	if c.IsBinary {
		return fmt.Sprintf("binary conflict in %s", c.Path)
	}
	return fmt.Sprintf("conflict in %s", c.Path)
}

// Markers renders the conflicted file content written to the working
// tree: both sides between <<<<<<< and >>>>>>> markers, each side
// guaranteed to end in a newline. Binary conflicts get an instructional
// placeholder instead of markers.
func (c *FileConflict) Markers(ourLabel, theirLabel string) []byte {
	if c.IsBinary {
		return []byte(fmt.Sprintf(
			"Binary file conflict in %s\nKeep the version from %s or from %s, then stage the file.\n",
			c.Path, ourLabel, theirLabel))
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<<<<<<< %s\n", ourLabel)
	writeSide(&buf, c.OurContent)
	buf.WriteString("=======\n")
	writeSide(&buf, c.TheirContent)
	fmt.Fprintf(&buf, ">>>>>>> %s\n", theirLabel)
	return buf.Bytes()
}

func writeSide(buf *bytes.Buffer, content []byte) {
	buf.Write(content)
	if len(content) > 0 && content[len(content)-1] != '\n' {
		buf.WriteByte('\n')
	}
}

// HasConflictMarkers reports whether content still carries unresolved
// conflict markers. Used by merge --continue to refuse committing
// half-resolved files.
func HasConflictMarkers(content string) bool {
	return strings.Contains(content, "<<<<<<<") && strings.Contains(content, ">>>>>>>")
}

// Result aggregates the outcome of a tree merge. Paths absent from all
// three lists were unchanged on our side. DeletedPaths records files
// whose deletion stands (removed on both sides relative to base); they
// never appear in MergedFiles.
type Result struct {
	MergedFiles  map[string][]byte
	DeletedPaths []string
	Conflicts    []FileConflict
}

// HasConflicts reports whether any path failed to merge.
func (r *Result) HasConflicts() bool {
	return len(r.Conflicts) > 0
}
