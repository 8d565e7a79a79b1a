package diff

import (
	"bytes"
	"fmt"
)

// ContextLines is the number of unchanged lines carried on each side of
// a change block. Change blocks separated by fewer than twice this many
// unchanged lines share a hunk.
const ContextLines = 3

// LineKind classifies a line within a hunk.
type LineKind int

const (
	Context LineKind = iota
	Addition
	Deletion
)

// Line is one rendered diff line. Line numbers are 1-based; OldNo is
// zero for additions and NewNo is zero for deletions.
type Line struct {
	Kind    LineKind
	OldNo   int
	NewNo   int
	Content string
}

// Prefix returns the unified-diff marker for the line.
func (l Line) Prefix() byte {
	switch l.Kind {
	case Addition:
		return '+'
	case Deletion:
		return '-'
	default:
		return ' '
	}
}

// Hunk is a contiguous block of changes with surrounding context.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []Line
}

// Header renders the @@ range line for the hunk.
func (h *Hunk) Header() string {
	return fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
}

func (h *Hunk) addLine(line Line) {
	switch line.Kind {
	case Context:
		h.OldCount++
		h.NewCount++
	case Addition:
		h.NewCount++
	case Deletion:
		h.OldCount++
	}
	h.Lines = append(h.Lines, line)
}

// FileDiff is the complete diff of one file.
type FileDiff struct {
	OldPath  string
	NewPath  string
	IsBinary bool
	Hunks    []Hunk
}

// HasChanges reports whether the diff contains anything to show. Binary
// files are always considered changed.
func (d *FileDiff) HasChanges() bool {
	return d.IsBinary || len(d.Hunks) > 0
}

// Additions counts added lines across all hunks.
func (d *FileDiff) Additions() int {
	return d.countKind(Addition)
}

// Deletions counts deleted lines across all hunks.
func (d *FileDiff) Deletions() int {
	return d.countKind(Deletion)
}

func (d *FileDiff) countKind(kind LineKind) int {
	n := 0
	for i := range d.Hunks {
		for _, l := range d.Hunks[i].Lines {
			if l.Kind == kind {
				n++
			}
		}
	}
	return n
}

// ToHunks groups an edit script into context-bounded hunks. Unchanged
// runs longer than 2×ContextLines split hunks; shorter runs are kept
// inline so neighboring change blocks merge.
func ToHunks(script []Op, oldLines, newLines []string) []Hunk {
	var hunks []Hunk
	var current *Hunk
	var ctxBuf []Line

	oldIdx, newIdx := 0, 0
	for _, op := range script {
		switch op {
		case OpEqual:
			line := Line{Kind: Context, OldNo: oldIdx + 1, NewNo: newIdx + 1, Content: oldLines[oldIdx]}
			if current != nil {
				ctxBuf = append(ctxBuf, line)
				if len(ctxBuf) > ContextLines*2 {
					// Enough trailing context: close the hunk and
					// keep the tail as leading context for the next.
					for _, ctx := range ctxBuf[:ContextLines] {
						current.addLine(ctx)
					}
					hunks = append(hunks, *current)
					current = nil
					ctxBuf = append([]Line(nil), ctxBuf[len(ctxBuf)-ContextLines:]...)
				}
			} else {
				ctxBuf = append(ctxBuf, line)
				if len(ctxBuf) > ContextLines {
					ctxBuf = ctxBuf[1:]
				}
			}
			oldIdx++
			newIdx++

		case OpDelete, OpInsert:
			if current == nil {
				current = &Hunk{
					OldStart: oldIdx - len(ctxBuf) + 1,
					NewStart: newIdx - len(ctxBuf) + 1,
				}
			}
			for _, ctx := range ctxBuf {
				current.addLine(ctx)
			}
			ctxBuf = ctxBuf[:0]

			if op == OpDelete {
				current.addLine(Line{Kind: Deletion, OldNo: oldIdx + 1, Content: oldLines[oldIdx]})
				oldIdx++
			} else {
				current.addLine(Line{Kind: Addition, NewNo: newIdx + 1, Content: newLines[newIdx]})
				newIdx++
			}
		}
	}

	if current != nil {
		for _, ctx := range ctxBuf {
			current.addLine(ctx)
		}
		hunks = append(hunks, *current)
	}
	return hunks
}

// Texts diffs two text buffers into a FileDiff. Binary inputs short to
// a binary marker with no hunks.
func Texts(oldPath, newPath string, oldData, newData []byte) FileDiff {
	d := FileDiff{OldPath: oldPath, NewPath: newPath}
	if IsBinary(oldData) || IsBinary(newData) {
		d.IsBinary = !bytes.Equal(oldData, newData)
		return d
	}
	oldLines := SplitLines(string(oldData))
	newLines := SplitLines(string(newData))
	script := Compute(oldLines, newLines)
	d.Hunks = ToHunks(script, oldLines, newLines)
	return d
}
