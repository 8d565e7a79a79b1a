// Package diff computes line-based edit scripts between two texts and
// renders them as unified diffs with context hunks.
package diff

import (
	"bytes"
	"strings"
)

// Op is one step of an edit script.
type Op int

const (
	// OpEqual keeps a line present in both versions.
	OpEqual Op = iota
	// OpDelete drops a line from the old version.
	OpDelete
	// OpInsert adds a line from the new version.
	OpInsert
)

// binarySniffLen bounds how much of a buffer is inspected for NUL bytes.
const binarySniffLen = 8192

// SplitLines splits text into lines without their trailing newline. A
// trailing newline does not produce an empty final line; an empty text
// produces no lines.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}

// IsBinary reports whether data looks binary: a NUL byte within the
// first 8 KiB.
func IsBinary(data []byte) bool {
	n := len(data)
	if n > binarySniffLen {
		n = binarySniffLen
	}
	return bytes.IndexByte(data[:n], 0) >= 0
}

// Compute returns a minimum edit script aligning oldLines to newLines,
// using an edit-distance table over line equality. When deleting and
// inserting cost the same, deletion wins; the tie break is arbitrary but
// fixed so output is reproducible.
func Compute(oldLines, newLines []string) []Op {
	n := len(oldLines)
	m := len(newLines)

	if n == 0 {
		script := make([]Op, m)
		for i := range script {
			script[i] = OpInsert
		}
		return script
	}
	if m == 0 {
		script := make([]Op, n)
		for i := range script {
			script[i] = OpDelete
		}
		return script
	}

	cost := make([][]int, n+1)
	step := make([][]Op, n+1)
	for i := 0; i <= n; i++ {
		cost[i] = make([]int, m+1)
		step[i] = make([]Op, m+1)
	}
	for i := 1; i <= n; i++ {
		cost[i][0] = i
		step[i][0] = OpDelete
	}
	for j := 1; j <= m; j++ {
		cost[0][j] = j
		step[0][j] = OpInsert
	}

	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			if oldLines[i-1] == newLines[j-1] {
				cost[i][j] = cost[i-1][j-1]
				step[i][j] = OpEqual
				continue
			}
			deleteCost := cost[i-1][j] + 1
			insertCost := cost[i][j-1] + 1
			if deleteCost <= insertCost {
				cost[i][j] = deleteCost
				step[i][j] = OpDelete
			} else {
				cost[i][j] = insertCost
				step[i][j] = OpInsert
			}
		}
	}

	script := make([]Op, 0, cost[n][m])
	for i, j := n, m; i > 0 || j > 0; {
		op := step[i][j]
		script = append(script, op)
		switch op {
		case OpEqual:
			i--
			j--
		case OpDelete:
			i--
		case OpInsert:
			j--
		}
	}
	reverse(script)
	return script
}

// Apply reconstructs the new line sequence by replaying an edit script
// against the old lines. It is the inverse check for Compute.
func Apply(oldLines, newLines []string, script []Op) []string {
	var out []string
	oldIdx, newIdx := 0, 0
	for _, op := range script {
		switch op {
		case OpEqual:
			out = append(out, oldLines[oldIdx])
			oldIdx++
			newIdx++
		case OpDelete:
			oldIdx++
		case OpInsert:
			out = append(out, newLines[newIdx])
			newIdx++
		}
	}
	return out
}

func reverse(script []Op) {
	for i, j := 0, len(script)-1; i < j; i, j = i+1, j-1 {
		script[i], script[j] = script[j], script[i]
	}
}
