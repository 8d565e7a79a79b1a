package merge

import (
	"strings"

	"kitcat/pkg/diff"
)

// Contents performs a line-indexed three-way merge of text buffers. For
// each line position the same decision table as the tree merge applies:
// agreement wins, a side that matches base yields to the other side, and
// any position where both sides changed differently fails the whole
// file. The second result reports success; there is no partial in-file
// conflict output, a hard clash conflicts the entire file.
func Contents(base, ours, theirs []byte) ([]byte, bool) {
	baseLines := diff.SplitLines(string(base))
	ourLines := diff.SplitLines(string(ours))
	theirLines := diff.SplitLines(string(theirs))

	maxLen := len(baseLines)
	if len(ourLines) > maxLen {
		maxLen = len(ourLines)
	}
	if len(theirLines) > maxLen {
		maxLen = len(theirLines)
	}

	merged := make([]string, 0, maxLen)
	for i := 0; i < maxLen; i++ {
		b, hasBase := lineAt(baseLines, i)
		o, hasOurs := lineAt(ourLines, i)
		t, hasTheirs := lineAt(theirLines, i)

		switch {
		case hasBase && hasOurs && hasTheirs:
			switch {
			case o == t:
				merged = append(merged, o)
			case o == b:
				merged = append(merged, t)
			case t == b:
				merged = append(merged, o)
			default:
				return nil, false
			}

		case !hasBase && hasOurs && hasTheirs:
			if o != t {
				return nil, false
			}
			merged = append(merged, o)

		case hasBase && !hasOurs && !hasTheirs:
			// Both sides dropped the line.

		case hasOurs:
			merged = append(merged, o)

		case hasTheirs:
			merged = append(merged, t)
		}
	}

	return []byte(strings.Join(merged, "\n") + "\n"), true
}

func lineAt(lines []string, i int) (string, bool) {
	if i < len(lines) {
		return lines[i], true
	}
	return "", false
}
