package object

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// TreeObj
// ---------------------------------------------------------------------------

// MarshalTree serializes a TreeObj. Entries are sorted by Name so identical
// directory states always hash identically. Each record is
//
//	<octal-mode> <name>\0<20 raw hash bytes>
//
// with no separator between records.
func MarshalTree(tr *TreeObj) ([]byte, error) {
	sorted := make([]TreeEntry, len(tr.Entries))
	copy(sorted, tr.Entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	var buf bytes.Buffer
	for _, e := range sorted {
		raw, err := e.Hash.Raw()
		if err != nil {
			return nil, fmt.Errorf("marshal tree entry %q: %w", e.Name, err)
		}
		fmt.Fprintf(&buf, "%s %s\x00", treeModeOrDefault(e), e.Name)
		buf.Write(raw)
	}
	return buf.Bytes(), nil
}

// UnmarshalTree parses a TreeObj payload.
func UnmarshalTree(data []byte) (*TreeObj, error) {
	tr := &TreeObj{}
	offset := 0
	for offset < len(data) {
		spaceIdx := bytes.IndexByte(data[offset:], ' ')
		if spaceIdx < 0 {
			return nil, fmt.Errorf("unmarshal tree: %w: truncated mode at offset %d", ErrInvalidObject, offset)
		}
		mode := string(data[offset : offset+spaceIdx])
		offset += spaceIdx + 1

		nulIdx := bytes.IndexByte(data[offset:], 0)
		if nulIdx < 0 {
			return nil, fmt.Errorf("unmarshal tree: %w: unterminated name at offset %d", ErrInvalidObject, offset)
		}
		name := string(data[offset : offset+nulIdx])
		offset += nulIdx + 1

		if offset+RawHashLen > len(data) {
			return nil, fmt.Errorf("unmarshal tree: %w: truncated hash for %q", ErrInvalidObject, name)
		}
		h := HashFromRaw(data[offset : offset+RawHashLen])
		offset += RawHashLen

		tr.Entries = append(tr.Entries, TreeEntry{
			Name:  name,
			IsDir: isTreeMode(mode),
			Mode:  mode,
			Hash:  h,
		})
	}
	return tr, nil
}

func treeModeOrDefault(e TreeEntry) string {
	if e.IsDir {
		return TreeModeDir
	}
	if strings.TrimSpace(e.Mode) == "" {
		return TreeModeFile
	}
	return e.Mode
}

// isTreeMode accepts both "40000" and the zero-padded "040000" spelling.
func isTreeMode(mode string) bool {
	return strings.HasPrefix(mode, "40000") || strings.HasPrefix(mode, "040000")
}

// ---------------------------------------------------------------------------
// CommitObj
// ---------------------------------------------------------------------------

// MarshalCommit serializes a CommitObj:
//
//	tree H
//	parent H                         (zero or more)
//	author Name <email> epoch +HHMM
//	committer Name <email> epoch +HHMM
//
//	message
func MarshalCommit(c *CommitObj) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", string(c.TreeHash))
	for _, p := range c.Parents {
		fmt.Fprintf(&buf, "parent %s\n", string(p))
	}
	fmt.Fprintf(&buf, "author %s %d %s\n", c.Author, c.AuthorTime, c.AuthorTZ)
	committer := c.Committer
	if committer == "" {
		committer = c.Author
	}
	ctime := c.CommitterTime
	if ctime == 0 {
		ctime = c.AuthorTime
	}
	ctz := c.CommitterTZ
	if ctz == "" {
		ctz = c.AuthorTZ
	}
	fmt.Fprintf(&buf, "committer %s %d %s\n", committer, ctime, ctz)
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	return buf.Bytes()
}

// UnmarshalCommit parses a CommitObj payload.
func UnmarshalCommit(data []byte) (*CommitObj, error) {
	idx := bytes.Index(data, []byte("\n\n"))
	if idx < 0 {
		return nil, fmt.Errorf("unmarshal commit: %w: missing header/message separator", ErrInvalidObject)
	}
	header := string(data[:idx])
	message := string(data[idx+2:])

	c := &CommitObj{Message: message}
	for _, line := range strings.Split(header, "\n") {
		key, val, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("unmarshal commit: %w: malformed header line %q", ErrInvalidObject, line)
		}
		switch key {
		case "tree":
			c.TreeHash = Hash(val)
		case "parent":
			c.Parents = append(c.Parents, Hash(val))
		case "author":
			ident, ts, tz, err := parseIdentLine(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: author: %w", err)
			}
			c.Author, c.AuthorTime, c.AuthorTZ = ident, ts, tz
		case "committer":
			ident, ts, tz, err := parseIdentLine(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: committer: %w", err)
			}
			c.Committer, c.CommitterTime, c.CommitterTZ = ident, ts, tz
		default:
			return nil, fmt.Errorf("unmarshal commit: %w: unknown header key %q", ErrInvalidObject, key)
		}
	}
	if c.TreeHash == "" {
		return nil, fmt.Errorf("unmarshal commit: %w: missing tree header", ErrInvalidObject)
	}
	return c, nil
}

// parseIdentLine splits "Name <email> epoch +HHMM" from the right, since
// the name may itself contain spaces.
func parseIdentLine(val string) (ident string, ts int64, tz string, err error) {
	lastSpace := strings.LastIndexByte(val, ' ')
	if lastSpace < 0 {
		return "", 0, "", fmt.Errorf("%w: ident line %q", ErrInvalidObject, val)
	}
	tz = val[lastSpace+1:]
	rest := val[:lastSpace]

	lastSpace = strings.LastIndexByte(rest, ' ')
	if lastSpace < 0 {
		return "", 0, "", fmt.Errorf("%w: ident line %q", ErrInvalidObject, val)
	}
	ts, err = strconv.ParseInt(rest[lastSpace+1:], 10, 64)
	if err != nil {
		return "", 0, "", fmt.Errorf("%w: timestamp in %q: %v", ErrInvalidObject, val, err)
	}
	return rest[:lastSpace], ts, tz, nil
}
