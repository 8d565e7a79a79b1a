// Package index implements the binary staging area: a sorted list of
// tracked paths with their blob hashes and filesystem metadata, persisted
// in the DIRC on-disk format with an integrity checksum and crash-safe
// atomic replacement.
package index

import (
	"errors"
	"os"
	"sort"

	"kitcat/pkg/object"
)

var (
	// ErrCorrupt indicates a bad magic, unsupported version, truncated
	// entry, or checksum mismatch in the on-disk index.
	ErrCorrupt = errors.New("corrupt index")
)

// Merge stages carried in the flags word of a conflicted entry.
const (
	StageNormal = 0
	StageBase   = 1
	StageOurs   = 2
	StageTheirs = 3
)

const (
	nameLenMask  = 0x0fff
	stageShift   = 12
	stageMask    = 0x3
	maxNameInLen = nameLenMask // longer paths record the cap
)

// Entry is one tracked path. The metadata fields mirror POSIX stat so a
// later status check can skip hashing files whose metadata is unchanged.
type Entry struct {
	CtimeSec  uint32
	CtimeNsec uint32
	MtimeSec  uint32
	MtimeNsec uint32
	Dev       uint32
	Ino       uint32
	Mode      uint32
	UID       uint32
	GID       uint32
	Size      uint32
	Hash      object.Hash
	Flags     uint16
	Path      string
}

// Stage extracts the merge stage (0 normal, 1 base, 2 ours, 3 theirs)
// from the flags word.
func (e *Entry) Stage() int {
	return int(e.Flags>>stageShift) & stageMask
}

// MakeFlags packs a path length and merge stage into a flags word. Name
// lengths beyond 12 bits saturate at the mask, matching Git.
func MakeFlags(path string, stage int) uint16 {
	n := len(path)
	if n > maxNameInLen {
		n = maxNameInLen
	}
	return uint16(n) | uint16(stage&stageMask)<<stageShift
}

// NewEntry builds an Entry for a staged file from its metadata.
func NewEntry(path string, hash object.Hash, info os.FileInfo) Entry {
	e := Entry{
		Size:  uint32(info.Size()),
		Mode:  modeBits(info),
		Hash:  hash,
		Flags: MakeFlags(path, StageNormal),
		Path:  path,
	}
	fillStatTimes(&e, info)
	return e
}

// modeBits maps a file mode to the Git index encoding: regular 0100644,
// executable 0100755.
func modeBits(info os.FileInfo) uint32 {
	if info.Mode()&0o111 != 0 {
		return 0o100755
	}
	return 0o100644
}

// Normalize sorts entries by path and deduplicates, last write wins.
// Every mutation runs through here before persistence so the on-disk
// index is always sorted and duplicate-free.
func Normalize(entries []Entry) []Entry {
	// Last write wins: later entries replace earlier ones for a path.
	byPath := make(map[string]int, len(entries))
	out := entries[:0]
	for _, e := range entries {
		if i, ok := byPath[e.Path]; ok {
			out[i] = e
			continue
		}
		byPath[e.Path] = len(out)
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Upsert returns a new entry list with the entry for its path replaced or
// appended. The input slice is not modified.
func Upsert(entries []Entry, entry Entry) []Entry {
	out := make([]Entry, 0, len(entries)+1)
	for _, e := range entries {
		if e.Path != entry.Path {
			out = append(out, e)
		}
	}
	out = append(out, entry)
	return Normalize(out)
}

// Remove returns a new entry list without the named path. The second
// result reports whether the path was present.
func Remove(entries []Entry, path string) ([]Entry, bool) {
	out := make([]Entry, 0, len(entries))
	found := false
	for _, e := range entries {
		if e.Path == path {
			found = true
			continue
		}
		out = append(out, e)
	}
	return out, found
}

// Lookup finds the entry for a path in a sorted entry list.
func Lookup(entries []Entry, path string) (Entry, bool) {
	i := sort.Search(len(entries), func(i int) bool { return entries[i].Path >= path })
	if i < len(entries) && entries[i].Path == path {
		return entries[i], true
	}
	return Entry{}, false
}
