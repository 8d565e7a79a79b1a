package merge

import (
	"fmt"
	"sort"

	"kitcat/pkg/diff"
	"kitcat/pkg/object"
)

// BlobSource fetches blob payloads for content merges. Satisfied by
// *object.Store.
type BlobSource interface {
	ReadBlob(h object.Hash) (*object.Blob, error)
}

// Trees performs a three-way merge over flat {path -> blob hash} maps.
// Iteration covers the union of all paths; each resolves through a
// fixed decision table. Paths identical on both sides are left out of
// the result so the caller overlays MergedFiles on its current tree;
// paths deleted on both sides are reported in DeletedPaths.
func Trees(base, ours, theirs map[string]object.Hash, blobs BlobSource) (*Result, error) {
	result := &Result{MergedFiles: make(map[string][]byte)}

	for _, path := range unionPaths(base, ours, theirs) {
		baseHash, hasBase := base[path]
		ourHash, hasOurs := ours[path]
		theirHash, hasTheirs := theirs[path]

		switch {
		case hasBase && hasOurs && hasTheirs:
			switch {
			case ourHash == theirHash:
				// Same change on both sides.
			case ourHash == baseHash:
				if err := takeSide(result, blobs, path, theirHash); err != nil {
					return nil, err
				}
			case theirHash == baseHash:
				if err := takeSide(result, blobs, path, ourHash); err != nil {
					return nil, err
				}
			default:
				if err := mergeBothChanged(result, blobs, path, baseHash, ourHash, theirHash); err != nil {
					return nil, err
				}
			}

		case !hasBase && hasOurs && hasTheirs:
			if ourHash == theirHash {
				if err := takeSide(result, blobs, path, ourHash); err != nil {
					return nil, err
				}
			} else if err := addAddConflict(result, blobs, path, ourHash, theirHash); err != nil {
				return nil, err
			}

		case hasBase && !hasOurs && hasTheirs:
			if err := deleteModifyConflict(result, blobs, path, object.Hash(""), theirHash); err != nil {
				return nil, err
			}

		case hasBase && hasOurs && !hasTheirs:
			if err := deleteModifyConflict(result, blobs, path, ourHash, object.Hash("")); err != nil {
				return nil, err
			}

		case hasBase:
			// Deleted on both sides; the deletion stands.
			result.DeletedPaths = append(result.DeletedPaths, path)

		case hasOurs:
			if err := takeSide(result, blobs, path, ourHash); err != nil {
				return nil, err
			}

		case hasTheirs:
			if err := takeSide(result, blobs, path, theirHash); err != nil {
				return nil, err
			}
		}
	}

	sort.Slice(result.Conflicts, func(i, j int) bool {
		return result.Conflicts[i].Path < result.Conflicts[j].Path
	})
	return result, nil
}

func unionPaths(maps ...map[string]object.Hash) []string {
	seen := make(map[string]struct{})
	for _, m := range maps {
		for path := range m {
			seen[path] = struct{}{}
		}
	}
	paths := make([]string, 0, len(seen))
	for path := range seen {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

func takeSide(result *Result, blobs BlobSource, path string, hash object.Hash) error {
	content, err := readBlob(blobs, hash)
	if err != nil {
		return fmt.Errorf("merge %s: %w", path, err)
	}
	result.MergedFiles[path] = content
	return nil
}

// mergeBothChanged handles both sides modifying a path differently from
// base: binary content conflicts immediately, text goes through the
// line-level merge.
func mergeBothChanged(result *Result, blobs BlobSource, path string, baseHash, ourHash, theirHash object.Hash) error {
	baseContent, err := readBlob(blobs, baseHash)
	if err != nil {
		return fmt.Errorf("merge %s: %w", path, err)
	}
	ourContent, err := readBlob(blobs, ourHash)
	if err != nil {
		return fmt.Errorf("merge %s: %w", path, err)
	}
	theirContent, err := readBlob(blobs, theirHash)
	if err != nil {
		return fmt.Errorf("merge %s: %w", path, err)
	}

	if diff.IsBinary(baseContent) || diff.IsBinary(ourContent) || diff.IsBinary(theirContent) {
		result.Conflicts = append(result.Conflicts, FileConflict{
			Path:         path,
			BaseContent:  baseContent,
			OurContent:   ourContent,
			TheirContent: theirContent,
			IsBinary:     true,
		})
		return nil
	}

	if merged, ok := Contents(baseContent, ourContent, theirContent); ok {
		result.MergedFiles[path] = merged
		return nil
	}

	result.Conflicts = append(result.Conflicts, FileConflict{
		Path:         path,
		BaseContent:  baseContent,
		OurContent:   ourContent,
		TheirContent: theirContent,
	})
	return nil
}

func addAddConflict(result *Result, blobs BlobSource, path string, ourHash, theirHash object.Hash) error {
	ourContent, err := readBlob(blobs, ourHash)
	if err != nil {
		return fmt.Errorf("merge %s: %w", path, err)
	}
	theirContent, err := readBlob(blobs, theirHash)
	if err != nil {
		return fmt.Errorf("merge %s: %w", path, err)
	}
	result.Conflicts = append(result.Conflicts, FileConflict{
		Path:         path,
		OurContent:   ourContent,
		TheirContent: theirContent,
		IsBinary:     diff.IsBinary(ourContent) || diff.IsBinary(theirContent),
	})
	return nil
}

// deleteModifyConflict records a path deleted on one side and still
// present on the other. The deleted side's content stays nil.
func deleteModifyConflict(result *Result, blobs BlobSource, path string, ourHash, theirHash object.Hash) error {
	conflict := FileConflict{Path: path}
	if ourHash != "" {
		content, err := readBlob(blobs, ourHash)
		if err != nil {
			return fmt.Errorf("merge %s: %w", path, err)
		}
		conflict.OurContent = content
		conflict.IsBinary = diff.IsBinary(content)
	}
	if theirHash != "" {
		content, err := readBlob(blobs, theirHash)
		if err != nil {
			return fmt.Errorf("merge %s: %w", path, err)
		}
		conflict.TheirContent = content
		conflict.IsBinary = diff.IsBinary(content)
	}
	result.Conflicts = append(result.Conflicts, conflict)
	return nil
}

func readBlob(blobs BlobSource, hash object.Hash) ([]byte, error) {
	blob, err := blobs.ReadBlob(hash)
	if err != nil {
		return nil, err
	}
	return blob.Data, nil
}
