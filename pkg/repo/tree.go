package repo

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"kitcat/pkg/index"
	"kitcat/pkg/object"
)

// BuildTree converts flat index entries into a hierarchy of tree
// objects, writing subtrees child-before-parent, and returns the root
// tree hash. Sibling order is sorted by name, so the root hash is
// deterministic regardless of entry input order.
func (r *Repository) BuildTree(entries []index.Entry) (object.Hash, error) {
	return r.buildTreeDir(index.Normalize(entries), "")
}

func (r *Repository) buildTreeDir(entries []index.Entry, prefix string) (object.Hash, error) {
	files := make(map[string]index.Entry)
	subdirs := make(map[string]struct{})

	for _, e := range entries {
		rel := e.Path
		if prefix != "" {
			if !strings.HasPrefix(e.Path, prefix+"/") {
				continue
			}
			rel = e.Path[len(prefix)+1:]
		}

		if slash := strings.IndexByte(rel, '/'); slash < 0 {
			files[rel] = e
		} else {
			subdirs[rel[:slash]] = struct{}{}
		}
	}

	names := make([]string, 0, len(files)+len(subdirs))
	for name := range files {
		names = append(names, name)
	}
	for name := range subdirs {
		if _, isFile := files[name]; !isFile {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var treeEntries []object.TreeEntry
	for _, name := range names {
		if e, isFile := files[name]; isFile {
			treeEntries = append(treeEntries, object.TreeEntry{
				Name: name,
				Mode: treeModeFor(e.Mode),
				Hash: e.Hash,
			})
			continue
		}

		childPrefix := name
		if prefix != "" {
			childPrefix = prefix + "/" + name
		}
		subHash, err := r.buildTreeDir(entries, childPrefix)
		if err != nil {
			return "", fmt.Errorf("build tree %q: %w", childPrefix, err)
		}
		treeEntries = append(treeEntries, object.TreeEntry{
			Name:  name,
			IsDir: true,
			Mode:  object.TreeModeDir,
			Hash:  subHash,
		})
	}

	h, err := r.Store.WriteTree(&object.TreeObj{Entries: treeEntries})
	if err != nil {
		return "", fmt.Errorf("write tree (prefix=%q): %w", prefix, err)
	}
	return h, nil
}

func treeModeFor(indexMode uint32) string {
	if indexMode == 0o100755 {
		return object.TreeModeExecutable
	}
	return object.TreeModeFile
}

// FlattenTree walks a tree recursively and returns all files as a flat
// {forward-slash path -> blob hash} map.
func (r *Repository) FlattenTree(h object.Hash) (map[string]object.Hash, error) {
	files := make(map[string]object.Hash)
	if err := r.flattenTreeRec(h, "", files); err != nil {
		return nil, err
	}
	return files, nil
}

func (r *Repository) flattenTreeRec(h object.Hash, prefix string, files map[string]object.Hash) error {
	tree, err := r.Store.ReadTree(h)
	if err != nil {
		return fmt.Errorf("flatten tree: read %s: %w", h, err)
	}

	for _, entry := range tree.Entries {
		fullPath := entry.Name
		if prefix != "" {
			fullPath = path.Join(prefix, entry.Name)
		}
		if entry.IsDir {
			if err := r.flattenTreeRec(entry.Hash, fullPath, files); err != nil {
				return err
			}
			continue
		}
		files[fullPath] = entry.Hash
	}
	return nil
}

// CommitFiles resolves a commit to its flattened file map.
func (r *Repository) CommitFiles(commitHash object.Hash) (map[string]object.Hash, error) {
	c, err := r.Store.ReadCommit(commitHash)
	if err != nil {
		return nil, fmt.Errorf("commit files %s: %w", commitHash, err)
	}
	return r.FlattenTree(c.TreeHash)
}
