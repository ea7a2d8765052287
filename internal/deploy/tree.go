package deploy

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// manifestDir is the build metadata directory inside site_dir; it never
// belongs in the published tree.
const manifestDir = ".mkpages"

// treeBuilder writes a directory as git blob and tree objects directly into
// a repository's object store, without touching any worktree.
type treeBuilder struct {
	storer storer.EncodedObjectStorer
	files  int
}

func (b *treeBuilder) writeBlob(data []byte) (plumbing.Hash, error) {
	obj := b.storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	obj.SetSize(int64(len(data)))
	w, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return plumbing.ZeroHash, err
	}
	if err := w.Close(); err != nil {
		return plumbing.ZeroHash, err
	}
	return b.storer.SetEncodedObject(obj)
}

func (b *treeBuilder) writeFile(path string) (plumbing.Hash, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	hash, err := b.writeBlob(data)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	b.files++
	return hash, nil
}

// writeDir writes dir as a tree object, recursing into subdirectories.
// extras are additional root-level files such as .nojekyll and CNAME.
func (b *treeBuilder) writeDir(dir string, extras map[string][]byte) (plumbing.Hash, error) {
	hash, err := b.writeDirTree(dir, extras)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("tree for %s: %w", dir, err)
	}
	return hash, nil
}

func (b *treeBuilder) writeDirTree(dir string, extras map[string][]byte) (plumbing.Hash, error) {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	var entries []object.TreeEntry
	for _, de := range dirents {
		name := de.Name()
		if name == manifestDir {
			continue
		}
		if _, shadowed := extras[name]; shadowed {
			continue
		}
		full := filepath.Join(dir, name)
		if de.IsDir() {
			sub, err := b.writeDirTree(full, nil)
			if err != nil {
				return plumbing.ZeroHash, err
			}
			entries = append(entries, object.TreeEntry{Name: name, Mode: filemode.Dir, Hash: sub})
			continue
		}
		if !de.Type().IsRegular() {
			continue
		}
		blob, err := b.writeFile(full)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		entries = append(entries, object.TreeEntry{Name: name, Mode: filemode.Regular, Hash: blob})
	}
	for name, data := range extras {
		blob, err := b.writeBlob(data)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		b.files++
		entries = append(entries, object.TreeEntry{Name: name, Mode: filemode.Regular, Hash: blob})
	}

	sortTreeEntries(entries)
	tree := &object.Tree{Entries: entries}
	obj := b.storer.NewEncodedObject()
	if err := tree.Encode(obj); err != nil {
		return plumbing.ZeroHash, err
	}
	return b.storer.SetEncodedObject(obj)
}

// sortTreeEntries orders entries the way git requires: byte order over the
// name, with directories compared as if their name ended in "/".
func sortTreeEntries(entries []object.TreeEntry) {
	key := func(e object.TreeEntry) string {
		if e.Mode == filemode.Dir {
			return e.Name + "/"
		}
		return e.Name
	}
	sort.Slice(entries, func(i, j int) bool {
		return key(entries[i]) < key(entries[j])
	})
}
