package storage

import (
	"sort"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/hpungsan/engram/internal/errors"
)

const (
	// commitAuthor and commitEmail form the synthetic identity on every
	// engram commit. Records are addressed by ref, not by author, so the
	// identity is fixed rather than taken from the user's git config.
	commitAuthor = "engram"
	commitEmail  = "engram@local"
)

func writeBlob(st storer.EncodedObjectStorer, data []byte) (plumbing.Hash, error) {
	obj := st.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	obj.SetSize(int64(len(data)))

	w, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, errors.NewStore(err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return plumbing.ZeroHash, errors.NewStore(err)
	}
	if err := w.Close(); err != nil {
		return plumbing.ZeroHash, errors.NewStore(err)
	}

	hash, err := st.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, errors.NewStore(err)
	}
	return hash, nil
}

// writeTree builds a tree mapping each file name to its blob. Git requires
// tree entries in sorted name order.
func writeTree(st storer.EncodedObjectStorer, blobs map[string]plumbing.Hash) (plumbing.Hash, error) {
	names := make([]string, 0, len(blobs))
	for name := range blobs {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]object.TreeEntry, 0, len(names))
	for _, name := range names {
		entries = append(entries, object.TreeEntry{
			Name: name,
			Mode: filemode.Regular,
			Hash: blobs[name],
		})
	}

	tree := &object.Tree{Entries: entries}
	obj := st.NewEncodedObject()
	if err := tree.Encode(obj); err != nil {
		return plumbing.ZeroHash, errors.NewStore(err)
	}
	hash, err := st.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, errors.NewStore(err)
	}
	return hash, nil
}

// writeCommit wraps the tree in a parentless commit. Records never share
// history; each ref points at exactly one root commit.
func writeCommit(st storer.EncodedObjectStorer, tree plumbing.Hash, message string) (plumbing.Hash, error) {
	sig := object.Signature{
		Name:  commitAuthor,
		Email: commitEmail,
		When:  time.Now(),
	}
	commit := &object.Commit{
		Author:    sig,
		Committer: sig,
		Message:   message,
		TreeHash:  tree,
	}

	obj := st.NewEncodedObject()
	if err := commit.Encode(obj); err != nil {
		return plumbing.ZeroHash, errors.NewStore(err)
	}
	hash, err := st.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, errors.NewStore(err)
	}
	return hash, nil
}
