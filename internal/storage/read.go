package storage

import (
	stderrors "errors"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/hpungsan/engram/internal/engram"
	"github.com/hpungsan/engram/internal/errors"
)

func (s *Store) treeAt(commitHash plumbing.Hash) (*object.Tree, error) {
	commit, err := s.repo.CommitObject(commitHash)
	if err != nil {
		return nil, errors.NewStore(err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, errors.NewStore(err)
	}
	return tree, nil
}

func fileContents(tree *object.Tree, name string) ([]byte, error) {
	f, err := tree.File(name)
	if err != nil {
		if stderrors.Is(err, object.ErrFileNotFound) {
			return nil, errors.NewDecode(name, err)
		}
		return nil, errors.NewStore(err)
	}
	contents, err := f.Contents()
	if err != nil {
		return nil, errors.NewStore(err)
	}
	return []byte(contents), nil
}

// readRecordAt loads all five sub-documents from the commit's tree and
// decodes them as a unit.
func (s *Store) readRecordAt(commitHash plumbing.Hash) (*engram.Record, error) {
	tree, err := s.treeAt(commitHash)
	if err != nil {
		return nil, err
	}

	files := make(map[string][]byte, len(engram.FileNames))
	for _, name := range engram.FileNames {
		data, err := fileContents(tree, name)
		if err != nil {
			return nil, err
		}
		files[name] = data
	}

	return engram.DecodeRecord(files)
}

// readManifestAt loads and decodes only the manifest, leaving the other
// four sub-documents untouched.
func (s *Store) readManifestAt(commitHash plumbing.Hash) (engram.Manifest, error) {
	tree, err := s.treeAt(commitHash)
	if err != nil {
		return engram.Manifest{}, err
	}

	data, err := fileContents(tree, engram.FileManifest)
	if err != nil {
		return engram.Manifest{}, err
	}
	m, err := engram.DecodeManifest(data)
	if err != nil {
		return engram.Manifest{}, errors.NewDecode(engram.FileManifest, err)
	}
	return m, nil
}
