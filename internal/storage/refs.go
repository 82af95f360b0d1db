package storage

import (
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/hpungsan/engram/internal/engram"
	"github.com/hpungsan/engram/internal/errors"
)

// RefPrefix is the namespace holding one ref per engram. Refs are sharded
// by the first two hex characters of the id so no single level of the
// namespace holds more than ~1/256th of all records.
const RefPrefix = "refs/engrams/"

func refName(id engram.ID) plumbing.ReferenceName {
	return plumbing.ReferenceName(RefPrefix + id.Shard() + "/" + id.String())
}

// splitRefName returns the (shard, id) segments of an engram ref, or
// ok=false for refs that do not follow the two-level layout.
func splitRefName(name plumbing.ReferenceName) (shard, id string, ok bool) {
	rest, found := strings.CutPrefix(string(name), RefPrefix)
	if !found {
		return "", "", false
	}
	shard, id, found = strings.Cut(rest, "/")
	if !found || shard == "" || id == "" || strings.Contains(id, "/") {
		return "", "", false
	}
	return shard, id, true
}

// engramRefs returns all hash references under RefPrefix.
func (s *Store) engramRefs() ([]*plumbing.Reference, error) {
	iter, err := s.repo.References()
	if err != nil {
		return nil, errors.NewStore(err)
	}
	defer iter.Close()

	var refs []*plumbing.Reference
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		if _, _, ok := splitRefName(ref.Name()); !ok {
			return nil
		}
		refs = append(refs, ref)
		return nil
	})
	if err != nil {
		return nil, errors.NewStore(err)
	}
	return refs, nil
}

// resolve maps a full id or id prefix to exactly one engram reference.
// A full id is tried as an exact ref path first; otherwise all engram refs
// are scanned and matched on the id segment only, never the shard.
func (s *Store) resolve(idOrPrefix string) (*plumbing.Reference, error) {
	if len(idOrPrefix) < 2 {
		return nil, errors.NewInvalidRequest("id prefix must be at least 2 characters")
	}
	exact := plumbing.ReferenceName(RefPrefix + idOrPrefix[:2] + "/" + idOrPrefix)
	if ref, err := s.repo.Reference(exact, false); err == nil {
		return ref, nil
	}

	refs, err := s.engramRefs()
	if err != nil {
		return nil, err
	}

	var matches []*plumbing.Reference
	for _, ref := range refs {
		_, id, _ := splitRefName(ref.Name())
		if strings.HasPrefix(id, idOrPrefix) {
			matches = append(matches, ref)
		}
	}

	switch len(matches) {
	case 0:
		return nil, errors.NewNotFound(idOrPrefix)
	case 1:
		return matches[0], nil
	default:
		return nil, errors.NewAmbiguous(idOrPrefix, len(matches))
	}
}
