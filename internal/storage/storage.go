// Package storage persists engrams in a git object database. Each record
// becomes five blobs under one tree, wrapped in a parentless commit and
// published at refs/engrams/<shard>/<id>. Nothing is visible until the
// ref write, so a failed create leaves only unreachable objects behind.
package storage

import (
	"fmt"
	"sort"
	"strings"

	git "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/filesystem"

	"github.com/hpungsan/engram/internal/config"
	"github.com/hpungsan/engram/internal/engram"
	"github.com/hpungsan/engram/internal/errors"
)

// engramRefSpec mirrors the engram namespace to and from a remote.
const engramRefSpec = "+refs/engrams/*:refs/engrams/*"

// Store reads and writes engrams in a single git repository. Operations
// are synchronous; concurrent creates of distinct ids are independent,
// and same-id races inherit git's ref-update semantics.
type Store struct {
	repo *git.Repository
}

// Open opens the repository at path.
func Open(path string) (*Store, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, errors.NewStore(err)
	}
	return &Store{repo: repo}, nil
}

// Discover walks up from path until it finds an enclosing repository,
// the way git itself locates .git.
func Discover(path string) (*Store, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, errors.NewStore(err)
	}
	return &Store{repo: repo}, nil
}

// Repository exposes the underlying repo for collaborators that need
// direct access, such as the search index locating the git directory.
func (s *Store) Repository() *git.Repository {
	return s.repo
}

// GitDir returns the on-disk path of the repository's git directory, the
// anchor for repo-local state such as the search index.
func (s *Store) GitDir() (string, error) {
	fs, ok := s.repo.Storer.(*filesystem.Storage)
	if !ok {
		return "", errors.NewStore(fmt.Errorf("repository storage is not on disk"))
	}
	return fs.Filesystem().Root(), nil
}

// Settings returns the [engram] section of the repository config.
func (s *Store) Settings() (config.Settings, error) {
	cfg, err := s.repo.Config()
	if err != nil {
		return config.Settings{}, errors.NewStore(err)
	}
	return config.Load(cfg), nil
}

// IsInitialized reports whether engram capture has been enabled in this
// repository via Init.
func (s *Store) IsInitialized() bool {
	settings, err := s.Settings()
	return err == nil && settings.Enabled
}

// Init enables engram capture in the repository config. If remote names a
// configured remote, fetch and push refspecs for refs/engrams/* are added
// so records travel with the usual sync commands. Init is idempotent.
func (s *Store) Init(remote string) error {
	cfg, err := s.repo.Config()
	if err != nil {
		return errors.NewStore(err)
	}

	settings := config.Load(cfg)
	settings.Enabled = true
	if settings.Version == 0 {
		settings.Version = config.SchemaVersion
	}
	settings.Apply(cfg)

	if remote != "" {
		rc, ok := cfg.Remotes[remote]
		if !ok {
			return errors.NewInvalidRequest("unknown remote: " + remote)
		}
		spec := gitconfig.RefSpec(engramRefSpec)
		if !containsRefSpec(rc.Fetch, spec) {
			rc.Fetch = append(rc.Fetch, spec)
		}
		// push refspecs are not modeled by RemoteConfig, so they go
		// through the raw section, which SetConfig preserves
		sub := cfg.Raw.Section("remote").Subsection(remote)
		if !sub.HasOption("push") {
			sub.AddOption("push", "refs/engrams/*:refs/engrams/*")
		}
	}

	if err := s.repo.SetConfig(cfg); err != nil {
		return errors.NewStore(err)
	}
	return nil
}

func containsRefSpec(specs []gitconfig.RefSpec, want gitconfig.RefSpec) bool {
	for _, spec := range specs {
		if spec == want {
			return true
		}
	}
	return false
}

// Create writes the record's five sub-documents, a tree, and a parentless
// commit, then force-creates the ref for the record's id. The ref write is
// the single visibility-changing step.
func (s *Store) Create(rec *engram.Record) (engram.ID, error) {
	id := rec.Manifest.ID
	if _, err := engram.ParseID(id.String()); err != nil {
		return "", errors.NewInvalidRequest("record has no valid id")
	}

	files, err := rec.Encode()
	if err != nil {
		return "", err
	}

	blobs := make(map[string]plumbing.Hash, len(files))
	for name, data := range files {
		hash, err := writeBlob(s.repo.Storer, data)
		if err != nil {
			return "", err
		}
		blobs[name] = hash
	}

	tree, err := writeTree(s.repo.Storer, blobs)
	if err != nil {
		return "", err
	}

	commit, err := writeCommit(s.repo.Storer, tree, commitMessage(rec.Manifest))
	if err != nil {
		return "", err
	}

	ref := plumbing.NewHashReference(refName(id), commit)
	if err := s.repo.Storer.SetReference(ref); err != nil {
		return "", errors.NewStore(err)
	}
	return id, nil
}

func commitMessage(m engram.Manifest) string {
	if m.Summary != nil && *m.Summary != "" {
		return "engram: " + *m.Summary
	}
	return "engram: " + m.ID.String()
}

// Read loads the full record for a full id or unambiguous prefix.
func (s *Store) Read(idOrPrefix string) (*engram.Record, error) {
	ref, err := s.resolve(idOrPrefix)
	if err != nil {
		return nil, err
	}
	return s.readRecordAt(ref.Hash())
}

// ReadManifest loads only the manifest, skipping the other four
// sub-documents entirely.
func (s *Store) ReadManifest(idOrPrefix string) (engram.Manifest, error) {
	ref, err := s.resolve(idOrPrefix)
	if err != nil {
		return engram.Manifest{}, err
	}
	return s.readManifestAt(ref.Hash())
}

// ListOptions narrows and bounds a listing. The zero value lists
// everything.
type ListOptions struct {
	// Limit caps the number of manifests returned; 0 means no cap
	Limit int

	// Agent keeps only records whose agent name contains this substring
	Agent string
}

// List returns manifests for all stored records, newest first. Records
// whose manifest fails to decode are skipped rather than failing the
// listing.
func (s *Store) List(opts ListOptions) ([]engram.Manifest, error) {
	refs, err := s.engramRefs()
	if err != nil {
		return nil, err
	}

	manifests := make([]engram.Manifest, 0, len(refs))
	for _, ref := range refs {
		m, err := s.readManifestAt(ref.Hash())
		if err != nil {
			continue
		}
		if opts.Agent != "" && !strings.Contains(m.Agent.Name, opts.Agent) {
			continue
		}
		manifests = append(manifests, m)
	}

	// newest first; ties break on id so the order is stable
	sort.SliceStable(manifests, func(i, j int) bool {
		if !manifests[i].CreatedAt.Equal(manifests[j].CreatedAt) {
			return manifests[i].CreatedAt.After(manifests[j].CreatedAt)
		}
		return manifests[i].ID < manifests[j].ID
	})

	if opts.Limit > 0 && len(manifests) > opts.Limit {
		manifests = manifests[:opts.Limit]
	}
	return manifests, nil
}

// Delete removes the record's ref. The underlying objects stay in the
// object database until git garbage collection reclaims them.
func (s *Store) Delete(idOrPrefix string) error {
	ref, err := s.resolve(idOrPrefix)
	if err != nil {
		return err
	}
	if err := s.repo.Storer.RemoveReference(ref.Name()); err != nil {
		return errors.NewStore(err)
	}
	return nil
}

// Resolve maps a full id or prefix to the stored record's full id.
func (s *Store) Resolve(idOrPrefix string) (engram.ID, error) {
	ref, err := s.resolve(idOrPrefix)
	if err != nil {
		return "", err
	}
	_, id, _ := splitRefName(ref.Name())
	return engram.ID(id), nil
}
