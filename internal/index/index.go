// Package index maintains a repo-local SQLite full-text index over stored
// engrams. The index lives under the git directory, is derived entirely
// from the refs, and can be rebuilt at any time with Reindex.
package index

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hpungsan/engram/internal/engram"
	"github.com/hpungsan/engram/internal/errors"
)

// CurrentSchemaVersion is the latest index schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// Index is a full-text search index over engram records.
type Index struct {
	db *sql.DB
}

// Open opens (creating if needed) the index database under gitDir.
// The index file lives at <gitDir>/engram/index.db.
func Open(gitDir string) (*Index, error) {
	baseDir := filepath.Join(gitDir, "engram")
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("create index directory: %w", err))
	}

	// Pragmas in the connection string apply to every pooled connection
	dbPath := filepath.Join(baseDir, "index.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("open index database: %w", err))
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	_ = os.Chmod(dbPath, 0600)

	return &Index{db: db}, nil
}

// Close releases the underlying database handle.
func (ix *Index) Close() error {
	return ix.db.Close()
}

func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return errors.NewInternal(fmt.Errorf("verify journal mode: %w", err))
	}
	if journalMode != "wal" {
		return errors.NewInternal(fmt.Errorf("expected WAL mode, got %s", journalMode))
	}
	return nil
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := getUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: FTS5 table over the searchable record text
	if version < 1 {
		schema := `
		CREATE VIRTUAL TABLE IF NOT EXISTS engrams_fts USING fts5(
		  id UNINDEXED,
		  agent UNINDEXED,
		  created_at UNINDEXED,
		  summary,
		  intent,
		  transcript,
		  tags
		);
		`
		if _, err := db.Exec(schema); err != nil {
			return errors.NewInternal(fmt.Errorf("migration 1 failed: %w", err))
		}
		if err := setUserVersion(db, 1); err != nil {
			return err
		}
	}

	// Future migrations go here:
	// if version < 2 { ... }

	return nil
}

func getUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, errors.NewInternal(fmt.Errorf("get user_version: %w", err))
	}
	return version, nil
}

func setUserVersion(db *sql.DB, version int) error {
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version)); err != nil {
		return errors.NewInternal(fmt.Errorf("set user_version: %w", err))
	}
	return nil
}

// Add indexes a record, replacing any previous row for the same id.
func (ix *Index) Add(rec *engram.Record) error {
	if err := ix.Remove(rec.Manifest.ID); err != nil {
		return err
	}

	summary := ""
	if rec.Manifest.Summary != nil {
		summary = *rec.Manifest.Summary
	}

	_, err := ix.db.Exec(`
		INSERT INTO engrams_fts (id, agent, created_at, summary, intent, transcript, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Manifest.ID.String(),
		rec.Manifest.Agent.Name,
		rec.Manifest.CreatedAt.UTC().Format(time.RFC3339Nano),
		summary,
		rec.Intent.Render(),
		transcriptText(rec.Transcript),
		strings.Join(rec.Manifest.Tags, " "),
	)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("index insert: %w", err))
	}
	return nil
}

// Remove drops a record from the index. Removing an unindexed id is not
// an error.
func (ix *Index) Remove(id engram.ID) error {
	if _, err := ix.db.Exec(`DELETE FROM engrams_fts WHERE id = ?`, id.String()); err != nil {
		return errors.NewInternal(fmt.Errorf("index delete: %w", err))
	}
	return nil
}

// transcriptText flattens the text-bearing transcript entries into one
// searchable string.
func transcriptText(t engram.Transcript) string {
	var b strings.Builder
	for _, entry := range t {
		text, ok := entry.Content["text"].(string)
		if !ok {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(text)
	}
	return b.String()
}
