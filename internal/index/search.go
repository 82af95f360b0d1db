package index

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/hpungsan/engram/internal/engram"
	"github.com/hpungsan/engram/internal/errors"
	"github.com/hpungsan/engram/internal/storage"
)

// Search limits
const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
)

// Result is one search hit, ranked by relevance.
type Result struct {
	ID        engram.ID `json:"id"`
	Agent     string    `json:"agent"`
	CreatedAt time.Time `json:"created_at"`
	Summary   string    `json:"summary,omitempty"`
	// Snippet is HTML-safe: record text is escaped, only the <b>...</b>
	// highlight tags are markup
	Snippet string `json:"snippet"`
}

// Search runs a full-text query over indexed engrams, ranked by BM25 with
// summary matches weighted highest. limit <= 0 uses the default.
func (ix *Index) Search(query string, limit int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.NewInvalidRequest("query is required")
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	// highlight markers are control bytes so record text cannot forge them
	rows, err := ix.db.Query(`
		SELECT id, agent, created_at, summary,
		       snippet(engrams_fts, -1, char(1), char(2), '...', 12)
		FROM engrams_fts
		WHERE engrams_fts MATCH ?
		ORDER BY bm25(engrams_fts, 0, 0, 0, 5.0, 2.0, 1.0, 3.0)
		LIMIT ?`,
		ftsQuery(query), limit,
	)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("index search: %w", err))
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var id, createdAt string
		if err := rows.Scan(&id, &r.Agent, &createdAt, &r.Summary, &r.Snippet); err != nil {
			return nil, errors.NewInternal(err)
		}
		r.ID = engram.ID(id)
		r.Snippet = escapeSnippet(r.Snippet)
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			r.CreatedAt = t
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return results, nil
}

// escapeSnippet HTML-escapes the snippet text and converts the control
// byte markers emitted by the query into <b> highlight tags.
func escapeSnippet(s string) string {
	s = html.EscapeString(s)
	s = strings.ReplaceAll(s, "\x01", "<b>")
	s = strings.ReplaceAll(s, "\x02", "</b>")
	return s
}

// ftsQuery quotes each term so user input is matched literally instead of
// being parsed as FTS5 query syntax.
func ftsQuery(query string) string {
	terms := strings.Fields(query)
	for i, term := range terms {
		terms[i] = `"` + strings.ReplaceAll(term, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}

// Reader is the storage capability Reindex needs.
type Reader interface {
	List(opts storage.ListOptions) ([]engram.Manifest, error)
	Read(idOrPrefix string) (*engram.Record, error)
}

// Reindex rebuilds the index from scratch out of the stored records and
// returns the number indexed. Records that fail to load are skipped, the
// same degradation the listing applies.
func (ix *Index) Reindex(store Reader) (int, error) {
	if _, err := ix.db.Exec(`DELETE FROM engrams_fts`); err != nil {
		return 0, errors.NewInternal(fmt.Errorf("index clear: %w", err))
	}

	manifests, err := store.List(storage.ListOptions{})
	if err != nil {
		return 0, err
	}

	indexed := 0
	for _, m := range manifests {
		rec, err := store.Read(m.ID.String())
		if err != nil {
			continue
		}
		if err := ix.Add(rec); err != nil {
			return indexed, err
		}
		indexed++
	}
	return indexed, nil
}
