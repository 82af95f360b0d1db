package web

import (
	"net/http"
	"strconv"

	"github.com/hpungsan/engram/internal/index"
	"github.com/hpungsan/engram/internal/storage"
)

// Handlers contains HTTP route handlers for the viewer.
type Handlers struct {
	store    *storage.Store
	renderer *Renderer
}

// HandleList handles GET /engrams — list stored engrams, newest first.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	agent := r.URL.Query().Get("agent")
	limit := parseIntParam(r, "limit", 0)

	manifests, err := h.store.List(storage.ListOptions{Limit: limit, Agent: agent})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, "list", ListPageData{
		PageData: PageData{
			Title:   "Engrams",
			Version: h.renderer.version,
			Nav:     "engrams",
		},
		Engrams: manifests,
		Agent:   agent,
		Limit:   limit,
	})
}

// HandleDetail handles GET /engrams/{id} — one engram in full.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.Read(r.PathValue("id"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	title := rec.Manifest.ID.Short()
	if rec.Manifest.Summary != nil && *rec.Manifest.Summary != "" {
		title = *rec.Manifest.Summary
	}

	h.renderer.renderPage(w, "detail", DetailPageData{
		PageData: PageData{
			Title:   title,
			Version: h.renderer.version,
			Nav:     "engrams",
		},
		Manifest:   rec.Manifest,
		IntentHTML: renderMarkdown(rec.Intent.Render()),
		Transcript: rec.Transcript,
		Operations: rec.Operations,
		Lineage:    rec.Lineage,
	})
}

// HandleSearch handles GET /engrams/search — full-text search.
func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	data := SearchPageData{
		PageData: PageData{
			Title:   "Search",
			Version: h.renderer.version,
			Nav:     "search",
		},
		Query:    query,
		HasQuery: query != "",
	}

	if query == "" {
		h.renderer.renderPage(w, "search", data)
		return
	}

	gitDir, err := h.store.GitDir()
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	ix, err := index.Open(gitDir)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	defer ix.Close()

	results, err := ix.Search(query, parseIntParam(r, "limit", 0))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	data.Results = results
	h.renderer.renderPage(w, "search", data)
}

// HandleDelete handles DELETE /engrams/{id} — drop an engram's ref.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := h.store.Resolve(r.PathValue("id"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if err := h.store.Delete(id.String()); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if gitDir, err := h.store.GitDir(); err == nil {
		if ix, err := index.Open(gitDir); err == nil {
			_ = ix.Remove(id)
			ix.Close()
		}
	}

	renderJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

// parseIntParam parses an integer query parameter with a fallback.
func parseIntParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
