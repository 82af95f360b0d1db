package main

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	git "github.com/go-git/go-git/v5"

	"github.com/hpungsan/engram/internal/session"
	"github.com/hpungsan/engram/internal/storage"
)

// setupTestStore creates an initialized store in a temporary repository.
func setupTestStore(t *testing.T) *storage.Store {
	t.Helper()
	dir := t.TempDir()
	if _, err := git.PlainInit(dir, false); err != nil {
		t.Fatalf("failed to init repo: %v", err)
	}
	store, err := storage.Open(dir)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	if err := store.Init(""); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	return store
}

// runCLI runs the app with the given args and returns captured stdout.
func runCLI(t *testing.T, store *storage.Store, args ...string) (string, error) {
	t.Helper()

	app := newCLIApp(store)

	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := app.Run(append([]string{"engram"}, args...))

	w.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	os.Stdout = oldStdout

	return buf.String(), err
}

func storeSession(t *testing.T, store *storage.Store, request, summary string) string {
	t.Helper()
	id, err := session.Begin("test-agent", "gpt-4").
		LogMessage("user", request).
		AddTokens(500, 200).
		AddCost(0.005).
		Commit(store, "", summary)
	if err != nil {
		t.Fatalf("commit session: %v", err)
	}
	return id.String()
}

func TestCLILog(t *testing.T) {
	store := setupTestStore(t)
	storeSession(t, store, "fix the scheduler", "scheduler fixed")
	storeSession(t, store, "add pagination", "pagination added")

	out, err := runCLI(t, store, "log")
	if err != nil {
		t.Fatalf("log command failed: %v", err)
	}

	var output struct {
		Count   int              `json:"count"`
		Engrams []map[string]any `json:"engrams"`
	}
	if err := json.Unmarshal([]byte(out), &output); err != nil {
		t.Fatalf("unmarshal output: %v\n%s", err, out)
	}
	if output.Count != 2 {
		t.Errorf("count = %d, want 2", output.Count)
	}

	limited, err := runCLI(t, store, "log", "--limit", "1")
	if err != nil {
		t.Fatalf("limited log failed: %v", err)
	}
	if !strings.Contains(limited, `"count": 1`) {
		t.Errorf("limited output: %s", limited)
	}
}

func TestCLILogCost(t *testing.T) {
	store := setupTestStore(t)
	storeSession(t, store, "one", "")
	storeSession(t, store, "two", "")

	out, err := runCLI(t, store, "log", "--cost")
	if err != nil {
		t.Fatalf("log --cost failed: %v", err)
	}

	var output struct {
		TotalCostUSD float64 `json:"total_cost_usd"`
	}
	if err := json.Unmarshal([]byte(out), &output); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if output.TotalCostUSD != 0.01 {
		t.Errorf("total cost = %v, want 0.01", output.TotalCostUSD)
	}
}

func TestCLIShow(t *testing.T) {
	store := setupTestStore(t)
	id := storeSession(t, store, "fix the scheduler", "scheduler fixed")

	out, err := runCLI(t, store, "show", id[:8])
	if err != nil {
		t.Fatalf("show command failed: %v", err)
	}

	var output struct {
		Manifest map[string]any `json:"manifest"`
		Intent   string         `json:"intent"`
	}
	if err := json.Unmarshal([]byte(out), &output); err != nil {
		t.Fatalf("unmarshal output: %v\n%s", err, out)
	}
	if output.Manifest["id"] != id {
		t.Errorf("manifest id = %v, want %s", output.Manifest["id"], id)
	}
	if !strings.Contains(output.Intent, "fix the scheduler") {
		t.Errorf("intent = %q", output.Intent)
	}
}

func TestCLIShowIntentSelector(t *testing.T) {
	store := setupTestStore(t)
	id := storeSession(t, store, "fix the scheduler", "")

	out, err := runCLI(t, store, "show", "--intent", id)
	if err != nil {
		t.Fatalf("show --intent failed: %v", err)
	}
	if !strings.HasPrefix(out, "# Intent") {
		t.Errorf("expected raw intent markdown, got: %s", out)
	}
}

func TestCLIShowMissingArg(t *testing.T) {
	store := setupTestStore(t)
	_, err := runCLI(t, store, "show")
	if err == nil {
		t.Fatal("expected error for missing id argument")
	}
	if !strings.Contains(err.Error(), "usage") {
		t.Errorf("error = %v", err)
	}
}

func TestCLIDelete(t *testing.T) {
	store := setupTestStore(t)
	id := storeSession(t, store, "to be removed", "")

	out, err := runCLI(t, store, "delete", id)
	if err != nil {
		t.Fatalf("delete command failed: %v", err)
	}
	if !strings.Contains(out, id) {
		t.Errorf("delete output: %s", out)
	}

	_, err = runCLI(t, store, "show", id)
	if err == nil || !strings.Contains(err.Error(), "NOT_FOUND") {
		t.Errorf("show after delete: %v", err)
	}
}

func TestCLIReindexAndSearch(t *testing.T) {
	store := setupTestStore(t)
	id := storeSession(t, store, "the scheduler drops jobs under load", "")

	out, err := runCLI(t, store, "reindex")
	if err != nil {
		t.Fatalf("reindex failed: %v", err)
	}
	if !strings.Contains(out, `"indexed": 1`) {
		t.Errorf("reindex output: %s", out)
	}

	out, err = runCLI(t, store, "search", "scheduler")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if !strings.Contains(out, id) {
		t.Errorf("search output missing id: %s", out)
	}
}

func TestCLIRequiresInit(t *testing.T) {
	dir := t.TempDir()
	if _, err := git.PlainInit(dir, false); err != nil {
		t.Fatalf("failed to init repo: %v", err)
	}
	store, err := storage.Open(dir)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	_, err = runCLI(t, store, "log")
	if err == nil || !strings.Contains(err.Error(), "NOT_INITIALIZED") {
		t.Errorf("log without init: %v", err)
	}
}

func TestCLIInit(t *testing.T) {
	dir := t.TempDir()
	if _, err := git.PlainInit(dir, false); err != nil {
		t.Fatalf("failed to init repo: %v", err)
	}
	store, err := storage.Open(dir)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	out, err := runCLI(t, store, "init")
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if !strings.Contains(out, `"initialized": true`) {
		t.Errorf("init output: %s", out)
	}
	if !store.IsInitialized() {
		t.Error("store not initialized after init command")
	}
}

func TestIsCLIMode(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	tests := []struct {
		args []string
		want bool
	}{
		{[]string{"engram"}, false},
		{[]string{"engram", "log"}, true},
		{[]string{"engram", "init"}, true},
		{[]string{"engram", "--help"}, true},
		{[]string{"engram", "-v"}, true},
		{[]string{"engram", "bogus"}, false},
	}
	for _, tt := range tests {
		os.Args = tt.args
		if got := isCLIMode(); got != tt.want {
			t.Errorf("isCLIMode(%v) = %v, want %v", tt.args, got, tt.want)
		}
	}
}
