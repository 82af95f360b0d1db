package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestErrorString(t *testing.T) {
	err := NewNotFound("abc123")
	want := "NOT_FOUND: engram not found: abc123"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestAmbiguousCarriesCount(t *testing.T) {
	err := NewAmbiguous("ab", 3)
	if err.Details["matches"] != 3 {
		t.Errorf("Details[matches] = %v, want 3", err.Details["matches"])
	}
	if err.Details["prefix"] != "ab" {
		t.Errorf("Details[prefix] = %v, want ab", err.Details["prefix"])
	}
	if !strings.Contains(err.Message, "3 matches") {
		t.Errorf("Message = %q, should mention match count", err.Message)
	}
}

func TestDecodeCarriesSubDocument(t *testing.T) {
	cause := stderrors.New("unexpected end of JSON input")
	err := NewDecode("manifest.json", cause)
	if err.Details["sub_document"] != "manifest.json" {
		t.Errorf("Details[sub_document] = %v, want manifest.json", err.Details["sub_document"])
	}
	if !stderrors.Is(err, cause) {
		t.Error("Decode error should wrap its cause")
	}
}

func TestStorePropagatesCause(t *testing.T) {
	cause := stderrors.New("reference not found")
	err := NewStore(cause)
	if !stderrors.Is(err, cause) {
		t.Error("Store error should wrap its cause")
	}
	if err.Status != 500 {
		t.Errorf("Status = %d, want 500", err.Status)
	}
}

func TestIs(t *testing.T) {
	if !Is(NewNotFound("x"), ErrNotFound) {
		t.Error("Is should match NotFound code")
	}
	if Is(NewNotFound("x"), ErrAmbiguous) {
		t.Error("Is should not match a different code")
	}
	if Is(stderrors.New("plain"), ErrNotFound) {
		t.Error("Is should not match non-EngramError")
	}
	if Is(nil, ErrNotFound) {
		t.Error("Is should not match nil")
	}
}
