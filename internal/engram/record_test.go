package engram

import (
	"testing"
	"time"

	"github.com/hpungsan/engram/internal/errors"
)

func sampleRecord() *Record {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	return &Record{
		Manifest: Manifest{
			ID:          NewID(),
			Version:     FormatVersion,
			CreatedAt:   ts,
			Agent:       AgentInfo{Name: "claude-code", Model: strPtr("claude-sonnet-4-5")},
			TokenUsage:  TokenUsage{InputTokens: 1000, OutputTokens: 500, TotalTokens: 1500},
			CaptureMode: CaptureSDK,
			GitCommits:  []string{"abc123"},
			Summary:     strPtr("Implemented auth"),
		},
		Intent: Intent{
			OriginalRequest: "Add OAuth2 authentication",
			DeadEnds:        []DeadEnd{{Approach: "passport.js", Reason: "conflict"}},
		},
		Transcript: Transcript{
			{Timestamp: ts, Role: RoleUser, Content: TextContent("Add OAuth2")},
		},
		Operations: Operations{
			FileChanges: []FileChange{{Path: "src/auth.go", ChangeType: ChangeCreated()}},
		},
		Lineage: Lineage{
			GitCommits: []string{"abc123"},
			Branch:     strPtr("main"),
		},
	}
}

func TestRecordEncodeProducesFiveBuffers(t *testing.T) {
	files, err := sampleRecord().Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if len(files) != 5 {
		t.Fatalf("buffer count = %d, want 5", len(files))
	}
	for _, name := range FileNames {
		if _, ok := files[name]; !ok {
			t.Errorf("missing buffer %q", name)
		}
	}
}

func TestRecordRoundTrip(t *testing.T) {
	rec := sampleRecord()

	files, err := rec.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	back, err := DecodeRecord(files)
	if err != nil {
		t.Fatalf("DecodeRecord failed: %v", err)
	}

	if back.Manifest.ID != rec.Manifest.ID {
		t.Errorf("Manifest.ID = %q, want %q", back.Manifest.ID, rec.Manifest.ID)
	}
	if back.Intent.OriginalRequest != rec.Intent.OriginalRequest {
		t.Errorf("Intent.OriginalRequest = %q", back.Intent.OriginalRequest)
	}
	if len(back.Intent.DeadEnds) != 1 {
		t.Errorf("Intent.DeadEnds = %+v", back.Intent.DeadEnds)
	}
	if len(back.Transcript) != 1 {
		t.Errorf("Transcript entries = %d, want 1", len(back.Transcript))
	}
	if len(back.Operations.FileChanges) != 1 {
		t.Errorf("FileChanges = %+v", back.Operations.FileChanges)
	}
	if back.Lineage.Branch == nil || *back.Lineage.Branch != "main" {
		t.Errorf("Lineage.Branch = %v", back.Lineage.Branch)
	}
}

func TestDecodeRecordFailsClosedOnCorruptSubDocument(t *testing.T) {
	files, err := sampleRecord().Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	files[FileOperations] = []byte("{not json")

	_, err = DecodeRecord(files)
	if !errors.Is(err, errors.ErrDecode) {
		t.Fatalf("err = %v, want DECODE", err)
	}
	eErr := err.(*errors.EngramError)
	if eErr.Details["sub_document"] != FileOperations {
		t.Errorf("sub_document = %v, want %s", eErr.Details["sub_document"], FileOperations)
	}
}

func TestDecodeRecordFailsClosedOnMissingSubDocument(t *testing.T) {
	files, err := sampleRecord().Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	delete(files, FileLineage)

	_, err = DecodeRecord(files)
	if !errors.Is(err, errors.ErrDecode) {
		t.Fatalf("err = %v, want DECODE", err)
	}
}
