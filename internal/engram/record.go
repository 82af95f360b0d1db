package engram

import (
	"fmt"

	"github.com/hpungsan/engram/internal/errors"
)

// Fixed sub-document names inside an engram tree. These are part of the
// wire contract shared by every SDK.
const (
	FileManifest   = "manifest.json"
	FileIntent     = "intent.md"
	FileTranscript = "transcript.jsonl"
	FileOperations = "operations.json"
	FileLineage    = "lineage.json"
)

// FileNames lists the five sub-document names in tree order.
var FileNames = []string{FileManifest, FileIntent, FileTranscript, FileOperations, FileLineage}

// Record is one complete engram: the unit of storage. Immutable once
// created; a revision is a new record with a new ID.
type Record struct {
	Manifest   Manifest
	Intent     Intent
	Transcript Transcript
	Operations Operations
	Lineage    Lineage
}

// Encode produces the five named byte buffers that together form one
// stored record.
func (r *Record) Encode() (map[string][]byte, error) {
	manifest, err := r.Manifest.Encode()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	transcript, err := r.Transcript.Encode()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	operations, err := r.Operations.Encode()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	lineage, err := r.Lineage.Encode()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	return map[string][]byte{
		FileManifest:   manifest,
		FileIntent:     []byte(r.Intent.Render()),
		FileTranscript: transcript,
		FileOperations: operations,
		FileLineage:    lineage,
	}, nil
}

// DecodeRecord reverses Encode. A missing or corrupt sub-document fails
// closed: no partial record is returned, and the error names the
// sub-document that failed.
func DecodeRecord(files map[string][]byte) (*Record, error) {
	for _, name := range FileNames {
		if _, ok := files[name]; !ok {
			return nil, errors.NewDecode(name, fmt.Errorf("sub-document missing"))
		}
	}

	manifest, err := DecodeManifest(files[FileManifest])
	if err != nil {
		return nil, errors.NewDecode(FileManifest, err)
	}
	transcript, err := DecodeTranscript(files[FileTranscript])
	if err != nil {
		return nil, errors.NewDecode(FileTranscript, err)
	}
	operations, err := DecodeOperations(files[FileOperations])
	if err != nil {
		return nil, errors.NewDecode(FileOperations, err)
	}
	lineage, err := DecodeLineage(files[FileLineage])
	if err != nil {
		return nil, errors.NewDecode(FileLineage, err)
	}

	return &Record{
		Manifest:   manifest,
		Intent:     ParseIntent(string(files[FileIntent])),
		Transcript: transcript,
		Operations: operations,
		Lineage:    lineage,
	}, nil
}
