package engram

import (
	"encoding/json"
	"fmt"
)

// Lineage records relationships between this engram and other engrams,
// commits, and the branch it was captured on. Stored as lineage.json.
type Lineage struct {
	ParentEngram   *ID            `json:"parent_engram,omitempty"`
	ChildEngrams   []ID           `json:"child_engrams,omitempty"`
	RelatedEngrams []Relationship `json:"related_engrams,omitempty"`
	GitCommits     []string       `json:"git_commits"`
	Branch         *string        `json:"branch,omitempty"`
}

// Relationship links this engram to another one.
type Relationship struct {
	EngramID     ID           `json:"engram_id"`
	RelationType RelationType `json:"relation_type"`
	Description  *string      `json:"description,omitempty"`
}

// RelationType classifies a relationship.
type RelationType string

const (
	RelationFollowsFrom   RelationType = "follows_from"
	RelationMotivates     RelationType = "motivates"
	RelationDependsOn     RelationType = "depends_on"
	RelationSupersedes    RelationType = "supersedes"
	RelationConflictsWith RelationType = "conflicts_with"
)

// UnmarshalJSON rejects unknown relation types.
func (r *RelationType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch RelationType(s) {
	case RelationFollowsFrom, RelationMotivates, RelationDependsOn,
		RelationSupersedes, RelationConflictsWith:
		*r = RelationType(s)
		return nil
	}
	return fmt.Errorf("unknown relation type %q", s)
}

// Encode serializes the lineage as indented JSON.
func (l Lineage) Encode() ([]byte, error) {
	// git_commits is always present on the wire, even when empty
	if l.GitCommits == nil {
		l.GitCommits = []string{}
	}
	return json.MarshalIndent(l, "", "  ")
}

// DecodeLineage parses lineage bytes.
func DecodeLineage(data []byte) (Lineage, error) {
	var l Lineage
	if err := json.Unmarshal(data, &l); err != nil {
		return Lineage{}, err
	}
	return l, nil
}
