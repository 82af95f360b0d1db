package engram

import (
	"strings"
	"testing"
)

func TestIntentRoundTrip(t *testing.T) {
	in := Intent{
		OriginalRequest: "Add OAuth2 authentication",
		Summary:         strPtr("Implemented OAuth2 with custom middleware"),
		DeadEnds: []DeadEnd{
			{Approach: "passport.js", Reason: "Middleware conflict with existing stack"},
			{Approach: "Auth0 SDK", Reason: "Added 2MB to bundle"},
		},
		Decisions: []Decision{
			{Description: "Custom middleware", Rationale: "Full control over auth flow"},
		},
	}

	parsed := ParseIntent(in.Render())

	if parsed.OriginalRequest != in.OriginalRequest {
		t.Errorf("OriginalRequest = %q, want %q", parsed.OriginalRequest, in.OriginalRequest)
	}
	if parsed.Summary == nil || *parsed.Summary != *in.Summary {
		t.Errorf("Summary = %v, want %v", parsed.Summary, in.Summary)
	}
	if len(parsed.DeadEnds) != 2 {
		t.Fatalf("DeadEnds count = %d, want 2", len(parsed.DeadEnds))
	}
	if parsed.DeadEnds[0] != in.DeadEnds[0] || parsed.DeadEnds[1] != in.DeadEnds[1] {
		t.Errorf("DeadEnds = %+v, want %+v", parsed.DeadEnds, in.DeadEnds)
	}
	if len(parsed.Decisions) != 1 || parsed.Decisions[0] != in.Decisions[0] {
		t.Errorf("Decisions = %+v, want %+v", parsed.Decisions, in.Decisions)
	}
}

func TestIntentMinimal(t *testing.T) {
	in := Intent{OriginalRequest: "Fix the bug"}
	parsed := ParseIntent(in.Render())

	if parsed.OriginalRequest != "Fix the bug" {
		t.Errorf("OriginalRequest = %q, want %q", parsed.OriginalRequest, "Fix the bug")
	}
	if parsed.Summary != nil || parsed.InterpretedGoal != nil {
		t.Errorf("optional sections should be nil, got summary=%v goal=%v", parsed.Summary, parsed.InterpretedGoal)
	}
	if len(parsed.DeadEnds) != 0 || len(parsed.Decisions) != 0 {
		t.Errorf("list sections should be empty")
	}
}

func TestIntentMultilineRequest(t *testing.T) {
	in := Intent{OriginalRequest: "Fix the login bug.\n\nThe session cookie expires too early."}
	parsed := ParseIntent(in.Render())

	if parsed.OriginalRequest != in.OriginalRequest {
		t.Errorf("OriginalRequest = %q, want %q", parsed.OriginalRequest, in.OriginalRequest)
	}
}

func TestIntentRenderNeverEmitsInterpretedGoal(t *testing.T) {
	in := Intent{
		OriginalRequest: "Add auth",
		InterpretedGoal: strPtr("Implement OAuth2 with PKCE"),
	}
	md := in.Render()
	if strings.Contains(md, "Interpreted Goal") {
		t.Errorf("Render should not emit the interpreted goal section:\n%s", md)
	}
}

func TestIntentParseAcceptsInterpretedGoal(t *testing.T) {
	md := "# Intent\n\nAdd auth\n\n## Interpreted Goal\n\nImplement OAuth2 with PKCE\n"
	parsed := ParseIntent(md)

	if parsed.OriginalRequest != "Add auth" {
		t.Errorf("OriginalRequest = %q, want %q", parsed.OriginalRequest, "Add auth")
	}
	if parsed.InterpretedGoal == nil || *parsed.InterpretedGoal != "Implement OAuth2 with PKCE" {
		t.Errorf("InterpretedGoal = %v, want Implement OAuth2 with PKCE", parsed.InterpretedGoal)
	}
}

func TestIntentParseLegacyOriginalRequestHeading(t *testing.T) {
	md := "## Original Request\n\nFix the login bug\n\n## Summary\n\nDone\n"
	parsed := ParseIntent(md)

	if parsed.OriginalRequest != "Fix the login bug" {
		t.Errorf("OriginalRequest = %q, want %q", parsed.OriginalRequest, "Fix the login bug")
	}
	if parsed.Summary == nil || *parsed.Summary != "Done" {
		t.Errorf("Summary = %v, want Done", parsed.Summary)
	}
}

func TestIntentMalformedBulletsSkipped(t *testing.T) {
	md := strings.Join([]string{
		"# Intent",
		"",
		"Add auth",
		"",
		"## Dead Ends",
		"",
		"- **passport.js**: conflicts",
		"- plain bullet without bold",
		"* **wrong marker**: skipped",
		"- **no separator** skipped too",
		"",
	}, "\n")

	parsed := ParseIntent(md)
	if len(parsed.DeadEnds) != 1 {
		t.Fatalf("DeadEnds count = %d, want 1", len(parsed.DeadEnds))
	}
	if parsed.DeadEnds[0].Approach != "passport.js" || parsed.DeadEnds[0].Reason != "conflicts" {
		t.Errorf("DeadEnds[0] = %+v", parsed.DeadEnds[0])
	}
}

func TestIntentTrimsFreeTextSections(t *testing.T) {
	md := "# Intent\n\n\n  Fix it  \n\n\n## Summary\n\n\nAll done\n\n\n"
	parsed := ParseIntent(md)

	if parsed.OriginalRequest != "Fix it" {
		t.Errorf("OriginalRequest = %q, want %q", parsed.OriginalRequest, "Fix it")
	}
	if parsed.Summary == nil || *parsed.Summary != "All done" {
		t.Errorf("Summary = %v, want All done", parsed.Summary)
	}
}
