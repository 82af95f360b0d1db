package engram

import (
	"fmt"
	"strings"
)

// Intent captures what the caller asked for and what the agent learned
// along the way. Stored as intent.md in the engram tree.
type Intent struct {
	OriginalRequest string
	InterpretedGoal *string
	Summary         *string
	DeadEnds        []DeadEnd
	Decisions       []Decision
}

// DeadEnd is an approach that was tried and abandoned.
type DeadEnd struct {
	Approach string
	Reason   string
}

// Decision is a choice made during the session and why.
type Decision struct {
	Description string
	Rationale   string
}

// Render serializes the intent as heading-delimited Markdown. The
// interpreted goal is accepted by Parse for compatibility but never
// emitted here; only the round-tripped sections are written.
func (in Intent) Render() string {
	var b strings.Builder

	b.WriteString("# Intent\n\n")
	b.WriteString(in.OriginalRequest)
	b.WriteString("\n")

	if in.Summary != nil {
		b.WriteString("\n## Summary\n\n")
		b.WriteString(*in.Summary)
		b.WriteString("\n")
	}

	if len(in.DeadEnds) > 0 {
		b.WriteString("\n## Dead Ends\n\n")
		for _, de := range in.DeadEnds {
			fmt.Fprintf(&b, "- **%s**: %s\n", de.Approach, de.Reason)
		}
	}

	if len(in.Decisions) > 0 {
		b.WriteString("\n## Decisions\n\n")
		for _, d := range in.Decisions {
			fmt.Fprintf(&b, "- **%s**: %s\n", d.Description, d.Rationale)
		}
	}

	return b.String()
}

// intentSection is the parser state: which section body lines belong to.
type intentSection int

const (
	sectionIntent intentSection = iota
	sectionGoal
	sectionSummary
	sectionDeadEnds
	sectionDecisions
)

// sectionHeadings maps recognized heading prefixes to the section they
// introduce. "## Original Request" is a legacy alias for the intent body.
// Order matters only for readability; prefixes are disjoint.
var sectionHeadings = []struct {
	prefix  string
	section intentSection
}{
	{"# Intent", sectionIntent},
	{"## Original Request", sectionIntent},
	{"## Interpreted Goal", sectionGoal},
	{"## Summary", sectionSummary},
	{"## Dead Ends", sectionDeadEnds},
	{"## Decisions", sectionDecisions},
}

// intentParser is a single-pass line scanner with no lookahead. Each line
// is classified given only the current section; free-text sections
// accumulate into buf and commit on transition or end of input.
type intentParser struct {
	section intentSection
	buf     []string
	out     Intent
}

// commit trims and stores the accumulated text for the current free-text
// section, then resets the buffer. List sections are parsed per-line and
// have nothing to commit.
func (p *intentParser) commit() {
	text := strings.TrimSpace(strings.Join(p.buf, "\n"))
	p.buf = p.buf[:0]
	if text == "" {
		return
	}
	switch p.section {
	case sectionIntent:
		p.out.OriginalRequest = text
	case sectionGoal:
		p.out.InterpretedGoal = &text
	case sectionSummary:
		p.out.Summary = &text
	}
}

func (p *intentParser) line(line string) {
	for _, h := range sectionHeadings {
		if strings.HasPrefix(line, h.prefix) {
			p.commit()
			p.section = h.section
			return
		}
	}

	switch p.section {
	case sectionDeadEnds:
		if approach, reason, ok := parseBullet(line); ok {
			p.out.DeadEnds = append(p.out.DeadEnds, DeadEnd{Approach: approach, Reason: reason})
		}
	case sectionDecisions:
		if desc, rationale, ok := parseBullet(line); ok {
			p.out.Decisions = append(p.out.Decisions, Decision{Description: desc, Rationale: rationale})
		}
	default:
		p.buf = append(p.buf, line)
	}
}

// parseBullet matches the literal form `- **X**: Y`. Anything else is
// silently skipped by the caller.
func parseBullet(line string) (field, value string, ok bool) {
	rest, found := strings.CutPrefix(line, "- **")
	if !found {
		return "", "", false
	}
	return strings.Cut(rest, "**: ")
}

// ParseIntent parses the intent narrative. Malformed bullets are skipped;
// the parse itself cannot fail.
func ParseIntent(md string) Intent {
	p := &intentParser{}
	for _, line := range strings.Split(md, "\n") {
		p.line(line)
	}
	p.commit()
	return p.out
}
