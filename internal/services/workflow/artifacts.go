package workflow

import (
	"regexp"
	"strings"
)

// EmailDraftFields are the parts of a reply written in the draft email format.
type EmailDraftFields struct {
	Subject   string
	Recipient string
	Body      string
	KeyPoints []string
}

// ActionPlanFields are the parts of a reply written in the action plan format.
type ActionPlanFields struct {
	Title             string
	Checklist         []string
	KeyConsiderations []string
}

type section struct {
	name   string
	inline string
	lines  []string
}

var (
	boldHeading  = regexp.MustCompile(`^\*\*([^*]+):\*\*\s*(.*)$`)
	checklistRow = regexp.MustCompile(`^\s*[-*]\s*\[[ xX]?\]\s*(.+)$`)
	bulletRow    = regexp.MustCompile(`^\s*[-*]\s+(.+)$`)
)

// splitSections breaks markdown into headed sections. A heading is a line
// starting with '#' or a bold line ending in a colon; text after the first
// colon in a heading is kept as inline content.
func splitSections(text string) []section {
	var sections []section
	current := section{}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t\r")
		trimmed := strings.TrimSpace(line)

		var heading string
		switch {
		case strings.HasPrefix(trimmed, "#"):
			heading = strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
			heading = strings.Trim(heading, "*")
		case boldHeading.MatchString(trimmed):
			m := boldHeading.FindStringSubmatch(trimmed)
			heading = m[1] + ":" + m[2]
		}

		if heading == "" {
			current.lines = append(current.lines, line)
			continue
		}

		sections = append(sections, current)
		name, inline, _ := strings.Cut(heading, ":")
		current = section{
			name:   strings.ToLower(strings.TrimSpace(strings.Trim(name, "* "))),
			inline: strings.TrimSpace(strings.Trim(inline, "* ")),
		}
	}
	return append(sections, current)
}

func findSection(sections []section, name string) (section, bool) {
	for _, s := range sections {
		if s.name == name {
			return s, true
		}
	}
	return section{}, false
}

// text returns the section content with surrounding blank lines removed,
// stopping at a horizontal rule.
func (s section) text() string {
	var kept []string
	if s.inline != "" {
		kept = append(kept, s.inline)
	}
	for _, line := range s.lines {
		if strings.TrimSpace(line) == "---" {
			break
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func (s section) items(pattern *regexp.Regexp) []string {
	items := []string{}
	for _, line := range s.lines {
		if m := pattern.FindStringSubmatch(line); m != nil {
			items = append(items, strings.TrimSpace(m[1]))
		}
	}
	return items
}

// ParseEmailDraft extracts a draft email. ok is false unless the reply has
// both a subject and a body.
func ParseEmailDraft(reply string) (EmailDraftFields, bool) {
	sections := splitSections(reply)

	var fields EmailDraftFields
	if s, found := findSection(sections, "subject"); found {
		fields.Subject = firstLine(s.text())
	}
	if s, found := findSection(sections, "to"); found {
		fields.Recipient = firstLine(s.text())
	}
	if s, found := findSection(sections, "email body"); found {
		fields.Body = s.text()
	}
	if s, found := findSection(sections, "key points included"); found {
		fields.KeyPoints = s.items(bulletRow)
	}

	if fields.Subject == "" || fields.Body == "" {
		return EmailDraftFields{}, false
	}
	return fields, true
}

// ParseActionPlan extracts an action plan. ok is false when the reply has no
// checklist items.
func ParseActionPlan(reply string) (ActionPlanFields, bool) {
	sections := splitSections(reply)

	var fields ActionPlanFields
	if s, found := findSection(sections, "action plan"); found {
		fields.Title = s.inline
	}
	if s, found := findSection(sections, "checklist"); found {
		fields.Checklist = s.items(checklistRow)
	}
	if s, found := findSection(sections, "key considerations"); found {
		fields.KeyConsiderations = s.items(bulletRow)
	}

	if len(fields.Checklist) == 0 {
		return ActionPlanFields{}, false
	}
	if fields.Title == "" {
		fields.Title = "Action Plan"
	}
	if fields.KeyConsiderations == nil {
		fields.KeyConsiderations = []string{}
	}
	return fields, true
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return strings.TrimSpace(line)
}
