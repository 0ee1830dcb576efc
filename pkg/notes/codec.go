// Package notes converts between per-section note content and the single
// flat markdown-like string stored on a discovery session.
//
// The format is a sequence of "## <section>" header lines, each followed by
// that section's free text, with a blank line between sections:
//
//	## Goals
//	Grow revenue
//
//	## Pain Points
//	Slow onboarding
package notes

import "strings"

// Encode renders the content of each declared section, in declared order,
// into a single flat string. Missing sections render with empty content.
// Encode is total and deterministic.
func Encode(sections []string, content map[string]string) string {
	blocks := make([]string, 0, len(sections))
	for _, section := range sections {
		blocks = append(blocks, "## "+section+"\n"+content[section])
	}
	return strings.Join(blocks, "\n\n")
}

// Decode extracts per-section content from a flat notes string. Every
// declared section is present in the result, defaulting to "". A section's
// content runs from just after the first occurrence of its header to the
// header of the next section that both follows it in the declared order and
// occurs later in the string, or to end-of-string. Content is trimmed.
//
// Decode never fails: empty or unparseable input yields all-empty sections.
// If a section's own text contains a line equal to a later section's header,
// the split lands on that embedded header; accepted limitation of the
// header-scanning format.
func Decode(sections []string, flat string) map[string]string {
	content := make(map[string]string, len(sections))
	for _, section := range sections {
		content[section] = ""
	}
	if flat == "" {
		return content
	}

	for i, section := range sections {
		header := "## " + section
		start := strings.Index(flat, header)
		if start == -1 {
			continue
		}
		contentStart := start + len(header)
		contentEnd := len(flat)

		// First header of a later-declared section that appears after this
		// section's content begins.
		for _, next := range sections[i+1:] {
			if pos := strings.Index(flat[contentStart:], "## "+next); pos != -1 {
				contentEnd = contentStart + pos
				break
			}
		}

		content[section] = strings.TrimSpace(flat[contentStart:contentEnd])
	}
	return content
}
