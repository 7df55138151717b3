package vault

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	wikiLinkPattern = regexp.MustCompile(`\[\[([^\[\]|]+)(?:\|([^\[\]]+))?\]\]`)
	fenceLine       = regexp.MustCompile("^\\s*(```|~~~)")
	inlineCodeSpan  = regexp.MustCompile("`[^`]*`")
)

// splitFrontMatter splits a note body into its YAML front-matter (the text
// between two leading "---" fences) and the remaining content. Absent
// fences yield an empty front-matter and the content unchanged.
func splitFrontMatter(raw string) (fm string, content string) {
	const fence = "---"
	if !strings.HasPrefix(raw, fence) {
		return "", raw
	}
	rest := raw[len(fence):]
	// Allow a newline directly after the opening fence.
	if len(rest) > 0 && rest[0] != '\n' && rest[0] != '\r' {
		return "", raw
	}
	idx := strings.Index(rest, "\n"+fence)
	if idx == -1 {
		return "", raw
	}
	fm = strings.TrimPrefix(rest[:idx], "\n")
	tail := rest[idx+1+len(fence):]
	tail = strings.TrimPrefix(tail, "\r")
	tail = strings.TrimPrefix(tail, "\n")
	return fm, tail
}

// ParseFrontMatter unmarshals a front-matter YAML block. A Parse error
// (§7) here is recovered by the caller into a best-effort empty
// FrontMatter; it never aborts a rebuild.
func ParseFrontMatter(fm string) (FrontMatter, error) {
	var out FrontMatter
	if strings.TrimSpace(fm) == "" {
		return out, nil
	}
	if err := yaml.Unmarshal([]byte(fm), &out); err != nil {
		return FrontMatter{}, err
	}
	return out, nil
}

// maskCodeRegions returns a copy of body with fenced code blocks, indented
// code blocks, and inline code spans blanked out (replaced with spaces of
// equal byte length, preserving line/column positions) so link scanning
// never matches text inside code.
func maskCodeRegions(body string) string {
	lines := strings.Split(body, "\n")
	inFence := false
	for i, line := range lines {
		if fenceLine.MatchString(line) {
			inFence = !inFence
			lines[i] = strings.Repeat(" ", len(line))
			continue
		}
		if inFence {
			lines[i] = strings.Repeat(" ", len(line))
			continue
		}
		if strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t") {
			lines[i] = strings.Repeat(" ", len(line))
			continue
		}
		lines[i] = inlineCodeSpan.ReplaceAllStringFunc(line, func(m string) string {
			return strings.Repeat(" ", len(m))
		})
	}
	return strings.Join(lines, "\n")
}

// ExtractLinks returns the ordered list of [[target]]/[[target|alias]] links
// found in body, excluding occurrences inside fenced/indented code blocks
// or inline code spans.
func ExtractLinks(body string) []Link {
	scannable := maskCodeRegions(body)
	matches := wikiLinkPattern.FindAllStringSubmatch(scannable, -1)
	if len(matches) == 0 {
		return nil
	}
	links := make([]Link, 0, len(matches))
	for _, m := range matches {
		display := strings.TrimSpace(m[1])
		if display == "" {
			continue
		}
		alias := strings.TrimSpace(m[2])
		links = append(links, Link{
			Target:  canonicalize(display),
			Display: display,
			Alias:   alias,
		})
	}
	return links
}
