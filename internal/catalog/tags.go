package catalog

import "strings"

// trimTag strips surrounding whitespace. Tags are otherwise compared
// byte for byte: case is significant.
func trimTag(tag string) string {
	return strings.TrimSpace(tag)
}

// buttonTags trims a button's tag set, dropping empty entries and repeats.
// Order of first occurrence is kept.
func buttonTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(tags))
	var out []string
	for _, tag := range tags {
		t := trimTag(tag)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// macroTags trims a macro's tag list in place. Repeats are kept: a tag
// listed twice is expanded twice.
func macroTags(tags []string) []string {
	for i, tag := range tags {
		tags[i] = trimTag(tag)
	}
	return tags
}
