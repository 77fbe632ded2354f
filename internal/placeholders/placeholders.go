// Package placeholders finds and fills {{name}} tokens in email templates.
package placeholders

import "regexp"

var tokenPattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Extract returns the distinct token names in text, in first-occurrence order.
func Extract(text string) []string {
	return appendUnique(nil, map[string]struct{}{}, text)
}

// ExtractTemplate scans subject then body and returns the union.
func ExtractTemplate(subject, body string) []string {
	seen := map[string]struct{}{}
	out := appendUnique(nil, seen, subject)
	return appendUnique(out, seen, body)
}

func appendUnique(out []string, seen map[string]struct{}, text string) []string {
	for _, m := range tokenPattern.FindAllStringSubmatch(text, -1) {
		name := m[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	if out == nil {
		return []string{}
	}
	return out
}

// Render replaces each known token with its value. Unknown tokens are left
// as written so a preview shows what is still missing.
func Render(text string, values map[string]string) string {
	return tokenPattern.ReplaceAllStringFunc(text, func(tok string) string {
		name := tokenPattern.FindStringSubmatch(tok)[1]
		if v, ok := values[name]; ok {
			return v
		}
		return tok
	})
}

// Missing lists the template tokens that values does not cover.
func Missing(tokens []string, values map[string]string) []string {
	out := []string{}
	for _, t := range tokens {
		if _, ok := values[t]; !ok {
			out = append(out, t)
		}
	}
	return out
}
