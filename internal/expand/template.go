package expand

import "regexp"

// Placeholder pattern: {{name}}, optionally padded with spaces
var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

// FillTemplate substitutes {{name}} placeholders with values from the
// resolved input map. Unresolved placeholders substitute to the empty
// string; a hole in the prompt is preferable to failing the whole expansion.
func FillTemplate(tpl string, inputs map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(tpl, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		return inputs[name]
	})
}

// TemplateVariables returns the distinct placeholder names referenced in a
// template, in first-appearance order
func TemplateVariables(tpl string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(tpl, -1)
	seen := make(map[string]struct{}, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		names = append(names, m[1])
	}
	return names
}
