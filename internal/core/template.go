package core

import "os"

// RequiredPlaceholders must appear in every template. Omitting one would
// silently drop content from the notification.
var RequiredPlaceholders = []string{"diff"}

// Substitute replaces $name and ${name} placeholders in tmpl with values from
// vars. "$$" yields a literal dollar sign.
func Substitute(tmpl string, vars map[string]string) (string, error) {
	var undefined *TemplateSubstitutionError
	used := make(map[string]bool)

	out := os.Expand(tmpl, func(key string) string {
		if key == "$" {
			return "$"
		}
		used[key] = true
		v, ok := vars[key]
		if !ok && undefined == nil {
			undefined = &TemplateSubstitutionError{Key: key}
		}
		return v
	})
	if undefined != nil {
		return "", undefined
	}

	for _, key := range RequiredPlaceholders {
		if !used[key] {
			return "", &TemplateSubstitutionError{Key: key, Missing: true}
		}
	}
	return out, nil
}
