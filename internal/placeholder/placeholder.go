// Package placeholder extracts and substitutes {{ name }} tokens in step goals.
package placeholder

import (
	"regexp"
	"strings"

	"github.com/rahul/chainsmith/internal/apperr"
	"github.com/rahul/chainsmith/internal/model"
)

var tokenPattern = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)

// ExtractNames returns the distinct placeholder names found across the
// steps, in order of first appearance.
func ExtractNames(steps []model.Step) []string {
	seen := make(map[string]bool)
	var names []string
	for _, s := range steps {
		for _, m := range tokenPattern.FindAllStringSubmatch(s.Goal, -1) {
			name := m[1]
			if seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// Substitute replaces every token that has a non-blank value. Tokens with
// missing or blank values are kept exactly as written.
func Substitute(text string, values map[string]string) string {
	return tokenPattern.ReplaceAllStringFunc(text, func(token string) string {
		name := tokenPattern.FindStringSubmatch(token)[1]
		v, ok := values[name]
		if !ok || isBlank(v) {
			return token
		}
		return v
	})
}

// Validate returns a validation error for the first name without a value.
func Validate(names []string, values map[string]string) error {
	for _, name := range names {
		if isBlank(values[name]) {
			return apperr.MissingPlaceholder(name)
		}
	}
	return nil
}

// Missing lists every name without a value, in the given order.
func Missing(names []string, values map[string]string) []string {
	var out []string
	for _, name := range names {
		if isBlank(values[name]) {
			out = append(out, name)
		}
	}
	return out
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
