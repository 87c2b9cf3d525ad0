package record

import (
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
)

// DefaultTableName derives the table for a class name: "AdminUser" becomes
// "admin_users".
func DefaultTableName(className string) string {
	snake := toSnake(className)
	if snake == "" {
		return ""
	}
	idx := strings.LastIndexByte(snake, '_')
	return snake[:idx+1] + inflection.Plural(snake[idx+1:])
}

// toSnake converts the provided string to snake_case using ASCII-aware rules.
// Punctuation collapses to a single underscore so names taken from reflected
// or namespaced types ("admin::User", "Post[T]") still give valid identifiers.
func toSnake(s string) string {
	if s == "" {
		return ""
	}

	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(runes) + len(runes)/2)

	lastUnderscore := false
	separator := func() {
		if !lastUnderscore && b.Len() > 0 {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}

	for i, r := range runes {
		switch {
		case unicode.IsUpper(r):
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (nextLower && unicode.IsUpper(prev)) {
					separator()
				}
			}
			b.WriteRune(unicode.ToLower(r))
			lastUnderscore = false

		case unicode.IsLower(r), unicode.IsDigit(r):
			b.WriteRune(r)
			lastUnderscore = false

		default:
			separator()
		}
	}

	return strings.Trim(b.String(), "_")
}

// ModelName derives a class name from a table: "admin_users" becomes
// "AdminUser".
func ModelName(table string) string {
	snake := toSnake(table)
	if snake == "" {
		return ""
	}
	idx := strings.LastIndexByte(snake, '_')
	snake = snake[:idx+1] + inflection.Singular(snake[idx+1:])

	var b strings.Builder
	for _, part := range strings.Split(snake, "_") {
		if part == "" {
			continue
		}
		runes := []rune(part)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	return b.String()
}
