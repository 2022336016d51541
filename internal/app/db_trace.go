package app

import (
	"regexp"
	"strings"
)

const maxTracedQueryLength = 512

var (
	queryWhitespaceRegex = regexp.MustCompile(`\s+`)
	// raw_payload literals can be large; spans keep placeholders only.
	queryStringLiteralRegex = regexp.MustCompile(`'(?:[^']|'')*'`)
	// Fixture INSERT value lists and IN filters.
	queryPlaceholderListRegex = regexp.MustCompile(`\(\$\d+(?:, ?\$\d+){3,}\)`)
)

func formatDBQueryForTrace(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	normalized := queryWhitespaceRegex.ReplaceAllString(query, " ")
	normalized = queryStringLiteralRegex.ReplaceAllString(normalized, "'?'")
	normalized = queryPlaceholderListRegex.ReplaceAllStringFunc(normalized, collapsePlaceholderList)
	if len(normalized) <= maxTracedQueryLength {
		return normalized
	}

	return normalized[:maxTracedQueryLength] + "..."
}

// collapsePlaceholderList turns "($1, $2, $3, $4)" into "($1..$4)".
func collapsePlaceholderList(list string) string {
	inner := strings.Trim(list, "()")
	parts := strings.Split(inner, ",")
	first := strings.TrimSpace(parts[0])
	last := strings.TrimSpace(parts[len(parts)-1])
	return "(" + first + ".." + last + ")"
}
