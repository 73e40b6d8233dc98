package search

import (
	"strconv"
	"strings"
)

// Query represents the structured parameters of an admin report search.
// It decouples the raw chat input from the index engine requirements.
type Query struct {
	RawInput string // The original /find input from the admin
	Terms    string // The actual text to search in the report index
	Room     string // Restrict matches to one room
	Reporter string // Restrict matches to one reporter username
	Limit    int    // Number of results
}

// NewQuery parses a raw string to extract command-line style arguments.
// Example: /find spam --room general --limit 5
func NewQuery(input string) *Query {
	query := &Query{
		RawInput: input,
		Limit:    10, // Default limit
	}

	parts := strings.Fields(input)
	var textTerms []string

	for i := 0; i < len(parts); i++ {
		part := parts[i]

		if strings.HasPrefix(part, "--") && i+1 < len(parts) {
			key := strings.TrimPrefix(part, "--")
			val := parts[i+1]

			switch key {
			case "room":
				query.Room = val
			case "reporter":
				query.Reporter = val
			case "limit":
				if n, err := strconv.Atoi(val); err == nil && n > 0 {
					query.Limit = n
				}
			}
			i++ // Skip the value part in next iteration
			continue
		}

		// If it's not a flag, it's a search term
		if !strings.HasPrefix(part, "/") {
			textTerms = append(textTerms, part)
		}
	}

	query.Terms = strings.Join(textTerms, " ")
	return query
}
