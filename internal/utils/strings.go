package utils

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// PreviewLimit is the number of runes Preview keeps when given no limit.
const PreviewLimit = 500

// Preview shortens s for logs and terminal echoes. It keeps the first limit
// runes, so a multi-byte character is never split, and notes how many were
// cut. A limit of zero or less means PreviewLimit.
func Preview(s string, limit int) string {
	if limit <= 0 {
		limit = PreviewLimit
	}
	total := utf8.RuneCountInString(s)
	if total <= limit {
		return s
	}
	cut := 0
	for i := 0; i < limit; i++ {
		_, size := utf8.DecodeRuneInString(s[cut:])
		cut += size
	}
	return fmt.Sprintf("%s... [%d of %d runes omitted]", s[:cut], total-limit, total)
}

// CompactJSON encodes v for a tool result or log attribute. A value that
// cannot be encoded yields a JSON object describing the failure.
func CompactJSON(v any) string {
	encoded, err := json.Marshal(v)
	if err != nil {
		fallback, _ := json.Marshal(map[string]string{"error": err.Error()})
		return string(fallback)
	}
	return string(encoded)
}
