package utils

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreview(t *testing.T) {
	tests := []struct {
		name  string
		input string
		limit int
		want  string
	}{
		{name: "short text unchanged", input: "hello", limit: 10, want: "hello"},
		{name: "text at the limit unchanged", input: "hello", limit: 5, want: "hello"},
		{name: "long text cut", input: "hello world", limit: 5, want: "hello... [6 of 11 runes omitted]"},
		{name: "multi-byte runes kept whole", input: "héllo wörld", limit: 7, want: "héllo w... [4 of 11 runes omitted]"},
		{name: "emoji kept whole", input: "🙂🙂🙂", limit: 1, want: "🙂... [2 of 3 runes omitted]"},
		{name: "empty", input: "", limit: 3, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Preview(tt.input, tt.limit))
		})
	}
}

func TestPreview_DefaultLimit(t *testing.T) {
	atLimit := strings.Repeat("a", PreviewLimit)
	assert.Equal(t, atLimit, Preview(atLimit, 0))

	got := Preview(atLimit+"bc", -1)
	assert.True(t, strings.HasPrefix(got, atLimit+"..."))
	assert.Contains(t, got, "[2 of 502 runes omitted]")
}

func TestCompactJSON(t *testing.T) {
	assert.Equal(t, `{"city":"Rome","temp":21}`, CompactJSON(map[string]any{"temp": 21, "city": "Rome"}))
	assert.Equal(t, `["a","b"]`, CompactJSON([]string{"a", "b"}))
	assert.Equal(t, `null`, CompactJSON(nil))
}

func TestCompactJSON_EncodeFailure(t *testing.T) {
	got := CompactJSON(make(chan int))

	var decoded map[string]string
	require.NoError(t, json.Unmarshal([]byte(got), &decoded))
	assert.Contains(t, decoded["error"], "unsupported type")
}
