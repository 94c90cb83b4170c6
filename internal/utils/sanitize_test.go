package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeSurrogates(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain ascii", input: "hello", want: "hello"},
		{name: "valid multibyte", input: "héllo 👋", want: "héllo 👋"},
		{name: "lone high surrogate bytes", input: "a\xed\xa0\x80b", want: "ab"},
		{name: "truncated sequence", input: "ok\xe2\x82", want: "ok"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeSurrogates(tt.input))
		})
	}
}
