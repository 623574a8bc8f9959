package gemini

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSuggestions(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]string
	}{
		{
			name: "bare JSON",
			raw:  `{"UBER VIAGEM": "Transporte"}`,
			want: map[string]string{"UBER VIAGEM": "Transporte"},
		},
		{
			name: "fenced with language tag",
			raw:  "```json\n{\"UBER VIAGEM\": \"Transporte\"}\n```",
			want: map[string]string{"UBER VIAGEM": "Transporte"},
		},
		{
			name: "fenced without language tag",
			raw:  "```\n{\"IFOOD\": \"Alimentação\"}\n```",
			want: map[string]string{"IFOOD": "Alimentação"},
		},
		{
			name: "empty reply",
			raw:  "   ",
			want: map[string]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSuggestions(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSuggestionsMalformed(t *testing.T) {
	_, err := parseSuggestions("desculpe, não consegui classificar")
	assert.Error(t, err)
}

func TestBuildPrompt(t *testing.T) {
	p := buildPrompt([]string{"UBER VIAGEM", "IFOOD"}, []string{"Transporte", "Alimentação"})

	assert.True(t, strings.Contains(p, "- UBER VIAGEM\n"))
	assert.True(t, strings.Contains(p, "- IFOOD\n"))
	assert.True(t, strings.Contains(p, "Transporte, Alimentação"))
	assert.True(t, strings.Contains(p, "JSON"))
}
