// Package gemini implements a classify.Suggester backed by the Gemini API.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"google.golang.org/genai"
)

const (
	// DefaultModel balances latency and quality for short classification
	// prompts.
	DefaultModel = "gemini-2.0-flash"

	// maxDescriptions caps a single prompt so a huge statement does not blow
	// the request size.
	maxDescriptions = 50

	maxRetries = 3
)

// Suggester asks Gemini to assign categories to unclassified descriptions.
type Suggester struct {
	client *genai.Client
	model  string
}

// New creates a Suggester using the given API key. An empty model selects
// DefaultModel.
func New(ctx context.Context, apiKey, model string) (*Suggester, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key cannot be empty")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	return &Suggester{client: client, model: model}, nil
}

// Suggest maps descriptions to categories. Descriptions are deduplicated and
// capped; the model is instructed to answer with a single JSON object and to
// skip anything it cannot place.
func (s *Suggester) Suggest(ctx context.Context, descriptions, categories []string) (map[string]string, error) {
	if len(descriptions) == 0 || len(categories) == 0 {
		return map[string]string{}, nil
	}

	seen := make(map[string]bool, len(descriptions))
	unique := make([]string, 0, len(descriptions))
	for _, d := range descriptions {
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		unique = append(unique, d)
		if len(unique) == maxDescriptions {
			break
		}
	}

	prompt := buildPrompt(unique, categories)
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	var raw string
	operation := func() error {
		resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, nil)
		if err != nil {
			return fmt.Errorf("gemini request failed: %w", err)
		}
		raw = resp.Text()
		return nil
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}

	suggestions, err := parseSuggestions(raw)
	if err != nil {
		return nil, err
	}

	// Suggested categories outside the supplied list are kept; the caller's
	// learning path decides whether a new category enters the ruleset.
	result := make(map[string]string)
	for desc, cat := range suggestions {
		if seen[desc] && cat != "" {
			result[desc] = cat
		}
	}
	return result, nil
}

func buildPrompt(descriptions, categories []string) string {
	var b strings.Builder
	b.WriteString("Classifique as transações de cartão de crédito abaixo.\n")
	b.WriteString("Categorias permitidas: ")
	b.WriteString(strings.Join(categories, ", "))
	b.WriteString("\n\nTransações:\n")
	for _, d := range descriptions {
		b.WriteString("- ")
		b.WriteString(d)
		b.WriteString("\n")
	}
	b.WriteString("\nResponda somente com um objeto JSON mapeando cada descrição ")
	b.WriteString("exatamente como escrita acima para uma das categorias permitidas. ")
	b.WriteString("Omita transações que não souber classificar. Não inclua texto fora do JSON.")
	return b.String()
}

// parseSuggestions decodes the model's reply, tolerating a fenced code block
// around the JSON object.
func parseSuggestions(raw string) (map[string]string, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	if text == "" {
		return map[string]string{}, nil
	}
	var out map[string]string
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("gemini returned malformed JSON: %w", err)
	}
	return out, nil
}
