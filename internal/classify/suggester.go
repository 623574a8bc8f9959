package classify

import "context"

// Suggester proposes categories for descriptions the ruleset could not
// classify. Implementations may call an external model; the pipeline treats
// suggestions as optional and falls back to the sentinel on error.
type Suggester interface {
	// Suggest maps each description to one of the given categories. Keys
	// missing from the result stay unclassified.
	Suggest(ctx context.Context, descriptions, categories []string) (map[string]string, error)
}
