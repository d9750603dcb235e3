package translate

import "context"

// Translator is the contract every translation backend implements. Mirrors
// share it with the primary provider and are tried in fixed order after it.
type Translator interface {
	// Translate converts text from source (a code or Auto) to target.
	// An empty result with nil error counts as a failure for fallback
	// purposes.
	Translate(ctx context.Context, text, source, target string) (string, error)

	// Name identifies the provider in logs and metrics.
	Name() string
}
