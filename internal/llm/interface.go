package llm

import "context"

// Client defines the interface for remote language-model calls. The
// response is free text; callers parse their own terminal-line contracts.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
