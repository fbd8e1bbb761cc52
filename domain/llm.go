package domain

import "context"

// Llm abstracts a one-shot chat/LLM provider.
type Llm interface {
	// Generate takes a user prompt and returns the model's full reply.
	Generate(ctx context.Context, prompt string) (string, error)
}

// ChatStreamer produces a reply as a live sequence of text fragments.
//
// The returned channel is closed when the upstream closes, when ctx ends, or
// after a single degraded-message fragment on failure. Fragments are never
// empty and arrive in the order the upstream produced them.
type ChatStreamer interface {
	Stream(ctx context.Context, prompt string) <-chan string
}
