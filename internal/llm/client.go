// Package llm wraps the upstream chat-completion API consumed by the relay.
// Every operation is a single attempt with a bounded timeout: the telephony
// provider enforces a webhook response deadline, so retries belong to it,
// not to us.
package llm

import (
	"context"

	"github.com/voiceline/callrelay/internal/session"
)

// Client produces assistant replies and post-call summaries.
type Client interface {
	// ChatTurn sends the full turn history and returns the next assistant
	// utterance.
	ChatTurn(ctx context.Context, history []session.Message) (string, error)
	// Summarize produces a summary of a joined call transcript.
	Summarize(ctx context.Context, transcript string) (string, error)
}
