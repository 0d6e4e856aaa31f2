// Package ai provides the fallback conversation partner: a bounded-memory
// chat with a generative model, used when a participant talks to the bot
// without being paired. The core never depends on it.
package ai

import (
	"context"

	"github.com/itzme-challa/TalkStranger-chatbot/domain"
)

// Responder produces a reply to a participant's message. Implementations
// are external collaborators: fallible, and never on the pairing path.
type Responder interface {
	Reply(ctx context.Context, chat domain.ParticipantID, message string) (string, error)
}
