package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/itzme-challa/TalkStranger-chatbot/contract"
	"github.com/itzme-challa/TalkStranger-chatbot/domain"
	"github.com/itzme-challa/TalkStranger-chatbot/domain/event"
	apperrors "github.com/itzme-challa/TalkStranger-chatbot/errors"
)

// LocalSink is the in-process NotificationSink: it delivers to whatever
// sink the participant registered. Used in development mode and tests in
// place of the external transport. A participant without a registered
// connection is unreachable, which exercises the same delivery-failure
// path the real transport produces.
type LocalSink struct {
	registry contract.IRegistry
}

func NewLocalSink(registry contract.IRegistry) LocalSink {
	return LocalSink{registry: registry}
}

func (s LocalSink) Send(ctx context.Context, to domain.ParticipantID, content string) error {
	target, ok := s.registry.Sink(to)
	if !ok {
		return fmt.Errorf("%w: %s has no active connection", apperrors.ErrDeliveryFailed, to)
	}
	return target.Consume(ctx, event.NotificationDelivered{
		To:      to,
		Content: content,
		At:      time.Now().UTC(),
	})
}
