//go:generate go run go.uber.org/mock/mockgen -source=relay_service.go -destination=../mocks/mock_relay_service.go -package=mocks
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/itzme-challa/TalkStranger-chatbot/contract"
	"github.com/itzme-challa/TalkStranger-chatbot/domain"
	apperrors "github.com/itzme-challa/TalkStranger-chatbot/errors"
)

type IRelayService interface {
	Forward(ctx context.Context, sender domain.ParticipantID, content string) (domain.ConversationID, domain.ParticipantID, error)
}

// RelayService forwards a message between the two members of an active
// conversation. It never stores content: relaying is delivery, verbatim.
type RelayService struct {
	conversations contract.IConversationStore
	sink          contract.NotificationSink
	log           *slog.Logger
}

func NewRelayService(conversations contract.IConversationStore, sink contract.NotificationSink, log *slog.Logger) *RelayService {
	return &RelayService{conversations: conversations, sink: sink, log: log}
}

// Forward resolves the sender's active conversation and delivers content
// to the other member. A sender without an active conversation gets
// ErrNoActiveConversation and the sink is never contacted.
//
// Delivery failure does not end the conversation: a transient unreachable
// partner may return, so the record stays Active and the sender decides
// whether to retry or stop. The conversation and target ids are returned
// either way.
func (s *RelayService) Forward(ctx context.Context, sender domain.ParticipantID, content string) (domain.ConversationID, domain.ParticipantID, error) {
	conv, ok, err := s.conversations.ActiveFor(sender)
	if err != nil {
		return "", "", err
	}
	if !ok || conv.Status != domain.ConversationActive {
		return "", "", apperrors.ErrNoActiveConversation
	}

	target, found := conv.OtherMember(sender)
	if !found {
		return "", "", fmt.Errorf("%s is not a member of conversation %s", sender, conv.ID)
	}

	if err := s.sink.Send(ctx, target, content); err != nil {
		s.log.Warn("Delivery failed, conversation left active",
			"conversation", conv.ID, "target", target, "error", err)
		return conv.ID, target, fmt.Errorf("%w: %v", apperrors.ErrDeliveryFailed, err)
	}
	return conv.ID, target, nil
}
