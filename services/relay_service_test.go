package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/itzme-challa/TalkStranger-chatbot/domain"
	apperrors "github.com/itzme-challa/TalkStranger-chatbot/errors"
	"github.com/itzme-challa/TalkStranger-chatbot/mocks"
)

func TestRelayService_Forward(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	conversations := mocks.NewMockIConversationStore(ctrl)
	sink := mocks.NewMockNotificationSink(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewRelayService(conversations, sink, logger)
	ctx := context.Background()

	conv := domain.Conversation{
		ID:      "conv-1",
		MemberA: "alice",
		MemberB: "bob",
		Status:  domain.ConversationActive,
	}

	t.Run("delivers content verbatim to the other member", func(t *testing.T) {
		conversations.EXPECT().ActiveFor(domain.ParticipantID("alice")).Return(conv, true, nil)
		sink.EXPECT().Send(ctx, domain.ParticipantID("bob"), "hi").Return(nil)

		convID, target, err := svc.Forward(ctx, "alice", "hi")
		req.NoError(err)
		req.Equal(conv.ID, convID)
		req.Equal(domain.ParticipantID("bob"), target)
	})

	t.Run("resolves direction for the other member too", func(t *testing.T) {
		conversations.EXPECT().ActiveFor(domain.ParticipantID("bob")).Return(conv, true, nil)
		sink.EXPECT().Send(ctx, domain.ParticipantID("alice"), "hello back").Return(nil)

		convID, target, err := svc.Forward(ctx, "bob", "hello back")
		req.NoError(err)
		req.Equal(conv.ID, convID)
		req.Equal(domain.ParticipantID("alice"), target)
	})

	t.Run("never contacts the sink without an active conversation", func(t *testing.T) {
		// No Send expectation: any call would fail the test
		conversations.EXPECT().ActiveFor(domain.ParticipantID("loner")).
			Return(domain.Conversation{}, false, nil)

		_, _, err := svc.Forward(ctx, "loner", "anyone there?")
		req.ErrorIs(err, apperrors.ErrNoActiveConversation)
	})

	t.Run("a pending reservation does not relay yet", func(t *testing.T) {
		pending := conv
		pending.Status = domain.ConversationPending
		conversations.EXPECT().ActiveFor(domain.ParticipantID("alice")).Return(pending, true, nil)

		_, _, err := svc.Forward(ctx, "alice", "too early")
		req.ErrorIs(err, apperrors.ErrNoActiveConversation)
	})

	t.Run("delivery failure leaves the conversation active", func(t *testing.T) {
		conversations.EXPECT().ActiveFor(domain.ParticipantID("alice")).Return(conv, true, nil)
		sink.EXPECT().Send(ctx, domain.ParticipantID("bob"), "hi").
			Return(fmt.Errorf("partner unreachable"))
		// No Terminate expectation: the partner may return

		convID, target, err := svc.Forward(ctx, "alice", "hi")
		req.ErrorIs(err, apperrors.ErrDeliveryFailed)
		req.Equal(conv.ID, convID)
		req.Equal(domain.ParticipantID("bob"), target)
	})
}
