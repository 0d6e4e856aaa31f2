package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/itzme-challa/TalkStranger-chatbot/contract"
	"github.com/itzme-challa/TalkStranger-chatbot/domain"
	"github.com/itzme-challa/TalkStranger-chatbot/domain/event"
	apperrors "github.com/itzme-challa/TalkStranger-chatbot/errors"
	"github.com/itzme-challa/TalkStranger-chatbot/mocks"
)

type staticResponder struct {
	answer string
	err    error
}

func (r staticResponder) Reply(context.Context, domain.ParticipantID, string) (string, error) {
	return r.answer, r.err
}

type dispatcherFixture struct {
	dispatcher *Dispatcher
	match      *mocks.MockIMatchService
	relay      *mocks.MockIRelayService
	sink       *mocks.MockNotificationSink
	events     *mocks.MockEventSink
}

func newDispatcherFixture(t *testing.T) dispatcherFixture {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := dispatcherFixture{
		match:  mocks.NewMockIMatchService(ctrl),
		relay:  mocks.NewMockIRelayService(ctrl),
		sink:   mocks.NewMockNotificationSink(ctrl),
		events: mocks.NewMockEventSink(ctrl),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.dispatcher = NewDispatcher(logger, f.match, f.relay, f.sink, nil, 2, 16, time.Second)
	f.dispatcher.Add(f.events)
	return f
}

func TestDispatcher_MatchSuccessNotifiesBothSides(t *testing.T) {
	req := require.New(t)
	f := newDispatcherFixture(t)
	ctx := context.Background()

	conv := domain.Conversation{ID: "conv-1", MemberA: "alice", MemberB: "bob", Status: domain.ConversationActive}
	f.match.EXPECT().TryMatch(gomock.Any(), domain.ParticipantID("alice")).Return(conv, nil)
	f.sink.EXPECT().Send(gomock.Any(), domain.ParticipantID("alice"), StartTexts.Matched).Return(nil)
	f.sink.EXPECT().Send(gomock.Any(), domain.ParticipantID("bob"), StartTexts.PartnerMatched).Return(nil)

	var seen event.DomainEvent
	f.events.EXPECT().Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e event.DomainEvent) error {
			seen = e
			return nil
		})

	f.dispatcher.Handle(ctx, domain.RequestAvailable{Participant: "alice", At: time.Now()})

	matched, ok := seen.(event.MatchFound)
	req.True(ok)
	req.Equal(domain.ConversationID("conv-1"), matched.Conversation)
}

func TestDispatcher_PartnerNotificationFailureDoesNotRollBack(t *testing.T) {
	f := newDispatcherFixture(t)
	ctx := context.Background()

	conv := domain.Conversation{ID: "conv-1", MemberA: "alice", MemberB: "bob", Status: domain.ConversationActive}
	f.match.EXPECT().TryMatch(gomock.Any(), domain.ParticipantID("alice")).Return(conv, nil)
	f.sink.EXPECT().Send(gomock.Any(), domain.ParticipantID("alice"), StartTexts.Matched).Return(nil)
	// The candidate is unreachable; they will discover the pairing on
	// their next interaction. No EndFor expectation: ending would fail.
	f.sink.EXPECT().Send(gomock.Any(), domain.ParticipantID("bob"), StartTexts.PartnerMatched).
		Return(fmt.Errorf("blocked the bot"))
	f.events.EXPECT().Consume(gomock.Any(), gomock.Any()).Return(nil)

	f.dispatcher.Handle(ctx, domain.RequestAvailable{Participant: "alice", At: time.Now()})
}

func TestDispatcher_NoPartnerGuidance(t *testing.T) {
	f := newDispatcherFixture(t)
	ctx := context.Background()

	f.match.EXPECT().TryMatch(gomock.Any(), domain.ParticipantID("alice")).
		Return(domain.Conversation{}, apperrors.ErrNoPartner)
	f.sink.EXPECT().Send(gomock.Any(), domain.ParticipantID("alice"), SearchTexts.NoPartner).Return(nil)

	f.dispatcher.Handle(ctx, domain.RequestMatch{Participant: "alice", At: time.Now()})
}

func TestDispatcher_AlreadyPairedGuidance(t *testing.T) {
	f := newDispatcherFixture(t)
	ctx := context.Background()

	existing := domain.Conversation{ID: "conv-1", MemberA: "alice", MemberB: "bob"}
	f.match.EXPECT().TryMatch(gomock.Any(), domain.ParticipantID("bob")).
		Return(existing, apperrors.ErrAlreadyPaired)
	f.sink.EXPECT().Send(gomock.Any(), domain.ParticipantID("bob"), SearchTexts.AlreadyPaired).Return(nil)

	f.dispatcher.Handle(ctx, domain.RequestMatch{Participant: "bob", At: time.Now()})
}

func TestDispatcher_UnfilteredCommandIsDropped(t *testing.T) {
	f := newDispatcherFixture(t)
	ctx := context.Background()

	// No relay and no sink expectation: the command must go nowhere
	f.dispatcher.Handle(ctx, domain.TextMessage{Participant: "alice", Content: "/stop", At: time.Now()})
}

func TestDispatcher_TextForwardedEmitsEvent(t *testing.T) {
	req := require.New(t)
	f := newDispatcherFixture(t)
	ctx := context.Background()

	f.relay.EXPECT().Forward(gomock.Any(), domain.ParticipantID("alice"), "hi bob").
		Return(domain.ConversationID("conv-1"), domain.ParticipantID("bob"), nil)

	var seen event.DomainEvent
	f.events.EXPECT().Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e event.DomainEvent) error {
			seen = e
			return nil
		})

	f.dispatcher.Handle(ctx, domain.TextMessage{Participant: "alice", Content: "hi bob", At: time.Now()})

	forwarded, ok := seen.(event.MessageForwarded)
	req.True(ok)
	req.Equal(domain.ConversationID("conv-1"), forwarded.Conversation)
	req.Equal(domain.ParticipantID("alice"), forwarded.From)
	req.Equal(domain.ParticipantID("bob"), forwarded.To)
}

func TestDispatcher_TextWithoutConversation_StaticFallback(t *testing.T) {
	f := newDispatcherFixture(t)
	ctx := context.Background()

	f.relay.EXPECT().Forward(gomock.Any(), domain.ParticipantID("alice"), "hello?").
		Return(domain.ConversationID(""), domain.ParticipantID(""), apperrors.ErrNoActiveConversation)
	f.sink.EXPECT().Send(gomock.Any(), domain.ParticipantID("alice"), TextNoPartnerYet).Return(nil)

	f.dispatcher.Handle(ctx, domain.TextMessage{Participant: "alice", Content: "hello?", At: time.Now()})
}

func TestDispatcher_TextWithoutConversation_ResponderFallback(t *testing.T) {
	f := newDispatcherFixture(t)
	f.dispatcher.responder = staticResponder{answer: "hi, I'm just the bot"}
	ctx := context.Background()

	f.relay.EXPECT().Forward(gomock.Any(), domain.ParticipantID("alice"), "hello?").
		Return(domain.ConversationID(""), domain.ParticipantID(""), apperrors.ErrNoActiveConversation)
	f.sink.EXPECT().Send(gomock.Any(), domain.ParticipantID("alice"), "hi, I'm just the bot").Return(nil)

	f.dispatcher.Handle(ctx, domain.TextMessage{Participant: "alice", Content: "hello?", At: time.Now()})
}

func TestDispatcher_ResponderFailureDegradesToGuidance(t *testing.T) {
	f := newDispatcherFixture(t)
	f.dispatcher.responder = staticResponder{err: fmt.Errorf("model down")}
	ctx := context.Background()

	f.relay.EXPECT().Forward(gomock.Any(), domain.ParticipantID("alice"), "hello?").
		Return(domain.ConversationID(""), domain.ParticipantID(""), apperrors.ErrNoActiveConversation)
	f.sink.EXPECT().Send(gomock.Any(), domain.ParticipantID("alice"), TextNoPartnerYet).Return(nil)

	f.dispatcher.Handle(ctx, domain.TextMessage{Participant: "alice", Content: "hello?", At: time.Now()})
}

func TestDispatcher_DeliveryFailureInformsSender(t *testing.T) {
	f := newDispatcherFixture(t)
	ctx := context.Background()

	f.relay.EXPECT().Forward(gomock.Any(), domain.ParticipantID("alice"), "hi").
		Return(domain.ConversationID("conv-1"), domain.ParticipantID("bob"),
			fmt.Errorf("%w: unreachable", apperrors.ErrDeliveryFailed))
	f.sink.EXPECT().Send(gomock.Any(), domain.ParticipantID("alice"), TextDeliveryFailed).Return(nil)

	f.dispatcher.Handle(ctx, domain.TextMessage{Participant: "alice", Content: "hi", At: time.Now()})
}

func TestDispatcher_StopNotifiesBothSides(t *testing.T) {
	req := require.New(t)
	f := newDispatcherFixture(t)
	ctx := context.Background()

	ended := domain.Conversation{ID: "conv-1", MemberA: "alice", MemberB: "bob", Status: domain.ConversationEnded}
	f.match.EXPECT().EndFor(gomock.Any(), domain.ParticipantID("alice")).
		Return(ended, domain.ParticipantID("bob"), nil)
	f.sink.EXPECT().Send(gomock.Any(), domain.ParticipantID("alice"), TextStopped).Return(nil)
	f.sink.EXPECT().Send(gomock.Any(), domain.ParticipantID("bob"), TextPartnerStopped).Return(nil)

	var seen event.DomainEvent
	f.events.EXPECT().Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e event.DomainEvent) error {
			seen = e
			return nil
		})

	f.dispatcher.Handle(ctx, domain.RequestStop{Participant: "alice", At: time.Now()})

	endedEvt, ok := seen.(event.ConversationEnded)
	req.True(ok)
	req.Equal(domain.ParticipantID("alice"), endedEvt.Initiator)
	req.Equal(domain.ParticipantID("bob"), endedEvt.Other)
}

func TestDispatcher_StopWithoutConversation(t *testing.T) {
	f := newDispatcherFixture(t)
	ctx := context.Background()

	f.match.EXPECT().EndFor(gomock.Any(), domain.ParticipantID("alice")).
		Return(domain.Conversation{}, domain.ParticipantID(""), apperrors.ErrNoActiveConversation)
	f.sink.EXPECT().Send(gomock.Any(), domain.ParticipantID("alice"), TextNoConversation).Return(nil)

	f.dispatcher.Handle(ctx, domain.RequestStop{Participant: "alice", At: time.Now()})
}

func TestDispatcher_WorkerPoolDrainsQueue(t *testing.T) {
	req := require.New(t)
	f := newDispatcherFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handled := make(chan domain.ParticipantID, 4)
	f.match.EXPECT().TryMatch(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, id domain.ParticipantID) (domain.Conversation, error) {
			handled <- id
			return domain.Conversation{}, apperrors.ErrNoPartner
		}).Times(3)
	f.sink.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(3)

	for _, worker := range f.dispatcher.Workers() {
		go func(w contract.Worker) {
			_ = w.Run(ctx)
		}(worker)
	}

	f.dispatcher.Dispatch(domain.RequestMatch{Participant: "a", At: time.Now()})
	f.dispatcher.Dispatch(domain.RequestMatch{Participant: "b", At: time.Now()})
	f.dispatcher.Dispatch(domain.RequestMatch{Participant: "c", At: time.Now()})

	seen := map[domain.ParticipantID]bool{}
	for i := 0; i < 3; i++ {
		select {
		case id := <-handled:
			seen[id] = true
		case <-time.After(time.Second):
			req.Fail("queue not drained in time")
		}
	}
	req.Len(seen, 3)
}
