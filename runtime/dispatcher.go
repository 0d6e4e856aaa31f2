package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/itzme-challa/TalkStranger-chatbot/ai"
	"github.com/itzme-challa/TalkStranger-chatbot/contract"
	"github.com/itzme-challa/TalkStranger-chatbot/domain"
	"github.com/itzme-challa/TalkStranger-chatbot/domain/event"
	apperrors "github.com/itzme-challa/TalkStranger-chatbot/errors"
	"github.com/itzme-challa/TalkStranger-chatbot/services"
)

// Dispatcher is the caller side of the pairing core. It drains inbound
// commands through a supervised worker pool, invokes the matcher and the
// relay, renders their outcomes into participant-facing replies, and
// performs the best-effort notifications the core deliberately leaves to
// its caller (a failed notification never rolls a pairing back).
//
// Each command is handled as a free-standing invocation: the dispatcher
// keeps no per-participant state between commands, so any number of
// workers, or processes, can share the load against the same store.
type Dispatcher struct {
	log            *slog.Logger
	match          services.IMatchService
	relay          services.IRelayService
	sink           contract.NotificationSink
	responder      ai.Responder
	commands       chan domain.Command
	permanentSinks []contract.EventSink
	numWorkers     int
	sinkTimeout    time.Duration
}

// NewDispatcher builds the pool. responder may be nil; the fallback reply
// then degrades to static guidance.
func NewDispatcher(
	log *slog.Logger,
	match services.IMatchService,
	relay services.IRelayService,
	sink contract.NotificationSink,
	responder ai.Responder,
	numWorkers, bufferSize int,
	sinkTimeout time.Duration,
) *Dispatcher {
	return &Dispatcher{
		log:         log,
		match:       match,
		relay:       relay,
		sink:        sink,
		responder:   responder,
		commands:    make(chan domain.Command, bufferSize),
		numWorkers:  numWorkers,
		sinkTimeout: sinkTimeout,
	}
}

func (d *Dispatcher) Add(sinks ...contract.EventSink) {
	d.permanentSinks = append(d.permanentSinks, sinks...)
}

// Dispatch enqueues a command without blocking the transport. A full
// channel drops the command: the participant retries by reissuing the
// triggering event, which is cheaper than stalling the webhook.
func (d *Dispatcher) Dispatch(cmd domain.Command) {
	select {
	case d.commands <- cmd:
	default:
		d.log.Warn(fmt.Sprintf("Command channel full, dropping command from %s", cmd.Sender()))
	}
}

// Workers returns the pool to run under a supervisor.
func (d *Dispatcher) Workers() []contract.Worker {
	workers := make([]contract.Worker, 0, d.numWorkers)
	for i := 0; i < d.numWorkers; i++ {
		workers = append(workers, &commandWorker{dispatcher: d})
	}
	return workers
}

type commandWorker struct {
	dispatcher *Dispatcher
}

func (w *commandWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd := <-w.dispatcher.commands:
			w.dispatcher.Handle(ctx, cmd)
		}
	}
}

// Handle processes one command to completion. Exported so transports that
// want synchronous semantics (and tests) can bypass the queue.
func (d *Dispatcher) Handle(ctx context.Context, cmd domain.Command) {
	switch c := cmd.(type) {
	case domain.RequestAvailable:
		d.handleMatch(ctx, c.Participant, StartTexts)
	case domain.RequestMatch:
		d.handleMatch(ctx, c.Participant, SearchTexts)
	case domain.TextMessage:
		d.handleText(ctx, c)
	case domain.RequestStop:
		d.handleStop(ctx, c.Participant)
	default:
		d.log.Warn(fmt.Sprintf("Unhandled command type %T from %s", cmd, cmd.Sender()))
	}
}

func (d *Dispatcher) handleMatch(ctx context.Context, requester domain.ParticipantID, texts MatchTexts) {
	conv, err := d.match.TryMatch(ctx, requester)
	switch {
	case err == nil:
		partner, _ := conv.OtherMember(requester)
		d.reply(ctx, requester, texts.Matched)
		// Best-effort: the partner will still discover the pairing on
		// their next interaction if this send is lost.
		d.reply(ctx, partner, texts.PartnerMatched)
		d.emit(ctx, event.MatchFound{
			Conversation: conv.ID,
			MemberA:      conv.MemberA,
			MemberB:      conv.MemberB,
			At:           time.Now().UTC(),
		})
	case errors.Is(err, apperrors.ErrNoPartner):
		d.reply(ctx, requester, texts.NoPartner)
	case errors.Is(err, apperrors.ErrAlreadyPaired):
		d.reply(ctx, requester, texts.AlreadyPaired)
	default:
		d.log.Error("Match attempt failed", "requester", requester, "error", err)
		d.reply(ctx, requester, TextGenericError)
	}
}

func (d *Dispatcher) handleText(ctx context.Context, msg domain.TextMessage) {
	if strings.HasPrefix(msg.Content, "/") {
		// Commands are filtered by the transport; one slipping through is
		// a collaborator bug, not a message to relay.
		d.log.Warn("Dropping unfiltered command", "sender", msg.Participant)
		return
	}

	convID, target, err := d.relay.Forward(ctx, msg.Participant, msg.Content)
	switch {
	case err == nil:
		d.emit(ctx, event.MessageForwarded{
			Conversation: convID,
			From:         msg.Participant,
			To:           target,
			Content:      msg.Content,
			At:           time.Now().UTC(),
		})
	case errors.Is(err, apperrors.ErrNoActiveConversation):
		d.reply(ctx, msg.Participant, d.fallbackReply(ctx, msg))
	case errors.Is(err, apperrors.ErrDeliveryFailed):
		d.reply(ctx, msg.Participant, TextDeliveryFailed)
	default:
		d.log.Error("Relay failed", "sender", msg.Participant, "error", err)
		d.reply(ctx, msg.Participant, TextGenericError)
	}
}

// fallbackReply answers a participant talking to nobody. With a responder
// configured the bot holds a small conversation of its own; otherwise it
// points at /search.
func (d *Dispatcher) fallbackReply(ctx context.Context, msg domain.TextMessage) string {
	if d.responder == nil {
		return TextNoPartnerYet
	}
	answer, err := d.responder.Reply(ctx, msg.Participant, msg.Content)
	if err != nil {
		d.log.Warn("Responder unavailable, using static guidance", "error", err)
		return TextNoPartnerYet
	}
	return answer
}

func (d *Dispatcher) handleStop(ctx context.Context, requester domain.ParticipantID) {
	ended, other, err := d.match.EndFor(ctx, requester)
	switch {
	case err == nil:
		d.reply(ctx, requester, TextStopped)
		d.reply(ctx, other, TextPartnerStopped)
		d.emit(ctx, event.ConversationEnded{
			Conversation: ended.ID,
			Initiator:    requester,
			Other:        other,
			At:           time.Now().UTC(),
		})
	case errors.Is(err, apperrors.ErrNoActiveConversation):
		d.reply(ctx, requester, TextNoConversation)
	default:
		d.log.Error("Stop failed", "requester", requester, "error", err)
		d.reply(ctx, requester, TextGenericError)
	}
}

// reply delivers guidance or notifications without letting a transport
// failure alter the handled outcome.
func (d *Dispatcher) reply(ctx context.Context, to domain.ParticipantID, content string) {
	if err := d.sink.Send(ctx, to, content); err != nil {
		d.log.Warn("Notification not delivered", "to", to, "error", err)
	}
}

func (d *Dispatcher) emit(ctx context.Context, evt event.DomainEvent) {
	for _, sink := range d.permanentSinks {
		sinkCtx := ctx
		cancel := func() {}
		if d.sinkTimeout > 0 {
			sinkCtx, cancel = context.WithTimeout(ctx, d.sinkTimeout)
		}
		if err := sink.Consume(sinkCtx, evt); err != nil {
			d.log.Warn("Event sink rejected event", "event", fmt.Sprintf("%T", evt), "error", err)
		}
		cancel()
	}
}
