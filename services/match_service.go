//go:generate go run go.uber.org/mock/mockgen -source=match_service.go -destination=../mocks/mock_match_service.go -package=mocks
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/itzme-challa/TalkStranger-chatbot/contract"
	"github.com/itzme-challa/TalkStranger-chatbot/domain"
	apperrors "github.com/itzme-challa/TalkStranger-chatbot/errors"
)

type IMatchService interface {
	TryMatch(ctx context.Context, requester domain.ParticipantID) (domain.Conversation, error)
	EndFor(ctx context.Context, requester domain.ParticipantID) (domain.Conversation, domain.ParticipantID, error)
}

// MatchService pairs a requesting participant with a random available
// partner. It coordinates the directory and the conversation store but
// writes through their APIs only.
type MatchService struct {
	directory     contract.IParticipantDirectory
	conversations contract.IConversationStore
	log           *slog.Logger
	maxAttempts   int
	pick          func(n int) int
}

// NewMatchService builds the matcher. maxAttempts bounds how many
// candidates a single match request may try after reservation conflicts
// before giving up with no partner.
func NewMatchService(
	directory contract.IParticipantDirectory,
	conversations contract.IConversationStore,
	log *slog.Logger,
	maxAttempts int,
) *MatchService {
	return &MatchService{
		directory:     directory,
		conversations: conversations,
		log:           log,
		maxAttempts:   maxAttempts,
		pick:          rand.IntN,
	}
}

// TryMatch runs the pairing algorithm for one requester:
//
//  1. A requester already holding an open conversation fails with
//     ErrAlreadyPaired; the existing conversation is returned alongside so
//     the caller can point at it.
//  2. The requester is marked available before any candidate is touched.
//  3. A candidate is picked uniformly at random from the live pool. The
//     random pick is a tie-break policy, nothing more: two concurrent
//     requests may pick the same candidate.
//  4. The reservation itself is the guarantee. It is conditional inside
//     the store, so a lost race surfaces as a conflict and the matcher
//     moves on to another candidate, bounded by maxAttempts.
//  5. On success both statuses flip to paired and the conversation is
//     promoted to active.
//
// An empty or exhausted pool returns ErrNoPartner, which is a legitimate
// outcome, not a failure.
func (s *MatchService) TryMatch(ctx context.Context, requester domain.ParticipantID) (domain.Conversation, error) {
	if existing, ok, err := s.conversations.ActiveFor(requester); err != nil {
		return domain.Conversation{}, err
	} else if ok {
		return existing, apperrors.ErrAlreadyPaired
	}

	status, err := s.directory.SetAvailable(requester)
	if err != nil {
		return domain.Conversation{}, err
	}
	if status == domain.StatusPaired {
		// No open conversation claims the requester, so a paired status is
		// stale: a promotion interrupted mid-flight or an expired
		// reservation swept without its member. Force the requester back
		// into the pool instead of leaving them invisible to ListAvailable.
		s.log.Warn("Healing stale paired status", "requester", requester)
		if err := s.directory.Release(requester); err != nil {
			return domain.Conversation{}, err
		}
	}

	pool, err := s.directory.ListAvailable(requester)
	if err != nil {
		return domain.Conversation{}, err
	}
	if len(pool) == 0 {
		return domain.Conversation{}, apperrors.ErrNoPartner
	}

	remaining := pool
	for attempt := 0; attempt < s.maxAttempts && len(remaining) > 0; attempt++ {
		idx := s.pick(len(remaining))
		candidate := remaining[idx]

		conv, err := s.conversations.CreatePending(requester, candidate)
		switch {
		case err == nil:
			return s.promote(conv, requester, candidate)
		case errors.Is(err, apperrors.ErrReservationConflict):
			// Candidate was grabbed by a concurrent match. Try another.
			s.log.Debug("Reservation conflict, retrying with another candidate",
				"requester", requester, "candidate", candidate)
			remaining = append(remaining[:idx:idx], remaining[idx+1:]...)
		case errors.Is(err, apperrors.ErrAlreadyPaired):
			// The requester itself got matched between steps, typically by
			// a concurrent request it issued. Report the winning pairing.
			if existing, ok, aerr := s.conversations.ActiveFor(requester); aerr == nil && ok {
				return existing, apperrors.ErrAlreadyPaired
			}
			return domain.Conversation{}, err
		default:
			return domain.Conversation{}, err
		}
	}
	return domain.Conversation{}, apperrors.ErrNoPartner
}

// promote finishes a committed reservation: both members become paired and
// the conversation turns active. A store failure here must not leave a
// half-visible pairing, so the reservation is compensated before the error
// propagates.
func (s *MatchService) promote(conv domain.Conversation, requester, candidate domain.ParticipantID) (domain.Conversation, error) {
	if err := s.directory.SetPaired(requester); err != nil {
		s.compensate(conv, requester, candidate)
		return domain.Conversation{}, err
	}
	if err := s.directory.SetPaired(candidate); err != nil {
		s.compensate(conv, requester, candidate)
		return domain.Conversation{}, err
	}
	if err := s.conversations.Confirm(conv.ID); err != nil {
		s.compensate(conv, requester, candidate)
		return domain.Conversation{}, err
	}
	conv.Status = domain.ConversationActive
	s.log.Info("Participants matched",
		"conversation", conv.ID, "requester", requester, "candidate", candidate)
	return conv, nil
}

func (s *MatchService) compensate(conv domain.Conversation, requester, candidate domain.ParticipantID) {
	if err := s.conversations.Abort(conv.ID); err != nil {
		s.log.Error("Failed to abort reservation after store failure",
			"conversation", conv.ID, "error", err)
	}
	for _, member := range []domain.ParticipantID{requester, candidate} {
		if err := s.directory.Release(member); err != nil {
			s.log.Error("Failed to release member after store failure",
				"member", member, "error", err)
		}
	}
}

// EndFor terminates the requester's open conversation.
//
// Post-termination policy (fixed, not per-request): both former members
// return to the available pool, ready for immediate re-matching. The other
// member's id is returned so the caller can notify them.
func (s *MatchService) EndFor(ctx context.Context, requester domain.ParticipantID) (domain.Conversation, domain.ParticipantID, error) {
	conv, ok, err := s.conversations.ActiveFor(requester)
	if err != nil {
		return domain.Conversation{}, "", err
	}
	if !ok {
		return domain.Conversation{}, "", apperrors.ErrNoActiveConversation
	}

	ended, err := s.conversations.Terminate(conv.ID)
	if err != nil {
		return domain.Conversation{}, "", err
	}
	other, found := ended.OtherMember(requester)
	if !found {
		return domain.Conversation{}, "", fmt.Errorf("%s is not a member of conversation %s", requester, ended.ID)
	}

	for _, member := range []domain.ParticipantID{requester, other} {
		if err := s.directory.Release(member); err != nil {
			return domain.Conversation{}, "", err
		}
	}

	s.log.Info("Conversation ended",
		"conversation", ended.ID, "initiator", requester, "other", other)
	return ended, other, nil
}
