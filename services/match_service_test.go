package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/itzme-challa/TalkStranger-chatbot/domain"
	apperrors "github.com/itzme-challa/TalkStranger-chatbot/errors"
	"github.com/itzme-challa/TalkStranger-chatbot/mocks"
	"github.com/itzme-challa/TalkStranger-chatbot/repositories"
)

const maxAttempts = 3

func newMatchFixture(t *testing.T) (*MatchService, *repositories.ParticipantRepository, *repositories.ConversationRepository, func()) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	cleanup := func() { require.NoError(t, db.Close()) }

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	directory := repositories.NewParticipantRepository(db, logger)
	conversations := repositories.NewConversationRepository(db, logger, time.Minute)
	svc := NewMatchService(directory, conversations, logger, maxAttempts)
	return svc, directory, conversations, cleanup
}

func TestMatchService_NoPartnerOnEmptyPool(t *testing.T) {
	req := require.New(t)
	svc, directory, _, cleanup := newMatchFixture(t)
	defer cleanup()

	ctx := context.Background()

	// When alice requests a match alone
	_, err := svc.TryMatch(ctx, "alice")

	// Then no partner is a legitimate outcome, and alice stays in the pool
	req.ErrorIs(err, apperrors.ErrNoPartner)
	p, err := directory.Get("alice")
	req.NoError(err)
	req.Equal(domain.StatusAvailable, p.Status)
}

func TestMatchService_PairsTwoParticipants(t *testing.T) {
	req := require.New(t)
	svc, directory, conversations, cleanup := newMatchFixture(t)
	defer cleanup()

	ctx := context.Background()

	// Given bob waiting in the pool
	_, err := svc.TryMatch(ctx, "bob")
	req.ErrorIs(err, apperrors.ErrNoPartner)

	// When alice requests a match
	conv, err := svc.TryMatch(ctx, "alice")
	req.NoError(err)

	// Then the conversation is active with both members
	req.Equal(domain.ConversationActive, conv.Status)
	req.True(conv.HasMember("alice"))
	req.True(conv.HasMember("bob"))

	// And both sides resolve to the same conversation id
	forAlice, ok, err := conversations.ActiveFor("alice")
	req.NoError(err)
	req.True(ok)
	forBob, ok, err := conversations.ActiveFor("bob")
	req.NoError(err)
	req.True(ok)
	req.Equal(conv.ID, forAlice.ID)
	req.Equal(conv.ID, forBob.ID)

	// And both participants are paired
	for _, id := range []domain.ParticipantID{"alice", "bob"} {
		p, err := directory.Get(id)
		req.NoError(err)
		req.Equal(domain.StatusPaired, p.Status)
	}
}

func TestMatchService_AlreadyPairedReturnsExistingConversation(t *testing.T) {
	req := require.New(t)
	svc, _, _, cleanup := newMatchFixture(t)
	defer cleanup()

	ctx := context.Background()

	// Given alice and bob are matched
	_, err := svc.TryMatch(ctx, "bob")
	req.ErrorIs(err, apperrors.ErrNoPartner)
	conv, err := svc.TryMatch(ctx, "alice")
	req.NoError(err)

	// When bob requests another match without stopping
	existing, err := svc.TryMatch(ctx, "bob")

	// Then the existing conversation is reported, nothing new is created
	req.ErrorIs(err, apperrors.ErrAlreadyPaired)
	req.Equal(conv.ID, existing.ID)
}

func TestMatchService_HealsStalePairedStatus(t *testing.T) {
	req := require.New(t)
	svc, directory, _, cleanup := newMatchFixture(t)
	defer cleanup()

	ctx := context.Background()

	// Given a participant left paired with no conversation behind it,
	// as after a crash between the status write and the confirmation
	req.NoError(directory.SetPaired("alice"))

	// When alice requests a match against an empty pool
	_, err := svc.TryMatch(ctx, "alice")
	req.ErrorIs(err, apperrors.ErrNoPartner)

	// Then the stale status is healed and alice is back in the pool
	p, err := directory.Get("alice")
	req.NoError(err)
	req.Equal(domain.StatusAvailable, p.Status)

	// And another participant can now find her
	conv, err := svc.TryMatch(ctx, "bob")
	req.NoError(err)
	req.True(conv.HasMember("alice"))
	req.True(conv.HasMember("bob"))
}

func TestMatchService_ConcurrentRequests_NoDoubleBooking(t *testing.T) {
	req := require.New(t)
	svc, _, conversations, cleanup := newMatchFixture(t)
	defer cleanup()

	ctx := context.Background()

	// Given one participant waiting
	_, err := svc.TryMatch(ctx, "victim")
	req.ErrorIs(err, apperrors.ErrNoPartner)

	// When a burst of requesters all match at once
	const requesters = 6
	var wg sync.WaitGroup
	for i := 0; i < requesters; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, _ = svc.TryMatch(ctx, domain.ParticipantID(fmt.Sprintf("r%d", n)))
		}(i)
	}
	wg.Wait()

	// Then nobody ever belongs to more than one open conversation
	all := []domain.ParticipantID{"victim", "r0", "r1", "r2", "r3", "r4", "r5"}
	seen := map[domain.ConversationID][]domain.ParticipantID{}
	for _, id := range all {
		conv, ok, err := conversations.ActiveFor(id)
		req.NoError(err)
		if !ok {
			continue
		}
		req.True(conv.HasMember(id))
		seen[conv.ID] = append(seen[conv.ID], id)
	}
	for id, members := range seen {
		req.Len(members, 2, "conversation %s must claim exactly two members", id)
	}
}

func TestMatchService_RetriesAfterReservationConflict(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	directory := mocks.NewMockIParticipantDirectory(ctrl)
	conversations := mocks.NewMockIConversationStore(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := NewMatchService(directory, conversations, logger, maxAttempts)
	// Deterministic tie-break: always the head of the remaining pool
	svc.pick = func(int) int { return 0 }

	won := domain.Conversation{
		ID:      "conv-1",
		MemberA: "alice",
		MemberB: "carol",
		Status:  domain.ConversationPending,
	}

	conversations.EXPECT().ActiveFor(domain.ParticipantID("alice")).Return(domain.Conversation{}, false, nil)
	directory.EXPECT().SetAvailable(domain.ParticipantID("alice")).Return(domain.StatusAvailable, nil)
	directory.EXPECT().ListAvailable(domain.ParticipantID("alice")).
		Return([]domain.ParticipantID{"bob", "carol"}, nil)
	// First candidate lost to a concurrent match, second one commits
	conversations.EXPECT().CreatePending(domain.ParticipantID("alice"), domain.ParticipantID("bob")).
		Return(domain.Conversation{}, apperrors.ErrReservationConflict)
	conversations.EXPECT().CreatePending(domain.ParticipantID("alice"), domain.ParticipantID("carol")).
		Return(won, nil)
	directory.EXPECT().SetPaired(domain.ParticipantID("alice")).Return(nil)
	directory.EXPECT().SetPaired(domain.ParticipantID("carol")).Return(nil)
	conversations.EXPECT().Confirm(won.ID).Return(nil)

	conv, err := svc.TryMatch(context.Background(), "alice")
	req.NoError(err)
	req.Equal(won.ID, conv.ID)
	req.Equal(domain.ConversationActive, conv.Status)
}

func TestMatchService_ExhaustedRetriesReportNoPartner(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	directory := mocks.NewMockIParticipantDirectory(ctrl)
	conversations := mocks.NewMockIConversationStore(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := NewMatchService(directory, conversations, logger, 2)
	svc.pick = func(int) int { return 0 }

	conversations.EXPECT().ActiveFor(domain.ParticipantID("alice")).Return(domain.Conversation{}, false, nil)
	directory.EXPECT().SetAvailable(domain.ParticipantID("alice")).Return(domain.StatusAvailable, nil)
	directory.EXPECT().ListAvailable(domain.ParticipantID("alice")).
		Return([]domain.ParticipantID{"b1", "b2", "b3"}, nil)
	// Every reservation loses; only 2 attempts are allowed despite 3 candidates
	conversations.EXPECT().CreatePending(domain.ParticipantID("alice"), gomock.Any()).
		Return(domain.Conversation{}, apperrors.ErrReservationConflict).Times(2)

	_, err := svc.TryMatch(context.Background(), "alice")
	req.ErrorIs(err, apperrors.ErrNoPartner)
}

func TestMatchService_CompensatesWhenPromotionFails(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	directory := mocks.NewMockIParticipantDirectory(ctrl)
	conversations := mocks.NewMockIConversationStore(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := NewMatchService(directory, conversations, logger, maxAttempts)
	svc.pick = func(int) int { return 0 }

	reserved := domain.Conversation{
		ID:      "conv-1",
		MemberA: "alice",
		MemberB: "bob",
		Status:  domain.ConversationPending,
	}
	storeDown := fmt.Errorf("%w: write timed out", apperrors.ErrStoreUnavailable)

	conversations.EXPECT().ActiveFor(domain.ParticipantID("alice")).Return(domain.Conversation{}, false, nil)
	directory.EXPECT().SetAvailable(domain.ParticipantID("alice")).Return(domain.StatusAvailable, nil)
	directory.EXPECT().ListAvailable(domain.ParticipantID("alice")).
		Return([]domain.ParticipantID{"bob"}, nil)
	conversations.EXPECT().CreatePending(domain.ParticipantID("alice"), domain.ParticipantID("bob")).
		Return(reserved, nil)
	directory.EXPECT().SetPaired(domain.ParticipantID("alice")).Return(nil)
	directory.EXPECT().SetPaired(domain.ParticipantID("bob")).Return(storeDown)

	// The dangling reservation must be compensated, not left half-written
	conversations.EXPECT().Abort(reserved.ID).Return(nil)
	directory.EXPECT().Release(domain.ParticipantID("alice")).Return(nil)
	directory.EXPECT().Release(domain.ParticipantID("bob")).Return(nil)

	_, err := svc.TryMatch(context.Background(), "alice")
	req.ErrorIs(err, apperrors.ErrStoreUnavailable)
}

func TestMatchService_EndFor(t *testing.T) {
	req := require.New(t)
	svc, directory, conversations, cleanup := newMatchFixture(t)
	defer cleanup()

	ctx := context.Background()

	// Given an active pairing
	_, err := svc.TryMatch(ctx, "bob")
	req.ErrorIs(err, apperrors.ErrNoPartner)
	conv, err := svc.TryMatch(ctx, "alice")
	req.NoError(err)

	// When alice stops it
	ended, other, err := svc.EndFor(ctx, "alice")
	req.NoError(err)
	req.Equal(conv.ID, ended.ID)
	req.Equal(domain.ConversationEnded, ended.Status)
	req.Equal(domain.ParticipantID("bob"), other)

	// Then both former members are available again
	for _, id := range []domain.ParticipantID{"alice", "bob"} {
		p, err := directory.Get(id)
		req.NoError(err)
		req.Equal(domain.StatusAvailable, p.Status)
	}

	// And the record survives for reporting
	kept, err := conversations.Get(conv.ID)
	req.NoError(err)
	req.Equal(domain.ConversationEnded, kept.Status)

	// A second stop finds nothing left to end
	_, _, err = svc.EndFor(ctx, "alice")
	req.ErrorIs(err, apperrors.ErrNoActiveConversation)
}

func TestMatchService_RematchAfterStop(t *testing.T) {
	req := require.New(t)
	svc, _, _, cleanup := newMatchFixture(t)
	defer cleanup()

	ctx := context.Background()

	// Given a pairing that was stopped
	_, err := svc.TryMatch(ctx, "bob")
	req.ErrorIs(err, apperrors.ErrNoPartner)
	first, err := svc.TryMatch(ctx, "alice")
	req.NoError(err)
	_, _, err = svc.EndFor(ctx, "alice")
	req.NoError(err)

	// When bob searches again, the same pair can re-form immediately
	second, err := svc.TryMatch(ctx, "bob")
	req.NoError(err)
	req.NotEqual(first.ID, second.ID)
	req.True(second.HasMember("alice"))
	req.True(second.HasMember("bob"))
}
