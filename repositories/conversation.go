package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/itzme-challa/TalkStranger-chatbot/domain"
	apperrors "github.com/itzme-challa/TalkStranger-chatbot/errors"
)

const (
	convPrefix = "conv:"
	pairPrefix = "pair:"
)

// ConversationRepository owns conversation records in BadgerDB.
//
// Two key families are maintained:
//   - "conv:{uuid}"       -> full conversation record (kept after Ended)
//   - "pair:{participant}" -> id of the participant's open conversation
//
// The pair index exists for exactly one reason: reservation. CreatePending
// re-checks both index keys and writes the record inside a single Badger
// transaction, so two concurrent reservations of the same candidate cannot
// both commit: the loser observes a transaction conflict and retries with
// another candidate.
type ConversationRepository struct {
	db           *badger.DB
	log          *slog.Logger
	pendingLease time.Duration
}

// NewConversationRepository builds the store. pendingLease bounds how long
// a Pending reservation stays visible: a crash between reservation and
// confirmation would otherwise leave both members unmatchable forever.
// A zero lease disables expiry.
func NewConversationRepository(db *badger.DB, log *slog.Logger, pendingLease time.Duration) *ConversationRepository {
	return &ConversationRepository{db: db, log: log, pendingLease: pendingLease}
}

type conversationRecord struct {
	ID        string     `json:"id"`
	MemberA   string     `json:"member_a"`
	MemberB   string     `json:"member_b"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

func convKey(id domain.ConversationID) []byte {
	return []byte(convPrefix + string(id))
}

func pairKey(id domain.ParticipantID) []byte {
	return []byte(pairPrefix + string(id))
}

// CreatePending reserves a pairing between two distinct participants.
//
// The whole check-then-commit runs in one transaction: if either member
// already holds an open conversation the reservation fails, and if a
// concurrent transaction touched the same index keys the commit itself
// fails with a conflict. Both cases surface as ErrReservationConflict for
// the candidate, ErrAlreadyPaired for the requester.
func (r *ConversationRepository) CreatePending(memberA, memberB domain.ParticipantID) (domain.Conversation, error) {
	if memberA == memberB {
		return domain.Conversation{}, fmt.Errorf("cannot pair %q with itself", memberA)
	}

	conv := domain.Conversation{
		ID:        domain.ConversationID(uuid.NewString()),
		MemberA:   memberA,
		MemberB:   memberB,
		Status:    domain.ConversationPending,
		CreatedAt: time.Now().UTC(),
	}

	err := r.db.Update(func(txn *badger.Txn) error {
		if err := r.ensureUnclaimed(txn, memberA, apperrors.ErrAlreadyPaired); err != nil {
			return err
		}
		if err := r.ensureUnclaimed(txn, memberB, apperrors.ErrReservationConflict); err != nil {
			return err
		}

		if err := writeConversation(txn, toRecord(conv)); err != nil {
			return err
		}
		if err := txn.Set(pairKey(memberA), []byte(conv.ID)); err != nil {
			return err
		}
		return txn.Set(pairKey(memberB), []byte(conv.ID))
	})

	switch {
	case err == nil:
		return conv, nil
	case errors.Is(err, badger.ErrConflict):
		// A concurrent reservation won the commit race on the same keys.
		return domain.Conversation{}, apperrors.ErrReservationConflict
	case errors.Is(err, apperrors.ErrAlreadyPaired), errors.Is(err, apperrors.ErrReservationConflict):
		return domain.Conversation{}, err
	default:
		return domain.Conversation{}, storeErr("conversation store", err)
	}
}

// ensureUnclaimed verifies the member holds no open conversation. A stale
// index entry left behind by an expired Pending reservation is swept in
// place, inside the caller's transaction.
func (r *ConversationRepository) ensureUnclaimed(txn *badger.Txn, member domain.ParticipantID, claimed error) error {
	item, err := txn.Get(pairKey(member))
	if err == badger.ErrKeyNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	var convID domain.ConversationID
	if err := item.Value(func(value []byte) error {
		convID = domain.ConversationID(value)
		return nil
	}); err != nil {
		return err
	}

	rec, err := readConversation(txn, convID)
	if err == badger.ErrKeyNotFound {
		// Dangling index with no record behind it.
		return txn.Delete(pairKey(member))
	}
	if err != nil {
		return err
	}
	if !r.expired(rec) {
		return claimed
	}

	r.log.Warn("Sweeping expired pending reservation",
		"conversation", rec.ID, "member_a", rec.MemberA, "member_b", rec.MemberB)
	if err := txn.Delete(pairKey(domain.ParticipantID(rec.MemberA))); err != nil {
		return err
	}
	if err := txn.Delete(pairKey(domain.ParticipantID(rec.MemberB))); err != nil {
		return err
	}
	return txn.Delete(convKey(convID))
}

// Confirm promotes a pending conversation to active. Confirming an already
// active conversation is a no-op.
func (r *ConversationRepository) Confirm(id domain.ConversationID) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		rec, err := readConversation(txn, id)
		if err == badger.ErrKeyNotFound {
			return apperrors.ErrNotFound
		}
		if err != nil {
			return err
		}
		switch domain.ConversationStatus(rec.Status) {
		case domain.ConversationActive:
			return nil
		case domain.ConversationEnded:
			return apperrors.ErrConversationEnded
		}
		rec.Status = string(domain.ConversationActive)
		return writeConversation(txn, rec)
	})
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) && !errors.Is(err, apperrors.ErrConversationEnded) {
		return storeErr("conversation store", err)
	}
	return err
}

// Abort removes a pending reservation without leaving a record. Aborting a
// missing or already ended conversation is a no-op; an active conversation
// cannot be aborted, only terminated.
func (r *ConversationRepository) Abort(id domain.ConversationID) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		rec, err := readConversation(txn, id)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		switch domain.ConversationStatus(rec.Status) {
		case domain.ConversationActive:
			return fmt.Errorf("conversation %s is active and cannot be aborted", id)
		case domain.ConversationEnded:
			return nil
		}
		if err := txn.Delete(pairKey(domain.ParticipantID(rec.MemberA))); err != nil {
			return err
		}
		if err := txn.Delete(pairKey(domain.ParticipantID(rec.MemberB))); err != nil {
			return err
		}
		return txn.Delete(convKey(id))
	})
	if err != nil {
		return storeErr("conversation store", err)
	}
	return nil
}

// Terminate moves a conversation to Ended and frees both pair index keys.
// Calling it on an already ended conversation returns the record again
// with no further side effect, so a second /stop stays harmless.
func (r *ConversationRepository) Terminate(id domain.ConversationID) (domain.Conversation, error) {
	var rec conversationRecord
	err := r.db.Update(func(txn *badger.Txn) error {
		var err error
		rec, err = readConversation(txn, id)
		if err == badger.ErrKeyNotFound {
			return apperrors.ErrNotFound
		}
		if err != nil {
			return err
		}
		if domain.ConversationStatus(rec.Status) == domain.ConversationEnded {
			return nil
		}

		now := time.Now().UTC()
		rec.Status = string(domain.ConversationEnded)
		rec.EndedAt = &now
		if err := writeConversation(txn, rec); err != nil {
			return err
		}
		if err := txn.Delete(pairKey(domain.ParticipantID(rec.MemberA))); err != nil {
			return err
		}
		return txn.Delete(pairKey(domain.ParticipantID(rec.MemberB)))
	})
	switch {
	case err == nil:
		return fromRecord(rec), nil
	case errors.Is(err, apperrors.ErrNotFound):
		return domain.Conversation{}, err
	default:
		return domain.Conversation{}, storeErr("conversation store", err)
	}
}

// ActiveFor resolves the open conversation claiming a participant via the
// pair index. Expired pending reservations are reported as absent; the
// next reservation touching those members sweeps them.
func (r *ConversationRepository) ActiveFor(id domain.ParticipantID) (domain.Conversation, bool, error) {
	var (
		rec   conversationRecord
		found bool
	)
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(pairKey(id))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		var convID domain.ConversationID
		if err := item.Value(func(value []byte) error {
			convID = domain.ConversationID(value)
			return nil
		}); err != nil {
			return err
		}
		rec, err = readConversation(txn, convID)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = !r.expired(rec)
		return nil
	})
	if err != nil {
		return domain.Conversation{}, false, storeErr("conversation store", err)
	}
	if !found {
		return domain.Conversation{}, false, nil
	}
	return fromRecord(rec), true, nil
}

func (r *ConversationRepository) Get(id domain.ConversationID) (domain.Conversation, error) {
	var rec conversationRecord
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		rec, err = readConversation(txn, id)
		if err == badger.ErrKeyNotFound {
			return apperrors.ErrNotFound
		}
		return err
	})
	switch {
	case err == nil:
		return fromRecord(rec), nil
	case errors.Is(err, apperrors.ErrNotFound):
		return domain.Conversation{}, err
	default:
		return domain.Conversation{}, storeErr("conversation store", err)
	}
}

func (r *ConversationRepository) expired(rec conversationRecord) bool {
	if domain.ConversationStatus(rec.Status) != domain.ConversationPending {
		return false
	}
	if r.pendingLease <= 0 {
		return false
	}
	return time.Since(rec.CreatedAt) > r.pendingLease
}

func readConversation(txn *badger.Txn, id domain.ConversationID) (conversationRecord, error) {
	item, err := txn.Get(convKey(id))
	if err != nil {
		return conversationRecord{}, err
	}
	var rec conversationRecord
	if err := item.Value(func(value []byte) error {
		return json.Unmarshal(value, &rec)
	}); err != nil {
		return conversationRecord{}, err
	}
	return rec, nil
}

func writeConversation(txn *badger.Txn, rec conversationRecord) error {
	bytes, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return txn.Set(convKey(domain.ConversationID(rec.ID)), bytes)
}

func toRecord(conv domain.Conversation) conversationRecord {
	return conversationRecord{
		ID:        string(conv.ID),
		MemberA:   string(conv.MemberA),
		MemberB:   string(conv.MemberB),
		Status:    string(conv.Status),
		CreatedAt: conv.CreatedAt,
		EndedAt:   conv.EndedAt,
	}
}

func fromRecord(rec conversationRecord) domain.Conversation {
	return domain.Conversation{
		ID:        domain.ConversationID(rec.ID),
		MemberA:   domain.ParticipantID(rec.MemberA),
		MemberB:   domain.ParticipantID(rec.MemberB),
		Status:    domain.ConversationStatus(rec.Status),
		CreatedAt: rec.CreatedAt,
		EndedAt:   rec.EndedAt,
	}
}
