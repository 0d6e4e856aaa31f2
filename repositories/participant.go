package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"

	"github.com/itzme-challa/TalkStranger-chatbot/domain"
	apperrors "github.com/itzme-challa/TalkStranger-chatbot/errors"
)

const participantPrefix = "participant:"

// ParticipantRepository is the directory of participant availability,
// backed by BadgerDB. Keys are formatted as "participant:{id}" and values
// are JSON documents, so the viewer and the inspect server can decode them
// without extra tooling.
type ParticipantRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewParticipantRepository(db *badger.DB, log *slog.Logger) *ParticipantRepository {
	return &ParticipantRepository{db: db, log: log}
}

type participantRecord struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

func participantKey(id domain.ParticipantID) []byte {
	return []byte(participantPrefix + string(id))
}

// SetAvailable marks a participant available unless it is currently paired.
// A paired participant is left untouched and its current status is returned,
// so the caller can tell the requester to stop the open conversation first.
func (r *ParticipantRepository) SetAvailable(id domain.ParticipantID) (domain.Status, error) {
	result := domain.StatusAvailable
	err := r.db.Update(func(txn *badger.Txn) error {
		current, err := readParticipant(txn, id)
		if err != nil {
			return err
		}
		if current.Status == domain.StatusPaired {
			result = domain.StatusPaired
			return nil
		}
		return writeParticipant(txn, id, domain.StatusAvailable)
	})
	if err != nil {
		return "", storeErr("participant directory", err)
	}
	return result, nil
}

// SetPaired is an unconditional write used by the matcher once a
// reservation committed.
func (r *ParticipantRepository) SetPaired(id domain.ParticipantID) error {
	return r.set(id, domain.StatusPaired)
}

func (r *ParticipantRepository) SetOffline(id domain.ParticipantID) error {
	return r.set(id, domain.StatusOffline)
}

// Release returns a former conversation member to the available pool.
// Fixed post-termination policy: both members become available again,
// ready for immediate re-matching.
func (r *ParticipantRepository) Release(id domain.ParticipantID) error {
	return r.set(id, domain.StatusAvailable)
}

func (r *ParticipantRepository) set(id domain.ParticipantID, status domain.Status) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		return writeParticipant(txn, id, status)
	})
	if err != nil {
		return storeErr("participant directory", err)
	}
	return nil
}

// ListAvailable returns every available participant except excluding.
// Order follows the key iteration and is not part of the contract.
func (r *ParticipantRepository) ListAvailable(excluding domain.ParticipantID) ([]domain.ParticipantID, error) {
	var records []participantRecord
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		prefix := []byte(participantPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				var rec participantRecord
				if err := json.Unmarshal(value, &rec); err != nil {
					return fmt.Errorf("corrupt participant record %q: %w", it.Item().Key(), err)
				}
				records = append(records, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, storeErr("participant directory", err)
	}

	available := lo.FilterMap(records, func(rec participantRecord, _ int) (domain.ParticipantID, bool) {
		id := domain.ParticipantID(rec.ID)
		return id, rec.Status == string(domain.StatusAvailable) && id != excluding
	})
	return available, nil
}

// Get reads the stored record. Unknown participants come back offline
// with a zero UpdatedAt.
func (r *ParticipantRepository) Get(id domain.ParticipantID) (domain.Participant, error) {
	var participant domain.Participant
	err := r.db.View(func(txn *badger.Txn) error {
		current, err := readParticipant(txn, id)
		if err != nil {
			return err
		}
		participant = current
		return nil
	})
	if err != nil {
		return domain.Participant{}, storeErr("participant directory", err)
	}
	return participant, nil
}

func readParticipant(txn *badger.Txn, id domain.ParticipantID) (domain.Participant, error) {
	item, err := txn.Get(participantKey(id))
	switch {
	case err == badger.ErrKeyNotFound:
		return domain.Participant{ID: id, Status: domain.StatusOffline}, nil
	case err != nil:
		return domain.Participant{}, err
	}
	var rec participantRecord
	if err := item.Value(func(value []byte) error {
		return json.Unmarshal(value, &rec)
	}); err != nil {
		return domain.Participant{}, err
	}
	return domain.Participant{
		ID:        domain.ParticipantID(rec.ID),
		Status:    domain.Status(rec.Status),
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

func writeParticipant(txn *badger.Txn, id domain.ParticipantID, status domain.Status) error {
	bytes, err := json.Marshal(participantRecord{
		ID:        string(id),
		Status:    string(status),
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return txn.Set(participantKey(id), bytes)
}

// storeErr maps an unexpected BadgerDB failure onto the retryable store
// error. Sentinel outcomes already mapped upstream pass through unchanged.
func storeErr(scope string, err error) error {
	return fmt.Errorf("%w: %s: %v", apperrors.ErrStoreUnavailable, scope, err)
}
