//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"whisperline/domain"
	"whisperline/errors"
)

type IMessageRepository interface {
	Append(cmd domain.SendMessageCommand) (domain.Message, error)
	ListBetween(userA, userB string) ([]domain.Message, error)
	MarkRead(id uuid.UUID) (domain.Message, bool, error)
	UnreadFrom(recipientID, senderID string) ([]domain.Message, error)
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

// diskMessage is the stored shape of a message. Everything but Read is
// immutable after Append.
type diskMessage struct {
	ID         string `cbor:"id"`
	SenderID   string `cbor:"sender_id"`
	ReceiverID string `cbor:"receiver_id"`
	Text       string `cbor:"text,omitempty"`
	Image      string `cbor:"image,omitempty"`
	Read       bool   `cbor:"read"`
	At         int64  `cbor:"at"`
}

// conversationKey is direction-agnostic: both sides of a 1:1 thread share
// one prefix, so a single scan returns the whole conversation.
func conversationKey(userA, userB string) string {
	if strings.Compare(userA, userB) > 0 {
		userA, userB = userB, userA
	}
	return userA + "|" + userB
}

// messageKey is formatted as "msg:{conversation}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order).
//  2. Prevent data loss by using the UUID as a collision disconnector if
//     two messages land on the same nanosecond.
func messageKey(conversation string, at time.Time, id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", conversation, at.UnixNano(), id))
}

func indexKey(id uuid.UUID) []byte {
	return []byte("msgid:" + id.String())
}

// Append persists a new unread message and returns the canonical copy with
// its assigned identifier and timestamp. IDs are UUIDv7 so they order by
// creation time. Either the message exists with a valid identifier after
// this returns, or the write failed and nothing was stored.
func (m MessageRepository) Append(cmd domain.SendMessageCommand) (domain.Message, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err)
	}
	msg := domain.Message{
		ID:         id,
		SenderID:   cmd.SenderID,
		ReceiverID: cmd.ReceiverID,
		Text:       cmd.Text,
		Image:      cmd.Image,
		Read:       false,
		CreatedAt:  time.Now().UTC(),
	}

	data, err := cbor.Marshal(fromMessage(msg))
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err)
	}

	conversation := conversationKey(msg.SenderID, msg.ReceiverID)
	key := messageKey(conversation, msg.CreatedAt, msg.ID)
	err = m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set(indexKey(msg.ID), key)
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err)
	}
	return msg, nil
}

// ListBetween returns the full conversation between two users ordered by
// creation time ascending. The padded timestamp in the key makes the
// forward prefix scan come out already sorted.
func (m MessageRepository) ListBetween(userA, userB string) ([]domain.Message, error) {
	prefix := []byte("msg:" + conversationKey(userA, userB) + ":")

	var messages []domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				var disk diskMessage
				if err := cbor.Unmarshal(value, &disk); err != nil {
					return err
				}
				msg, err := toMessage(disk)
				if err != nil {
					return err
				}
				messages = append(messages, msg)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err)
	}
	return messages, nil
}

// MarkRead flips the read flag to true. The second return value reports
// whether this call actually changed state: marking an already-read
// message is a silent no-op, so concurrent calls converge on (true, once).
//
// Badger detects write conflicts optimistically, so two callers racing on
// the same message make one of them fail with ErrConflict. Retrying re-reads
// the now-read record and lands on the no-op path, keeping the operation
// idempotent under concurrency.
func (m MessageRepository) MarkRead(id uuid.UUID) (domain.Message, bool, error) {
	var msg domain.Message
	var flipped bool

	err := m.markReadWithRetry(func(txn *badger.Txn) error {
		msg, flipped = domain.Message{}, false
		indexItem, err := txn.Get(indexKey(id))
		if err != nil {
			return err
		}
		var key []byte
		if key, err = indexItem.ValueCopy(nil); err != nil {
			return err
		}

		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		var disk diskMessage
		err = item.Value(func(value []byte) error {
			return cbor.Unmarshal(value, &disk)
		})
		if err != nil {
			return err
		}

		if disk.Read {
			msg, err = toMessage(disk)
			return err
		}

		disk.Read = true
		data, err := cbor.Marshal(disk)
		if err != nil {
			return err
		}
		if err = txn.Set(key, data); err != nil {
			return err
		}
		flipped = true
		msg, err = toMessage(disk)
		return err
	})
	if err != nil {
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return domain.Message{}, false, errors.ErrNotFound
		}
		return domain.Message{}, false, fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err)
	}
	return msg, flipped, nil
}

// markReadWithRetry reruns the transaction as long as it loses a write
// conflict. The loser's retry observes the winner's commit, so the loop
// terminates once the flag is set.
func (m MessageRepository) markReadWithRetry(fn func(txn *badger.Txn) error) error {
	for {
		err := m.db.Update(fn)
		if !stderrors.Is(err, badger.ErrConflict) {
			return err
		}
		m.log.Debug("Retrying read flag update after write conflict")
	}
}

// UnreadFrom returns the recipient's unread messages authored by the given
// sender, oldest first. Mirrors the asymmetric read-state sync done when a
// conversation is opened.
func (m MessageRepository) UnreadFrom(recipientID, senderID string) ([]domain.Message, error) {
	conversation, err := m.ListBetween(recipientID, senderID)
	if err != nil {
		return nil, err
	}
	var unread []domain.Message
	for _, msg := range conversation {
		if !msg.Read && msg.SenderID == senderID {
			unread = append(unread, msg)
		}
	}
	return unread, nil
}

func fromMessage(msg domain.Message) diskMessage {
	return diskMessage{
		ID:         msg.ID.String(),
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Text:       msg.Text,
		Image:      msg.Image,
		Read:       msg.Read,
		At:         msg.CreatedAt.UnixNano(),
	}
}

func toMessage(disk diskMessage) (domain.Message, error) {
	parsedID, err := uuid.Parse(disk.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:         parsedID,
		SenderID:   disk.SenderID,
		ReceiverID: disk.ReceiverID,
		Text:       disk.Text,
		Image:      disk.Image,
		Read:       disk.Read,
		CreatedAt:  time.Unix(0, disk.At).UTC(),
	}, nil
}
