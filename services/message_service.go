//go:generate go run go.uber.org/mock/mockgen -source=message_service.go -destination=../mocks/mock_message_service.go -package=mocks
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"whisperline/contract"
	"whisperline/domain"
	"whisperline/domain/event"
	"whisperline/errors"
	"whisperline/repositories"
	"whisperline/runtime"
)

type IMessageService interface {
	Send(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error)
	Conversation(userID, peerID string) ([]domain.Message, error)
	MarkRead(ctx context.Context, messageID uuid.UUID) (domain.Message, error)
	UnreadFrom(recipientID, senderID string) ([]domain.Message, error)
}

// MessageService routes messages: it persists first, then pushes to the
// recipient's live connections, then reports the canonical persisted copy
// back to the sender. Persistence is the source of truth; live delivery is
// best effort on top of it.
type MessageService struct {
	log      *slog.Logger
	messages repositories.IMessageRepository
	users    repositories.IUserRepository
	fanout   contract.Fanout
	typing   *runtime.TypingCoordinator

	mu        sync.Mutex
	pairLocks map[string]*sync.Mutex
}

func NewMessageService(log *slog.Logger, messages repositories.IMessageRepository,
	users repositories.IUserRepository, fanout contract.Fanout,
	typing *runtime.TypingCoordinator) *MessageService {
	return &MessageService{
		log:       log,
		messages:  messages,
		users:     users,
		fanout:    fanout,
		typing:    typing,
		pairLocks: make(map[string]*sync.Mutex),
	}
}

// Send validates, persists and routes one message.
//
// The pair lock spans persist+push so that two A->B sends cannot reorder
// between storage and the live channel: per-pair delivery order equals
// persistence order. Different pairs proceed in parallel.
//
// A storage failure aborts the whole operation with no live delivery and
// no message returned. A push failure is swallowed: the message is already
// durable and shows up on the recipient's next conversation fetch.
func (s *MessageService) Send(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error) {
	if !cmd.HasContent() {
		return domain.Message{}, errors.ErrEmptyMessage
	}
	if cmd.ReceiverID == cmd.SenderID {
		return domain.Message{}, errors.ErrInvalidRecipient
	}
	if _, err := s.users.GetUserByID(cmd.ReceiverID); err != nil {
		return domain.Message{}, errors.ErrInvalidRecipient
	}

	lock := s.pairLock(cmd.SenderID, cmd.ReceiverID)
	lock.Lock()
	msg, err := s.messages.Append(cmd)
	if err != nil {
		lock.Unlock()
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrDeliveryFailed, err)
	}
	s.fanout.PushToUser(ctx, cmd.ReceiverID, event.MessageDelivered{Message: msg})
	lock.Unlock()

	// A successful send always clears the typing indicator for the pair.
	s.typing.Stop(ctx, cmd.SenderID, cmd.ReceiverID)

	return msg, nil
}

// Conversation returns the full thread between two users, oldest first.
func (s *MessageService) Conversation(userID, peerID string) ([]domain.Message, error) {
	return s.messages.ListBetween(userID, peerID)
}

// MarkRead flips the message's read flag and, only if this call actually
// changed state, notifies the sender's live connections. Re-marking an
// already-read message neither fails nor re-notifies.
func (s *MessageService) MarkRead(ctx context.Context, messageID uuid.UUID) (domain.Message, error) {
	msg, flipped, err := s.messages.MarkRead(messageID)
	if err != nil {
		return domain.Message{}, err
	}
	if flipped {
		s.fanout.PushToUser(ctx, msg.SenderID, event.MessageRead{MessageID: msg.ID})
	}
	return msg, nil
}

// UnreadFrom lists the recipient's unread messages from one sender, used
// for the bulk read-state sync when a conversation is opened.
func (s *MessageService) UnreadFrom(recipientID, senderID string) ([]domain.Message, error) {
	return s.messages.UnreadFrom(recipientID, senderID)
}

func (s *MessageService) pairLock(senderID, receiverID string) *sync.Mutex {
	key := senderID + "|" + receiverID
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.pairLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.pairLocks[key] = lock
	}
	return lock
}
