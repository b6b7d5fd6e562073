package event

import (
	"whisperline/domain"

	"github.com/google/uuid"
)

// DomainEvent is anything that can be pushed to a live connection.
// Name returns the wire event name clients subscribe to.
type DomainEvent interface {
	Name() string
}

// MessageDelivered carries a freshly persisted message to the
// recipient's live connections.
type MessageDelivered struct {
	Message domain.Message
}

func (MessageDelivered) Name() string { return "newMessage" }

// TypingStarted signals that SenderID is composing a message to ReceiverID.
type TypingStarted struct {
	SenderID   string
	ReceiverID string
}

func (TypingStarted) Name() string { return "typing" }

// TypingStopped signals that SenderID stopped composing, either explicitly,
// by sending the message, or through the expiry timer.
type TypingStopped struct {
	SenderID   string
	ReceiverID string
}

func (TypingStopped) Name() string { return "stopTyping" }

// MessageRead notifies the original sender that one of its messages
// has been read by the recipient.
type MessageRead struct {
	MessageID uuid.UUID
}

func (MessageRead) Name() string { return "messageRead" }

// PresenceChanged is emitted whenever a user flips between online and
// offline. OnlineUserIDs is the full derived online set at flip time,
// so clients can replace their view instead of patching it.
type PresenceChanged struct {
	UserID        string
	Online        bool
	OnlineUserIDs []string
}

func (PresenceChanged) Name() string { return "onlineUsers" }
