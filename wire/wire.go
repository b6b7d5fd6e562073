// Package wire defines the JSON shapes shared by the REST surface and the
// live channel. Field and event names are the contract the web client
// subscribes to; they must not drift between the two transports.
package wire

import (
	"time"

	"github.com/samber/lo"

	"whisperline/domain"
	"whisperline/domain/event"
)

type MessageResponse struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Text       string    `json:"text,omitempty"`
	Image      string    `json:"image,omitempty"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"createdAt"`
}

type UserResponse struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Avatar   string `json:"avatar,omitempty"`
}

type TypingPayload struct {
	SenderID string `json:"senderId"`
}

type MessageReadPayload struct {
	MessageID string `json:"messageId"`
}

type OnlineUsersPayload struct {
	UserIDs []string `json:"userIds"`
}

// Envelope is one live-channel frame in either direction.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// InboundTyping is the client->server payload of typing / stopTyping.
type InboundTyping struct {
	ReceiverID string `json:"receiverId"`
}

func ToMessageResponse(msg domain.Message) MessageResponse {
	return MessageResponse{
		ID:         msg.ID.String(),
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Text:       msg.Text,
		Image:      msg.Image,
		Read:       msg.Read,
		CreatedAt:  msg.CreatedAt,
	}
}

func ToMessageResponses(messages []domain.Message) []MessageResponse {
	return lo.Map(messages, func(msg domain.Message, _ int) MessageResponse {
		return ToMessageResponse(msg)
	})
}

// FromEvent converts a domain event into its outbound frame.
func FromEvent(e event.DomainEvent) Envelope {
	envelope := Envelope{Event: e.Name()}
	switch evt := e.(type) {
	case event.MessageDelivered:
		envelope.Data = ToMessageResponse(evt.Message)
	case event.TypingStarted:
		envelope.Data = TypingPayload{SenderID: evt.SenderID}
	case event.TypingStopped:
		envelope.Data = TypingPayload{SenderID: evt.SenderID}
	case event.MessageRead:
		envelope.Data = MessageReadPayload{MessageID: evt.MessageID.String()}
	case event.PresenceChanged:
		envelope.Data = OnlineUsersPayload{UserIDs: evt.OnlineUserIDs}
	}
	return envelope
}
