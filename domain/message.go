// Package domain contains core concepts of the messaging system.
// This file defines Message entities and related rules.
// Messages are immutable once persisted; only the read flag may flip.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents one direct message between two users.
// ID is a UUIDv7 assigned at persistence time, so identifiers sort
// in creation order.
type Message struct {
	ID         uuid.UUID
	SenderID   string
	ReceiverID string
	Text       string
	Image      string
	Read       bool
	CreatedAt  time.Time
}
