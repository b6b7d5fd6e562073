// Package domain contains core concepts of the messaging system.
// This file defines the User identity as seen by the core.
// Identities are created by the account collaborator; the core only reads them.
package domain

import "time"

type User struct {
	ID        string
	Email     string
	FullName  string
	Avatar    string
	CreatedAt time.Time
}
