// Package models contains the client-side representations of the JayTalk
// service's wire entities.
package models

import (
	"strings"
	"time"
)

// AnonymousName is shown when no display name can be resolved for an entity.
const AnonymousName = "anonimo"

// User represents a user account as returned by the remote service.
// IDs are opaque strings (UUIDs on the wire).
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// UserRef is the partial user object some endpoints embed in posts and
// comments. Depending on the endpoint it may carry a username, a free-form
// name, or nothing but an id.
type UserRef struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
	Name     string `json:"name,omitempty"`
}

// DisplayName resolves a name for an embedded user reference without a
// network round trip: embedded username, then embedded name, then the raw
// id, then AnonymousName. Callers wanting the full resolution order run a
// secondary lookup before falling back to this.
func DisplayName(ref *UserRef, userID string) string {
	if ref != nil {
		if s := strings.TrimSpace(ref.Username); s != "" {
			return s
		}
		if s := strings.TrimSpace(ref.Name); s != "" {
			return s
		}
	}
	if userID != "" {
		return userID
	}
	if ref != nil && ref.ID != "" {
		return ref.ID
	}
	return AnonymousName
}
