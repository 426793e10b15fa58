package models

import "time"

// Like is a (post, user) relation; its existence means "liked".
// List endpoints sometimes return likes with embedded users, sometimes
// with bare ids, so both forms are kept.
type Like struct {
	ID        string    `json:"id,omitempty"`
	PostID    string    `json:"post_id,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	User      *UserRef  `json:"user,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// OwnerID returns the liking user's id from whichever form is present.
func (l *Like) OwnerID() string {
	if l.UserID != "" {
		return l.UserID
	}
	if l.User != nil {
		return l.User.ID
	}
	return l.ID
}
