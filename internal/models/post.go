package models

import "time"

// Post represents a post in the feed. LikesCount, CommentsCount and Liked
// are derived client-side approximations reconciled against server
// responses; a server-reported count always supersedes them.
type Post struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	UserID    string    `json:"user_id,omitempty"`
	User      *UserRef  `json:"user,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	// Derived, not part of the entity on the wire for every endpoint.
	LikesCount    int  `json:"likes_count,omitempty"`
	CommentsCount int  `json:"comments_count,omitempty"`
	Liked         bool `json:"liked,omitempty"`
}

// OwnerID returns the post's owning user id, whether it arrived as a bare
// foreign key or embedded in a partial user object.
func (p *Post) OwnerID() string {
	if p.UserID != "" {
		return p.UserID
	}
	if p.User != nil {
		return p.User.ID
	}
	return ""
}

// AuthorName resolves a display name from the post's embedded user data.
func (p *Post) AuthorName() string {
	return DisplayName(p.User, p.UserID)
}
