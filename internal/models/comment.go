package models

import "time"

// Comment represents a comment on a post.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	Content   string    `json:"content"`
	UserID    string    `json:"user_id,omitempty"`
	User      *UserRef  `json:"user,omitempty"`
	Post      *Post     `json:"post,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// OwnerID returns the comment's owning user id from either form.
func (c *Comment) OwnerID() string {
	if c.UserID != "" {
		return c.UserID
	}
	if c.User != nil {
		return c.User.ID
	}
	return ""
}

// AuthorName resolves a display name from the comment's embedded user data.
func (c *Comment) AuthorName() string {
	return DisplayName(c.User, c.UserID)
}
