package client

import (
	"context"
	"net/http"
	"net/url"

	"jaytalk/internal/identity"
	"jaytalk/internal/models"
	"jaytalk/internal/wire"
)

// LikeStatus is the per-post like summary a view renders: the total count
// and whether the current user is among the likers.
type LikeStatus struct {
	Count int
	Liked bool
}

// PostLikes returns the like status of a post. The total count is a
// required read and its failure propagates; the per-user "liked" check is
// an auxiliary enrichment and degrades to false on any failure, per the
// error-handling policy for optional reads.
func (c *Client) PostLikes(ctx context.Context, postID string) (LikeStatus, error) {
	raw, err := c.do(ctx, "likes.count", http.MethodGet, "/likes",
		url.Values{"post_id": {postID}, "count": {"true"}}, nil)
	if err != nil {
		return LikeStatus{}, err
	}
	status := LikeStatus{Count: wire.ScalarCount(raw)}

	ident, ok := identity.Decode(c.token(ctx))
	if !ok {
		return status, nil
	}

	userRaw, err := c.do(ctx, "likes.count", http.MethodGet, "/likes",
		url.Values{"post_id": {postID}, "user_id": {ident.SubjectID}, "count": {"true"}}, nil)
	if err == nil {
		status.Liked = wire.ScalarCount(userRaw) > 0
	} else {
		c.ops.LogDegraded(ctx, "likes.liked_check", err)
	}

	// Fallback: when the first response carried items, detect liked from
	// them without trusting the failed second call.
	if !status.Liked {
		likes := wire.NormalizeCollection[models.Like](raw)
		for i := range likes.Items {
			if likes.Items[i].OwnerID() == ident.SubjectID {
				status.Liked = true
				break
			}
		}
	}
	return status, nil
}

// AddLike registers the current user's like on a post.
func (c *Client) AddLike(ctx context.Context, postID string) error {
	_, err := c.do(ctx, "likes.add", http.MethodPost, "/likes", nil,
		map[string]string{"post_id": postID})
	return err
}

// RemoveLike withdraws the current user's like from a post.
func (c *Client) RemoveLike(ctx context.Context, postID string) error {
	_, err := c.do(ctx, "likes.remove", http.MethodDelete, "/likes", nil,
		map[string]string{"post_id": postID})
	return err
}

// CountUserLikes counts likes given by a user across all posts.
func (c *Client) CountUserLikes(ctx context.Context, userID string) (int, error) {
	raw, err := c.do(ctx, "likes.count", http.MethodGet, "/likes",
		url.Values{"user_id": {userID}, "count": {"true"}}, nil)
	if err != nil {
		return 0, err
	}
	return wire.ScalarCount(raw), nil
}
