package client

import (
	"context"
	"net/http"
	"strings"

	"jaytalk/internal/models"
	"jaytalk/internal/wire"

	"github.com/google/go-querystring/query"
)

// ListPostsOptions narrows a posts listing. Zero values are omitted from
// the query string.
type ListPostsOptions struct {
	Limit  int    `url:"limit,omitempty"`
	Offset int    `url:"offset,omitempty"`
	UserID string `url:"user_id,omitempty"`
}

// ListPosts fetches a page of the feed, normalized across the service's
// collection shapes.
func (c *Client) ListPosts(ctx context.Context, opts ListPostsOptions) (wire.Collection[models.Post], error) {
	values, err := query.Values(opts)
	if err != nil {
		return wire.Collection[models.Post]{}, err
	}
	raw, err := c.do(ctx, "posts.list", http.MethodGet, "/posts", values, nil)
	if err != nil {
		return wire.Collection[models.Post]{}, err
	}
	return wire.NormalizeCollection[models.Post](raw), nil
}

// GetPost fetches one post by id.
func (c *Client) GetPost(ctx context.Context, id string) (models.Post, error) {
	raw, err := c.do(ctx, "posts.get", http.MethodGet, "/posts/"+id, nil, nil)
	if err != nil {
		return models.Post{}, err
	}
	post, ok := wire.NormalizeSingle[models.Post](raw, "post", "data")
	if !ok || post.ID == "" {
		return models.Post{}, models.NewNotFoundError("post", id)
	}
	return post, nil
}

// CreatePost publishes a new post. Empty content is rejected locally
// before any network call.
func (c *Client) CreatePost(ctx context.Context, content string) (models.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Post{}, models.NewValidationError("Post content is required")
	}
	raw, err := c.do(ctx, "posts.create", http.MethodPost, "/posts", nil, map[string]string{"content": content})
	if err != nil {
		return models.Post{}, err
	}
	post, ok := wire.NormalizeSingle[models.Post](raw, "post", "data")
	if !ok {
		return models.Post{}, models.NewProtocolError("Create post returned no entity")
	}
	return post, nil
}

// UpdatePost edits an owned post. The server enforces ownership; the
// client's ownership check is only a UI hint.
func (c *Client) UpdatePost(ctx context.Context, id, content string) (models.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Post{}, models.NewValidationError("Post content is required")
	}
	raw, err := c.do(ctx, "posts.update", http.MethodPatch, "/posts/"+id, nil, map[string]string{"content": content})
	if err != nil {
		return models.Post{}, err
	}
	post, ok := wire.NormalizeSingle[models.Post](raw, "post", "data")
	if !ok {
		return models.Post{}, models.NewProtocolError("Update post returned no entity")
	}
	return post, nil
}

// DeletePost removes an owned post.
func (c *Client) DeletePost(ctx context.Context, id string) error {
	_, err := c.do(ctx, "posts.delete", http.MethodDelete, "/posts/"+id, nil, nil)
	return err
}

// CountUserPosts counts a user's posts via the list endpoint, which
// reports an exact count; the item length is the fallback approximation.
func (c *Client) CountUserPosts(ctx context.Context, userID string) (int, error) {
	coll, err := c.ListPosts(ctx, ListPostsOptions{UserID: userID, Limit: 1})
	if err != nil {
		return 0, err
	}
	return coll.Count, nil
}
