package client

import (
	"context"
	"net/http"
	"strings"

	"jaytalk/internal/models"
	"jaytalk/internal/wire"

	"github.com/google/go-querystring/query"
)

// ListCommentsOptions narrows a comments listing.
type ListCommentsOptions struct {
	PostID string `url:"post_id,omitempty"`
	Limit  int    `url:"limit,omitempty"`
	Offset int    `url:"offset,omitempty"`
}

// ListComments fetches comments, normalized across collection shapes.
func (c *Client) ListComments(ctx context.Context, opts ListCommentsOptions) (wire.Collection[models.Comment], error) {
	values, err := query.Values(opts)
	if err != nil {
		return wire.Collection[models.Comment]{}, err
	}
	raw, err := c.do(ctx, "comments.list", http.MethodGet, "/comments", values, nil)
	if err != nil {
		return wire.Collection[models.Comment]{}, err
	}
	return wire.NormalizeCollection[models.Comment](raw), nil
}

// CreateComment posts a comment under a post.
func (c *Client) CreateComment(ctx context.Context, postID, content string) (models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, models.NewValidationError("Comment content is required")
	}
	raw, err := c.do(ctx, "comments.create", http.MethodPost, "/comments", nil,
		map[string]string{"post_id": postID, "content": content})
	if err != nil {
		return models.Comment{}, err
	}
	comment, ok := wire.NormalizeSingle[models.Comment](raw, "comment", "data")
	if !ok {
		return models.Comment{}, models.NewProtocolError("Create comment returned no entity")
	}
	return comment, nil
}

// CountPostComments counts a post's comments with the cheapest request
// the contract allows: limit 1, preferring the reported count over the
// item length.
func (c *Client) CountPostComments(ctx context.Context, postID string) (int, error) {
	coll, err := c.ListComments(ctx, ListCommentsOptions{PostID: postID, Limit: 1})
	if err != nil {
		return 0, err
	}
	return coll.Count, nil
}

// CountUserComments counts how many comments a user has written. The
// service has no direct endpoint for this, so the comment list is paged
// through in fixed-size batches accumulating a match count. Iteration is
// bounded: it stops on a short batch, when a server-reported total is
// reached, or at the page ceiling, so a misbehaving server cannot induce
// unbounded polling.
func (c *Client) CountUserComments(ctx context.Context, userID string) (int, error) {
	var offset, matched int
	total := -1 // unknown until the server reports one

	for page := 0; page < c.maxCountPages; page++ {
		coll, err := c.ListComments(ctx, ListCommentsOptions{Limit: c.pageSize, Offset: offset})
		if err != nil {
			return 0, err
		}

		for i := range coll.Items {
			if coll.Items[i].OwnerID() == userID {
				matched++
			}
		}

		if coll.Exact {
			total = coll.Count
		}
		if len(coll.Items) < c.pageSize {
			break
		}
		offset += c.pageSize
		if total >= 0 && offset >= total {
			break
		}
	}
	return matched, nil
}
