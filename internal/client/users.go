package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"jaytalk/internal/cache"
	"jaytalk/internal/identity"
	"jaytalk/internal/models"
	"jaytalk/internal/wire"
)

// GetUser fetches a user by id.
func (c *Client) GetUser(ctx context.Context, id string) (models.User, error) {
	raw, err := c.do(ctx, "users.get", http.MethodGet, "/users/"+id, nil, nil)
	if err != nil {
		return models.User{}, err
	}
	user, ok := wire.NormalizeSingle[models.User](raw, "user", "data")
	if !ok || user.ID == "" {
		return models.User{}, models.NewNotFoundError("user", id)
	}
	return user, nil
}

// SearchUserByUsername resolves a username through the list endpoint's
// search query, taking the first match. A missing user is NOT_FOUND, not
// a protocol error.
func (c *Client) SearchUserByUsername(ctx context.Context, username string) (models.User, error) {
	raw, err := c.do(ctx, "users.search", http.MethodGet, "/users",
		url.Values{"q": {username}, "limit": {strconv.Itoa(1)}}, nil)
	if err != nil {
		return models.User{}, err
	}

	coll := wire.NormalizeCollection[models.User](raw)
	if len(coll.Items) > 0 {
		return coll.Items[0], nil
	}
	// Some deployments answer a search with a single wrapped user.
	if user, ok := wire.NormalizeSingle[models.User](raw, "user"); ok && user.ID != "" {
		return user, nil
	}
	return models.User{}, models.NewNotFoundError("user", username)
}

// UpdateUser patches profile fields (bio, email, avatar_url...) on the
// given account. The server enforces that the caller owns it.
func (c *Client) UpdateUser(ctx context.Context, id string, updates map[string]interface{}) (models.User, error) {
	if len(updates) == 0 {
		return models.User{}, models.NewValidationError("No profile fields to update")
	}
	raw, err := c.do(ctx, "users.update", http.MethodPatch, "/users/"+id, nil, updates)
	if err != nil {
		return models.User{}, err
	}
	user, ok := wire.NormalizeSingle[models.User](raw, "user", "data")
	if !ok {
		return models.User{}, models.NewProtocolError("Update user returned no entity")
	}
	return user, nil
}

// CurrentUser resolves the authenticated account by decoding the session
// token's subject id and fetching it.
func (c *Client) CurrentUser(ctx context.Context) (models.User, error) {
	token := c.token(ctx)
	if token == "" {
		return models.User{}, models.NewUnauthorizedError("Missing session token")
	}
	ident, ok := identity.Decode(token)
	if !ok {
		return models.User{}, models.NewProtocolError("Unable to extract user id from token")
	}
	return c.GetUser(ctx, ident.SubjectID)
}

// Identity returns the locally decoded identity of the current session,
// ok == false when unauthenticated. A UI hint only.
func (c *Client) Identity(ctx context.Context) (identity.Identity, bool) {
	return identity.Decode(c.token(ctx))
}

// ResolveUserName performs the secondary display-name lookup used when an
// entity embeds no username: a cached fetch by id, falling back to the
// raw id and then the anonymous placeholder. Lookup failures degrade; the
// caller always gets something to render.
func (c *Client) ResolveUserName(ctx context.Context, userID string) string {
	if userID == "" {
		return models.AnonymousName
	}

	var name string
	err := cache.Aside(ctx, cache.UserNameKey(userID), &name, cache.UserNameTTL, func() error {
		user, err := c.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		name = user.Username
		return nil
	})
	if err != nil {
		c.ops.LogDegraded(ctx, "users.resolve_name", err)
		return userID
	}
	if name == "" {
		return userID
	}
	return name
}
