// Package reconcile applies user mutations against the eventually-stale
// local view of the feed: optimistic like toggling, pessimistic comment
// submission, and owner edit/delete with parent-list propagation.
package reconcile

import (
	"context"
	"errors"

	"jaytalk/internal/client"
	"jaytalk/internal/models"
	"jaytalk/internal/observability"
)

// ErrReauthenticate signals that the server rejected the session on a
// protected mutation; the caller should route back into the auth flow.
var ErrReauthenticate = errors.New("session rejected, reauthentication required")

// Reconciler coordinates local state changes with server confirmation.
//
// RollbackLikes selects the failure policy for optimistic like toggles:
// true reverts the local flip when the server call fails, false keeps it
// (the legacy behavior, tolerable only under eventual consistency).
type Reconciler struct {
	api           *client.Client
	RollbackLikes bool

	// OnPostUpdated and OnPostDeleted propagate confirmed mutations to
	// the parent list owning the entity. Nil callbacks are skipped.
	OnPostUpdated func(models.Post)
	OnPostDeleted func(postID string)

	ops *observability.OpLogger
}

func New(api *client.Client, rollbackLikes bool) *Reconciler {
	return &Reconciler{
		api:           api,
		RollbackLikes: rollbackLikes,
		ops:           observability.NewOpLogger("reconcile"),
	}
}

// ToggleLike flips the like state optimistically, then reconciles with
// the server. The returned state is what the view should show: on
// success the optimistic delta already matches the server, so no further
// correction is needed; on failure the state depends on the rollback
// policy, and the error is returned alongside it either way.
func (r *Reconciler) ToggleLike(ctx context.Context, postID string, current client.LikeStatus) (client.LikeStatus, error) {
	next := client.LikeStatus{Liked: !current.Liked}
	if next.Liked {
		next.Count = current.Count + 1
	} else {
		next.Count = current.Count - 1
		if next.Count < 0 {
			next.Count = 0
		}
	}

	var err error
	if next.Liked {
		err = r.api.AddLike(ctx, postID)
	} else {
		err = r.api.RemoveLike(ctx, postID)
	}
	if err == nil {
		return next, nil
	}

	if models.IsUnauthorized(err) {
		err = errors.Join(ErrReauthenticate, err)
	}
	if r.RollbackLikes {
		observability.OptimisticRollbacks.Inc()
		r.ops.LogError(ctx, "likes.toggle", err)
		return current, err
	}
	// Legacy policy: keep the optimistic state and only log.
	r.ops.LogDegraded(ctx, "likes.toggle", err)
	return next, err
}

// SubmitComment is deliberately pessimistic: the new comment is not
// appended locally; after the server accepts it the whole list is
// reloaded, trading latency for consistency.
func (r *Reconciler) SubmitComment(ctx context.Context, postID, content string) ([]models.Comment, error) {
	if _, err := r.api.CreateComment(ctx, postID, content); err != nil {
		if models.IsUnauthorized(err) {
			return nil, errors.Join(ErrReauthenticate, err)
		}
		return nil, err
	}
	coll, err := r.api.ListComments(ctx, client.ListCommentsOptions{PostID: postID})
	if err != nil {
		return nil, err
	}
	return coll.Items, nil
}

// EditPost updates an owned post and propagates the confirmed entity to
// the parent list. A partial server response falls back to the locally
// typed content so the view never regresses to stale text.
func (r *Reconciler) EditPost(ctx context.Context, post models.Post, content string) (models.Post, error) {
	updated, err := r.api.UpdatePost(ctx, post.ID, content)
	if err != nil {
		if models.IsUnauthorized(err) {
			return post, errors.Join(ErrReauthenticate, err)
		}
		return post, err
	}

	if updated.ID == "" {
		updated.ID = post.ID
	}
	if updated.Content == "" {
		updated.Content = content
	}
	if updated.User == nil && updated.UserID == "" {
		updated.User = post.User
		updated.UserID = post.UserID
	}

	if r.OnPostUpdated != nil {
		r.OnPostUpdated(updated)
	}
	return updated, nil
}

// DeletePost removes an owned post from the parent list only after the
// server confirms the deletion.
func (r *Reconciler) DeletePost(ctx context.Context, postID string) error {
	if err := r.api.DeletePost(ctx, postID); err != nil {
		if models.IsUnauthorized(err) {
			return errors.Join(ErrReauthenticate, err)
		}
		return err
	}
	if r.OnPostDeleted != nil {
		r.OnPostDeleted(postID)
	}
	return nil
}

// CanModify reports whether edit/delete controls should be shown for a
// post: true iff the locally decoded identity owns it. A visibility hint
// only; the server re-checks on the actual mutation.
func (r *Reconciler) CanModify(ctx context.Context, post *models.Post) bool {
	ident, ok := r.api.Identity(ctx)
	if !ok {
		return false
	}
	owner := post.OwnerID()
	return owner != "" && owner == ident.SubjectID
}
