package reconcile

import (
	"context"
	"sync"

	"jaytalk/internal/models"
)

// View scopes asynchronous work to the lifetime of the visual component
// showing it. Closing the view cancels its context, so in-flight fetches
// are abandoned at the transport level instead of having their results
// silently dropped.
type View struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func NewView(parent context.Context) *View {
	ctx, cancel := context.WithCancel(parent)
	return &View{ctx: ctx, cancel: cancel}
}

func (v *View) Context() context.Context {
	return v.ctx
}

func (v *View) Close() {
	v.cancel()
}

// EnrichPost fills a post's like and comment stats with two concurrent
// fetches. The two reads are independent and unordered. Both are
// auxiliary: a failure degrades that stat to its zero placeholder rather
// than failing the post, and nothing is applied once ctx is cancelled.
func (r *Reconciler) EnrichPost(ctx context.Context, post *models.Post) {
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		status, err := r.api.PostLikes(ctx, post.ID)
		if err != nil {
			r.ops.LogDegraded(ctx, "enrich.likes", err)
			return
		}
		if ctx.Err() != nil {
			return
		}
		mu.Lock()
		post.LikesCount = status.Count
		post.Liked = status.Liked
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		count, err := r.api.CountPostComments(ctx, post.ID)
		if err != nil {
			r.ops.LogDegraded(ctx, "enrich.comments", err)
			return
		}
		if ctx.Err() != nil {
			return
		}
		mu.Lock()
		post.CommentsCount = count
		mu.Unlock()
	}()
	wg.Wait()
}

// EnrichPosts enriches a page of posts, each post's stats fetched
// concurrently, the page processed with a small worker pool so a long
// feed does not fan out into hundreds of simultaneous requests.
func (r *Reconciler) EnrichPosts(ctx context.Context, posts []models.Post) {
	const workers = 4

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				r.EnrichPost(ctx, &posts[i])
			}
		}()
	}
	for i := range posts {
		select {
		case jobs <- i:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return
		}
	}
	close(jobs)
	wg.Wait()
}
