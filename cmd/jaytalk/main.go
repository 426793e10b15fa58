// Command jaytalk is a terminal client for the JayTalk social feed:
// log in, browse the feed, post, comment, and like from the shell.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"jaytalk/internal/auth"
	"jaytalk/internal/cache"
	"jaytalk/internal/client"
	"jaytalk/internal/config"
	"jaytalk/internal/models"
	"jaytalk/internal/observability"
	"jaytalk/internal/reconcile"
	"jaytalk/internal/session"

	"github.com/joho/godotenv"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  jaytalk login <username>                 - Log in (prompts for password, and OTP when required)")
	fmt.Println("  jaytalk register <username> <email>      - Create an account (prompts for password)")
	fmt.Println("  jaytalk logout                           - Clear the stored session")
	fmt.Println("  jaytalk whoami                           - Show the authenticated account")
	fmt.Println("  jaytalk feed [user_id]                   - Show recent posts, optionally one user's")
	fmt.Println("  jaytalk post <content>                   - Publish a post")
	fmt.Println("  jaytalk edit <post_id> <content>         - Edit an owned post")
	fmt.Println("  jaytalk delete <post_id>                 - Delete an owned post")
	fmt.Println("  jaytalk comment <post_id> <content>      - Comment on a post")
	fmt.Println("  jaytalk comments <post_id>               - List a post's comments")
	fmt.Println("  jaytalk like <post_id>                   - Toggle a like on a post")
	fmt.Println("  jaytalk user <username>                  - Show a user's profile and activity counts")
	fmt.Println("  jaytalk profile <field> <value>          - Update a profile field (name, bio)")
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	// A local .env is optional; real deployments configure via the
	// environment.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.TracingEnabled {
		shutdown, err := observability.InitTracing(observability.TracingConfig{
			ServiceName:    "jaytalk",
			ServiceVersion: "1.0.0",
			Environment:    cfg.Env,
			Enabled:        true,
			Exporter:       cfg.TracingExporter,
			OTLPEndpoint:   cfg.OTLPEndpoint,
		})
		if err != nil {
			log.Printf("Tracing disabled: %v", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open session store: %v", err)
	}
	defer closeStore()

	if cfg.SessionBackend == "redis" || cfg.Env == "production" {
		cache.InitRedis(cfg.RedisURL)
	}

	api, err := client.New(client.Options{
		BaseURL:       cfg.APIBase,
		Timeout:       cfg.HTTPTimeout,
		Sessions:      store,
		PageSize:      cfg.PageSize,
		MaxCountPages: cfg.MaxCountPages,
	})
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}

	flow := auth.NewFlow(api, store)
	rec := reconcile.New(api, cfg.LikeRollbackOnFailure)
	ctx := context.Background()

	switch os.Args[1] {
	case "login":
		requireArgs(3, "jaytalk login <username>")
		runLogin(ctx, flow, os.Args[2])
	case "register":
		requireArgs(4, "jaytalk register <username> <email>")
		runRegister(ctx, flow, os.Args[2], os.Args[3])
	case "logout":
		fatalOn(flow.Logout(ctx))
		fmt.Println("Logged out.")
	case "whoami":
		runWhoami(ctx, api)
	case "feed":
		userID := ""
		if len(os.Args) > 2 {
			userID = os.Args[2]
		}
		runFeed(ctx, api, rec, userID)
	case "post":
		requireArgs(3, "jaytalk post <content>")
		post, err := api.CreatePost(ctx, strings.Join(os.Args[2:], " "))
		fatalOn(err)
		fmt.Printf("Posted %s\n", post.ID)
	case "edit":
		requireArgs(4, "jaytalk edit <post_id> <content>")
		runEdit(ctx, api, rec, os.Args[2], strings.Join(os.Args[3:], " "))
	case "delete":
		requireArgs(3, "jaytalk delete <post_id>")
		fatalOn(rec.DeletePost(ctx, os.Args[2]))
		fmt.Println("Deleted.")
	case "comment":
		requireArgs(4, "jaytalk comment <post_id> <content>")
		comments, err := rec.SubmitComment(ctx, os.Args[2], strings.Join(os.Args[3:], " "))
		fatalOn(err)
		fmt.Printf("Comment added; the post now has %d comments.\n", len(comments))
	case "comments":
		requireArgs(3, "jaytalk comments <post_id>")
		runComments(ctx, api, os.Args[2])
	case "like":
		requireArgs(3, "jaytalk like <post_id>")
		runLike(ctx, api, rec, os.Args[2])
	case "user":
		requireArgs(3, "jaytalk user <username>")
		runUserProfile(ctx, api, os.Args[2])
	case "profile":
		requireArgs(4, "jaytalk profile <field> <value>")
		runProfileUpdate(ctx, api, os.Args[2], strings.Join(os.Args[3:], " "))
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		usage()
	}
}

func requireArgs(n int, use string) {
	if len(os.Args) < n {
		fmt.Printf("Usage: %s\n", use)
		os.Exit(1)
	}
}

func fatalOn(err error) {
	if err == nil {
		return
	}
	if errors.Is(err, reconcile.ErrReauthenticate) {
		log.Fatalf("Session rejected; run `jaytalk login` again. (%v)", err)
	}
	log.Fatalf("Error: %v", err)
}

func openStore(cfg *config.Config) (session.Store, func(), error) {
	switch cfg.SessionBackend {
	case "redis":
		store, err := session.NewRedisStore(cfg.RedisURL)
		return store, func() {}, err
	case "memory":
		return session.NewMemoryStore(), func() {}, nil
	default:
		store, err := session.NewSQLiteStore(cfg.SessionPath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	}
}

func prompt(label string) string {
	fmt.Print(label)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func runLogin(ctx context.Context, flow *auth.Flow, username string) {
	password := prompt("Password: ")
	fatalOn(flow.SubmitCredentials(ctx, username, password))

	if flow.State() == auth.StateSecondFactor {
		code := prompt("One-time code: ")
		fatalOn(flow.SubmitSecondFactor(ctx, code))
	}
	fmt.Printf("Logged in as %s.\n", username)
}

func runRegister(ctx context.Context, flow *auth.Flow, username, email string) {
	password := prompt("Password: ")
	confirm := prompt("Confirm password: ")

	result, err := flow.Register(ctx, auth.RegisterInput{
		Username:        username,
		Email:           email,
		Password:        password,
		ConfirmPassword: confirm,
	})
	fatalOn(err)

	switch {
	case result.OTPSecret != "":
		fmt.Printf("Account created. Store this one-time-password secret in your authenticator now:\n  %s\n", result.OTPSecret)
		fmt.Println("Then run `jaytalk login` to sign in.")
	case result.Authenticated:
		fmt.Printf("Account created; logged in as %s.\n", username)
	default:
		fmt.Println("Account created. Run `jaytalk login` to sign in.")
	}
}

func runWhoami(ctx context.Context, api *client.Client) {
	user, err := api.CurrentUser(ctx)
	fatalOn(err)
	fmt.Printf("%s (%s)\n", user.Username, user.ID)
	if user.Bio != "" {
		fmt.Printf("  %s\n", user.Bio)
	}
}

func runFeed(ctx context.Context, api *client.Client, rec *reconcile.Reconciler, userID string) {
	coll, err := api.ListPosts(ctx, client.ListPostsOptions{Limit: 20, UserID: userID})
	fatalOn(err)

	view := reconcile.NewView(ctx)
	defer view.Close()
	rec.EnrichPosts(view.Context(), coll.Items)

	for i := range coll.Items {
		printPost(&coll.Items[i])
	}
	if coll.Exact && coll.Count > len(coll.Items) {
		fmt.Printf("(%d more posts on the server)\n", coll.Count-len(coll.Items))
	}
}

func printPost(post *models.Post) {
	liked := " "
	if post.Liked {
		liked = "*"
	}
	fmt.Printf("[%s] %s%s: %s (%d likes, %d comments)\n",
		post.ID, liked, post.AuthorName(), post.Content, post.LikesCount, post.CommentsCount)
}

func runEdit(ctx context.Context, api *client.Client, rec *reconcile.Reconciler, postID, content string) {
	post, err := api.GetPost(ctx, postID)
	fatalOn(err)
	if !rec.CanModify(ctx, &post) {
		log.Fatalf("Error: you do not own post %s", postID)
	}
	updated, err := rec.EditPost(ctx, post, content)
	fatalOn(err)
	fmt.Printf("Updated %s: %s\n", updated.ID, updated.Content)
}

func runComments(ctx context.Context, api *client.Client, postID string) {
	coll, err := api.ListComments(ctx, client.ListCommentsOptions{PostID: postID})
	fatalOn(err)
	for i := range coll.Items {
		c := &coll.Items[i]
		fmt.Printf("[%s] %s: %s\n", c.ID, c.AuthorName(), c.Content)
	}
	if len(coll.Items) == 0 {
		fmt.Println("No comments.")
	}
}

func runLike(ctx context.Context, api *client.Client, rec *reconcile.Reconciler, postID string) {
	current, err := api.PostLikes(ctx, postID)
	fatalOn(err)

	status, err := rec.ToggleLike(ctx, postID, current)
	fatalOn(err)
	if status.Liked {
		fmt.Printf("Liked; %d likes now.\n", status.Count)
	} else {
		fmt.Printf("Unliked; %d likes now.\n", status.Count)
	}
}

func runUserProfile(ctx context.Context, api *client.Client, username string) {
	user, err := api.SearchUserByUsername(ctx, username)
	fatalOn(err)

	fmt.Printf("%s (%s)\n", user.Username, user.ID)
	if user.Name != "" {
		fmt.Printf("  Name: %s\n", user.Name)
	}
	if user.Bio != "" {
		fmt.Printf("  Bio: %s\n", user.Bio)
	}

	posts, err := api.CountUserPosts(ctx, user.ID)
	fatalOn(err)
	comments, err := api.CountUserComments(ctx, user.ID)
	fatalOn(err)
	likes, err := api.CountUserLikes(ctx, user.ID)
	fatalOn(err)
	fmt.Printf("  Activity: %d posts, %d comments, %d likes given\n", posts, comments, likes)
}

func runProfileUpdate(ctx context.Context, api *client.Client, field, value string) {
	switch field {
	case "name", "bio":
	default:
		log.Fatalf("Error: unknown profile field %q (use name or bio)", field)
	}

	user, err := api.CurrentUser(ctx)
	fatalOn(err)

	updated, err := api.UpdateUser(ctx, user.ID, map[string]interface{}{field: value})
	fatalOn(err)
	cache.InvalidateUser(ctx, updated.ID)
	fmt.Printf("Profile updated: %s = %q\n", field, value)
}
