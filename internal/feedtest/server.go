// Package feedtest runs an in-process JayTalk service for tests. It
// implements the wire contract the client consumes — two-phase auth,
// posts, comments, likes, user search — and can serve list responses in
// any of the observed collection shapes so normalization is exercised
// end to end.
package feedtest

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"jaytalk/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// ListShape selects how the server wraps collection responses.
type ListShape string

const (
	ShapeItems  ListShape = "items"
	ShapeBare   ListShape = "bare"
	ShapeData   ListShape = "data"
	ShapeNested ListShape = "nested"
)

// Shapes enumerates every variant, for table tests over the whole matrix.
var Shapes = []ListShape{ShapeItems, ShapeBare, ShapeData, ShapeNested}

type account struct {
	models.User
	passwordHash []byte
}

// Server is the fake service. Mutate its exported knobs before issuing
// requests; the data maps are guarded by mu.
type Server struct {
	// BaseURL is the root the client should use, including the /api
	// mount.
	BaseURL string

	// Shape controls collection wrapping for every list endpoint.
	Shape ListShape

	// RequireOTP makes login answer with a second-factor challenge and
	// registration hand out OTPSecret.
	RequireOTP bool

	// OTPCode is the code verify-otp accepts.
	OTPCode string

	// OTPSecret is the one-time setup secret registration returns when
	// RequireOTP is set.
	OTPSecret string

	jwtSecret []byte
	app       *fiber.App

	mu         sync.Mutex
	failStatus int
	accounts   map[string]*account // by id
	byUsername map[string]string   // username -> id
	posts      []*models.Post
	comments   []*models.Comment
	likes      map[string]map[string]bool // postID -> userID -> liked
	tempTokens map[string]string          // temp token -> userID
}

// Start boots the fake service on a loopback port and tears it down with
// the test.
func Start(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		Shape:      ShapeItems,
		OTPCode:    "123456",
		OTPSecret:  "JBSWY3DPEHPK3PXP",
		jwtSecret:  []byte("feedtest-secret"),
		accounts:   make(map[string]*account),
		byUsername: make(map[string]string),
		likes:      make(map[string]map[string]bool),
		tempTokens: make(map[string]string),
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	s.app = app
	s.routes(app)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("feedtest: listen: %v", err)
	}
	s.BaseURL = "http://" + ln.Addr().String() + "/api"

	// Listener returns on shutdown; anything else surfaces as failing
	// requests in the test itself.
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = app.ShutdownWithContext(ctx)
	})

	return s
}

func (s *Server) routes(app *fiber.App) {
	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", s.register)
	authGroup.Post("/login", s.login)
	authGroup.Post("/verify-otp", s.verifyOTP)

	api.Get("/posts", s.listPosts)
	api.Get("/posts/:id", s.getPost)
	api.Post("/posts", s.authRequired, s.createPost)
	api.Patch("/posts/:id", s.authRequired, s.updatePost)
	api.Delete("/posts/:id", s.authRequired, s.deletePost)

	api.Get("/comments", s.listComments)
	api.Post("/comments", s.authRequired, s.createComment)

	api.Get("/likes", s.listLikes)
	api.Post("/likes", s.authRequired, s.addLike)
	api.Delete("/likes", s.authRequired, s.removeLike)

	api.Get("/users", s.searchUsers)
	api.Get("/users/:id", s.getUser)
	api.Patch("/users/:id", s.authRequired, s.updateUser)
}

// renderList wraps items per the configured shape. count is the true
// total before limit/offset, which the wrapped shapes report.
func (s *Server) renderList(c *fiber.Ctx, items interface{}, count int) error {
	switch s.Shape {
	case ShapeBare:
		return c.JSON(items)
	case ShapeData:
		return c.JSON(fiber.Map{"data": items, "count": count})
	case ShapeNested:
		return c.JSON(fiber.Map{"items": fiber.Map{"items": items, "count": count}})
	default:
		return c.JSON(fiber.Map{"items": items, "count": count})
	}
}

// mintToken issues an HS256 JWT whose claims mirror the production
// service: subject id plus a display username.
func (s *Server) mintToken(userID, username string) string {
	claims := jwt.MapClaims{
		"sub":      userID,
		"username": username,
		"exp":      time.Now().Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		panic(err)
	}
	return signed
}

// authRequired validates the bearer token and stashes the caller's id.
func (s *Server) authRequired(c *fiber.Ctx) error {
	header := c.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authorization header required"})
	}

	token, err := jwt.Parse(header[len(prefix):], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token claims"})
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token subject"})
	}
	c.Locals("userID", sub)
	return c.Next()
}

func currentUserID(c *fiber.Ctx) string {
	id, _ := c.Locals("userID").(string)
	return id
}

// page applies limit/offset to a length, returning the slice bounds.
func page(length, limit, offset int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if offset > length {
		offset = length
	}
	end := length
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return offset, end
}
