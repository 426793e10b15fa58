package feedtest

import (
	"strings"
	"time"

	"jaytalk/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// SeedUser registers an account directly, bypassing the wire, and
// returns it with a valid token.
func (s *Server) SeedUser(username, password string) (models.User, string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	u := models.User{
		ID:       uuid.NewString(),
		Username: username,
		Name:     gofakeit.Name(),
		Email:    gofakeit.Email(),
		Bio:      gofakeit.Sentence(6),
	}

	s.mu.Lock()
	s.accounts[u.ID] = &account{User: u, passwordHash: hash}
	s.byUsername[u.Username] = u.ID
	s.mu.Unlock()

	return u, s.mintToken(u.ID, u.Username)
}

// SeedPost inserts a post owned by userID and returns it.
func (s *Server) SeedPost(userID, content string) models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := models.Post{
		ID:        uuid.NewString(),
		Content:   content,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	if acct, ok := s.accounts[userID]; ok {
		p.User = &models.UserRef{ID: acct.ID, Username: acct.Username, Name: acct.Name}
	}
	s.posts = append(s.posts, &p)
	return p
}

// SeedComment inserts a comment on postID owned by userID.
func (s *Server) SeedComment(postID, userID, content string) models.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()

	cm := models.Comment{
		ID:        uuid.NewString(),
		Content:   content,
		PostID:    postID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	if acct, ok := s.accounts[userID]; ok {
		cm.User = &models.UserRef{ID: acct.ID, Username: acct.Username, Name: acct.Name}
	}
	s.comments = append(s.comments, &cm)
	return cm
}

// SeedLike marks postID liked by userID.
func (s *Server) SeedLike(postID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.likes[postID] == nil {
		s.likes[postID] = make(map[string]bool)
	}
	s.likes[postID][userID] = true
}

// FailNext makes the next mutating request answer with the given status.
func (s *Server) FailNext(status int) {
	s.mu.Lock()
	s.failStatus = status
	s.mu.Unlock()
}

func (s *Server) consumeFailure(c *fiber.Ctx) bool {
	s.mu.Lock()
	status := s.failStatus
	s.failStatus = 0
	s.mu.Unlock()
	if status == 0 {
		return false
	}
	_ = c.Status(status).JSON(fiber.Map{"error": "injected failure"})
	return true
}

type registerRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (s *Server) register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Username == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Username and password required"})
	}

	s.mu.Lock()
	if _, taken := s.byUsername[req.Username]; taken {
		s.mu.Unlock()
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Username already exists"})
	}
	s.mu.Unlock()

	u, token := s.SeedUser(req.Username, req.Password)

	resp := fiber.Map{"user": fiber.Map{"id": u.ID, "username": u.Username}}
	if s.RequireOTP {
		resp["otp_secret"] = s.OTPSecret
	} else {
		resp["token"] = token
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	s.mu.Lock()
	id, ok := s.byUsername[req.Username]
	var acct *account
	if ok {
		acct = s.accounts[id]
	}
	s.mu.Unlock()
	if acct == nil || bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(req.Password)) != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid credentials"})
	}

	if s.RequireOTP {
		temp := uuid.NewString()
		s.mu.Lock()
		s.tempTokens[temp] = acct.ID
		s.mu.Unlock()
		return c.JSON(fiber.Map{"requires_otp": true, "temp_token": temp})
	}
	return c.JSON(fiber.Map{"token": s.mintToken(acct.ID, acct.Username)})
}

type verifyOTPRequest struct {
	TempToken string `json:"temp_token"`
	OTPToken  string `json:"otp_token"`
}

func (s *Server) verifyOTP(c *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	s.mu.Lock()
	id, ok := s.tempTokens[req.TempToken]
	if ok {
		delete(s.tempTokens, req.TempToken)
	}
	var acct *account
	if ok {
		acct = s.accounts[id]
	}
	s.mu.Unlock()

	if acct == nil || req.OTPToken != s.OTPCode {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid OTP code"})
	}
	return c.JSON(fiber.Map{"token": s.mintToken(acct.ID, acct.Username)})
}

func (s *Server) listPosts(c *fiber.Ctx) error {
	userID := c.Query("user_id")
	limit := c.QueryInt("limit", 0)
	offset := c.QueryInt("offset", 0)

	s.mu.Lock()
	filtered := make([]*models.Post, 0, len(s.posts))
	for _, p := range s.posts {
		if userID == "" || p.UserID == userID {
			filtered = append(filtered, p)
		}
	}
	s.mu.Unlock()

	start, end := page(len(filtered), limit, offset)
	return s.renderList(c, filtered[start:end], len(filtered))
}

func (s *Server) getPost(c *fiber.Ctx) error {
	s.mu.Lock()
	p := s.findPost(c.Params("id"))
	s.mu.Unlock()
	if p == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Post not found"})
	}
	return c.JSON(fiber.Map{"post": p})
}

// findPost expects s.mu held.
func (s *Server) findPost(id string) *models.Post {
	for _, p := range s.posts {
		if p.ID == id {
			return p
		}
	}
	return nil
}

type postRequest struct {
	Content string `json:"content"`
}

func (s *Server) createPost(c *fiber.Ctx) error {
	if s.consumeFailure(c) {
		return nil
	}
	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if strings.TrimSpace(req.Content) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Content required"})
	}
	p := s.SeedPost(currentUserID(c), req.Content)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"post": p})
}

func (s *Server) updatePost(c *fiber.Ctx) error {
	if s.consumeFailure(c) {
		return nil
	}
	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.findPost(c.Params("id"))
	if p == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Post not found"})
	}
	if p.UserID != currentUserID(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not the post owner"})
	}
	p.Content = req.Content
	return c.JSON(fiber.Map{"post": p})
}

func (s *Server) deletePost(c *fiber.Ctx) error {
	if s.consumeFailure(c) {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.posts {
		if p.ID != c.Params("id") {
			continue
		}
		if p.UserID != currentUserID(c) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not the post owner"})
		}
		s.posts = append(s.posts[:i], s.posts[i+1:]...)
		return c.JSON(fiber.Map{"message": "Post deleted"})
	}
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Post not found"})
}

func (s *Server) listComments(c *fiber.Ctx) error {
	postID := c.Query("post_id")
	limit := c.QueryInt("limit", 0)
	offset := c.QueryInt("offset", 0)

	s.mu.Lock()
	filtered := make([]*models.Comment, 0, len(s.comments))
	for _, cm := range s.comments {
		if postID == "" || cm.PostID == postID {
			filtered = append(filtered, cm)
		}
	}
	s.mu.Unlock()

	start, end := page(len(filtered), limit, offset)
	return s.renderList(c, filtered[start:end], len(filtered))
}

type commentRequest struct {
	PostID  string `json:"post_id"`
	Content string `json:"content"`
}

func (s *Server) createComment(c *fiber.Ctx) error {
	if s.consumeFailure(c) {
		return nil
	}
	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if strings.TrimSpace(req.Content) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Content required"})
	}

	s.mu.Lock()
	exists := s.findPost(req.PostID) != nil
	s.mu.Unlock()
	if !exists {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Post not found"})
	}

	cm := s.SeedComment(req.PostID, currentUserID(c), req.Content)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"comment": cm})
}

func (s *Server) listLikes(c *fiber.Ctx) error {
	postID := c.Query("post_id")
	userID := c.Query("user_id")
	countOnly := c.Query("count") == "true"

	s.mu.Lock()
	var items []models.Like
	for pid, users := range s.likes {
		if postID != "" && pid != postID {
			continue
		}
		for uid, liked := range users {
			if !liked || (userID != "" && uid != userID) {
				continue
			}
			items = append(items, models.Like{ID: uuid.NewString(), PostID: pid, UserID: uid})
		}
	}
	s.mu.Unlock()

	if countOnly {
		return c.JSON(fiber.Map{"count": len(items)})
	}
	if items == nil {
		items = []models.Like{}
	}
	return s.renderList(c, items, len(items))
}

type likeRequest struct {
	PostID string `json:"post_id"`
}

func (s *Server) addLike(c *fiber.Ctx) error {
	if s.consumeFailure(c) {
		return nil
	}
	var req likeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findPost(req.PostID) == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Post not found"})
	}
	if s.likes[req.PostID] == nil {
		s.likes[req.PostID] = make(map[string]bool)
	}
	s.likes[req.PostID][currentUserID(c)] = true
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Liked"})
}

func (s *Server) removeLike(c *fiber.Ctx) error {
	if s.consumeFailure(c) {
		return nil
	}
	var req likeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if users := s.likes[req.PostID]; users != nil {
		delete(users, currentUserID(c))
	}
	return c.JSON(fiber.Map{"message": "Unliked"})
}

func (s *Server) searchUsers(c *fiber.Ctx) error {
	q := c.Query("q")
	limit := c.QueryInt("limit", 0)

	s.mu.Lock()
	var matched []models.User
	for _, acct := range s.accounts {
		if q == "" || strings.Contains(acct.Username, q) {
			matched = append(matched, acct.User)
		}
	}
	s.mu.Unlock()

	if matched == nil {
		matched = []models.User{}
	}
	start, end := page(len(matched), limit, 0)
	return s.renderList(c, matched[start:end], len(matched))
}

func (s *Server) getUser(c *fiber.Ctx) error {
	s.mu.Lock()
	acct := s.accounts[c.Params("id")]
	s.mu.Unlock()
	if acct == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	return c.JSON(fiber.Map{"user": acct.User})
}

func (s *Server) updateUser(c *fiber.Ctx) error {
	if c.Params("id") != currentUserID(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not your profile"})
	}
	var fields map[string]string
	if err := c.BodyParser(&fields); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acct := s.accounts[c.Params("id")]
	if acct == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	if v, ok := fields["name"]; ok {
		acct.Name = v
	}
	if v, ok := fields["bio"]; ok {
		acct.Bio = v
	}
	return c.JSON(fiber.Map{"user": acct.User})
}
