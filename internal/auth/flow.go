// Package auth drives the two-step authentication flow against the
// JayTalk service: credentials first, then an optional one-time code.
//
// The controller is a small state machine. Failures never transition: the
// caller stays where it was, shows the error, and may retry or cancel.
// The temp token issued between the two steps is transient state held in
// memory only; nothing is persisted until a final token arrives.
package auth

import (
	"context"
	"encoding/json"
	"strings"

	"jaytalk/internal/models"
	"jaytalk/internal/observability"
	"jaytalk/internal/session"
)

// State is the flow's current position.
type State int

const (
	StateCredentials State = iota
	StateSecondFactor
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateSecondFactor:
		return "second_factor"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "credentials"
	}
}

// Doer is the one slice of the entity client the flow needs: the shared
// request path. Satisfied by *client.Client.
type Doer interface {
	DoAuth(ctx context.Context, op, path string, body interface{}) ([]byte, error)
}

// Flow is the authentication state machine. Not safe for concurrent use;
// one flow belongs to one interactive session.
type Flow struct {
	api       Doer
	sessions  session.Store
	state     State
	tempToken string
	ops       *observability.OpLogger
}

func NewFlow(api Doer, sessions session.Store) *Flow {
	return &Flow{
		api:      api,
		sessions: sessions,
		state:    StateCredentials,
		ops:      observability.NewOpLogger("auth"),
	}
}

// State reports the flow's current state.
func (f *Flow) State() State {
	return f.state
}

// loginResponse covers both outcomes of the first step.
type loginResponse struct {
	Token       string `json:"token"`
	RequiresOTP bool   `json:"requires_otp"`
	TempToken   string `json:"temp_token"`
}

// SubmitCredentials runs step one. Outcomes: a final token (persisted,
// authenticated), a second-factor challenge (temp token retained,
// transition to StateSecondFactor), or a protocol error when the response
// carries neither.
func (f *Flow) SubmitCredentials(ctx context.Context, username, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return models.NewValidationError("Username and password are required")
	}

	raw, err := f.api.DoAuth(ctx, "auth.login", "/auth/login",
		map[string]string{"username": username, "password": password})
	if err != nil {
		return err
	}

	var resp loginResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return models.NewProtocolError("Unexpected login response")
	}

	switch {
	case resp.RequiresOTP && resp.TempToken != "":
		f.tempToken = resp.TempToken
		f.state = StateSecondFactor
		return nil
	case resp.Token != "":
		return f.establish(ctx, resp.Token)
	default:
		return models.NewProtocolError("Login response carried neither token nor challenge")
	}
}

// SubmitSecondFactor runs step two. Calling it without a pending
// challenge is a local precondition violation surfaced as a validation
// error; no network call is made.
func (f *Flow) SubmitSecondFactor(ctx context.Context, code string) error {
	if f.tempToken == "" {
		return models.NewValidationError("No pending second-factor challenge")
	}
	if strings.TrimSpace(code) == "" {
		return models.NewValidationError("Code is required")
	}

	raw, err := f.api.DoAuth(ctx, "auth.verify_otp", "/auth/verify-otp",
		map[string]string{"temp_token": f.tempToken, "otp_token": code})
	if err != nil {
		return err
	}

	var resp loginResponse
	if err := json.Unmarshal(raw, &resp); err != nil || resp.Token == "" {
		return models.NewProtocolError("Invalid code or unexpected response")
	}
	return f.establish(ctx, resp.Token)
}

// Cancel abandons a pending second-factor challenge, discarding the temp
// token and returning to credential collection.
func (f *Flow) Cancel() {
	f.tempToken = ""
	if f.state == StateSecondFactor {
		f.state = StateCredentials
	}
}

// Logout clears the persisted session and resets the flow.
func (f *Flow) Logout(ctx context.Context) error {
	f.tempToken = ""
	f.state = StateCredentials
	return f.sessions.Clear(ctx)
}

// establish persists the final token and completes the flow.
func (f *Flow) establish(ctx context.Context, token string) error {
	if err := f.sessions.Save(ctx, token); err != nil {
		f.ops.LogError(ctx, "session.save", err)
		return models.NewProtocolError("Unable to persist session")
	}
	f.tempToken = ""
	f.state = StateAuthenticated
	return nil
}

// RegisterInput is the registration payload plus the client-side
// confirmation field.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// RegisterResult reports what the server handed back: a one-time setup
// secret to surface for safekeeping, a session established directly, or
// neither (plain success, log in separately).
type RegisterResult struct {
	OTPSecret     string
	Authenticated bool
}

// registerResponse reads the well-defined fields of the registration
// response. The secret lives in otp_secret; key-sniffing heuristics from
// the legacy client were deliberately not carried over.
type registerResponse struct {
	Token     string `json:"token"`
	OTPSecret string `json:"otp_secret"`
	User      *struct {
		OTPSecret string `json:"otp_secret"`
	} `json:"user"`
}

// Register submits a new account. Validation (empty fields, password
// confirmation) happens client-side before any network call.
func (f *Flow) Register(ctx context.Context, in RegisterInput) (RegisterResult, error) {
	if strings.TrimSpace(in.Username) == "" || strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return RegisterResult{}, models.NewValidationError("Username, email, and password are required")
	}
	if in.Password != in.ConfirmPassword {
		return RegisterResult{}, models.NewValidationError("Passwords do not match")
	}

	raw, err := f.api.DoAuth(ctx, "auth.register", "/auth/register",
		map[string]string{"username": in.Username, "email": in.Email, "password": in.Password})
	if err != nil {
		return RegisterResult{}, err
	}

	var resp registerResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return RegisterResult{}, models.NewProtocolError("Unexpected registration response")
	}

	result := RegisterResult{OTPSecret: resp.OTPSecret}
	if result.OTPSecret == "" && resp.User != nil {
		result.OTPSecret = resp.User.OTPSecret
	}

	// The secret must reach the user before any session exists; a token
	// alongside it is ignored in that case.
	if result.OTPSecret != "" {
		return result, nil
	}
	if resp.Token != "" {
		if err := f.establish(ctx, resp.Token); err != nil {
			return RegisterResult{}, err
		}
		result.Authenticated = true
	}
	return result, nil
}

