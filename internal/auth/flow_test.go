package auth

import (
	"context"
	"testing"

	"jaytalk/internal/models"
	"jaytalk/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// doerStub is a stub for the client request path.
type doerStub struct {
	doAuthFn func(ctx context.Context, op, path string, body interface{}) ([]byte, error)
	calls    []string
}

func (s *doerStub) DoAuth(ctx context.Context, op, path string, body interface{}) ([]byte, error) {
	s.calls = append(s.calls, path)
	return s.doAuthFn(ctx, op, path, body)
}

func respondWith(raw string) *doerStub {
	return &doerStub{doAuthFn: func(_ context.Context, _, _ string, _ interface{}) ([]byte, error) {
		return []byte(raw), nil
	}}
}

func TestSubmitCredentialsDirectToken(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	flow := NewFlow(respondWith(`{"token":"final-token"}`), store)

	require.NoError(t, flow.SubmitCredentials(ctx, "jay", "hunter2"))
	assert.Equal(t, StateAuthenticated, flow.State())
	assert.Equal(t, "final-token", store.Read(ctx))
}

func TestSubmitCredentialsSecondFactorChallenge(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	flow := NewFlow(respondWith(`{"requires_otp":true,"temp_token":"tmp-1"}`), store)

	require.NoError(t, flow.SubmitCredentials(ctx, "jay", "hunter2"))
	assert.Equal(t, StateSecondFactor, flow.State())
	// Nothing persisted before the second step completes.
	assert.Empty(t, store.Read(ctx))
}

func TestSubmitCredentialsValidatesLocally(t *testing.T) {
	ctx := context.Background()
	api := respondWith(`{}`)
	flow := NewFlow(api, session.NewMemoryStore())

	err := flow.SubmitCredentials(ctx, "  ", "pw")
	require.Error(t, err)
	err = flow.SubmitCredentials(ctx, "jay", "")
	require.Error(t, err)
	assert.Empty(t, api.calls, "validation failures must not hit the network")
	assert.Equal(t, StateCredentials, flow.State())
}

func TestSubmitCredentialsProtocolError(t *testing.T) {
	ctx := context.Background()
	flow := NewFlow(respondWith(`{"message":"ok"}`), session.NewMemoryStore())

	err := flow.SubmitCredentials(ctx, "jay", "hunter2")
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeProtocolError, appErr.Code)
	assert.Equal(t, StateCredentials, flow.State())
}

func TestSubmitSecondFactorCompletesFlow(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()

	var sentTemp string
	api := &doerStub{doAuthFn: func(_ context.Context, _, path string, body interface{}) ([]byte, error) {
		if path == "/auth/login" {
			return []byte(`{"requires_otp":true,"temp_token":"tmp-1"}`), nil
		}
		payload := body.(map[string]string)
		sentTemp = payload["temp_token"]
		return []byte(`{"token":"final-token"}`), nil
	}}
	flow := NewFlow(api, store)

	require.NoError(t, flow.SubmitCredentials(ctx, "jay", "hunter2"))
	require.NoError(t, flow.SubmitSecondFactor(ctx, "123456"))

	assert.Equal(t, "tmp-1", sentTemp, "the retained temp token authenticates step two")
	assert.Equal(t, StateAuthenticated, flow.State())
	assert.Equal(t, "final-token", store.Read(ctx))
}

func TestSubmitSecondFactorWithoutChallenge(t *testing.T) {
	ctx := context.Background()
	api := respondWith(`{"token":"x"}`)
	flow := NewFlow(api, session.NewMemoryStore())

	err := flow.SubmitSecondFactor(ctx, "123456")
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeValidationError, appErr.Code)
	assert.Empty(t, api.calls, "precondition violations must not hit the network")
}

func TestSubmitSecondFactorFailureStaysPending(t *testing.T) {
	ctx := context.Background()
	api := &doerStub{doAuthFn: func(_ context.Context, _, path string, _ interface{}) ([]byte, error) {
		if path == "/auth/login" {
			return []byte(`{"requires_otp":true,"temp_token":"tmp-1"}`), nil
		}
		return nil, &models.APIError{Status: 401, Body: `{"error":"Invalid OTP code"}`}
	}}
	flow := NewFlow(api, session.NewMemoryStore())

	require.NoError(t, flow.SubmitCredentials(ctx, "jay", "hunter2"))
	require.Error(t, flow.SubmitSecondFactor(ctx, "000000"))
	assert.Equal(t, StateSecondFactor, flow.State(), "a failed code keeps the challenge pending for retry")

	// A retry with a good response still works.
	api.doAuthFn = func(_ context.Context, _, _ string, _ interface{}) ([]byte, error) {
		return []byte(`{"token":"final-token"}`), nil
	}
	require.NoError(t, flow.SubmitSecondFactor(ctx, "123456"))
	assert.Equal(t, StateAuthenticated, flow.State())
}

func TestCancelDiscardsChallenge(t *testing.T) {
	ctx := context.Background()
	api := respondWith(`{"requires_otp":true,"temp_token":"tmp-1"}`)
	flow := NewFlow(api, session.NewMemoryStore())

	require.NoError(t, flow.SubmitCredentials(ctx, "jay", "hunter2"))
	flow.Cancel()
	assert.Equal(t, StateCredentials, flow.State())

	err := flow.SubmitSecondFactor(ctx, "123456")
	require.Error(t, err, "the discarded temp token must not be reusable")
}

func TestLogoutClearsSession(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	flow := NewFlow(respondWith(`{"token":"final-token"}`), store)

	require.NoError(t, flow.SubmitCredentials(ctx, "jay", "hunter2"))
	require.NoError(t, flow.Logout(ctx))
	assert.Equal(t, StateCredentials, flow.State())
	assert.Empty(t, store.Read(ctx))
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	api := respondWith(`{}`)
	flow := NewFlow(api, session.NewMemoryStore())

	_, err := flow.Register(ctx, RegisterInput{Username: "jay", Email: "jay@example.com", Password: "pw", ConfirmPassword: "other"})
	require.Error(t, err)

	_, err = flow.Register(ctx, RegisterInput{Username: "", Email: "jay@example.com", Password: "pw", ConfirmPassword: "pw"})
	require.Error(t, err)
	assert.Empty(t, api.calls)
}

func TestRegisterSurfacesOTPSecret(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	flow := NewFlow(respondWith(`{"otp_secret":"JBSWY3DP","token":"ignored"}`), store)

	result, err := flow.Register(ctx, RegisterInput{Username: "jay", Email: "jay@example.com", Password: "pw", ConfirmPassword: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "JBSWY3DP", result.OTPSecret)
	assert.False(t, result.Authenticated)
	assert.Empty(t, store.Read(ctx), "no session may exist before the user has seen the secret")
}

func TestRegisterSecretNestedUnderUser(t *testing.T) {
	ctx := context.Background()
	flow := NewFlow(respondWith(`{"user":{"id":"u1","otp_secret":"JBSWY3DP"}}`), session.NewMemoryStore())

	result, err := flow.Register(ctx, RegisterInput{Username: "jay", Email: "jay@example.com", Password: "pw", ConfirmPassword: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "JBSWY3DP", result.OTPSecret)
}

func TestRegisterDirectSession(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	flow := NewFlow(respondWith(`{"token":"final-token"}`), store)

	result, err := flow.Register(ctx, RegisterInput{Username: "jay", Email: "jay@example.com", Password: "pw", ConfirmPassword: "pw"})
	require.NoError(t, err)
	assert.True(t, result.Authenticated)
	assert.Equal(t, "final-token", store.Read(ctx))
	assert.Equal(t, StateAuthenticated, flow.State())
}
