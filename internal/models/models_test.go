package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayName(t *testing.T) {
	cases := []struct {
		name   string
		ref    *UserRef
		userID string
		want   string
	}{
		{"username wins", &UserRef{Username: "jay", Name: "Jay T"}, "u1", "jay"},
		{"name when no username", &UserRef{Name: "Jay T"}, "u1", "Jay T"},
		{"whitespace username skipped", &UserRef{Username: "   ", Name: "Jay T"}, "u1", "Jay T"},
		{"raw id when ref empty", &UserRef{}, "u1", "u1"},
		{"raw id when ref nil", nil, "u1", "u1"},
		{"ref id as last resort", &UserRef{ID: "ref-id"}, "", "ref-id"},
		{"anonymous fallback", nil, "", AnonymousName},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DisplayName(tc.ref, tc.userID))
		})
	}
}

func TestOwnerID(t *testing.T) {
	assert.Equal(t, "u1", (&Post{UserID: "u1", User: &UserRef{ID: "u2"}}).OwnerID())
	assert.Equal(t, "u2", (&Post{User: &UserRef{ID: "u2"}}).OwnerID())
	assert.Empty(t, (&Post{}).OwnerID())

	assert.Equal(t, "u1", (&Comment{UserID: "u1"}).OwnerID())
	assert.Equal(t, "u2", (&Comment{User: &UserRef{ID: "u2"}}).OwnerID())

	// Some like listings return nothing but an id; it doubles as the owner.
	assert.Equal(t, "u1", (&Like{UserID: "u1"}).OwnerID())
	assert.Equal(t, "l1", (&Like{ID: "l1"}).OwnerID())
}

func TestIsUnauthorized(t *testing.T) {
	assert.True(t, IsUnauthorized(&APIError{Status: 401}))
	assert.True(t, IsUnauthorized(&APIError{Status: 403}))
	assert.False(t, IsUnauthorized(&APIError{Status: 404}))

	assert.True(t, IsUnauthorized(NewUnauthorizedError("no token")))
	assert.False(t, IsUnauthorized(NewValidationError("bad input")))
	assert.False(t, IsUnauthorized(errors.New("plain")))

	// Wrapped errors are still recognized.
	wrapped := NewNetworkError(&APIError{Status: 401})
	assert.True(t, IsUnauthorized(wrapped))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(&APIError{Status: 404}))
	assert.False(t, IsNotFound(&APIError{Status: 500}))
	assert.False(t, IsNotFound(errors.New("plain")))
}

func TestAppErrorFormatting(t *testing.T) {
	assert.Equal(t, "bad input", NewValidationError("bad input").Error())

	err := NewNetworkError(errors.New("connection refused"))
	assert.Contains(t, err.Error(), "connection refused")
	assert.EqualError(t, errors.Unwrap(err), "connection refused")
}
