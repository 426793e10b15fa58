package identity

import (
	"encoding/base64"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payloadToken(t *testing.T, payload string) string {
	t.Helper()
	return "eyJhbGciOiJIUzI1NiJ9." + base64.RawURLEncoding.EncodeToString([]byte(payload))
}

func TestDecodeSignedToken(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      "u-42",
		"username": "jay",
	})
	signed, err := token.SignedString([]byte("whatever"))
	require.NoError(t, err)

	ident, ok := Decode(signed)
	require.True(t, ok)
	assert.Equal(t, "u-42", ident.SubjectID)
	assert.Equal(t, "jay", ident.DisplayName)
}

func TestDecodeSubjectKeyPrecedence(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		want    string
	}{
		{"userId wins over sub", `{"userId":"a","sub":"b"}`, "a"},
		{"sub wins over user_id", `{"sub":"b","user_id":"c"}`, "b"},
		{"user_id wins over id", `{"user_id":"c","id":"d"}`, "c"},
		{"id wins over uid", `{"id":"d","uid":"e"}`, "d"},
		{"uid alone", `{"uid":"e"}`, "e"},
		{"empty candidate skipped", `{"userId":"","sub":"b"}`, "b"},
		{"numeric subject", `{"sub":17}`, "17"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ident, ok := Decode(payloadToken(t, tc.payload))
			require.True(t, ok)
			assert.Equal(t, tc.want, ident.SubjectID)
		})
	}
}

func TestDecodeDisplayNamePrefersName(t *testing.T) {
	ident, ok := Decode(payloadToken(t, `{"sub":"u1","name":"Jay T","username":"jay"}`))
	require.True(t, ok)
	assert.Equal(t, "Jay T", ident.DisplayName)
}

func TestDecodeRejectsMalformedTokens(t *testing.T) {
	cases := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"no dot", "justonechunk"},
		{"bad base64", "a.!!!.c"},
		{"payload not json", payloadToken(t, "not json")},
		{"payload not utf8", "a." + base64.RawURLEncoding.EncodeToString([]byte{0xff, 0xfe, 0x01})},
		{"no subject claim", payloadToken(t, `{"iat":123,"exp":456}`)},
		{"subject is null", payloadToken(t, `{"sub":null}`)},
		{"subject is object", payloadToken(t, `{"sub":{"id":"x"}}`)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := Decode(tc.token)
			assert.False(t, ok)
		})
	}
}

func TestDecodeToleratesPaddedSegments(t *testing.T) {
	padded := base64.URLEncoding.EncodeToString([]byte(`{"sub":"u1"}`))
	ident, ok := Decode("header." + padded)
	require.True(t, ok)
	assert.Equal(t, "u1", ident.SubjectID)
}
