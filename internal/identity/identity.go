// Package identity derives a UI identity from the session's bearer token.
//
// The decode is non-verifying: no signature check is performed, trust is
// delegated to the server that issued the token. The result gates the
// visibility of owner-only controls and nothing else; the server enforces
// the real authorization on every mutation.
package identity

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// Identity is derived on demand from the current token and never stored.
type Identity struct {
	SubjectID   string
	DisplayName string
}

// subjectKeys is the ordered candidate list for the subject id claim.
// Servers have been observed using every one of these.
var subjectKeys = []string{"userId", "sub", "user_id", "id", "uid"}

// Decode extracts an Identity from the payload segment of a bearer token.
// Any failure (missing segment, bad base64, bad JSON) returns ok == false;
// callers treat absence as "unauthenticated", not as an error.
func Decode(token string) (Identity, bool) {
	parts := strings.Split(token, ".")
	if len(parts) < 2 {
		return Identity{}, false
	}

	payload, err := decodeSegment(parts[1])
	if err != nil {
		return Identity{}, false
	}
	if !utf8.Valid(payload) {
		return Identity{}, false
	}

	var claims map[string]json.RawMessage
	if err := json.Unmarshal(payload, &claims); err != nil {
		return Identity{}, false
	}

	var id Identity
	for _, key := range subjectKeys {
		if raw, found := claims[key]; found {
			if v := claimString(raw); v != "" {
				id.SubjectID = v
				break
			}
		}
	}
	if id.SubjectID == "" {
		return Identity{}, false
	}

	for _, key := range []string{"name", "username"} {
		if raw, found := claims[key]; found {
			if v := claimString(raw); v != "" {
				id.DisplayName = v
				break
			}
		}
	}
	return id, true
}

// decodeSegment decodes a base64url token segment, tolerating both the
// unpadded JWS form and padded variants.
func decodeSegment(seg string) ([]byte, error) {
	seg = strings.TrimRight(seg, "=")
	return base64.RawURLEncoding.DecodeString(seg)
}

// claimString renders a claim value that may arrive as a JSON string or
// number. Anything else (null, object, array) yields "".
func claimString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
