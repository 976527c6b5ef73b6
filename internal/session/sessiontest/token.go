// Package sessiontest builds unsigned tokens shaped like the backend's for tests.
package sessiontest

import (
	"encoding/base64"
	"encoding/json"
)

// Token returns a header.payload.signature token whose payload carries an
// identity claim for username and role.
func Token(username, role string) string {
	return TokenWithPayload(map[string]any{
		"sub":      username,
		"identity": map[string]any{"username": username, "role": role},
		"type":     "access",
	})
}

// TokenWithPayload encodes payload as the token's middle segment.
func TokenWithPayload(payload map[string]any) string {
	header := segment(map[string]any{"alg": "HS256", "typ": "JWT"})
	return header + "." + segment(payload) + ".c2lnbmF0dXJl"
}

func segment(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}
