package session

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the authorization role carried in a token.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Claims are the identity attributes decoded from a token's payload segment.
type Claims struct {
	SubjectID string
	Username  string
	Role      Role
}

// IsAdmin reports whether the claims carry the admin role.
func (c Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}

var unverified = jwt.NewParser()

// DecodeClaims parses the payload of a header.payload.signature token without
// verifying the signature. Malformed input yields ok == false, never an error:
// an undecodable token is the same as no session.
func DecodeClaims(token string) (Claims, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, false
	}

	mapClaims := jwt.MapClaims{}
	if _, _, err := unverified.ParseUnverified(token, mapClaims); err != nil {
		return Claims{}, false
	}

	identity, ok := mapClaims["identity"].(map[string]any)
	if !ok {
		// Newer issuers put the identity object under sub.
		identity, ok = mapClaims["sub"].(map[string]any)
	}
	if !ok {
		return Claims{}, false
	}

	username, _ := identity["username"].(string)
	username = strings.TrimSpace(username)
	if username == "" {
		return Claims{}, false
	}

	claims := Claims{
		SubjectID: username,
		Username:  username,
		Role:      RoleUser,
	}
	if role, _ := identity["role"].(string); strings.EqualFold(strings.TrimSpace(role), string(RoleAdmin)) {
		claims.Role = RoleAdmin
	}
	switch sub := mapClaims["sub"].(type) {
	case string:
		if strings.TrimSpace(sub) != "" {
			claims.SubjectID = sub
		}
	case float64:
		claims.SubjectID = fmt.Sprintf("%.0f", sub)
	}
	return claims, true
}
