package auth

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const RoleWalker = "walker"

var ErrNoToken = errors.New("no access token configured")

// Claims mirrors the access token the backend issues.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Identity is the local user the companion acts for.
type Identity struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

func (i Identity) IsWalker() bool {
	return strings.EqualFold(i.Role, RoleWalker)
}

// IdentityFromToken reads the user id and role out of an access token. The
// signature is not checked here; the backend verifies it on every call.
func IdentityFromToken(token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if bearer := bearerFromHeader(token); bearer != "" {
		token = bearer
	}
	if token == "" {
		return Identity{}, ErrNoToken
	}

	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Identity{}, err
	}
	id := Identity{UserID: claims.UserID, Role: claims.Role}
	if id.UserID == "" {
		id.UserID = claims.Subject
	}
	return id, nil
}

func bearerFromHeader(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
