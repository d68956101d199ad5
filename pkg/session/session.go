package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nexusforge/console/pkg/common/models"
)

var ErrNoSession = errors.New("no active session")

type Session struct {
	Token     string      `json:"token" yaml:"token"`
	TokenType string      `json:"token_type,omitempty" yaml:"token_type,omitempty"`
	User      models.User `json:"user" yaml:"user"`
}

func (s Session) Active() bool {
	return strings.TrimSpace(s.Token) != ""
}

// Store persists the session across console runs.
type Store interface {
	// Load returns ErrNoSession when nothing is stored.
	Load(ctx context.Context) (Session, error)
	Save(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
}

type TokenClaims struct {
	Subject   string
	ExpiresAt time.Time
}

// Claims decodes the token's subject and expiry without verifying the
// signature. It is informational only; the registry decides validity.
func Claims(token string) (TokenClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenClaims{}, err
	}

	var out TokenClaims
	if sub, err := claims.GetSubject(); err == nil {
		out.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}
