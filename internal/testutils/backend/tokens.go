package backend

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/nexusforge/console/pkg/common/models"
)

const (
	tokenIssuer   = "nexusforge-registry"
	tokenAudience = "nexusforge-console"
)

type tokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

type tokenSigner struct {
	signingKey []byte
	ttl        time.Duration
	nowFunc    func() time.Time
}

func newTokenSigner(secret string, ttl time.Duration) (*tokenSigner, error) {
	if len(secret) < 16 {
		return nil, errors.New("jwt secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &tokenSigner{signingKey: []byte(secret), ttl: ttl, nowFunc: time.Now}, nil
}

func (s *tokenSigner) Issue(user models.User) (string, error) {
	now := s.nowFunc()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatInt(user.ID, 10),
			Audience:  jwt.ClaimStrings{tokenAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Email: user.Email,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
}

func (s *tokenSigner) Validate(token string) (*tokenClaims, error) {
	if token == "" {
		return nil, errors.New("token empty")
	}
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (interface{}, error) { return s.signingKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithTimeFunc(s.nowFunc),
	)
	if err != nil {
		return nil, err
	}
	return &claims, nil
}
