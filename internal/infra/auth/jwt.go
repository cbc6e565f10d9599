package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/xavierca1/visa-crm/internal/entity"
)

const issuer = "visa-crm"

var ErrInvalidSession = errors.New("invalid session token")

type Claims struct {
	UserID string            `json:"user_id"`
	Email  string            `json:"email"`
	Roles  []entity.RoleSlug `json:"roles"`
	jwt.RegisteredClaims
}

// JWTIssuer signs HS256 session tokens and parses them back.
type JWTIssuer struct {
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

func NewJWTIssuer(secret string, ttl time.Duration) *JWTIssuer {
	return &JWTIssuer{Secret: []byte(secret), TTL: ttl, Now: time.Now}
}

func (j *JWTIssuer) Issue(u *entity.User) (string, error) {
	now := j.Now()
	claims := Claims{
		UserID: u.ID,
		Email:  u.Email,
		Roles:  u.RoleSlugs(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.TTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.Secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

func (j *JWTIssuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return j.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(j.Now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidSession
	}
	return claims, nil
}
