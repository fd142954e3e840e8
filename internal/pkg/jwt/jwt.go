package jwt

import (
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Service issues and verifies the HS256 tokens the admin API accepts.
// The surrounding HR platform mints tokens with the same secret; this
// service only needs enough to verify them and to mint service tokens
// for operational tooling.
type Service interface {
	GenerateServiceToken(subject, orgID, role string) (token string, expiresAt int64, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type jwtService struct {
	secretKey  string
	expiration time.Duration
	tokenAuth  *jwtauth.JWTAuth
}

func NewService(secretKey string, expiration time.Duration) Service {
	return &jwtService{
		secretKey:  secretKey,
		expiration: expiration,
		tokenAuth:  jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *jwtService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func (j *jwtService) GenerateServiceToken(subject, orgID, role string) (string, int64, error) {
	expiresAt := time.Now().Add(j.expiration).Unix()

	claims := map[string]interface{}{
		"sub":    subject,
		"org_id": orgID,
		"role":   role,
		"type":   "access",
		"exp":    expiresAt,
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	if err != nil {
		return "", 0, err
	}
	return tokenString, expiresAt, nil
}
