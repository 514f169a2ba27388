// Package auth implements authentication: credential checks and JWT
// issuance and validation.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/goback-io/goback/internal/config"
	"github.com/goback-io/goback/internal/domain/user"
	svcerrors "github.com/goback-io/goback/internal/errors"
	"github.com/goback-io/goback/internal/services/users"
)

// Token is the response shape for a successful login.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Service handles authentication and token management.
type Service struct {
	users *users.Service
	cfg   config.AuthConfig
}

// NewService creates an auth service.
func NewService(usersSvc *users.Service, cfg config.AuthConfig) *Service {
	return &Service{users: usersSvc, cfg: cfg}
}

// Authenticate verifies an email/password pair against the active user set.
func (s *Service) Authenticate(ctx context.Context, email, password string) (user.User, error) {
	u, err := s.activeUserByEmail(ctx, email)
	if err != nil {
		return user.User{}, err
	}
	if !users.VerifyPassword(password, u.HashedPassword) {
		return user.User{}, svcerrors.InvalidCredentials("Incorrect email or password")
	}
	return u, nil
}

// IssueToken creates a signed JWT for the user. The expiry comes from
// ExpireMinutes when set, else the session TTL.
func (s *Service) IssueToken(u user.User) (Token, error) {
	ttl := time.Duration(s.cfg.SessionTTLMin) * time.Minute
	if s.cfg.ExpireMinutes > 0 {
		ttl = time.Duration(s.cfg.ExpireMinutes) * time.Minute
	}

	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   u.Email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(signingMethod(s.cfg.JWTAlgorithm), claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{AccessToken: signed, TokenType: "bearer"}, nil
}

// ValidateToken parses and verifies a JWT, returning the subject email.
func (s *Service) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", svcerrors.ExpiredToken(err)
		}
		return "", svcerrors.InvalidToken(err)
	}
	if !token.Valid {
		return "", svcerrors.InvalidToken(nil)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", svcerrors.InvalidToken(nil)
	}
	return claims.Subject, nil
}

// UserFromToken resolves a validated token to its active user.
func (s *Service) UserFromToken(ctx context.Context, tokenString string) (user.User, error) {
	email, err := s.ValidateToken(tokenString)
	if err != nil {
		return user.User{}, err
	}
	return s.activeUserByEmail(ctx, email)
}

func (s *Service) activeUserByEmail(ctx context.Context, email string) (user.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if svcErr := svcerrors.GetServiceError(err); svcErr != nil && svcErr.Code == svcerrors.CodeNotFound {
			return user.User{}, svcerrors.InvalidCredentials("")
		}
		return user.User{}, err
	}
	if !u.IsActive {
		return user.User{}, svcerrors.NotFound("")
	}
	return u, nil
}

func signingMethod(alg string) jwt.SigningMethod {
	switch alg {
	case "HS384":
		return jwt.SigningMethodHS384
	case "HS512":
		return jwt.SigningMethodHS512
	default:
		return jwt.SigningMethodHS256
	}
}
