package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/citywatch/alerts/config"
	"github.com/citywatch/alerts/identity"
	"github.com/citywatch/alerts/services/logging"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidToken     = errors.New("invalid JWT token")
	ErrExpiredToken     = errors.New("JWT token has expired")
	ErrMalformedToken   = errors.New("malformed JWT token")
	ErrInvalidSignature = errors.New("invalid JWT token signature")
	ErrMissingSubject   = errors.New("JWT token missing subject")
	ErrNotConfigured    = errors.New("JWT secret is not configured")
)

// Claims is the access token issued by the identity provider. The subject is
// the user id.
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Service verifies HS256 access tokens signed with the identity provider's secret.
type Service struct {
	config *config.AuthConfig
	logger *logging.Service
}

func NewService(cfg *config.AuthConfig, logger *logging.Service) *Service {
	return &Service{
		config: cfg,
		logger: logger,
	}
}

func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	if s.config.JWTSecret == "" {
		s.logger.Error("cannot validate token without AUTH_JWT_SECRET")
		return nil, ErrNotConfigured
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if s.config.JWTIssuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.JWTIssuer))
	}
	if s.config.JWTAudience != "" {
		opts = append(opts, jwt.WithAudience(s.config.JWTAudience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("invalid algorithm family: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	}, opts...)

	if err != nil {
		s.logger.Warn("JWT token validation failed", zap.Error(err))

		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformedToken
		case errors.Is(err, jwt.ErrSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}
	return claims, nil
}

// Authenticate implements identity.Provider.
func (s *Service) Authenticate(_ context.Context, tokenString string) (identity.Identity, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return identity.Identity{}, err
	}
	return identity.Identity{UserID: claims.Subject, Email: claims.Email}, nil
}

// GenerateToken mints a token the way the identity provider does. Used by
// local tooling and tests; production tokens come from the provider.
func (s *Service) GenerateToken(userID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.config.JWTIssuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	if s.config.JWTAudience != "" {
		claims.Audience = jwt.ClaimStrings{s.config.JWTAudience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		s.logger.Error("failed to sign JWT token", zap.Error(err))
		return "", fmt.Errorf("failed to generate JWT token: %w", err)
	}
	return tokenString, nil
}
