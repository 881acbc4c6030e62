package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hubride/ride-pool-system/internal/domain/models"
	"github.com/hubride/ride-pool-system/internal/domain/types"
	"github.com/hubride/ride-pool-system/pkg/uuid"
)

// TokenService signs and validates HS256 access tokens. There is no
// refresh flow: tokens are short-lived and the client logs in again.
type TokenService struct {
	secret    []byte
	accessTTL time.Duration
}

func NewTokenService(secret string, accessTTL time.Duration) *TokenService {
	return &TokenService{
		secret:    []byte(secret),
		accessTTL: accessTTL,
	}
}

// Generate issues an access token for the given principal.
func (s *TokenService) Generate(subjectID uuid.UUID, phone string, role types.UserRole) (*models.TokenPair, error) {
	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(s.accessTTL)

	claims := &models.AccessClaims{
		Phone: phone,
		Role:  role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}

	return &models.TokenPair{
		AccessToken: signed,
		ExpiresAt:   expiresAt,
	}, nil
}

// Validate parses and verifies an access token, returning its claims.
func (s *TokenService) Validate(token string) (*models.AccessClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &models.AccessClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*models.AccessClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
