package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/akinalp/chanperm/models"
	"github.com/akinalp/chanperm/pkg"
)

// tokenIssuer, üretilen ve kabul edilen token'ların "iss" claim'i.
const tokenIssuer = "chanperm"

// AuthService, API erişim token'larını üretir ve doğrular.
//
// Kullanıcı hesabı yoktur: token'lar paylaşılan JWT_SECRET ile imzalanır
// ve `chanperm token <subject>` komutuyla üretilir.
type AuthService interface {
	// GenerateAccessToken, subject için HS256 imzalı bir token üretir.
	GenerateAccessToken(subject, scope string, ttl time.Duration) (string, error)
	// ValidateAccessToken, token'ı doğrular ve claims'i döner.
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
}

type authService struct {
	jwtSecret []byte
	now       func() time.Time
}

// NewAuthService, constructor.
func NewAuthService(jwtSecret string) AuthService {
	return &authService{
		jwtSecret: []byte(jwtSecret),
		now:       time.Now,
	}
}

func (s *authService) GenerateAccessToken(subject, scope string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("%w: token subject is required", pkg.ErrBadRequest)
	}

	now := s.now()
	claims := &models.TokenClaims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  subject,
			IssuedAt: jwt.NewNumericDate(now),
			Issuer:   tokenIssuer,
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

func (s *authService) ValidateAccessToken(tokenString string) (*models.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.TokenClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token", pkg.ErrUnauthorized)
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("%w: invalid token claims", pkg.ErrUnauthorized)
	}

	return claims, nil
}
