package server

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jonathan/job-autopilot/internal/config"
	"github.com/jonathan/job-autopilot/internal/server/middleware"
)

// Claims are the JWT claims issued by the external auth system. Only the
// owner ID matters here.
type Claims struct {
	OwnerID uuid.UUID `json:"user_id"`
	jwt.RegisteredClaims
}

// GetOwnerID implements middleware.OwnerIDGetter.
func (c *Claims) GetOwnerID() uuid.UUID {
	return c.OwnerID
}

// JWTService validates bearer tokens. Token issuance belongs to the
// external auth system; this service never signs anything.
type JWTService struct {
	config *config.JWTConfig
}

// NewJWTService creates a JWT validator with the given configuration.
func NewJWTService(cfg *config.JWTConfig) *JWTService {
	return &JWTService{config: cfg}
}

// ValidateToken validates a JWT token and returns its claims.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("token string is empty")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}
	if claims.OwnerID == uuid.Nil {
		return nil, fmt.Errorf("token carries no owner id")
	}
	return claims, nil
}

// AsTokenValidator adapts the service to the middleware interface without
// an import cycle.
func (s *JWTService) AsTokenValidator() middleware.TokenValidator {
	return &jwtServiceValidator{service: s}
}

type jwtServiceValidator struct {
	service *JWTService
}

func (v *jwtServiceValidator) ValidateToken(tokenString string) (middleware.OwnerIDGetter, error) {
	claims, err := v.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
