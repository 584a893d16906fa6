package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/infrastructure/config"
)

// Common errors
var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
	ErrTokenNotYetValid   = errors.New("token is not yet valid")
	ErrInvalidClaims      = errors.New("invalid token claims")
	ErrMissingCustomerID  = errors.New("missing customer_id in claims")
	ErrInvalidCustomerID  = errors.New("customer_id is not a uuid")
	ErrSigningKeyTooShort = errors.New("jwt secret must be at least 32 bytes")
)

// Claims carries the authenticated customer. Admin grants the back-office
// catalog writes.
type Claims struct {
	jwt.RegisteredClaims
	CustomerID string `json:"customer_id"`
	Email      string `json:"email,omitempty"`
	Admin      bool   `json:"admin,omitempty"`
}

// CustomerUUID parses the customer ID claim
func (c *Claims) CustomerUUID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.CustomerID)
	if err != nil {
		return uuid.Nil, ErrInvalidCustomerID
	}
	return id, nil
}

// ExpiresAtTime returns the expiry, or the zero time when unset
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt != nil {
		return c.ExpiresAt.Time
	}
	return time.Time{}
}

// TokenInput describes the customer a token is issued for
type TokenInput struct {
	CustomerID uuid.UUID
	Email      string
	Admin      bool
}

// AccessToken is a signed bearer token
type AccessToken struct {
	Token     string    `json:"access_token"`
	ExpiresAt time.Time `json:"expires_at"`
	TokenType string    `json:"token_type"`
}

// JWTService issues and validates HS256 customer access tokens
type JWTService struct {
	secret     []byte
	expiration time.Duration
	issuer     string
	now        func() time.Time
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret:     []byte(cfg.Secret),
		expiration: cfg.AccessTokenExpiration,
		issuer:     cfg.Issuer,
		now:        time.Now,
	}
}

// GenerateAccessToken signs a token for the given customer
func (s *JWTService) GenerateAccessToken(input TokenInput) (*AccessToken, error) {
	if len(s.secret) < 32 {
		return nil, ErrSigningKeyTooShort
	}
	now := s.now()
	expiresAt := now.Add(s.expiration)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   input.CustomerID.String(),
			Audience:  jwt.ClaimStrings{s.issuer},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		CustomerID: input.CustomerID.String(),
		Email:      input.Email,
		Admin:      input.Admin,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}
	return &AccessToken{Token: signed, ExpiresAt: expiresAt, TokenType: "Bearer"}, nil
}

// ValidateAccessToken verifies signature, issuer and time claims and
// returns the customer claims.
func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.CustomerID == "" {
		return nil, ErrMissingCustomerID
	}
	if _, err := claims.CustomerUUID(); err != nil {
		return nil, err
	}
	return claims, nil
}

// AccessTokenExpiration returns the configured token lifetime
func (s *JWTService) AccessTokenExpiration() time.Duration {
	return s.expiration
}
