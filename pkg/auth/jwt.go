package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jwalitptl/citizen-api/internal/model"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carries the actor context inside a signed access token.
type Claims struct {
	jwt.RegisteredClaims
	Role       string `json:"role"`
	DivisionID string `json:"division_id,omitempty"`
	Email      string `json:"email,omitempty"`
}

type Config struct {
	Secret string
	Issuer string
	Expiry time.Duration
}

// JWTService signs and verifies HS256 access tokens.
type JWTService struct {
	secret []byte
	issuer string
	expiry time.Duration
	now    func() time.Time
}

func NewJWTService(cfg Config) *JWTService {
	expiry := cfg.Expiry
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &JWTService{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		expiry: expiry,
		now:    time.Now,
	}
}

// GenerateAccessToken issues a token for actor.
func (s *JWTService) GenerateAccessToken(actor model.Actor) (string, error) {
	if !model.ValidRole(actor.Role) {
		return "", fmt.Errorf("unknown role %q", actor.Role)
	}

	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.UserID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			ID:        uuid.NewString(),
		},
		Role:  actor.Role,
		Email: actor.Email,
	}
	if actor.DivisionID != nil {
		claims.DivisionID = actor.DivisionID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies tokenStr and returns the actor it names.
func (s *JWTService) ValidateToken(tokenStr string) (model.Actor, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return model.Actor{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.Actor{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	if !model.ValidRole(claims.Role) {
		return model.Actor{}, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}

	actor := model.Actor{UserID: userID, Role: claims.Role, Email: claims.Email}
	if claims.DivisionID != "" {
		divisionID, err := uuid.Parse(claims.DivisionID)
		if err != nil {
			return model.Actor{}, fmt.Errorf("%w: bad division", ErrInvalidToken)
		}
		actor.DivisionID = &divisionID
	}
	return actor, nil
}
