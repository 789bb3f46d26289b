package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/citizen-api/internal/model"
)

const testSecret = "0123456789abcdef0123"

func TestRoundTrip(t *testing.T) {
	svc := NewJWTService(Config{Secret: testSecret, Issuer: "citizen-portal", Expiry: time.Hour})
	division := uuid.New()
	actor := model.Actor{UserID: uuid.New(), Role: model.RoleOfficer, DivisionID: &division, Email: "officer@gov.lk"}

	token, err := svc.GenerateAccessToken(actor)
	require.NoError(t, err)

	got, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, actor, got)
}

func TestValidateTokenRejects(t *testing.T) {
	svc := NewJWTService(Config{Secret: testSecret, Issuer: "citizen-portal", Expiry: time.Hour})
	citizen := model.Actor{UserID: uuid.New(), Role: model.RoleCitizen}

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService(Config{Secret: "another-secret-value", Issuer: "citizen-portal"})
		token, err := other.GenerateAccessToken(citizen)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTService(Config{Secret: testSecret, Issuer: "someone-else"})
		token, err := other.GenerateAccessToken(citizen)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		old := NewJWTService(Config{Secret: testSecret, Issuer: "citizen-portal", Expiry: time.Minute})
		old.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, err := old.GenerateAccessToken(citizen)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unsigned", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: citizen.UserID.String(), Issuer: "citizen-portal"},
			Role:             model.RoleAdmin,
		})
		signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = svc.ValidateToken(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestGenerateRejectsUnknownRole(t *testing.T) {
	svc := NewJWTService(Config{Secret: testSecret})
	_, err := svc.GenerateAccessToken(model.Actor{UserID: uuid.New(), Role: "ROOT"})
	assert.Error(t, err)
}
