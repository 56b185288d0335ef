package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/aura-hr/portal/internal/models"
)

func TestJWTRoundTrip(t *testing.T) {
	svc := NewJWTService("s3cret", 1)
	sess := &Session{ID: "sid-1", Actor: Actor{UserID: "u1", Role: models.RoleManager, Token: "backend-token"}}

	value, err := svc.Generate(sess)
	require.NoError(t, err)
	require.NotContains(t, value, "backend-token")

	claims, err := svc.Validate(value)
	require.NoError(t, err)
	require.Equal(t, "sid-1", claims.SessionID)
	require.Equal(t, "u1", claims.UserID)
	require.Equal(t, "manager", claims.Role)
	require.Equal(t, time.Hour, svc.Expiry())
}

func TestJWTRejects(t *testing.T) {
	svc := NewJWTService("s3cret", 1)
	good, err := svc.Generate(&Session{ID: "sid-1"})
	require.NoError(t, err)

	other, err := NewJWTService("different", 1).Generate(&Session{ID: "sid-1"})
	require.NoError(t, err)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		SessionID: "sid-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	noSession, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "u1"}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{SessionID: "sid-1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"tampered":      good[:len(good)-2] + "xx",
		"wrong secret":  other,
		"expired":       expired,
		"no session id": noSession,
		"alg none":      unsigned,
		"garbage":       "not-a-jwt",
		"empty":         "",
	}
	for name, value := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Validate(value)
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
