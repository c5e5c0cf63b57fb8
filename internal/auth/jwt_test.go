package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axellelanca/redirector/internal/auth"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := auth.NewJWTManager("secret")

	token, err := m.Issue(auth.Identity{OwnerID: "alice", Admin: true}, time.Hour)
	require.NoError(t, err)

	id, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, auth.Identity{OwnerID: "alice", Admin: true}, id)
}

func TestJWTManager_Rejects(t *testing.T) {
	m := auth.NewJWTManager("secret")

	expired, err := m.Issue(auth.Identity{OwnerID: "alice"}, -time.Minute)
	require.NoError(t, err)

	foreign, err := auth.NewJWTManager("other").Issue(auth.Identity{OwnerID: "alice"}, time.Hour)
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "alice"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"expired":      expired,
		"wrong secret": foreign,
		"alg none":     unsigned,
		"garbage":      "not-a-token",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := m.Verify(token)
			assert.Error(t, err)
		})
	}
}

func TestIdentity(t *testing.T) {
	assert.True(t, auth.Identity{}.Anonymous())
	assert.False(t, auth.Identity{Admin: true}.Anonymous())
	assert.Nil(t, auth.Identity{Admin: true}.Owner())

	owner := auth.Identity{OwnerID: "alice"}.Owner()
	require.NotNil(t, owner)
	assert.Equal(t, "alice", *owner)
}
