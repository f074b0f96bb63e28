package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJwtRoundtrip(t *testing.T) {
	svc := New("test-key", time.Hour)

	token, err := svc.NewToken(Claims{StudentId: "s123", Moderator: true})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.DecodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, "s123", claims.StudentId)
	assert.True(t, claims.Moderator)
	assert.False(t, claims.Admin)
}

func TestJwtRejectsWrongKey(t *testing.T) {
	issuer := New("key-a", time.Hour)
	verifier := New("key-b", time.Hour)

	token, err := issuer.NewToken(Claims{StudentId: "s123"})
	require.NoError(t, err)

	_, err = verifier.DecodeToken(token)
	assert.Error(t, err)
}

func TestJwtRejectsExpiredToken(t *testing.T) {
	svc := New("test-key", -time.Minute)

	token, err := svc.NewToken(Claims{StudentId: "s123"})
	require.NoError(t, err)

	_, err = svc.DecodeToken(token)
	assert.Error(t, err)
}

func TestJwtRejectsGarbage(t *testing.T) {
	svc := New("test-key", time.Hour)

	_, err := svc.DecodeToken("not.a.token")
	assert.Error(t, err)
}

func TestJwtRejectsMissingSubject(t *testing.T) {
	svc := New("test-key", time.Hour)

	token, err := svc.NewToken(Claims{})
	require.NoError(t, err)

	_, err = svc.DecodeToken(token)
	assert.Error(t, err)
}
