package mail

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestSigner_RoundTrip(t *testing.T) {
	s, err := NewSigner(testSecret, "daily-bread", 0)
	require.NoError(t, err)

	token, err := s.UnsubscribeToken(42)
	require.NoError(t, err)

	id, err := s.ParseUnsubscribe(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
}

func TestSigner_Rejects(t *testing.T) {
	s, err := NewSigner(testSecret, "daily-bread", time.Hour)
	require.NoError(t, err)
	token, err := s.UnsubscribeToken(42)
	require.NoError(t, err)

	other, err := NewSigner("ffffffffffffffffffffffffffffffff", "daily-bread", time.Hour)
	require.NoError(t, err)
	_, err = other.ParseUnsubscribe(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "wrong secret")

	_, err = s.ParseUnsubscribe(token + "x")
	assert.ErrorIs(t, err, ErrInvalidToken, "tampered")

	_, err = s.ParseUnsubscribe("")
	assert.ErrorIs(t, err, ErrInvalidToken, "empty")

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = s.ParseUnsubscribe(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "expired")
}

func TestNewSigner_ShortSecret(t *testing.T) {
	_, err := NewSigner("short", "x", 0)
	assert.Error(t, err)
}
