package token

import (
	"strings"
	"testing"
	"time"

	"github.com/benvon/newsfeed/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testSecret = []byte("0123456789abcdef0123456789abcdef")
	baseTime   = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestCodec_RoundTrip(t *testing.T) {
	t.Parallel()

	identities := []models.Identity{
		{Subject: "42", Email: "alice@example.com", Name: "Alice A", PreferredUsername: "alice"},
		{Subject: "abc-123"},
		{Subject: "7", Name: "Zoë Ünïcode"},
	}

	for _, id := range identities {
		t.Run(id.Subject, func(t *testing.T) {
			t.Parallel()

			issuer := NewCodec(testSecret, WithClock(fixedClock(baseTime)))
			tok, err := issuer.Issue(id)
			require.NoError(t, err)

			verifier := NewCodec(testSecret, WithClock(fixedClock(baseTime.Add(time.Hour))))
			claims, err := verifier.Verify(tok)
			require.NoError(t, err)
			assert.Equal(t, id, claims.Identity)
			assert.Equal(t, baseTime, claims.IssuedAt.UTC())
			assert.Equal(t, baseTime.Add(DefaultTTL), claims.ExpiresAt.UTC())
		})
	}
}

func TestCodec_Expired(t *testing.T) {
	t.Parallel()

	tok, err := NewCodec(testSecret, WithClock(fixedClock(baseTime))).Issue(models.Identity{Subject: "42"})
	require.NoError(t, err)

	for _, after := range []time.Duration{DefaultTTL + time.Second, 48 * time.Hour, 365 * 24 * time.Hour} {
		claims, err := NewCodec(testSecret, WithClock(fixedClock(baseTime.Add(after)))).Verify(tok)
		assert.Nil(t, claims)
		require.Error(t, err)
		assert.True(t, IsExpired(err), "expected expiry after %s, got %v", after, err)
	}
}

func TestCodec_ExpiredEvenWithWrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewCodec([]byte("another-secret-another-secret-xx"), WithClock(fixedClock(baseTime))).Issue(models.Identity{Subject: "42"})
	require.NoError(t, err)

	_, err = NewCodec(testSecret, WithClock(fixedClock(baseTime.Add(48*time.Hour)))).Verify(tok)
	require.Error(t, err)
	var inv *InvalidError
	require.ErrorAs(t, err, &inv)
}

func TestCodec_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewCodec([]byte("another-secret-another-secret-xx"), WithClock(fixedClock(baseTime))).Issue(models.Identity{Subject: "42"})
	require.NoError(t, err)

	claims, err := NewCodec(testSecret, WithClock(fixedClock(baseTime))).Verify(tok)
	assert.Nil(t, claims)
	var inv *InvalidError
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, ReasonMalformed, inv.Reason)
	assert.False(t, IsExpired(err))
}

func TestCodec_Malformed(t *testing.T) {
	t.Parallel()

	codec := NewCodec(testSecret, WithClock(fixedClock(baseTime)))
	valid, err := codec.Issue(models.Identity{Subject: "42"})
	require.NoError(t, err)
	parts := strings.Split(valid, ".")
	require.Len(t, parts, 3)

	inputs := map[string]string{
		"empty":            "",
		"garbage":          "not-a-token",
		"two segments":     parts[0] + "." + parts[1],
		"tampered payload": parts[0] + "." + parts[1] + "x." + parts[2],
		"unsigned":         parts[0] + "." + parts[1] + ".",
	}

	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			claims, err := codec.Verify(in)
			assert.Nil(t, claims)
			var inv *InvalidError
			require.ErrorAs(t, err, &inv)
			assert.Equal(t, ReasonMalformed, inv.Reason)
		})
	}
}

func TestCodec_IssueRequiresSubject(t *testing.T) {
	t.Parallel()

	_, err := NewCodec(testSecret).Issue(models.Identity{Email: "a@example.com"})
	require.Error(t, err)
}

func TestCodec_CustomTTL(t *testing.T) {
	t.Parallel()

	codec := NewCodec(testSecret, WithClock(fixedClock(baseTime)), WithTTL(time.Minute))
	tok, err := codec.Issue(models.Identity{Subject: "42"})
	require.NoError(t, err)

	_, err = NewCodec(testSecret, WithClock(fixedClock(baseTime.Add(2*time.Minute)))).Verify(tok)
	assert.True(t, IsExpired(err))
}

func TestInvalidError_Message(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "invalid token: expired", (&InvalidError{Reason: ReasonExpired}).Error())
}
