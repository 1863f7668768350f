package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestIssuer(ttl time.Duration) *Issuer {
	return NewIssuer(testSecret, "movie-catalog-service", "movie-catalog-api", ttl)
}

func TestIssueAndParseRoundTrip(t *testing.T) {
	issuer := newTestIssuer(15 * time.Minute)

	signed, err := issuer.Issue(42, "alice@example.com", "member")
	require.NoError(t, err)

	claims, err := issuer.Parse(signed)
	require.NoError(t, err)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "member", claims.Role)
	assert.NotEmpty(t, claims.ID, "jti must be set")
}

func TestEveryTokenCarriesFreshJTI(t *testing.T) {
	issuer := newTestIssuer(15 * time.Minute)

	a, err := issuer.Issue(1, "a@example.com", "member")
	require.NoError(t, err)
	b, err := issuer.Issue(1, "a@example.com", "member")
	require.NoError(t, err)

	ca, err := issuer.Parse(a)
	require.NoError(t, err)
	cb, err := issuer.Parse(b)
	require.NoError(t, err)
	assert.NotEqual(t, ca.ID, cb.ID)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	issuer := newTestIssuer(15 * time.Minute)
	other := NewIssuer("another-secret-another-secret-32", "movie-catalog-service", "movie-catalog-api", 15*time.Minute)

	signed, err := issuer.Issue(42, "alice@example.com", "member")
	require.NoError(t, err)

	_, err = other.Parse(signed)
	assert.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	issuer := newTestIssuer(-time.Minute)

	signed, err := issuer.Issue(42, "alice@example.com", "member")
	require.NoError(t, err)

	_, err = issuer.Parse(signed)
	assert.Error(t, err)
}

func TestParseRejectsForeignIssuerAndAudience(t *testing.T) {
	issuer := newTestIssuer(15 * time.Minute)

	foreignIssuer := NewIssuer(testSecret, "someone-else", "movie-catalog-api", 15*time.Minute)
	signed, err := foreignIssuer.Issue(42, "alice@example.com", "member")
	require.NoError(t, err)
	_, err = issuer.Parse(signed)
	assert.ErrorIs(t, err, ErrWrongIssuer)

	foreignAudience := NewIssuer(testSecret, "movie-catalog-service", "some-other-api", 15*time.Minute)
	signed, err = foreignAudience.Issue(42, "alice@example.com", "member")
	require.NoError(t, err)
	_, err = issuer.Parse(signed)
	assert.ErrorIs(t, err, ErrWrongAudience)
}
