package auth

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/contactkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer(t *testing.T) *Issuer {
	t.Helper()
	i, err := NewIssuer(testSecret, "HS256", time.Hour, 7*24*time.Hour)
	require.NoError(t, err)
	return i
}

func TestNewIssuer_RejectsUnknownAlgorithm(t *testing.T) {
	_, err := NewIssuer(testSecret, "ES256", time.Hour, time.Hour)
	assert.ErrorIs(t, err, common.ErrUnsupportedAlgorithm)
}

func TestIssuer_DefaultTTL(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	i := newTestIssuer(t).WithClock(func() time.Time { return now })

	access, err := i.IssueAccessToken("alice", 0)
	require.NoError(t, err)
	refresh, err := i.IssueRefreshToken("alice", 0)
	require.NoError(t, err)

	ac, err := i.Verify(access, common.TokenTypeAccess)
	require.NoError(t, err)
	rc, err := i.Verify(refresh, common.TokenTypeRefresh)
	require.NoError(t, err)

	assert.Equal(t, now.Add(time.Hour), ac.ExpiresAt.Time.UTC())
	assert.Equal(t, now.Add(7*24*time.Hour), rc.ExpiresAt.Time.UTC())
	assert.Equal(t, now, ac.IssuedAt.Time.UTC())
	assert.Equal(t, "alice", ac.Subject)
}

func TestIssuer_ExplicitTTL(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	i := newTestIssuer(t).WithClock(func() time.Time { return now })

	token, err := i.IssueAccessToken("alice", 5*time.Minute)
	require.NoError(t, err)

	c, err := i.Verify(token, common.TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, now.Add(5*time.Minute), c.ExpiresAt.Time.UTC())
}

func TestIssuer_SameSecondTokensDiffer(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	i := newTestIssuer(t).WithClock(func() time.Time { return now })

	a, err := i.IssueRefreshToken("alice", 0)
	require.NoError(t, err)
	b, err := i.IssueRefreshToken("alice", 0)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestIssuer_TypeMismatch(t *testing.T) {
	i := newTestIssuer(t)

	access, err := i.IssueAccessToken("alice", 0)
	require.NoError(t, err)
	refresh, err := i.IssueRefreshToken("alice", 0)
	require.NoError(t, err)

	_, err = i.Verify(access, common.TokenTypeRefresh)
	assert.Equal(t, common.ErrInvalidToken, err)

	_, err = i.Verify(refresh, common.TokenTypeAccess)
	assert.Equal(t, common.ErrInvalidToken, err)
}

func TestIssuer_ExpiredByClock(t *testing.T) {
	now := time.Now()
	i := newTestIssuer(t).WithClock(func() time.Time { return now })

	token, err := i.IssueAccessToken("alice", time.Minute)
	require.NoError(t, err)

	later := i.WithClock(func() time.Time { return now.Add(2 * time.Minute) })
	_, err = later.Verify(token, common.TokenTypeAccess)
	assert.Equal(t, common.ErrInvalidToken, err)
}

func TestIssuer_EmptySubjectRejected(t *testing.T) {
	i := newTestIssuer(t)

	token, err := i.IssueAccessToken("", 0)
	require.NoError(t, err)

	_, err = i.Verify(token, common.TokenTypeAccess)
	assert.Equal(t, common.ErrInvalidToken, err)
}
