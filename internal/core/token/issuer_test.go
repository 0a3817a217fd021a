package token

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/accounts-api/internal/core/domain"
	"github.com/99minutos/accounts-api/internal/core/ports"
)

type memBlacklist struct {
	mu      sync.Mutex
	entries map[string]ports.BlacklistEntry
	err     error
}

func newMemBlacklist() *memBlacklist {
	return &memBlacklist{entries: make(map[string]ports.BlacklistEntry)}
}

func (b *memBlacklist) Add(_ context.Context, e ports.BlacklistEntry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	if _, ok := b.entries[e.TokenID]; ok {
		return domain.ErrTokenInvalid
	}
	b.entries[e.TokenID] = e
	return nil
}

func (b *memBlacklist) Contains(_ context.Context, id string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return false, b.err
	}
	_, ok := b.entries[id]
	return ok, nil
}

func newTestIssuer(bl *memBlacklist) *Issuer {
	return NewIssuer(Config{Secret: []byte("test-secret")}, bl)
}

func TestIssuer_IssueAndVerify(t *testing.T) {
	iss := newTestIssuer(newMemBlacklist())

	pair, err := iss.Issue("user-1")
	require.NoError(t, err)
	require.NotEmpty(t, pair.Access)
	require.NotEmpty(t, pair.Refresh)

	claims, err := iss.Verify(context.Background(), pair.Access, TypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.WithinDuration(t, time.Now().Add(DefaultAccessTTL), claims.ExpiresAt.Time, 5*time.Second)

	claims, err = iss.Verify(context.Background(), pair.Refresh, TypeRefresh)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(DefaultRefreshTTL), claims.ExpiresAt.Time, 5*time.Second)
}

func TestIssuer_VerifyRejectsWrongType(t *testing.T) {
	iss := newTestIssuer(newMemBlacklist())
	pair, err := iss.Issue("user-1")
	require.NoError(t, err)

	_, err = iss.Verify(context.Background(), pair.Refresh, TypeAccess)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
	_, err = iss.Verify(context.Background(), pair.Access, TypeRefresh)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestIssuer_VerifyRejectsBadSignatureAndGarbage(t *testing.T) {
	iss := newTestIssuer(newMemBlacklist())
	other := NewIssuer(Config{Secret: []byte("other-secret")}, newMemBlacklist())

	pair, err := other.Issue("user-1")
	require.NoError(t, err)

	_, err = iss.Verify(context.Background(), pair.Access, TypeAccess)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)

	_, err = iss.Verify(context.Background(), "not-a-token", TypeAccess)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestIssuer_VerifyRejectsOtherAlgorithms(t *testing.T) {
	iss := newTestIssuer(newMemBlacklist())
	tkn := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ID: "x", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		UserID:           "user-1",
		TokenType:        TypeAccess,
	})
	signed, err := tkn.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = iss.Verify(context.Background(), signed, TypeAccess)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestIssuer_VerifyRejectsExpired(t *testing.T) {
	iss := newTestIssuer(newMemBlacklist())
	iss.now = func() time.Time { return time.Now().Add(-25 * time.Hour) }

	pair, err := iss.Issue("user-1")
	require.NoError(t, err)

	iss.now = time.Now
	_, err = iss.Verify(context.Background(), pair.Refresh, TypeRefresh)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestIssuer_RevokeBlacklistsPermanently(t *testing.T) {
	bl := newMemBlacklist()
	iss := newTestIssuer(bl)
	pair, err := iss.Issue("user-1")
	require.NoError(t, err)

	require.NoError(t, iss.Revoke(context.Background(), pair.Refresh))
	assert.Len(t, bl.entries, 1)

	_, err = iss.Verify(context.Background(), pair.Refresh, TypeRefresh)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)

	err = iss.Revoke(context.Background(), pair.Refresh)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)

	_, err = iss.Rotate(context.Background(), pair.Refresh)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestIssuer_RevokeMalformed(t *testing.T) {
	iss := newTestIssuer(newMemBlacklist())
	err := iss.Revoke(context.Background(), "garbage")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestIssuer_RotateInvalidatesOldRefresh(t *testing.T) {
	iss := newTestIssuer(newMemBlacklist())
	pair, err := iss.Issue("user-1")
	require.NoError(t, err)

	next, err := iss.Rotate(context.Background(), pair.Refresh)
	require.NoError(t, err)
	assert.NotEqual(t, pair.Refresh, next.Refresh)

	claims, err := iss.Verify(context.Background(), next.Refresh, TypeRefresh)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)

	_, err = iss.Rotate(context.Background(), pair.Refresh)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestIssuer_BlacklistFailureIsNotTokenError(t *testing.T) {
	bl := newMemBlacklist()
	iss := newTestIssuer(bl)
	pair, err := iss.Issue("user-1")
	require.NoError(t, err)

	bl.err = errors.New("store down")
	_, err = iss.Verify(context.Background(), pair.Access, TypeAccess)
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrTokenInvalid))
}
