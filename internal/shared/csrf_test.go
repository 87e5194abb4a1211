package shared_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comercio-cloud/comercio/internal/shared"
	_ "github.com/comercio-cloud/comercio/testing"
)

func newSession(t *testing.T) *shared.Session {
	t.Helper()
	sm, _ := newManager(t)
	sess, err := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	return sess
}

func TestCSRFTokenRoundTrip(t *testing.T) {
	cm := shared.NewCSRFManager("csrf-secret")
	sess := newSession(t)
	ctx := context.Background()

	token, err := cm.EnsureToken(ctx, sess)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// A second call returns the session's existing token.
	again, err := cm.EnsureToken(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, token, again)

	assert.NoError(t, cm.VerifyToken(ctx, sess, token))
}

func TestCSRFVerifyRejectsMismatch(t *testing.T) {
	cm := shared.NewCSRFManager("csrf-secret")
	sess := newSession(t)
	ctx := context.Background()

	_, err := cm.EnsureToken(ctx, sess)
	require.NoError(t, err)

	err = cm.VerifyToken(ctx, sess, "forged")
	assert.ErrorIs(t, err, shared.ErrCSRFTokenMismatch)
}

func TestCSRFVerifyRequiresToken(t *testing.T) {
	cm := shared.NewCSRFManager("csrf-secret")
	ctx := context.Background()

	assert.ErrorIs(t, cm.VerifyToken(ctx, nil, "anything"), shared.ErrCSRFTokenMissing)

	sess := newSession(t)
	assert.ErrorIs(t, cm.VerifyToken(ctx, sess, ""), shared.ErrCSRFTokenMissing)
}

func TestCSRFTokensDifferAcrossSessions(t *testing.T) {
	cm := shared.NewCSRFManager("csrf-secret")
	ctx := context.Background()

	a, err := cm.EnsureToken(ctx, newSession(t))
	require.NoError(t, err)
	b, err := cm.EnsureToken(ctx, newSession(t))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
