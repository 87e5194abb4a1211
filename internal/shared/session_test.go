package shared_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/comercio-cloud/comercio/internal/shared"
	_ "github.com/comercio-cloud/comercio/testing"
)

func newManager(t *testing.T) (*shared.SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return shared.NewSessionManager(client, "test_session", "secret", time.Hour, false), mr
}

func TestSessionRoundTripByCookie(t *testing.T) {
	sm, _ := newManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	sess.SetUser("42")
	sess.Set("k", "v")

	res := httptest.NewRecorder()
	if err := sm.Commit(ctx, res, req, sess); err != nil {
		t.Fatalf("commit: %v", err)
	}

	var cookie *http.Cookie
	for _, c := range res.Result().Cookies() {
		if c.Name == sm.CookieName() {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value == "" {
		t.Fatalf("expected session cookie set")
	}

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(cookie)
	reloaded, err := sm.Load(ctx, next)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.User() != "42" {
		t.Fatalf("expected user preserved, got %q", reloaded.User())
	}
	if reloaded.Get("k") != "v" {
		t.Fatalf("expected value preserved, got %q", reloaded.Get("k"))
	}
}

func TestSessionLoadByBearerToken(t *testing.T) {
	sm, _ := newManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	sess.SetUser("7")
	if err := sm.Commit(ctx, httptest.NewRecorder(), req, sess); err != nil {
		t.Fatalf("commit: %v", err)
	}

	api := httptest.NewRequest(http.MethodGet, "/", nil)
	api.Header.Set("Authorization", "Bearer "+sess.ID)
	reloaded, err := sm.Load(ctx, api)
	if err != nil {
		t.Fatalf("load by bearer: %v", err)
	}
	if reloaded.User() != "7" {
		t.Fatalf("expected bearer token to resolve the session, got user %q", reloaded.User())
	}
}

func TestSessionDestroyRemovesState(t *testing.T) {
	sm, mr := newManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, _ := sm.Load(ctx, req)
	sess.SetUser("7")
	if err := sm.Commit(ctx, httptest.NewRecorder(), req, sess); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if len(mr.Keys()) == 0 {
		t.Fatalf("expected session key in redis")
	}

	sm.Destroy(sess)
	if err := sm.Commit(ctx, httptest.NewRecorder(), req, sess); err != nil {
		t.Fatalf("destroy commit: %v", err)
	}
	if len(mr.Keys()) != 0 {
		t.Fatalf("expected session removed from redis, keys: %v", mr.Keys())
	}
}

func TestSessionExpiresWithTTL(t *testing.T) {
	sm, mr := newManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, _ := sm.Load(ctx, req)
	sess.SetUser("7")
	if err := sm.Commit(ctx, httptest.NewRecorder(), req, sess); err != nil {
		t.Fatalf("commit: %v", err)
	}

	mr.FastForward(2 * time.Hour)

	again := httptest.NewRequest(http.MethodGet, "/", nil)
	again.Header.Set("Authorization", "Bearer "+sess.ID)
	reloaded, err := sm.Load(ctx, again)
	if err != nil {
		t.Fatalf("load expired: %v", err)
	}
	if reloaded.User() != "" {
		t.Fatalf("expected a fresh session after expiry, got user %q", reloaded.User())
	}
}
