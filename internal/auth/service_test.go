package auth_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/comercio-cloud/comercio/internal/audit"
	"github.com/comercio-cloud/comercio/internal/auth"
	"github.com/comercio-cloud/comercio/internal/shared"
	_ "github.com/comercio-cloud/comercio/testing"
)

type stubRepo struct {
	cred     *auth.Credential
	sessions map[string]auth.SessionRecord
}

func newStubRepo(cred *auth.Credential) *stubRepo {
	return &stubRepo{cred: cred, sessions: make(map[string]auth.SessionRecord)}
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.Credential, error) {
	if s.cred == nil || s.cred.Email != email {
		return nil, shared.ErrNotFound
	}
	return s.cred, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, rec auth.SessionRecord) error {
	s.sessions[rec.ID] = rec
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

func (s *stubRepo) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	var removed int64
	for id, rec := range s.sessions {
		if rec.ExpiresAt.Before(before) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

type memRecorder struct {
	entries []audit.Entry
}

func (r *memRecorder) Record(ctx context.Context, entry audit.Entry) (audit.Entry, error) {
	entry.ID = int64(len(r.entries) + 1)
	r.entries = append(r.entries, entry)
	return entry, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func activeCredential(t *testing.T, email, password string) *auth.Credential {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &auth.Credential{UserID: 7, Email: email, PasswordHash: string(hash), IsActive: true}
}

func TestAuthenticateSuccess(t *testing.T) {
	cred := activeCredential(t, "user@example.com", "s3cret-pass")
	svc := auth.NewService(newStubRepo(cred), &memRecorder{}, discardLogger())

	got, err := svc.Authenticate(context.Background(), "user@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.UserID != 7 {
		t.Fatalf("unexpected credential %+v", got)
	}
}

func TestAuthenticateFailuresFoldTogether(t *testing.T) {
	cred := activeCredential(t, "user@example.com", "s3cret-pass")
	inactive := activeCredential(t, "inactive@example.com", "s3cret-pass")
	inactive.IsActive = false

	cases := []struct {
		name     string
		repo     auth.Repository
		email    string
		password string
	}{
		{"unknown email", newStubRepo(cred), "ghost@example.com", "s3cret-pass"},
		{"wrong password", newStubRepo(cred), "user@example.com", "wrong-pass"},
		{"inactive account", newStubRepo(inactive), "inactive@example.com", "s3cret-pass"},
	}
	for _, tc := range cases {
		recorder := &memRecorder{}
		svc := auth.NewService(tc.repo, recorder, discardLogger())
		_, err := svc.Authenticate(context.Background(), tc.email, tc.password)
		if !errors.Is(err, shared.ErrInvalidCredentials) {
			t.Fatalf("%s: expected ErrInvalidCredentials, got %v", tc.name, err)
		}
		if len(recorder.entries) != 0 {
			t.Fatalf("%s: failed attempt must not write to the bitacora", tc.name)
		}
	}
}

func TestRegisterLoginWritesSessionAndAudit(t *testing.T) {
	cred := activeCredential(t, "user@example.com", "s3cret-pass")
	repo := newStubRepo(cred)
	recorder := &memRecorder{}
	svc := auth.NewService(repo, recorder, discardLogger())

	svc.RegisterLogin(context.Background(), cred, "sess-1", time.Now().Add(time.Hour), "10.0.0.1", "cli")

	if _, ok := repo.sessions["sess-1"]; !ok {
		t.Fatalf("expected session row persisted")
	}
	if len(recorder.entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(recorder.entries))
	}
	entry := recorder.entries[0]
	if entry.Action != audit.ActionLogin {
		t.Fatalf("expected LOGIN action, got %s", entry.Action)
	}
	if entry.UserID == nil || *entry.UserID != 7 {
		t.Fatalf("expected user recorded, got %v", entry.UserID)
	}
	if entry.IP == nil || *entry.IP != "10.0.0.1" {
		t.Fatalf("expected origin recorded, got %v", entry.IP)
	}
}

func TestRegisterLogoutRemovesSessionAndAudits(t *testing.T) {
	cred := activeCredential(t, "user@example.com", "s3cret-pass")
	repo := newStubRepo(cred)
	recorder := &memRecorder{}
	svc := auth.NewService(repo, recorder, discardLogger())

	svc.RegisterLogin(context.Background(), cred, "sess-1", time.Now().Add(time.Hour), "", "")
	svc.RegisterLogout(context.Background(), cred.UserID, cred.Email, "sess-1", "")

	if _, ok := repo.sessions["sess-1"]; ok {
		t.Fatalf("expected session row removed")
	}
	if len(recorder.entries) != 2 {
		t.Fatalf("expected LOGIN and LOGOUT entries, got %d", len(recorder.entries))
	}
	if recorder.entries[1].Action != audit.ActionLogout {
		t.Fatalf("expected LOGOUT action, got %s", recorder.entries[1].Action)
	}
}

func TestPruneExpiredSessions(t *testing.T) {
	cred := activeCredential(t, "user@example.com", "s3cret-pass")
	repo := newStubRepo(cred)
	svc := auth.NewService(repo, &memRecorder{}, discardLogger())

	svc.RegisterLogin(context.Background(), cred, "old", time.Now().Add(-time.Hour), "", "")
	svc.RegisterLogin(context.Background(), cred, "fresh", time.Now().Add(time.Hour), "", "")

	removed, err := svc.PruneExpiredSessions(context.Background())
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected one pruned session, got %d", removed)
	}
	if _, ok := repo.sessions["fresh"]; !ok {
		t.Fatalf("expected live session kept")
	}
}
