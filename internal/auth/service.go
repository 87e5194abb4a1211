package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/comercio-cloud/comercio/internal/audit"
	"github.com/comercio-cloud/comercio/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo     Repository
	recorder audit.Recorder
	logger   *slog.Logger
}

// NewService constructs a new Service.
func NewService(repo Repository, recorder audit.Recorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, recorder: recorder, logger: logger}
}

// Authenticate validates email/password credentials. Every failure mode
// folds into ErrInvalidCredentials so responses do not leak which part
// was wrong.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Credential, error) {
	cred, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !cred.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return cred, nil
}

// RegisterLogin persists the session row and records the LOGIN entry.
// Both are bookkeeping for an already-established session, so failures
// are logged and swallowed.
func (s *Service) RegisterLogin(ctx context.Context, cred *Credential, sessionID string, expiresAt time.Time, ip, ua string) {
	if sessionID != "" {
		rec := SessionRecord{
			ID:        sessionID,
			UserID:    cred.UserID,
			CreatedAt: time.Now().UTC(),
			ExpiresAt: expiresAt,
			IP:        ip,
			UserAgent: ua,
		}
		if err := s.repo.CreateSession(ctx, rec); err != nil {
			s.logger.Warn("register session", slog.Any("error", err))
		}
	}
	s.record(ctx, cred.UserID, audit.ActionLogin, fmt.Sprintf("%s logged in", cred.Email), ip)
}

// RegisterLogout removes the session row and records the LOGOUT entry.
func (s *Service) RegisterLogout(ctx context.Context, userID int64, email, sessionID, ip string) {
	if sessionID != "" {
		if err := s.repo.DeleteSession(ctx, sessionID); err != nil {
			s.logger.Warn("remove session", slog.Any("error", err))
		}
	}
	s.record(ctx, userID, audit.ActionLogout, fmt.Sprintf("%s logged out", email), ip)
}

// PruneExpiredSessions drops expired session rows. Run from the worker.
func (s *Service) PruneExpiredSessions(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpiredSessions(ctx, time.Now().UTC())
}

func (s *Service) record(ctx context.Context, userID int64, action audit.Action, description, ip string) {
	entry := audit.Entry{
		UserID:      &userID,
		Module:      "Auth",
		Action:      action,
		Description: description,
	}
	if ip != "" {
		entry.IP = &ip
	}
	if _, err := s.recorder.Record(ctx, entry); err != nil {
		s.logger.Error("audit record failed", slog.String("action", string(action)), slog.Any("error", err))
	}
}
