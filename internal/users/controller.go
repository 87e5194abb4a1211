package users

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/comercio-cloud/comercio/internal/audit"
	"github.com/comercio-cloud/comercio/internal/authz"
	"github.com/comercio-cloud/comercio/internal/lifecycle"
	"github.com/comercio-cloud/comercio/internal/shared"
)

// NewController builds the user lifecycle controller. Hooks turn the raw
// password carried in PasswordHash into a bcrypt hash before persistence;
// an empty password on update keeps the stored hash.
func NewController(authorizer lifecycle.Authorizer, store lifecycle.Store[*User], recorder audit.Recorder, logger *slog.Logger) *lifecycle.Controller[*User] {
	return lifecycle.New(ModuleName, authorizer, store, recorder, logger).WithHooks(lifecycle.Hooks[*User]{
		BeforeCreate: func(ctx context.Context, p *authz.Principal, item *User) error {
			if item.PasswordHash == "" {
				return shared.ErrValidation
			}
			return hashPassword(item)
		},
		BeforeUpdate: func(ctx context.Context, p *authz.Principal, existing, item *User) error {
			if item.PasswordHash == "" {
				item.PasswordHash = existing.PasswordHash
				return nil
			}
			return hashPassword(item)
		},
		Describe: func(action audit.Action, item *User) string {
			return fmt.Sprintf("%s %s (#%d)", ModuleName, item.Email, item.ID)
		},
	})
}

func hashPassword(item *User) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(item.PasswordHash), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	item.PasswordHash = string(hash)
	return nil
}
