package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/chepyr/go-project-tracker/internal/db"
	"github.com/chepyr/go-project-tracker/shared/models"
	"github.com/rs/zerolog"
)

// Resolver maps a session subject to the application's user record. The
// subject may be either the primary user id or an external provider id.
type Resolver struct {
	users db.UserRepositoryInterface
	log   zerolog.Logger
}

func NewResolver(users db.UserRepositoryInterface, log zerolog.Logger) *Resolver {
	return &Resolver{users: users, log: log}
}

// Resolve finds the user by subject, falling back to email. It never writes.
func (r *Resolver) Resolve(ctx context.Context, subject, email string) (*models.User, error) {
	if subject == "" {
		return nil, Unauthorized("Not authenticated")
	}

	user, err := r.users.GetBySubject(ctx, subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fail(r.log, "resolve.subject", err)
	}

	if email != "" {
		user, err = r.users.GetByEmail(ctx, email)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fail(r.log, "resolve.email", err)
		}
	}
	return nil, NotFound("User not found in database")
}
