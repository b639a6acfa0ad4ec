package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/chepyr/go-project-tracker/internal/db"
	"github.com/chepyr/go-project-tracker/shared/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const maxPageSize = 100

type UserDirectory struct {
	store *db.Store
	log   zerolog.Logger
}

func NewUserDirectory(store *db.Store, log zerolog.Logger) *UserDirectory {
	return &UserDirectory{store: store, log: log.With().Str("service", "users").Logger()}
}

// List pages through every user except actor. A non-empty search matches a
// case-insensitive substring of name or email. Count and page come from the
// same snapshot.
func (d *UserDirectory) List(ctx context.Context, actor *models.User, search string, page, limit int) (*UserPage, error) {
	if page < 1 {
		return nil, BadRequest("page must be >= 1")
	}
	if limit < 1 || limit > maxPageSize {
		return nil, BadRequest(fmt.Sprintf("limit must be between 1 and %d", maxPageSize))
	}

	filter := db.UserFilter{ExcludeID: actor.ID}
	if search != "" {
		filter.Pattern = "%" + escapeLike(strings.ToLower(search)) + "%"
	}

	result := &UserPage{}
	err := d.store.WithReadTx(ctx, func(q *db.Queries) error {
		var err error
		if result.Total, err = q.Users.Count(ctx, filter); err != nil {
			return err
		}
		result.Users, err = q.Users.Search(ctx, filter, (page-1)*limit, limit)
		return err
	})
	if err != nil {
		return nil, fail(d.log, "users.list", err)
	}
	result.Pages = (result.Total + limit - 1) / limit
	return result, nil
}

// Get returns the current record of the acting user.
func (d *UserDirectory) Get(ctx context.Context, actor *models.User) (*models.User, error) {
	user, err := d.store.Users.GetByID(ctx, actor.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NotFound("User not found")
	}
	if err != nil {
		return nil, fail(d.log, "users.get", err)
	}
	return user, nil
}

func (d *UserDirectory) Update(ctx context.Context, actor *models.User, in UpdateUserInput) (*models.User, error) {
	var name *string
	if in.Name != nil {
		n, err := checkName(*in.Name, maxUserName, "Name")
		if err != nil {
			return nil, err
		}
		name = &n
	}
	var email string
	if in.Email != nil {
		var err error
		if email, err = normalizeEmail(*in.Email); err != nil {
			return nil, err
		}
	}

	var user *models.User
	err := d.store.WithTx(ctx, func(q *db.Queries) error {
		var err error
		user, err = q.Users.GetByID(ctx, actor.ID)
		if errors.Is(err, sql.ErrNoRows) {
			return NotFound("User not found")
		}
		if err != nil {
			return err
		}
		if name != nil {
			user.Name = name
		}
		if email != "" && email != user.Email {
			other, err := q.Users.GetByEmail(ctx, email)
			if err == nil && other.ID != user.ID {
				return BadRequest("Email already in use")
			}
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return err
			}
			user.Email = email
		}
		user.UpdatedAt = now()
		err = q.Users.Update(ctx, user)
		if db.IsUniqueViolation(err) {
			return BadRequest("Email already in use")
		}
		return err
	})
	if err != nil {
		return nil, fail(d.log, "users.update", err)
	}
	return user, nil
}

// Create provisions a user for an identity issued by an external provider.
func (d *UserDirectory) Create(ctx context.Context, in CreateUserInput) (*models.User, error) {
	return d.create(ctx, in, "")
}

// Register creates a user who signs in with a password. passwordHash must
// already be hashed.
func (d *UserDirectory) Register(ctx context.Context, in CreateUserInput, passwordHash string) (*models.User, error) {
	if passwordHash == "" {
		return nil, BadRequest("Password is required")
	}
	return d.create(ctx, in, passwordHash)
}

func (d *UserDirectory) create(ctx context.Context, in CreateUserInput, passwordHash string) (*models.User, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
	}
	if in.Name != nil {
		name, err := checkName(*in.Name, maxUserName, "Name")
		if err != nil {
			return nil, err
		}
		user.Name = &name
	}
	if in.ExternalID != nil {
		ext := strings.TrimSpace(*in.ExternalID)
		if ext == "" {
			return nil, BadRequest("external_id must not be empty")
		}
		user.ExternalID = &ext
	}
	user.CreatedAt = now()
	user.UpdatedAt = user.CreatedAt

	err = d.store.Users.Create(ctx, user)
	if db.IsUniqueViolation(err) {
		return nil, BadRequest("User already exists")
	}
	if err != nil {
		return nil, fail(d.log, "users.create", err)
	}
	d.log.Info().Str("user_id", user.ID.String()).Msg("user created")
	return user, nil
}

// FindByEmail returns the user with the given email, including the password
// hash, or NotFound.
func (d *UserDirectory) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := d.store.Users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NotFound("User not found")
	}
	if err != nil {
		return nil, fail(d.log, "users.find_by_email", err)
	}
	return user, nil
}

// Exists reports whether a user with the given email is registered.
func (d *UserDirectory) Exists(ctx context.Context, email string) (bool, error) {
	_, err := d.FindByEmail(ctx, email)
	if KindOf(err) == KindNotFound {
		return false, nil
	}
	return err == nil, err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
