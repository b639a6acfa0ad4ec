package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/chepyr/go-project-tracker/shared/models"
	"github.com/google/uuid"
)

// UserRepositoryInterface is the lookup surface identity resolution needs.
type UserRepositoryInterface interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetBySubject(ctx context.Context, subject string) (*models.User, error)
}

var _ UserRepositoryInterface = (*UserRepository)(nil)

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, external_id, name, email, email_verified, COALESCE(password_hash, ''), created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.ExternalID, &user.Name, &user.Email, &user.EmailVerified,
		&user.PasswordHash, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (id, external_id, name, email, email_verified, password_hash, created_at, updated_at)
	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	var hash *string
	if user.PasswordHash != "" {
		hash = &user.PasswordHash
	}
	_, err := r.db.ExecContext(
		ctx, query, user.ID, user.ExternalID, user.Name, user.Email, user.EmailVerified,
		hash, user.CreatedAt, user.UpdatedAt)
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

// GetBySubject finds the user whose primary id or external provider id equals
// subject. A subject that is not a UUID can only match external_id.
func (r *UserRepository) GetBySubject(ctx context.Context, subject string) (*models.User, error) {
	var primary uuid.NullUUID
	if id, err := uuid.Parse(subject); err == nil {
		primary = uuid.NullUUID{UUID: id, Valid: true}
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 OR external_id = $2
	 ORDER BY created_at LIMIT 1`
	return scanUser(r.db.QueryRowContext(ctx, query, primary, subject))
}

// Update writes name and email. Returns sql.ErrNoRows when the user is gone.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	query := `UPDATE users SET name = $1, email = $2, updated_at = $3 WHERE id = $4`
	res, err := r.db.ExecContext(ctx, query, user.Name, user.Email, user.UpdatedAt, user.ID)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// CountExisting returns how many of ids belong to existing users.
func (r *UserRepository) CountExisting(ctx context.Context, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := `SELECT COUNT(*) FROM users WHERE id IN (` + placeholders(1, len(ids)) + `)`
	var count int
	err := r.db.QueryRowContext(ctx, query, anySlice(ids)...).Scan(&count)
	return count, err
}

// UserFilter narrows directory queries. Pattern is a lowercase LIKE pattern
// with '\' as escape character; empty means no text filter.
type UserFilter struct {
	ExcludeID uuid.UUID
	Pattern   string
}

func (f UserFilter) where() (string, []any) {
	clause := `id <> $1`
	args := []any{f.ExcludeID}
	if f.Pattern != "" {
		clause += ` AND (LOWER(COALESCE(name, '')) LIKE $2 ESCAPE '\' OR LOWER(email) LIKE $2 ESCAPE '\')`
		args = append(args, f.Pattern)
	}
	return clause, args
}

func (r *UserRepository) Count(ctx context.Context, filter UserFilter) (int, error) {
	where, args := filter.where()
	var total int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE `+where, args...).Scan(&total)
	return total, err
}

// Search returns one page of user summaries ordered by name, email, id.
func (r *UserRepository) Search(ctx context.Context, filter UserFilter, offset, limit int) ([]models.UserSummary, error) {
	where, args := filter.where()
	n := len(args)
	query := fmt.Sprintf(`SELECT id, name, email FROM users WHERE %s
	 ORDER BY COALESCE(name, '') ASC, email ASC, id ASC LIMIT $%d OFFSET $%d`, where, n+1, n+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.UserSummary{}
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(&u.ID, &u.Name, &u.Email); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
