package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so repositories work the
// same inside and outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries groups the repositories bound to one DBTX.
type Queries struct {
	Users       *UserRepository
	Projects    *ProjectRepository
	Tasks       *TaskRepository
	Assignments *AssignmentRepository
	Tags        *TagRepository
}

func newQueries(q DBTX) *Queries {
	return &Queries{
		Users:       NewUserRepository(q),
		Projects:    NewProjectRepository(q),
		Tasks:       NewTaskRepository(q),
		Assignments: NewAssignmentRepository(q),
		Tags:        NewTagRepository(q),
	}
}

type Store struct {
	*Queries
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{Queries: newQueries(db), db: db}
}

// WithTx runs fn inside a read-write transaction. The transaction is rolled
// back when fn returns an error and committed otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(q *Queries) error) error {
	return s.runTx(ctx, nil, fn)
}

// WithReadTx runs fn in a read-only transaction at repeatable read, so every
// query inside fn observes the same snapshot.
func (s *Store) WithReadTx(ctx context.Context, fn func(q *Queries) error) error {
	return s.runTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}, fn)
}

func (s *Store) runTx(ctx context.Context, opts *sql.TxOptions, fn func(q *Queries) error) error {
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(newQueries(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// placeholders returns "$start, $start+1, ..." for n arguments.
func placeholders(start, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(parts, ", ")
}

func anySlice[T any](values []T) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
