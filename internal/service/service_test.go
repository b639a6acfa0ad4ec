package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/chepyr/go-project-tracker/internal/db"
	"github.com/chepyr/go-project-tracker/shared/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	db       *sql.DB
	store    *db.Store
	projects *ProjectService
	tasks    *TaskService
	users    *UserDirectory
	resolver *Resolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn, err := sql.Open(db.SQLiteDriver, ":memory:")
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	require.NoError(t, db.Migrate(context.Background(), conn))
	t.Cleanup(func() { conn.Close() })

	store := db.NewStore(conn)
	log := zerolog.Nop()
	return &fixture{
		db:       conn,
		store:    store,
		projects: NewProjectService(store, log),
		tasks:    NewTaskService(store, log),
		users:    NewUserDirectory(store, log),
		resolver: NewResolver(store.Users, log),
	}
}

func (f *fixture) user(t *testing.T, name, email string) *models.User {
	t.Helper()
	u, err := f.users.Create(context.Background(), CreateUserInput{Email: email, Name: &name})
	require.NoError(t, err)
	return u
}

func (f *fixture) project(t *testing.T, actor *models.User, tasks ...TaskInput) *models.Project {
	t.Helper()
	p, err := f.projects.Create(context.Background(), actor, CreateProjectInput{Name: "Launch", Tasks: tasks})
	require.NoError(t, err)
	return p
}

func (f *fixture) count(t *testing.T, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.QueryRow(query, args...).Scan(&n))
	return n
}

// assignees counts the assignment rows of one task.
func (f *fixture) assignees(t *testing.T, taskID uuid.UUID) int {
	t.Helper()
	n, err := f.store.Assignments.CountByTask(context.Background(), taskID)
	require.NoError(t, err)
	return n
}

func requireKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, KindOf(err), "error: %v", err)
}

func ids(users ...*models.User) []uuid.UUID {
	out := make([]uuid.UUID, len(users))
	for i, u := range users {
		out[i] = u.ID
	}
	return out
}
