package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/chepyr/go-project-tracker/internal/db"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	require.Equal(t, KindNotFound, KindOf(NotFound("x")))
	require.Equal(t, KindForbidden, KindOf(fmt.Errorf("wrapped: %w", Forbidden("x"))))
	require.Equal(t, KindInternal, KindOf(errors.New("plain")))
	require.Equal(t, "Internal server error", MessageOf(errors.New("plain")))
}

func TestInternal_MissingTable(t *testing.T) {
	conn, err := sql.Open(db.SQLiteDriver, ":memory:")
	require.NoError(t, err)
	defer conn.Close()

	_, err = db.NewUserRepository(conn).GetByEmail(context.Background(), "a@example.com")
	require.Error(t, err)

	e := Internal(err)
	require.Equal(t, KindInternal, e.Kind)
	require.Equal(t, "Database table not found. Please contact support.", e.Message)
	require.ErrorIs(t, e, err)
}
