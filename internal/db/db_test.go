package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/chepyr/go-project-tracker/shared/models"
	"github.com/google/uuid"
)

// setupTestDB returns a migrated in-memory database. A single connection keeps
// every query on the same in-memory instance.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open(SQLiteDriver, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func insertUser(t *testing.T, dbx DBTX, email string) *models.User {
	t.Helper()
	now := time.Now().UTC()
	name := "user " + email
	u := &models.User{ID: uuid.New(), Name: &name, Email: email, CreatedAt: now, UpdatedAt: now}
	if err := NewUserRepository(dbx).Create(context.Background(), u); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return u
}

func insertProject(t *testing.T, dbx DBTX, creator uuid.UUID) *models.Project {
	t.Helper()
	now := time.Now().UTC()
	p := &models.Project{
		ID:        uuid.New(),
		Name:      "Project A",
		Status:    models.ProjectStatusActive,
		CreatorID: creator,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := NewProjectRepository(dbx).Create(context.Background(), p); err != nil {
		t.Fatalf("insert project: %v", err)
	}
	return p
}

func insertTask(t *testing.T, dbx DBTX, projectID uuid.UUID, title string, createdAt time.Time) *models.Task {
	t.Helper()
	task := &models.Task{
		ID:        uuid.New(),
		ProjectID: projectID,
		Title:     title,
		Status:    models.TaskStatusToDo,
		Priority:  models.TaskPriorityMedium,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if err := NewTaskRepository(dbx).Create(context.Background(), task); err != nil {
		t.Fatalf("insert task: %v", err)
	}
	return task
}

func TestConnect(t *testing.T) {
	tests := []struct {
		name          string
		driverName    string
		dsn           string
		expectedError bool
	}{
		{
			name:          "Successful connection with SQLite",
			driverName:    "sqlite3",
			dsn:           ":memory:",
			expectedError: false,
		},
		{
			name:          "Failed connection with invalid DSN",
			driverName:    "sqlite3",
			dsn:           "file::memory:?mode=invalid",
			expectedError: true,
		},
		{
			name:          "Unknown driver",
			driverName:    "nosuchdriver",
			dsn:           "",
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, err := Connect(tt.driverName, tt.dsn)

			if tt.expectedError {
				if err == nil {
					t.Error("Expected error, got none")
				}
				if conn != nil {
					t.Error("Expected nil connection on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			defer conn.Close()
			if conn.Stats().MaxOpenConnections != 10 {
				t.Errorf("Expected MaxOpenConnections to be 10, got %d", conn.Stats().MaxOpenConnections)
			}
		})
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestIsUndefinedTable(t *testing.T) {
	db, err := sql.Open(SQLiteDriver, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()

	_, err = NewUserRepository(db).GetByEmail(context.Background(), "a@example.com")
	if !IsUndefinedTable(err) {
		t.Fatalf("want undefined table error, got %v", err)
	}
	if IsUndefinedTable(sql.ErrNoRows) {
		t.Fatal("sql.ErrNoRows must not be reported as undefined table")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	db := setupTestDB(t)
	insertUser(t, db, "dup@example.com")

	now := time.Now().UTC()
	err := NewUserRepository(db).Create(context.Background(), &models.User{
		ID: uuid.New(), Email: "dup@example.com", CreatedAt: now, UpdatedAt: now,
	})
	if !IsUniqueViolation(err) {
		t.Fatalf("want unique violation, got %v", err)
	}
}

func TestStore_WithTxRollsBack(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	ctx := context.Background()
	boom := errors.New("boom")

	var created uuid.UUID
	err := store.WithTx(ctx, func(q *Queries) error {
		u := insertUser(t, txOf(q), "tx@example.com")
		created = u.ID
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	if _, err := store.Users.GetByID(ctx, created); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("want user rolled back, got %v", err)
	}
}

func TestStore_WithTxCommits(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	var created uuid.UUID
	err := store.WithTx(ctx, func(q *Queries) error {
		u := insertUser(t, txOf(q), "commit@example.com")
		created = u.ID
		return nil
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}
	if _, err := store.Users.GetByID(ctx, created); err != nil {
		t.Fatalf("want committed user, got %v", err)
	}
}

// txOf exposes the transaction behind q so test helpers can write through it.
func txOf(q *Queries) DBTX {
	return q.Users.db
}

func TestSQLiteDriver_LowerFoldsUnicode(t *testing.T) {
	db := setupTestDB(t)

	tests := []struct {
		in   any
		want sql.NullString
	}{
		{"ÁNGEL", sql.NullString{String: "ángel", Valid: true}},
		{"Straße", sql.NullString{String: "straße", Valid: true}},
		{nil, sql.NullString{}},
	}
	for _, tt := range tests {
		var got sql.NullString
		if err := db.QueryRow(`SELECT LOWER($1)`, tt.in).Scan(&got); err != nil {
			t.Fatalf("lower(%v): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("lower(%v): want %+v, got %+v", tt.in, tt.want, got)
		}
	}
}
