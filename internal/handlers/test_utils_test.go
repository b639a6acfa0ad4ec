package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chepyr/go-project-tracker/internal/db"
	"github.com/chepyr/go-project-tracker/internal/service"
	"github.com/chepyr/go-project-tracker/shared/models"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "super_secret_for_tests_0123456789"

type testServer struct {
	h      *Handler
	router http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	conn, err := sql.Open(db.SQLiteDriver, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	conn.SetMaxOpenConns(1)
	if err := db.Migrate(context.Background(), conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	store := db.NewStore(conn)
	log := zerolog.Nop()
	h := &Handler{
		Users:     service.NewUserDirectory(store, log),
		Projects:  service.NewProjectService(store, log),
		Tasks:     service.NewTaskService(store, log),
		Resolver:  service.NewResolver(store.Users, log),
		JWTSecret: []byte(testSecret),
		TokenTTL:  time.Hour,
	}
	return &testServer{h: h, router: h.Routes(log)}
}

// user registers an account with password "strongpass" and returns it with a
// valid bearer token.
func (s *testServer) user(t *testing.T, name, email string) (*models.User, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("strongpass"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u, err := s.h.Users.Register(context.Background(), service.CreateUserInput{Email: email, Name: &name}, string(hash))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	token, err := s.h.generateJWTToken(u)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return u, token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("want %d, got %d body=%s", want, rec.Code, rec.Body.String())
	}
}
