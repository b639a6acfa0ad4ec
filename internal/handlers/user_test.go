package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/chepyr/go-project-tracker/internal/service"
)

func TestUsers_List(t *testing.T) {
	s := newTestServer(t)
	me, token := s.user(t, "Me", "me@example.com")
	for _, name := range []string{"Alice", "Alina", "Kalinda", "Bob"} {
		s.user(t, name, fmt.Sprintf("%s@example.com", name))
	}

	rec := s.do(t, http.MethodGet, "/users?search=ali&page=1&limit=10", token, nil)
	expectStatus(t, rec, http.StatusOK)
	page := decodeBody[service.UserPage](t, rec)
	if page.Total != 3 || page.Pages != 1 || len(page.Users) != 3 {
		t.Fatalf("want 3/1/3, got %d/%d/%d", page.Total, page.Pages, len(page.Users))
	}

	rec = s.do(t, http.MethodGet, "/users?limit=2", token, nil)
	expectStatus(t, rec, http.StatusOK)
	page = decodeBody[service.UserPage](t, rec)
	if page.Total != 4 || page.Pages != 2 {
		t.Fatalf("want total 4 in 2 pages, got %d in %d", page.Total, page.Pages)
	}
	for _, u := range page.Users {
		if u.ID == me.ID {
			t.Fatal("directory must not include the caller")
		}
	}

	for _, query := range []string{"limit=0", "limit=101", "page=0", "page=abc"} {
		rec = s.do(t, http.MethodGet, "/users?"+query, token, nil)
		expectStatus(t, rec, http.StatusBadRequest)
	}
}

func TestUsers_Me(t *testing.T) {
	s := newTestServer(t)
	_, token := s.user(t, "Me", "me@example.com")
	s.user(t, "Taken", "taken@example.com")

	rec := s.do(t, http.MethodGet, "/users/me", token, nil)
	expectStatus(t, rec, http.StatusOK)
	if body := rec.Body.String(); strings.Contains(body, "password") {
		t.Fatalf("password leaked: %s", body)
	}

	rec = s.do(t, http.MethodPatch, "/users/me", token, map[string]string{"name": "Renamed"})
	expectStatus(t, rec, http.StatusOK)
	if got := decodeBody[map[string]any](t, rec); got["name"] != "Renamed" {
		t.Fatalf("want Renamed, got %v", got["name"])
	}

	rec = s.do(t, http.MethodPatch, "/users/me", token, map[string]string{"email": "taken@example.com"})
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestUsers_CreatePublic(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/users", "", map[string]string{"email": "new@example.com", "name": "New"})
	expectStatus(t, rec, http.StatusCreated)

	rec = s.do(t, http.MethodPost, "/users", "", map[string]string{"email": "new@example.com"})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = s.do(t, http.MethodPost, "/users", "", map[string]string{"email": "broken"})
	expectStatus(t, rec, http.StatusBadRequest)
}
