package handlers

import (
	"net/http"
	"strconv"

	"github.com/chepyr/go-project-tracker/internal/service"
	"github.com/chepyr/go-project-tracker/shared"
)

const defaultPageSize = 10

// ListUsers handles GET /users?search=&page=&limit=
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, ok := intParam(w, query.Get("page"), 1, "page")
	if !ok {
		return
	}
	limit, ok := intParam(w, query.Get("limit"), defaultPageSize, "limit")
	if !ok {
		return
	}

	ctx, cancel := withStoreTimeout(r)
	defer cancel()
	result, err := h.Users.List(ctx, actor(r), query.Get("search"), page, limit)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	shared.SendJSON(w, http.StatusOK, result)
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withStoreTimeout(r)
	defer cancel()
	user, err := h.Users.Get(ctx, actor(r))
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	shared.SendJSON(w, http.StatusOK, user)
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var input service.UpdateUserInput
	if !decodeJSON(w, r, &input) {
		return
	}

	ctx, cancel := withStoreTimeout(r)
	defer cancel()
	user, err := h.Users.Update(ctx, actor(r), input)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	shared.SendJSON(w, http.StatusOK, user)
}

// CreateUser provisions a user for an external identity. It is public.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	if h.limited(w, r, "sign-up") {
		return
	}

	var input service.CreateUserInput
	if !decodeJSON(w, r, &input) {
		return
	}

	ctx, cancel := withStoreTimeout(r)
	defer cancel()
	user, err := h.Users.Create(ctx, input)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", "/users/"+user.ID.String())
	shared.SendJSON(w, http.StatusCreated, user)
}

func intParam(w http.ResponseWriter, raw string, fallback int, name string) (int, bool) {
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		shared.SendError(w, name+" must be an integer", http.StatusBadRequest)
		return 0, false
	}
	return n, true
}
