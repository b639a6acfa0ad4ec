package handlers

import (
	"net/http"
	"strings"

	"github.com/chepyr/go-project-tracker/internal/service"
	"github.com/chepyr/go-project-tracker/shared"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

type credentials struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if h.limited(w, r, "register") {
		return
	}

	var input credentials
	if !decodeJSON(w, r, &input) {
		return
	}
	if !validateCredentials(w, input) {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("hash password")
		shared.SendError(w, "Cannot hash password", http.StatusInternalServerError)
		return
	}

	ctx, cancel := withStoreTimeout(r)
	defer cancel()
	user, err := h.Users.Register(ctx, service.CreateUserInput{Email: input.Email, Name: input.Name}, string(hash))
	if err != nil {
		sendServiceError(w, r, err)
		return
	}

	hlog.FromRequest(r).Info().Str("user_id", user.ID.String()).Msg("user registered")
	shared.SendJSON(w, http.StatusCreated, map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
	})
}

func validateCredentials(w http.ResponseWriter, input credentials) bool {
	if !service.IsValidEmail(strings.TrimSpace(input.Email)) {
		shared.SendError(w, "Invalid email", http.StatusBadRequest)
		return false
	}
	if len(input.Password) < minPasswordLength {
		shared.SendError(w, "Password must be at least 8 characters long", http.StatusBadRequest)
		return false
	}
	return true
}

// CheckUser reports whether an account exists for the email.
func (h *Handler) CheckUser(w http.ResponseWriter, r *http.Request) {
	if h.limited(w, r, "lookup") {
		return
	}

	var input struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}
	if !service.IsValidEmail(strings.TrimSpace(input.Email)) {
		shared.SendError(w, "Invalid email", http.StatusBadRequest)
		return
	}

	ctx, cancel := withStoreTimeout(r)
	defer cancel()
	exists, err := h.Users.Exists(ctx, input.Email)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	shared.SendJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}
