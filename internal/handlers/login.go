package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/chepyr/go-project-tracker/internal/service"
	"github.com/chepyr/go-project-tracker/shared"
	"github.com/chepyr/go-project-tracker/shared/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/crypto/bcrypt"
)

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if h.limited(w, r, "login") {
		return
	}

	var input credentials
	if !decodeJSON(w, r, &input) {
		return
	}
	if !validateCredentials(w, input) {
		return
	}

	ctx, cancel := withStoreTimeout(r)
	defer cancel()
	user, err := h.Users.FindByEmail(ctx, input.Email)
	if service.KindOf(err) == service.KindNotFound {
		shared.SendError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}
	if err != nil {
		sendServiceError(w, r, err)
		return
	}

	// accounts provisioned by an external provider have no password
	if user.PasswordHash == "" || bcrypt.CompareHashAndPassword(
		[]byte(user.PasswordHash), []byte(input.Password)) != nil {
		hlog.FromRequest(r).Info().Str("user_id", user.ID.String()).Msg("invalid password")
		shared.SendError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	tokenString, err := h.generateJWTToken(user)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("sign token")
		shared.SendError(w, "Cannot create token", http.StatusInternalServerError)
		return
	}

	shared.SendJSON(w, http.StatusOK, map[string]any{
		"user_email": user.Email,
		"user_id":    user.ID,
		"token":      tokenString,
	})
	hlog.FromRequest(r).Info().Str("user_id", user.ID.String()).Msg("user logged in")
}

func (h *Handler) generateJWTToken(user *models.User) (string, error) {
	if len(h.JWTSecret) == 0 {
		return "", fmt.Errorf("JWT secret is not configured")
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"exp":   now.Add(h.TokenTTL).Unix(),
		"iat":   now.Unix(),
	})

	tokenString, err := token.SignedString(h.JWTSecret)
	if err != nil {
		return "", fmt.Errorf("error signing token: %w", err)
	}
	return tokenString, nil
}
