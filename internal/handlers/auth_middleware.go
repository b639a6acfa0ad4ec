package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/chepyr/go-project-tracker/internal/service"
	"github.com/chepyr/go-project-tracker/shared"
	"github.com/chepyr/go-project-tracker/shared/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/hlog"
)

type ctxKey int

const (
	subjectKey ctxKey = iota
	emailKey
	userKey
)

// retryAfterSeconds is sent with 503 when the session is valid but the
// user record does not exist yet.
const retryAfterSeconds = "5"

/*
Verify the bearer JWT and put its subject (and email, when present) into the
request context
*/
func (h *Handler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			shared.SendError(w, "Missing Authorization header", http.StatusUnauthorized)
			return
		}
		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			shared.SendError(w, "Authorization header must use Bearer scheme", http.StatusUnauthorized)
			return
		}
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			return h.JWTSecret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
		if err != nil || !token.Valid {
			shared.SendError(w, "Invalid token", http.StatusUnauthorized)
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			shared.SendError(w, "Invalid token claims", http.StatusUnauthorized)
			return
		}
		sub, _ := claims["sub"].(string)
		if sub == "" {
			shared.SendError(w, "Invalid token claims", http.StatusUnauthorized)
			return
		}
		email, _ := claims["email"].(string)

		ctx := context.WithValue(r.Context(), subjectKey, sub)
		ctx = context.WithValue(ctx, emailKey, email)
		next(w, r.WithContext(ctx))
	}
}

// RequireUser resolves the session subject to the acting user. It must run
// after AuthMiddleware.
func (h *Handler) RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, _ := r.Context().Value(subjectKey).(string)
		email, _ := r.Context().Value(emailKey).(string)

		ctx, cancel := withStoreTimeout(r)
		user, err := h.Resolver.Resolve(ctx, sub, email)
		cancel()
		if service.KindOf(err) == service.KindNotFound {
			hlog.FromRequest(r).Warn().Str("subject", sub).Msg("session user not provisioned")
			w.Header().Set("Retry-After", retryAfterSeconds)
			shared.SendError(w, service.MessageOf(err), http.StatusServiceUnavailable)
			return
		}
		if err != nil {
			sendServiceError(w, r, err)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	}
}

// actor returns the user set by RequireUser.
func actor(r *http.Request) *models.User {
	user, _ := r.Context().Value(userKey).(*models.User)
	return user
}

// authenticated chains AuthMiddleware and RequireUser.
func (h *Handler) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return h.AuthMiddleware(h.RequireUser(next))
}
