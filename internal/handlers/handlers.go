package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/chepyr/go-project-tracker/internal/service"
	"github.com/chepyr/go-project-tracker/shared"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/hlog"
)

const (
	storeTimeout = 5 * time.Second
	maxBodyBytes = 1 << 20 // 1MB
)

type Handler struct {
	Users    *service.UserDirectory
	Projects *service.ProjectService
	Tasks    *service.TaskService
	Resolver *service.Resolver

	JWTSecret   []byte
	TokenTTL    time.Duration
	RateLimiter *RateLimiter
	// TrustedProxies are the peers allowed to report the client address
	// through X-Forwarded-For.
	TrustedProxies []netip.Prefix
}

func isJSONContentType(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(strings.ToLower(ct), "application/json")
}

// decodeJSON reads a JSON body of at most 1MB into dst and writes the error
// response itself when it fails.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !isJSONContentType(r) {
		shared.SendError(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		shared.SendError(w, "Invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

// pathID parses the uuid path variable name.
func pathID(w http.ResponseWriter, r *http.Request, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		shared.SendError(w, "Invalid "+label+" ID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func statusOf(kind service.Kind) int {
	switch kind {
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindBadRequest:
		return http.StatusBadRequest
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// sendServiceError maps a service error onto the JSON error response.
func sendServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(service.KindOf(err))
	if status == http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
	}
	shared.SendError(w, service.MessageOf(err), status)
}

func withStoreTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), storeTimeout)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	shared.SendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
