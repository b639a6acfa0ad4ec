package handlers

import (
	"net/http"
	"time"

	"github.com/chepyr/go-project-tracker/shared"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

/*
public:
- POST /auth/register, POST /auth/login, POST /auth/check-user
- POST /users
- GET /healthz

everything else requires a bearer token of a provisioned user
*/
func (h *Handler) Routes(log zerolog.Logger) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		shared.SendError(w, "Not found", http.StatusNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		shared.SendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/auth/check-user", h.CheckUser).Methods(http.MethodPost)

	r.HandleFunc("/users", h.CreateUser).Methods(http.MethodPost)
	r.HandleFunc("/users", h.authenticated(h.ListUsers)).Methods(http.MethodGet)
	r.HandleFunc("/users/me", h.authenticated(h.GetMe)).Methods(http.MethodGet)
	r.HandleFunc("/users/me", h.authenticated(h.UpdateMe)).Methods(http.MethodPatch)

	r.HandleFunc("/projects", h.authenticated(h.ListProjects)).Methods(http.MethodGet)
	r.HandleFunc("/projects", h.authenticated(h.CreateProject)).Methods(http.MethodPost)
	r.HandleFunc("/projects/{id}", h.authenticated(h.GetProject)).Methods(http.MethodGet)
	r.HandleFunc("/projects/{id}", h.authenticated(h.UpdateProject)).Methods(http.MethodPut, http.MethodPatch)
	r.HandleFunc("/projects/{id}", h.authenticated(h.DeleteProject)).Methods(http.MethodDelete)
	r.HandleFunc("/projects/{id}/tasks", h.authenticated(h.ListProjectTasks)).Methods(http.MethodGet)

	r.HandleFunc("/tasks", h.authenticated(h.ListTasks)).Methods(http.MethodGet)
	r.HandleFunc("/tasks", h.authenticated(h.CreateTask)).Methods(http.MethodPost)
	r.HandleFunc("/tasks/{id}", h.authenticated(h.GetTask)).Methods(http.MethodGet)
	r.HandleFunc("/tasks/{id}", h.authenticated(h.UpdateTask)).Methods(http.MethodPut, http.MethodPatch)
	r.HandleFunc("/tasks/{id}", h.authenticated(h.DeleteTask)).Methods(http.MethodDelete)
	r.HandleFunc("/tasks/{id}/assignments", h.authenticated(h.AssignTask)).Methods(http.MethodPost)
	r.HandleFunc("/tasks/{id}/assignments/{userID}", h.authenticated(h.UnassignTask)).Methods(http.MethodDelete)

	var handler http.Handler = r
	handler = hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	})(handler)
	handler = hlog.RequestIDHandler("req_id", "Request-Id")(handler)
	handler = hlog.NewHandler(log)(handler)
	return handler
}
