package handlers

import (
	"net/http"

	"github.com/chepyr/go-project-tracker/internal/service"
	"github.com/chepyr/go-project-tracker/shared"
)

func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withStoreTimeout(r)
	defer cancel()

	projects, err := h.Projects.List(ctx, actor(r))
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	shared.SendJSON(w, http.StatusOK, projects)
}

func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var input service.CreateProjectInput
	if !decodeJSON(w, r, &input) {
		return
	}

	ctx, cancel := withStoreTimeout(r)
	defer cancel()
	project, err := h.Projects.Create(ctx, actor(r), input)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", "/projects/"+project.ID.String())
	shared.SendJSON(w, http.StatusCreated, project)
}

func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "id", "project")
	if !ok {
		return
	}

	ctx, cancel := withStoreTimeout(r)
	defer cancel()
	project, err := h.Projects.Get(ctx, projectID)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	shared.SendJSON(w, http.StatusOK, project)
}

func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "id", "project")
	if !ok {
		return
	}
	var input service.UpdateProjectInput
	if !decodeJSON(w, r, &input) {
		return
	}

	ctx, cancel := withStoreTimeout(r)
	defer cancel()
	project, err := h.Projects.Update(ctx, actor(r), projectID, input)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	shared.SendJSON(w, http.StatusOK, project)
}

func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "id", "project")
	if !ok {
		return
	}

	ctx, cancel := withStoreTimeout(r)
	defer cancel()
	res, err := h.Projects.Delete(ctx, actor(r), projectID)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	shared.SendJSON(w, http.StatusOK, res)
}

// ListProjectTasks handles GET /projects/{id}/tasks
func (h *Handler) ListProjectTasks(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "id", "project")
	if !ok {
		return
	}

	ctx, cancel := withStoreTimeout(r)
	defer cancel()
	tasks, err := h.Projects.ListTasks(ctx, actor(r), projectID)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	shared.SendJSON(w, http.StatusOK, tasks)
}
