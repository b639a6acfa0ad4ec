package handlers

import (
	"net/http"

	"github.com/chepyr/go-project-tracker/internal/service"
	"github.com/chepyr/go-project-tracker/shared"
	"github.com/google/uuid"
)

func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withStoreTimeout(r)
	defer cancel()

	tasks, err := h.Tasks.List(ctx, actor(r))
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	shared.SendJSON(w, http.StatusOK, tasks)
}

func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var input service.CreateTaskInput
	if !decodeJSON(w, r, &input) {
		return
	}

	ctx, cancel := withStoreTimeout(r)
	defer cancel()
	task, err := h.Tasks.Create(ctx, actor(r), input)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", "/tasks/"+task.ID.String())
	shared.SendJSON(w, http.StatusCreated, task)
}

func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := pathID(w, r, "id", "task")
	if !ok {
		return
	}

	ctx, cancel := withStoreTimeout(r)
	defer cancel()
	task, err := h.Tasks.Get(ctx, actor(r), taskID)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	shared.SendJSON(w, http.StatusOK, task)
}

func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := pathID(w, r, "id", "task")
	if !ok {
		return
	}
	var changes service.TaskChanges
	if !decodeJSON(w, r, &changes) {
		return
	}

	ctx, cancel := withStoreTimeout(r)
	defer cancel()
	task, err := h.Tasks.Update(ctx, actor(r), taskID, changes)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	shared.SendJSON(w, http.StatusOK, task)
}

func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := pathID(w, r, "id", "task")
	if !ok {
		return
	}

	ctx, cancel := withStoreTimeout(r)
	defer cancel()
	res, err := h.Tasks.Delete(ctx, actor(r), taskID)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	shared.SendJSON(w, http.StatusOK, res)
}

// AssignTask handles POST /tasks/{id}/assignments {"user_id": "..."}
func (h *Handler) AssignTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := pathID(w, r, "id", "task")
	if !ok {
		return
	}
	var input struct {
		UserID uuid.UUID `json:"user_id"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}

	ctx, cancel := withStoreTimeout(r)
	defer cancel()
	assignment, err := h.Tasks.Assign(ctx, actor(r), taskID, input.UserID)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	shared.SendJSON(w, http.StatusCreated, assignment)
}

// UnassignTask handles DELETE /tasks/{id}/assignments/{userID}
func (h *Handler) UnassignTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := pathID(w, r, "id", "task")
	if !ok {
		return
	}
	userID, ok := pathID(w, r, "userID", "user")
	if !ok {
		return
	}

	ctx, cancel := withStoreTimeout(r)
	defer cancel()
	res, err := h.Tasks.RemoveAssign(ctx, actor(r), taskID, userID)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	shared.SendJSON(w, http.StatusOK, res)
}
