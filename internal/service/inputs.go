package service

import (
	"time"

	"github.com/chepyr/go-project-tracker/shared/models"
	"github.com/google/uuid"
)

// TaskInput describes a new task, either standalone or nested in a project.
// Assignments lists user ids; Tags lists tag ids or names.
type TaskInput struct {
	Title       string              `json:"title"`
	Description *string             `json:"description"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     *time.Time          `json:"due_date"`
	Assignments []uuid.UUID         `json:"assignments"`
	Tags        []string            `json:"tags"`
}

type CreateTaskInput struct {
	ProjectID uuid.UUID `json:"project_id"`
	TaskInput
}

// TaskChanges is a partial update. A nil field is left untouched; a non-nil
// Assignments or Tags replaces the current set, so an empty list clears it.
type TaskChanges struct {
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	Status      *models.TaskStatus   `json:"status"`
	Priority    *models.TaskPriority `json:"priority"`
	DueDate     *time.Time           `json:"due_date"`
	Assignments *[]uuid.UUID         `json:"assignments"`
	Tags        *[]string            `json:"tags"`
}

type CreateProjectInput struct {
	Name        string               `json:"name"`
	Description *string              `json:"description"`
	Status      models.ProjectStatus `json:"status"`
	StartDate   *time.Time           `json:"start_date"`
	EndDate     *time.Time           `json:"end_date"`
	Tasks       []TaskInput          `json:"tasks"`
}

type UpdateProjectInput struct {
	Name        *string               `json:"name"`
	Description *string               `json:"description"`
	Status      *models.ProjectStatus `json:"status"`
	StartDate   *time.Time            `json:"start_date"`
	EndDate     *time.Time            `json:"end_date"`
	Tasks       *NestedTaskOps        `json:"tasks"`
}

// NestedTaskOps are task mutations applied together with a project update.
type NestedTaskOps struct {
	Create []TaskInput        `json:"create"`
	Update []NestedTaskUpdate `json:"update"`
	Delete []uuid.UUID        `json:"delete"`
}

type NestedTaskUpdate struct {
	ID uuid.UUID `json:"id"`
	TaskChanges
}

type CreateUserInput struct {
	Email      string  `json:"email"`
	Name       *string `json:"name"`
	ExternalID *string `json:"external_id"`
}

type UpdateUserInput struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

// UserPage is one page of the user directory.
type UserPage struct {
	Users []models.UserSummary `json:"users"`
	Total int                  `json:"total"`
	Pages int                  `json:"pages"`
}

// Deleted is the acknowledgement returned by delete operations.
type Deleted struct {
	Success bool `json:"success"`
}
