package service

import (
	"github.com/chepyr/go-project-tracker/shared/models"
	"github.com/google/uuid"
)

type Action int

const (
	ActionView Action = iota
	ActionUpdate
	ActionDelete
	ActionCreateTask
	ActionAssign
	ActionUnassign
)

// TaskAccess is what the guard needs to know about a task.
type TaskAccess struct {
	ProjectCreatorID uuid.UUID
	AssigneeIDs      []uuid.UUID
}

// AccessOf extracts TaskAccess from a task loaded with its project summary
// and assignments.
func AccessOf(task *models.Task) TaskAccess {
	access := TaskAccess{AssigneeIDs: task.AssigneeIDs()}
	if task.Project != nil && task.Project.Creator != nil {
		access.ProjectCreatorID = task.Project.Creator.ID
	}
	return access
}

func (a TaskAccess) isAssignee(id uuid.UUID) bool {
	for _, assignee := range a.AssigneeIDs {
		if assignee == id {
			return true
		}
	}
	return false
}

// Guard decides whether an actor may perform an action. Tasks are owned by
// the creator of their project; assignees may view and update.
type Guard struct{}

func (Guard) CanActOnProject(actorID uuid.UUID, project *models.Project, action Action) bool {
	switch action {
	case ActionView:
		return true
	case ActionUpdate, ActionDelete, ActionCreateTask:
		return actorID == project.CreatorID
	}
	return false
}

func (Guard) CanActOnTask(actorID uuid.UUID, access TaskAccess, action Action) bool {
	isCreator := actorID == access.ProjectCreatorID
	switch action {
	case ActionView, ActionUpdate:
		return isCreator || access.isAssignee(actorID)
	case ActionDelete, ActionAssign, ActionUnassign:
		return isCreator
	}
	return false
}

func (g Guard) AuthorizeProject(actorID uuid.UUID, project *models.Project, action Action) error {
	if g.CanActOnProject(actorID, project, action) {
		return nil
	}
	switch action {
	case ActionUpdate:
		return Forbidden("Only the project creator can update the project")
	case ActionDelete:
		return Forbidden("Only the project creator can delete the project")
	case ActionCreateTask:
		return Forbidden("Only project creator can create tasks")
	}
	return Forbidden("You don't have access to this project")
}

func (g Guard) AuthorizeTask(actorID uuid.UUID, access TaskAccess, action Action) error {
	if g.CanActOnTask(actorID, access, action) {
		return nil
	}
	switch action {
	case ActionUpdate:
		return Forbidden("You don't have permission to update this task")
	case ActionDelete:
		return Forbidden("Only project creator can delete tasks")
	case ActionAssign:
		return Forbidden("Only project creator can assign members")
	case ActionUnassign:
		return Forbidden("Only project creator can remove members")
	}
	return Forbidden("You don't have access to this task")
}
