package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/chepyr/go-project-tracker/internal/db"
	"github.com/chepyr/go-project-tracker/shared/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type TaskService struct {
	store *db.Store
	guard Guard
	log   zerolog.Logger
}

func NewTaskService(store *db.Store, log zerolog.Logger) *TaskService {
	return &TaskService{store: store, log: log.With().Str("service", "tasks").Logger()}
}

// List returns every task actor created the project of or is assigned to.
func (s *TaskService) List(ctx context.Context, actor *models.User) ([]*models.Task, error) {
	var tasks []*models.Task
	err := s.store.WithReadTx(ctx, func(q *db.Queries) error {
		var err error
		tasks, err = q.Tasks.ListVisibleTo(ctx, actor.ID)
		if err != nil {
			return err
		}
		return loadDetails(ctx, q, tasks)
	})
	if err != nil {
		return nil, fail(s.log, "tasks.list", err)
	}
	return tasks, nil
}

func (s *TaskService) Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Task, error) {
	var task *models.Task
	err := s.store.WithReadTx(ctx, func(q *db.Queries) error {
		var err error
		task, err = loadTask(ctx, q, id)
		if err != nil {
			return err
		}
		return s.guard.AuthorizeTask(actor.ID, AccessOf(task), ActionView)
	})
	if err != nil {
		return nil, fail(s.log, "tasks.get", err)
	}
	return task, nil
}

func (s *TaskService) Create(ctx context.Context, actor *models.User, in CreateTaskInput) (*models.Task, error) {
	if in.ProjectID == uuid.Nil {
		return nil, BadRequest("project_id is required")
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}

	var task *models.Task
	err := s.store.WithTx(ctx, func(q *db.Queries) error {
		p, err := getProject(ctx, q, in.ProjectID)
		if err != nil {
			return err
		}
		if err := s.guard.AuthorizeProject(actor.ID, p, ActionCreateTask); err != nil {
			return err
		}
		if err := checkUsersExist(ctx, q, in.Assignments); err != nil {
			return err
		}
		id, err := insertTask(ctx, q, p.ID, in.TaskInput, now())
		if err != nil {
			return err
		}
		task, err = loadTask(ctx, q, id)
		return err
	})
	if err != nil {
		return nil, fail(s.log, "tasks.create", err)
	}
	return task, nil
}

// Update patches a task. The project creator and assignees may update.
func (s *TaskService) Update(ctx context.Context, actor *models.User, id uuid.UUID, changes TaskChanges) (*models.Task, error) {
	if err := changes.normalize(); err != nil {
		return nil, err
	}

	var task *models.Task
	err := s.store.WithTx(ctx, func(q *db.Queries) error {
		current, err := loadTask(ctx, q, id)
		if err != nil {
			return err
		}
		if err := s.guard.AuthorizeTask(actor.ID, AccessOf(current), ActionUpdate); err != nil {
			return err
		}
		if changes.Assignments != nil {
			if err := checkUsersExist(ctx, q, *changes.Assignments); err != nil {
				return err
			}
		}
		if err := applyChanges(ctx, q, current, changes, now()); err != nil {
			return err
		}
		task, err = loadTask(ctx, q, id)
		return err
	})
	if err != nil {
		return nil, fail(s.log, "tasks.update", err)
	}
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, actor *models.User, id uuid.UUID) (*Deleted, error) {
	err := s.store.WithTx(ctx, func(q *db.Queries) error {
		task, err := loadTask(ctx, q, id)
		if err != nil {
			return err
		}
		if err := s.guard.AuthorizeTask(actor.ID, AccessOf(task), ActionDelete); err != nil {
			return err
		}
		return deleteTask(ctx, q, id)
	})
	if err != nil {
		return nil, fail(s.log, "tasks.delete", err)
	}
	return &Deleted{Success: true}, nil
}

// Assign adds userID to the task. Every check runs before the insert, so a
// rejected call changes nothing.
func (s *TaskService) Assign(ctx context.Context, actor *models.User, taskID, userID uuid.UUID) (*models.Assignment, error) {
	if userID == uuid.Nil {
		return nil, BadRequest("user_id is required")
	}

	var assignment *models.Assignment
	err := s.store.WithTx(ctx, func(q *db.Queries) error {
		task, err := loadTask(ctx, q, taskID)
		if err != nil {
			return err
		}
		if err := s.guard.AuthorizeTask(actor.ID, AccessOf(task), ActionAssign); err != nil {
			return err
		}
		exists, err := q.Assignments.Exists(ctx, taskID, userID)
		if err != nil {
			return err
		}
		if exists {
			return BadRequest("User is already assigned to this task")
		}
		user, err := q.Users.GetByID(ctx, userID)
		if errors.Is(err, sql.ErrNoRows) {
			return BadRequest("User not found")
		}
		if err != nil {
			return err
		}

		summary := user.Summary()
		assignment = &models.Assignment{TaskID: taskID, UserID: userID, AssignedAt: now(), User: &summary}
		err = q.Assignments.Create(ctx, assignment)
		if db.IsUniqueViolation(err) {
			return BadRequest("User is already assigned to this task")
		}
		return err
	})
	if err != nil {
		return nil, fail(s.log, "tasks.assign", err)
	}
	return assignment, nil
}

func (s *TaskService) RemoveAssign(ctx context.Context, actor *models.User, taskID, userID uuid.UUID) (*Deleted, error) {
	err := s.store.WithTx(ctx, func(q *db.Queries) error {
		task, err := loadTask(ctx, q, taskID)
		if err != nil {
			return err
		}
		if err := s.guard.AuthorizeTask(actor.ID, AccessOf(task), ActionUnassign); err != nil {
			return err
		}
		err = q.Assignments.Delete(ctx, taskID, userID)
		if errors.Is(err, sql.ErrNoRows) {
			return NotFound("Assignment not found")
		}
		return err
	})
	if err != nil {
		return nil, fail(s.log, "tasks.remove_assign", err)
	}
	return &Deleted{Success: true}, nil
}
