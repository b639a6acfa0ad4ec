package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/chepyr/go-project-tracker/internal/db"
	"github.com/chepyr/go-project-tracker/shared/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type ProjectService struct {
	store *db.Store
	guard Guard
	log   zerolog.Logger
}

func NewProjectService(store *db.Store, log zerolog.Logger) *ProjectService {
	return &ProjectService{store: store, log: log.With().Str("service", "projects").Logger()}
}

// List returns the projects created by actor, newest first, with their tasks.
func (s *ProjectService) List(ctx context.Context, actor *models.User) ([]*models.Project, error) {
	var projects []*models.Project
	err := s.store.WithReadTx(ctx, func(q *db.Queries) error {
		var err error
		projects, err = q.Projects.ListByCreator(ctx, actor.ID)
		if err != nil {
			return err
		}
		ids := make([]uuid.UUID, len(projects))
		byID := make(map[uuid.UUID]*models.Project, len(projects))
		for i, p := range projects {
			ids[i] = p.ID
			byID[p.ID] = p
		}
		tasks, err := q.Tasks.ListByProjects(ctx, ids)
		if err != nil {
			return err
		}
		if err := loadDetails(ctx, q, tasks); err != nil {
			return err
		}
		for _, t := range tasks {
			p := byID[t.ProjectID]
			p.Tasks = append(p.Tasks, t)
		}
		return nil
	})
	if err != nil {
		return nil, fail(s.log, "projects.list", err)
	}
	return projects, nil
}

// Get returns any project by id with its tasks.
func (s *ProjectService) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var project *models.Project
	err := s.store.WithReadTx(ctx, func(q *db.Queries) error {
		var err error
		project, err = loadProject(ctx, q, id)
		return err
	})
	if err != nil {
		return nil, fail(s.log, "projects.get", err)
	}
	return project, nil
}

// Create inserts the project and its nested tasks atomically.
func (s *ProjectService) Create(ctx context.Context, actor *models.User, in CreateProjectInput) (*models.Project, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	var project *models.Project
	err := s.store.WithTx(ctx, func(q *db.Queries) error {
		var assignees []uuid.UUID
		for _, t := range in.Tasks {
			assignees = append(assignees, t.Assignments...)
		}
		if err := checkUsersExist(ctx, q, dedupeIDs(assignees)); err != nil {
			return err
		}

		ts := now()
		p := &models.Project{
			ID:          uuid.New(),
			Name:        in.Name,
			Description: in.Description,
			Status:      in.Status,
			StartDate:   in.StartDate,
			EndDate:     in.EndDate,
			CreatorID:   actor.ID,
			CreatedAt:   ts,
			UpdatedAt:   ts,
		}
		if err := q.Projects.Create(ctx, p); err != nil {
			return err
		}
		for _, t := range in.Tasks {
			if _, err := insertTask(ctx, q, p.ID, t, ts); err != nil {
				return err
			}
		}

		var err error
		project, err = loadProject(ctx, q, p.ID)
		return err
	})
	if err != nil {
		return nil, fail(s.log, "projects.create", err)
	}
	s.log.Info().Str("project_id", project.ID.String()).Str("actor", actor.ID.String()).Msg("project created")
	return project, nil
}

// Update patches the project and applies nested task create, update and
// delete operations in one transaction. Nested task ids must belong to the
// project.
func (s *ProjectService) Update(ctx context.Context, actor *models.User, id uuid.UUID, in UpdateProjectInput) (*models.Project, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	var project *models.Project
	err := s.store.WithTx(ctx, func(q *db.Queries) error {
		p, err := getProject(ctx, q, id)
		if err != nil {
			return err
		}
		if err := s.guard.AuthorizeProject(actor.ID, p, ActionUpdate); err != nil {
			return err
		}

		if in.Name != nil {
			p.Name = *in.Name
		}
		if in.Description != nil {
			p.Description = in.Description
		}
		if in.Status != nil {
			p.Status = *in.Status
		}
		if in.StartDate != nil {
			p.StartDate = in.StartDate
		}
		if in.EndDate != nil {
			p.EndDate = in.EndDate
		}
		if err := checkDates(p.StartDate, p.EndDate); err != nil {
			return err
		}

		ts := now()
		p.UpdatedAt = ts
		if err := q.Projects.Update(ctx, p); err != nil {
			return err
		}
		if in.Tasks != nil {
			if err := s.applyNested(ctx, q, p.ID, in.Tasks, ts); err != nil {
				return err
			}
		}

		project, err = loadProject(ctx, q, p.ID)
		return err
	})
	if err != nil {
		return nil, fail(s.log, "projects.update", err)
	}
	return project, nil
}

func (s *ProjectService) applyNested(ctx context.Context, q *db.Queries, projectID uuid.UUID, ops *NestedTaskOps, ts time.Time) error {
	var assignees []uuid.UUID
	for _, t := range ops.Create {
		assignees = append(assignees, t.Assignments...)
	}
	for _, u := range ops.Update {
		if u.Assignments != nil {
			assignees = append(assignees, *u.Assignments...)
		}
	}
	if err := checkUsersExist(ctx, q, dedupeIDs(assignees)); err != nil {
		return err
	}

	for _, t := range ops.Create {
		if _, err := insertTask(ctx, q, projectID, t, ts); err != nil {
			return err
		}
	}
	for _, u := range ops.Update {
		task, err := taskInProject(ctx, q, projectID, u.ID)
		if err != nil {
			return err
		}
		if err := applyChanges(ctx, q, task, u.TaskChanges, ts); err != nil {
			return err
		}
	}
	for _, taskID := range ops.Delete {
		if _, err := taskInProject(ctx, q, projectID, taskID); err != nil {
			return err
		}
		if err := deleteTask(ctx, q, taskID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the project with all of its tasks, assignments and tag links.
func (s *ProjectService) Delete(ctx context.Context, actor *models.User, id uuid.UUID) (*Deleted, error) {
	err := s.store.WithTx(ctx, func(q *db.Queries) error {
		p, err := getProject(ctx, q, id)
		if err != nil {
			return err
		}
		if err := s.guard.AuthorizeProject(actor.ID, p, ActionDelete); err != nil {
			return err
		}
		if err := q.Assignments.DeleteByProject(ctx, id); err != nil {
			return err
		}
		if err := q.Tags.UnlinkProject(ctx, id); err != nil {
			return err
		}
		if err := q.Tasks.DeleteByProject(ctx, id); err != nil {
			return err
		}
		return q.Projects.Delete(ctx, id)
	})
	if err != nil {
		return nil, fail(s.log, "projects.delete", err)
	}
	s.log.Info().Str("project_id", id.String()).Str("actor", actor.ID.String()).Msg("project deleted")
	return &Deleted{Success: true}, nil
}

// ListTasks returns the tasks of one project that actor may see.
func (s *ProjectService) ListTasks(ctx context.Context, actor *models.User, projectID uuid.UUID) ([]*models.Task, error) {
	var tasks []*models.Task
	err := s.store.WithReadTx(ctx, func(q *db.Queries) error {
		if _, err := getProject(ctx, q, projectID); err != nil {
			return err
		}
		var err error
		tasks, err = q.Tasks.ListVisibleInProject(ctx, actor.ID, projectID)
		if err != nil {
			return err
		}
		return loadDetails(ctx, q, tasks)
	})
	if err != nil {
		return nil, fail(s.log, "projects.list_tasks", err)
	}
	return tasks, nil
}

func getProject(ctx context.Context, q *db.Queries, id uuid.UUID) (*models.Project, error) {
	p, err := q.Projects.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NotFound("Project not found")
	}
	return p, err
}

func loadProject(ctx context.Context, q *db.Queries, id uuid.UUID) (*models.Project, error) {
	p, err := getProject(ctx, q, id)
	if err != nil {
		return nil, err
	}
	tasks, err := q.Tasks.ListByProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := loadDetails(ctx, q, tasks); err != nil {
		return nil, err
	}
	p.Tasks = tasks
	return p, nil
}

func taskInProject(ctx context.Context, q *db.Queries, projectID, taskID uuid.UUID) (*models.Task, error) {
	task, err := q.Tasks.GetByID(ctx, taskID)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && task.ProjectID != projectID) {
		return nil, NotFound("Task not found in this project")
	}
	return task, err
}
