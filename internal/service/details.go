package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/chepyr/go-project-tracker/internal/db"
	"github.com/chepyr/go-project-tracker/shared/models"
	"github.com/google/uuid"
)

// loadDetails fills assignments and tags of the given tasks in two queries.
func loadDetails(ctx context.Context, q *db.Queries, tasks []*models.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	assignments, err := q.Assignments.ListByTasks(ctx, ids)
	if err != nil {
		return err
	}
	tags, err := q.Tags.ListByTasks(ctx, ids)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		if a, ok := assignments[t.ID]; ok {
			t.Assignments = a
		}
		if tg, ok := tags[t.ID]; ok {
			t.Tags = tg
		}
	}
	return nil
}

// loadTask returns the task with its details, or NotFound.
func loadTask(ctx context.Context, q *db.Queries, id uuid.UUID) (*models.Task, error) {
	task, err := q.Tasks.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NotFound("Task not found")
	}
	if err != nil {
		return nil, err
	}
	if err := loadDetails(ctx, q, []*models.Task{task}); err != nil {
		return nil, err
	}
	return task, nil
}

// checkUsersExist fails with BadRequest unless every id is a known user.
// ids must already be deduplicated.
func checkUsersExist(ctx context.Context, q *db.Queries, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	n, err := q.Users.CountExisting(ctx, ids)
	if err != nil {
		return err
	}
	if n != len(ids) {
		return BadRequest("One or more assigned users do not exist")
	}
	return nil
}

func insertTask(ctx context.Context, q *db.Queries, projectID uuid.UUID, in TaskInput, now time.Time) (uuid.UUID, error) {
	task := &models.Task{
		ID:          uuid.New(),
		ProjectID:   projectID,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := q.Tasks.Create(ctx, task); err != nil {
		return uuid.Nil, err
	}
	if err := addAssignments(ctx, q, task.ID, in.Assignments, now); err != nil {
		return uuid.Nil, err
	}
	if err := linkTags(ctx, q, task.ID, in.Tags); err != nil {
		return uuid.Nil, err
	}
	return task.ID, nil
}

// applyChanges patches task in place and writes it, replacing assignments
// and tags when the changes carry them.
func applyChanges(ctx context.Context, q *db.Queries, task *models.Task, c TaskChanges, now time.Time) error {
	if c.Title != nil {
		task.Title = *c.Title
	}
	if c.Description != nil {
		task.Description = c.Description
	}
	if c.Status != nil {
		task.Status = *c.Status
	}
	if c.Priority != nil {
		task.Priority = *c.Priority
	}
	if c.DueDate != nil {
		task.DueDate = c.DueDate
	}
	task.UpdatedAt = now
	if err := q.Tasks.Update(ctx, task); err != nil {
		return err
	}

	if c.Assignments != nil {
		if err := q.Assignments.DeleteByTask(ctx, task.ID); err != nil {
			return err
		}
		if err := addAssignments(ctx, q, task.ID, *c.Assignments, now); err != nil {
			return err
		}
	}
	if c.Tags != nil {
		if err := q.Tags.UnlinkTask(ctx, task.ID); err != nil {
			return err
		}
		if err := linkTags(ctx, q, task.ID, *c.Tags); err != nil {
			return err
		}
	}
	return nil
}

func addAssignments(ctx context.Context, q *db.Queries, taskID uuid.UUID, userIDs []uuid.UUID, now time.Time) error {
	for _, userID := range userIDs {
		a := &models.Assignment{TaskID: taskID, UserID: userID, AssignedAt: now}
		if err := q.Assignments.Create(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// linkTags attaches tags by id or name, creating a tag named ref when none
// matches.
func linkTags(ctx context.Context, q *db.Queries, taskID uuid.UUID, refs []string) error {
	linked := make(map[uuid.UUID]struct{}, len(refs))
	for _, ref := range refs {
		tag, err := q.Tags.FindByRef(ctx, ref)
		if errors.Is(err, sql.ErrNoRows) {
			tag = &models.Tag{ID: uuid.New(), Name: ref}
			err = q.Tags.Create(ctx, tag)
		}
		if err != nil {
			return err
		}
		// one tag may be named twice, once by id and once by name
		if _, ok := linked[tag.ID]; ok {
			continue
		}
		linked[tag.ID] = struct{}{}
		if err := q.Tags.Link(ctx, taskID, tag.ID); err != nil {
			return err
		}
	}
	return nil
}

// deleteTask removes the task with its assignments and tag links.
func deleteTask(ctx context.Context, q *db.Queries, id uuid.UUID) error {
	if err := q.Assignments.DeleteByTask(ctx, id); err != nil {
		return err
	}
	if err := q.Tags.UnlinkTask(ctx, id); err != nil {
		return err
	}
	return q.Tasks.Delete(ctx, id)
}

func now() time.Time {
	return time.Now().UTC()
}
