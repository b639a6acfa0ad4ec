package db

import (
	"context"

	"github.com/chepyr/go-project-tracker/shared/models"
	"github.com/google/uuid"
)

type TaskRepository struct {
	db DBTX
}

func NewTaskRepository(db DBTX) *TaskRepository {
	return &TaskRepository{db: db}
}

// taskColumns also pulls the project summary (name, creator) so listings need
// no extra round trip per task.
const taskColumns = `t.id, t.project_id, t.title, t.description, t.status, t.priority, t.due_date,
	 t.created_at, t.updated_at, p.name, p.creator_id, u.name`

const taskFrom = ` FROM tasks t
	 JOIN projects p ON p.id = t.project_id
	 LEFT JOIN users u ON u.id = p.creator_id`

func scanTask(row interface{ Scan(...any) error }) (*models.Task, error) {
	task := &models.Task{
		Project:     &models.ProjectSummary{Creator: &models.UserSummary{}},
		Tags:        []models.Tag{},
		Assignments: []models.Assignment{},
	}
	err := row.Scan(
		&task.ID, &task.ProjectID, &task.Title, &task.Description, &task.Status, &task.Priority,
		&task.DueDate, &task.CreatedAt, &task.UpdatedAt,
		&task.Project.Name, &task.Project.Creator.ID, &task.Project.Creator.Name,
	)
	if err != nil {
		return nil, err
	}
	task.Project.ID = task.ProjectID
	return task, nil
}

func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	query := `INSERT INTO tasks (id, project_id, title, description, status, priority, due_date, created_at, updated_at)
	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(
		ctx, query, task.ID, task.ProjectID, task.Title, task.Description, task.Status, task.Priority,
		task.DueDate, task.CreatedAt, task.UpdatedAt)
	return err
}

func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	query := `SELECT ` + taskColumns + taskFrom + ` WHERE t.id = $1`
	return scanTask(r.db.QueryRowContext(ctx, query, id))
}

// Update writes the mutable columns. Returns sql.ErrNoRows when the task is gone.
func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	query := `UPDATE tasks SET title = $1, description = $2, status = $3, priority = $4,
	 due_date = $5, updated_at = $6 WHERE id = $7`
	res, err := r.db.ExecContext(ctx, query, task.Title, task.Description, task.Status, task.Priority,
		task.DueDate, task.UpdatedAt, task.ID)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// Delete removes the task row only; assignments and tag links go first.
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r *TaskRepository) DeleteByProject(ctx context.Context, projectID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE project_id = $1`, projectID)
	return err
}

func (r *TaskRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + taskFrom + ` WHERE t.project_id = $1 ORDER BY t.created_at DESC`
	return r.list(ctx, query, projectID)
}

// ListByProjects returns the tasks of all given projects, newest first.
func (r *TaskRepository) ListByProjects(ctx context.Context, projectIDs []uuid.UUID) ([]*models.Task, error) {
	if len(projectIDs) == 0 {
		return []*models.Task{}, nil
	}
	query := `SELECT ` + taskColumns + taskFrom +
		` WHERE t.project_id IN (` + placeholders(1, len(projectIDs)) + `) ORDER BY t.created_at DESC`
	return r.list(ctx, query, anySlice(projectIDs)...)
}

// ListVisibleTo returns tasks whose project was created by userID or that
// userID is assigned to.
func (r *TaskRepository) ListVisibleTo(ctx context.Context, userID uuid.UUID) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + taskFrom + `
	 WHERE p.creator_id = $1
	    OR EXISTS (SELECT 1 FROM task_assignments a WHERE a.task_id = t.id AND a.user_id = $1)
	 ORDER BY t.created_at DESC`
	return r.list(ctx, query, userID)
}

// ListVisibleInProject is ListVisibleTo narrowed to a single project.
func (r *TaskRepository) ListVisibleInProject(ctx context.Context, userID, projectID uuid.UUID) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + taskFrom + `
	 WHERE (p.creator_id = $1
	    OR EXISTS (SELECT 1 FROM task_assignments a WHERE a.task_id = t.id AND a.user_id = $1))
	   AND t.project_id = $2
	 ORDER BY t.created_at DESC`
	return r.list(ctx, query, userID, projectID)
}

func (r *TaskRepository) list(ctx context.Context, query string, args ...any) ([]*models.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []*models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}
