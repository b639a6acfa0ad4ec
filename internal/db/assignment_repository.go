package db

import (
	"context"

	"github.com/chepyr/go-project-tracker/shared/models"
	"github.com/google/uuid"
)

type AssignmentRepository struct {
	db DBTX
}

func NewAssignmentRepository(db DBTX) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

func (r *AssignmentRepository) Create(ctx context.Context, a *models.Assignment) error {
	query := `INSERT INTO task_assignments (task_id, user_id, assigned_at, completed_at)
	 VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, query, a.TaskID, a.UserID, a.AssignedAt, a.CompletedAt)
	return err
}

func (r *AssignmentRepository) Exists(ctx context.Context, taskID, userID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM task_assignments WHERE task_id = $1 AND user_id = $2)`
	err := r.db.QueryRowContext(ctx, query, taskID, userID).Scan(&exists)
	return exists, err
}

// Delete removes one (task, user) pair. Returns sql.ErrNoRows if it did not exist.
func (r *AssignmentRepository) Delete(ctx context.Context, taskID, userID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM task_assignments WHERE task_id = $1 AND user_id = $2`, taskID, userID)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r *AssignmentRepository) DeleteByTask(ctx context.Context, taskID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM task_assignments WHERE task_id = $1`, taskID)
	return err
}

func (r *AssignmentRepository) DeleteByProject(ctx context.Context, projectID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM task_assignments
	 WHERE task_id IN (SELECT id FROM tasks WHERE project_id = $1)`, projectID)
	return err
}

func (r *AssignmentRepository) CountByTask(ctx context.Context, taskID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM task_assignments WHERE task_id = $1`, taskID).Scan(&n)
	return n, err
}

// ListByTasks returns the assignments of the given tasks with user summaries,
// grouped by task id.
func (r *AssignmentRepository) ListByTasks(ctx context.Context, taskIDs []uuid.UUID) (map[uuid.UUID][]models.Assignment, error) {
	out := make(map[uuid.UUID][]models.Assignment)
	if len(taskIDs) == 0 {
		return out, nil
	}
	query := `SELECT a.task_id, a.user_id, a.assigned_at, a.completed_at, u.name, u.email
	 FROM task_assignments a JOIN users u ON u.id = a.user_id
	 WHERE a.task_id IN (` + placeholders(1, len(taskIDs)) + `)
	 ORDER BY a.assigned_at ASC`
	rows, err := r.db.QueryContext(ctx, query, anySlice(taskIDs)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		a := models.Assignment{User: &models.UserSummary{}}
		if err := rows.Scan(&a.TaskID, &a.UserID, &a.AssignedAt, &a.CompletedAt,
			&a.User.Name, &a.User.Email); err != nil {
			return nil, err
		}
		a.User.ID = a.UserID
		out[a.TaskID] = append(out[a.TaskID], a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
