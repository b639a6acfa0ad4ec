package db

import (
	"context"

	"github.com/chepyr/go-project-tracker/shared/models"
	"github.com/google/uuid"
)

type TagRepository struct {
	db DBTX
}

func NewTagRepository(db DBTX) *TagRepository {
	return &TagRepository{db: db}
}

func (r *TagRepository) Create(ctx context.Context, tag *models.Tag) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO tags (id, name, color) VALUES ($1, $2, $3)`,
		tag.ID, tag.Name, tag.Color)
	return err
}

// FindByRef looks a tag up by id or by name. ref is matched against the id
// column only when it parses as a UUID.
func (r *TagRepository) FindByRef(ctx context.Context, ref string) (*models.Tag, error) {
	var id uuid.NullUUID
	if parsed, err := uuid.Parse(ref); err == nil {
		id = uuid.NullUUID{UUID: parsed, Valid: true}
	}
	tag := &models.Tag{}
	err := r.db.QueryRowContext(ctx, `SELECT id, name, color FROM tags WHERE id = $1 OR name = $2 LIMIT 1`,
		id, ref).Scan(&tag.ID, &tag.Name, &tag.Color)
	if err != nil {
		return nil, err
	}
	return tag, nil
}

func (r *TagRepository) Link(ctx context.Context, taskID, tagID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO task_tags (task_id, tag_id) VALUES ($1, $2)`, taskID, tagID)
	return err
}

func (r *TagRepository) UnlinkTask(ctx context.Context, taskID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM task_tags WHERE task_id = $1`, taskID)
	return err
}

func (r *TagRepository) UnlinkProject(ctx context.Context, projectID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM task_tags
	 WHERE task_id IN (SELECT id FROM tasks WHERE project_id = $1)`, projectID)
	return err
}

// ListByTasks returns tags per task id, ordered by name.
func (r *TagRepository) ListByTasks(ctx context.Context, taskIDs []uuid.UUID) (map[uuid.UUID][]models.Tag, error) {
	out := make(map[uuid.UUID][]models.Tag)
	if len(taskIDs) == 0 {
		return out, nil
	}
	query := `SELECT tt.task_id, t.id, t.name, t.color
	 FROM task_tags tt JOIN tags t ON t.id = tt.tag_id
	 WHERE tt.task_id IN (` + placeholders(1, len(taskIDs)) + `)
	 ORDER BY t.name ASC`
	rows, err := r.db.QueryContext(ctx, query, anySlice(taskIDs)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var taskID uuid.UUID
		var tag models.Tag
		if err := rows.Scan(&taskID, &tag.ID, &tag.Name, &tag.Color); err != nil {
			return nil, err
		}
		out[taskID] = append(out[taskID], tag)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
