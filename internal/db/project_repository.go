package db

import (
	"context"

	"github.com/chepyr/go-project-tracker/shared/models"
	"github.com/google/uuid"
)

type ProjectRepository struct {
	db DBTX
}

func NewProjectRepository(db DBTX) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `p.id, p.name, p.description, p.status, p.start_date, p.end_date,
	 p.creator_id, p.created_at, p.updated_at, u.name, u.email`

func scanProject(row interface{ Scan(...any) error }) (*models.Project, error) {
	project := &models.Project{Creator: &models.UserSummary{}, Tasks: []*models.Task{}}
	var creatorEmail *string
	err := row.Scan(
		&project.ID, &project.Name, &project.Description, &project.Status,
		&project.StartDate, &project.EndDate, &project.CreatorID,
		&project.CreatedAt, &project.UpdatedAt, &project.Creator.Name, &creatorEmail,
	)
	if err != nil {
		return nil, err
	}
	project.Creator.ID = project.CreatorID
	if creatorEmail != nil {
		project.Creator.Email = *creatorEmail
	}
	return project, nil
}

func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	query := `INSERT INTO projects (id, name, description, status, start_date, end_date, creator_id, created_at, updated_at)
	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(
		ctx, query, project.ID, project.Name, project.Description, project.Status,
		project.StartDate, project.EndDate, project.CreatorID, project.CreatedAt, project.UpdatedAt)
	return err
}

// GetByID loads the project row with its creator summary. Tasks are not loaded.
func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	query := `SELECT ` + projectColumns + `
	 FROM projects p LEFT JOIN users u ON u.id = p.creator_id WHERE p.id = $1`
	return scanProject(r.db.QueryRowContext(ctx, query, id))
}

// Update writes the mutable columns. Returns sql.ErrNoRows when the project is gone.
func (r *ProjectRepository) Update(ctx context.Context, project *models.Project) error {
	query := `UPDATE projects SET name = $1, description = $2, status = $3, start_date = $4,
	 end_date = $5, updated_at = $6 WHERE id = $7`
	res, err := r.db.ExecContext(ctx, query, project.Name, project.Description, project.Status,
		project.StartDate, project.EndDate, project.UpdatedAt, project.ID)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// Delete removes the project row only; callers clear tasks first.
func (r *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r *ProjectRepository) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]*models.Project, error) {
	query := `SELECT ` + projectColumns + `
	 FROM projects p LEFT JOIN users u ON u.id = p.creator_id
	 WHERE p.creator_id = $1 ORDER BY p.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, creatorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []*models.Project{}
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return projects, nil
}
