package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/portfolio/internal/database"
	"github.com/lib/pq"
)

// ProjectRepository provides PostgreSQL-backed project storage
type ProjectRepository struct {
	pool *Pool
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(pool *Pool) *ProjectRepository {
	return &ProjectRepository{pool: pool}
}

var _ database.ProjectWriter = (*ProjectRepository)(nil)

const projectColumns = `id, created_at, title, short_description, description,
	image_url, repo_url, demo_url, tags, is_featured, sort_order`

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullTags stores empty tag lists as NULL.
func nullTags(tags []string) any {
	if len(tags) == 0 {
		return nil
	}
	return pq.Array(tags)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (database.Project, error) {
	var (
		p                          database.Project
		imageURL, repoURL, demoURL sql.NullString
		tags                       pq.StringArray
	)
	err := row.Scan(&p.ID, &p.CreatedAt, &p.Title, &p.ShortDescription, &p.Description,
		&imageURL, &repoURL, &demoURL, &tags, &p.IsFeatured, &p.SortOrder)
	if err != nil {
		return p, err
	}
	p.ImageURL = imageURL.String
	p.RepoURL = repoURL.String
	p.DemoURL = demoURL.String
	if len(tags) > 0 {
		p.Tags = []string(tags)
	}
	return p, nil
}

func (r *ProjectRepository) ListProjects(ctx context.Context) ([]database.Project, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+projectColumns+` FROM projects ORDER BY sort_order ASC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := []database.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return projects, nil
}

func (r *ProjectRepository) GetProject(ctx context.Context, id string) (*database.Project, error) {
	p, err := scanProject(r.pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &p, nil
}

func (r *ProjectRepository) MaxSortOrder(ctx context.Context) (int, error) {
	var maxOrder int
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(MAX(sort_order), 0) FROM projects`).Scan(&maxOrder)
	if err != nil {
		return 0, fmt.Errorf("max sort order: %w", err)
	}
	return maxOrder, nil
}

func (r *ProjectRepository) InsertProject(ctx context.Context, p *database.Project) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO projects (`+projectColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.CreatedAt, p.Title, p.ShortDescription, p.Description,
		nullString(p.ImageURL), nullString(p.RepoURL), nullString(p.DemoURL),
		nullTags(p.Tags), p.IsFeatured, p.SortOrder)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (r *ProjectRepository) UpdateProject(ctx context.Context, id string, u database.ProjectUpdate) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE projects SET title = $1, short_description = $2, description = $3,
			image_url = $4, repo_url = $5, demo_url = $6, tags = $7
		 WHERE id = $8`,
		u.Title, u.ShortDescription, u.Description,
		nullString(u.ImageURL), nullString(u.RepoURL), nullString(u.DemoURL),
		nullTags(u.Tags), id)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if n == 0 {
		return database.ErrProjectNotFound
	}
	return nil
}

func (r *ProjectRepository) DeleteProjects(ctx context.Context, ids []string) (int, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("delete projects: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}
	return int(n), nil
}

func (r *ProjectRepository) UpdateProjectOrder(ctx context.Context, orderedIDs []string) (int, error) {
	var updated sql.NullInt64
	err := r.pool.QueryRow(ctx, `SELECT update_project_order($1)`, pq.Array(orderedIDs)).Scan(&updated)
	if err != nil {
		return 0, fmt.Errorf("update project order: %w", err)
	}
	return int(updated.Int64), nil
}
