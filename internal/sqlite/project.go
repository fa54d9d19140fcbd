package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/castral/stocktake/internal/domain/project"
	"github.com/castral/stocktake/internal/repository"
)

// ProjectRepository implements project lookups for SQLite
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func scanProject(row *sql.Row) (*project.Project, error) {
	var proj project.Project
	var locationID sql.NullInt64
	var startDate sql.NullTime
	err := row.Scan(
		&proj.ID,
		&proj.Name,
		&locationID,
		&proj.LocationName,
		&proj.State,
		&startDate,
	)
	if err != nil {
		return nil, err
	}
	if locationID.Valid {
		proj.LocationID = &locationID.Int64
	}
	if startDate.Valid {
		t := startDate.Time
		proj.StartDate = &t
	}
	return &proj, nil
}

// Get retrieves a project by ID
func (r *ProjectRepository) Get(ctx context.Context, id int64) (*project.Project, error) {
	query := `
		SELECT p.id, p.name, p.location_id, COALESCE(l.name, ''), p.state, p.start_date
		FROM projects p
		LEFT JOIN locations l ON l.id = p.location_id
		WHERE p.id = ?
	`

	proj, err := scanProject(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return proj, nil
}

// RunningAtLocation retrieves the in-progress project at a location. When
// several are running the most recently started wins.
func (r *ProjectRepository) RunningAtLocation(ctx context.Context, locationID int64) (*project.Project, error) {
	query := `
		SELECT p.id, p.name, p.location_id, COALESCE(l.name, ''), p.state, p.start_date
		FROM projects p
		LEFT JOIN locations l ON l.id = p.location_id
		WHERE p.location_id = ? AND p.state = ?
		ORDER BY p.start_date DESC
		LIMIT 1
	`

	proj, err := scanProject(r.db.QueryRowContext(ctx, query, locationID, project.StateInProgress))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get running project: %w", err)
	}

	return proj, nil
}
