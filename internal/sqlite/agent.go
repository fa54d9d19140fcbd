package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/castral/stocktake/internal/domain/agent"
	"github.com/castral/stocktake/internal/repository"
)

// AgentRepository implements agent.AgentRepository for SQLite
type AgentRepository struct {
	db *DB
}

// NewAgentRepository creates a new AgentRepository
func NewAgentRepository(db *DB) *AgentRepository {
	return &AgentRepository{db: db}
}

const agentColumns = `
	a.id, a.name, a.mobile_phone, a.pin_hash, a.api_token, a.location_id,
	COALESCE(l.name, '')
`

func scanAgent(row *sql.Row) (*agent.Agent, error) {
	var ag agent.Agent
	var token sql.NullString
	var locationID sql.NullInt64
	err := row.Scan(
		&ag.ID,
		&ag.Name,
		&ag.MobilePhone,
		&ag.PINHash,
		&token,
		&locationID,
		&ag.LocationName,
	)
	if err != nil {
		return nil, err
	}
	if token.Valid {
		ag.APIToken = &token.String
	}
	if locationID.Valid {
		ag.LocationID = &locationID.Int64
	}
	return &ag, nil
}

// GetByPhone retrieves an agent by mobile phone number
func (r *AgentRepository) GetByPhone(ctx context.Context, mobilePhone string) (*agent.Agent, error) {
	query := `
		SELECT ` + agentColumns + `
		FROM agents a
		LEFT JOIN locations l ON l.id = a.location_id
		WHERE a.mobile_phone = ?
	`

	ag, err := scanAgent(r.db.QueryRowContext(ctx, query, mobilePhone))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get agent by phone: %w", err)
	}

	return ag, nil
}

// GetByToken retrieves an agent by API token
func (r *AgentRepository) GetByToken(ctx context.Context, token string) (*agent.Agent, error) {
	query := `
		SELECT ` + agentColumns + `
		FROM agents a
		LEFT JOIN locations l ON l.id = a.location_id
		WHERE a.api_token = ?
	`

	ag, err := scanAgent(r.db.QueryRowContext(ctx, query, token))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get agent by token: %w", err)
	}

	return ag, nil
}

// SetToken replaces the agent's API token
func (r *AgentRepository) SetToken(ctx context.Context, agentID int64, token string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE agents SET api_token = ? WHERE id = ?`, token, agentID)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to set agent token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}
