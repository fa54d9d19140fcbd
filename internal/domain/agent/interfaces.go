package agent

import (
	"context"

	"github.com/castral/stocktake/internal/domain/project"
	"github.com/castral/stocktake/internal/domain/stock"
)

// AgentRepository provides agent persistence and credential rotation.
type AgentRepository interface {
	GetByPhone(ctx context.Context, mobilePhone string) (*Agent, error)
	GetByToken(ctx context.Context, token string) (*Agent, error)
	SetToken(ctx context.Context, agentID int64, token string) error
}

// ProjectRepository resolves the running project at a location.
type ProjectRepository interface {
	RunningAtLocation(ctx context.Context, locationID int64) (*project.Project, error)
}

// RackRepository lists the active racks at a location.
type RackRepository interface {
	ActiveAtLocation(ctx context.Context, locationID int64) ([]stock.Rack, error)
}
