package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/castral/stocktake/internal/domain/project"
	"github.com/castral/stocktake/internal/domain/stock"
	"github.com/castral/stocktake/internal/repository"
)

// Service authenticates agents and manages their API token lifecycle.
type Service struct {
	agents   AgentRepository
	projects ProjectRepository
	racks    RackRepository
	logger   *slog.Logger
}

// NewService creates a new agent service.
func NewService(agents AgentRepository, projects ProjectRepository, racks RackRepository, logger *slog.Logger) *Service {
	return &Service{
		agents:   agents,
		projects: projects,
		racks:    racks,
		logger:   logger,
	}
}

// LoginResult is the payload returned on successful login.
type LoginResult struct {
	APIToken       string
	Agent          Info
	RunningProject *project.Project
	AvailableRacks []stock.Rack
}

// Authenticate resolves an opaque API token to the acting agent. It has no
// side effects and always returns an explicit (agent, error) pair.
func (s *Service) Authenticate(ctx context.Context, token string) (*Agent, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrMissingToken
	}
	a, err := s.agents.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("resolving token: %w", err)
	}
	return a, nil
}

// Login verifies the mobile phone + PIN pair and returns the agent's API
// token, issuing one if the agent holds none. The response also carries the
// in-progress project and active racks at the agent's location so the client
// can start scanning immediately.
func (s *Service) Login(ctx context.Context, mobilePhone, pin string) (*LoginResult, error) {
	if strings.TrimSpace(mobilePhone) == "" || strings.TrimSpace(pin) == "" {
		return nil, ErrMissingCredentials
	}

	a, err := s.agents.GetByPhone(ctx, mobilePhone)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAgentNotFound
		}
		return nil, fmt.Errorf("looking up agent: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(a.PINHash), []byte(pin)) != nil {
		return nil, ErrInvalidPIN
	}

	token := ""
	if a.APIToken != nil && *a.APIToken != "" {
		token = *a.APIToken
	} else {
		token = newToken()
		if err := s.agents.SetToken(ctx, a.ID, token); err != nil {
			return nil, fmt.Errorf("issuing token: %w", err)
		}
	}

	result := &LoginResult{
		APIToken: token,
		Agent:    a.Info(),
	}

	if a.LocationID != nil {
		running, err := s.projects.RunningAtLocation(ctx, *a.LocationID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("finding running project: %w", err)
		}
		result.RunningProject = running

		racks, err := s.racks.ActiveAtLocation(ctx, *a.LocationID)
		if err != nil {
			return nil, fmt.Errorf("listing racks: %w", err)
		}
		result.AvailableRacks = racks
	}

	s.logger.Info("agent logged in", "agent_id", a.ID)
	return result, nil
}

// Logout rotates the agent's token to a fresh value that is never shared with
// the client, invalidating the presented credential.
func (s *Service) Logout(ctx context.Context, token string) error {
	a, err := s.Authenticate(ctx, token)
	if err != nil {
		return err
	}
	if err := s.agents.SetToken(ctx, a.ID, newToken()); err != nil {
		return fmt.Errorf("rotating token: %w", err)
	}
	s.logger.Info("agent logged out", "agent_id", a.ID)
	return nil
}

// RefreshToken rotates the agent's token and returns the new value.
func (s *Service) RefreshToken(ctx context.Context, token string) (string, error) {
	a, err := s.Authenticate(ctx, token)
	if err != nil {
		return "", err
	}
	fresh := newToken()
	if err := s.agents.SetToken(ctx, a.ID, fresh); err != nil {
		return "", fmt.Errorf("rotating token: %w", err)
	}
	return fresh, nil
}

// newToken returns an opaque 32-character credential.
func newToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
