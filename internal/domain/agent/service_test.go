package agent_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/castral/stocktake/internal/domain/agent"
	"github.com/castral/stocktake/internal/domain/project"
	"github.com/castral/stocktake/internal/domain/stock"
	"github.com/castral/stocktake/internal/repository"
	"github.com/castral/stocktake/internal/repository/mocks"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pinHash(t *testing.T, pin string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestLogin_ReusesExistingToken(t *testing.T) {
	ctx := context.Background()
	token := "existing-token"
	locationID := int64(5)

	agents := &mocks.AgentRepository{}
	agents.On("GetByPhone", ctx, "0912345678").Return(&agent.Agent{
		ID:          1,
		Name:        "Amal",
		MobilePhone: "0912345678",
		PINHash:     pinHash(t, "1234"),
		APIToken:    &token,
		LocationID:  &locationID,
	}, nil)

	projects := &mocks.ProjectRepository{}
	projects.On("RunningAtLocation", ctx, locationID).Return(&project.Project{
		ID:    7,
		Name:  "August Count",
		State: project.StateInProgress,
	}, nil)

	racks := &mocks.RackRepository{}
	racks.On("ActiveAtLocation", ctx, locationID).Return([]stock.Rack{
		{ID: 1, Name: "A-01", LocationID: locationID},
	}, nil)

	svc := agent.NewService(agents, projects, racks, testLogger())
	result, err := svc.Login(ctx, "0912345678", "1234")
	require.NoError(t, err)
	require.Equal(t, token, result.APIToken)
	require.Equal(t, int64(1), result.Agent.ID)
	require.NotNil(t, result.RunningProject)
	require.Equal(t, int64(7), result.RunningProject.ID)
	require.Len(t, result.AvailableRacks, 1)
	agents.AssertNotCalled(t, "SetToken", mock.Anything, mock.Anything, mock.Anything)
}

func TestLogin_IssuesTokenWhenNone(t *testing.T) {
	ctx := context.Background()

	agents := &mocks.AgentRepository{}
	agents.On("GetByPhone", ctx, "0912345678").Return(&agent.Agent{
		ID:          1,
		Name:        "Amal",
		MobilePhone: "0912345678",
		PINHash:     pinHash(t, "1234"),
	}, nil)
	agents.On("SetToken", ctx, int64(1), mock.AnythingOfType("string")).Return(nil)

	svc := agent.NewService(agents, &mocks.ProjectRepository{}, &mocks.RackRepository{}, testLogger())
	result, err := svc.Login(ctx, "0912345678", "1234")
	require.NoError(t, err)
	require.Len(t, result.APIToken, 32)
	require.Nil(t, result.RunningProject)
	require.Empty(t, result.AvailableRacks)
	agents.AssertExpectations(t)
}

func TestLogin_NoRunningProject(t *testing.T) {
	ctx := context.Background()
	token := "tok"
	locationID := int64(5)

	agents := &mocks.AgentRepository{}
	agents.On("GetByPhone", ctx, "0912345678").Return(&agent.Agent{
		ID:          1,
		Name:        "Amal",
		MobilePhone: "0912345678",
		PINHash:     pinHash(t, "1234"),
		APIToken:    &token,
		LocationID:  &locationID,
	}, nil)

	projects := &mocks.ProjectRepository{}
	projects.On("RunningAtLocation", ctx, locationID).Return((*project.Project)(nil), repository.ErrNotFound)

	racks := &mocks.RackRepository{}
	racks.On("ActiveAtLocation", ctx, locationID).Return([]stock.Rack{}, nil)

	svc := agent.NewService(agents, projects, racks, testLogger())
	result, err := svc.Login(ctx, "0912345678", "1234")
	require.NoError(t, err)
	require.Nil(t, result.RunningProject)
}

func TestLogin_InvalidPIN(t *testing.T) {
	ctx := context.Background()

	agents := &mocks.AgentRepository{}
	agents.On("GetByPhone", ctx, "0912345678").Return(&agent.Agent{
		ID:      1,
		PINHash: pinHash(t, "1234"),
	}, nil)

	svc := agent.NewService(agents, &mocks.ProjectRepository{}, &mocks.RackRepository{}, testLogger())
	_, err := svc.Login(ctx, "0912345678", "9999")
	require.ErrorIs(t, err, agent.ErrInvalidPIN)
}

func TestLogin_UnknownPhone(t *testing.T) {
	ctx := context.Background()

	agents := &mocks.AgentRepository{}
	agents.On("GetByPhone", ctx, "0000000000").Return((*agent.Agent)(nil), repository.ErrNotFound)

	svc := agent.NewService(agents, &mocks.ProjectRepository{}, &mocks.RackRepository{}, testLogger())
	_, err := svc.Login(ctx, "0000000000", "1234")
	require.ErrorIs(t, err, agent.ErrAgentNotFound)
}

func TestLogin_MissingCredentials(t *testing.T) {
	svc := agent.NewService(&mocks.AgentRepository{}, &mocks.ProjectRepository{}, &mocks.RackRepository{}, testLogger())

	_, err := svc.Login(context.Background(), "", "1234")
	require.ErrorIs(t, err, agent.ErrMissingCredentials)

	_, err = svc.Login(context.Background(), "0912345678", "")
	require.ErrorIs(t, err, agent.ErrMissingCredentials)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()

	agents := &mocks.AgentRepository{}
	agents.On("GetByToken", ctx, "good").Return(&agent.Agent{ID: 3}, nil)
	agents.On("GetByToken", ctx, "bad").Return((*agent.Agent)(nil), repository.ErrNotFound)

	svc := agent.NewService(agents, &mocks.ProjectRepository{}, &mocks.RackRepository{}, testLogger())

	a, err := svc.Authenticate(ctx, "good")
	require.NoError(t, err)
	require.Equal(t, int64(3), a.ID)

	_, err = svc.Authenticate(ctx, "bad")
	require.ErrorIs(t, err, agent.ErrInvalidToken)

	_, err = svc.Authenticate(ctx, "")
	require.ErrorIs(t, err, agent.ErrMissingToken)

	_, err = svc.Authenticate(ctx, "   ")
	require.ErrorIs(t, err, agent.ErrMissingToken)
}

func TestLogout_RotatesToken(t *testing.T) {
	ctx := context.Background()

	var rotated string
	agents := &mocks.AgentRepository{}
	agents.On("GetByToken", ctx, "current").Return(&agent.Agent{ID: 3}, nil)
	agents.On("SetToken", ctx, int64(3), mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) {
			rotated = args.String(2)
		}).Return(nil)

	svc := agent.NewService(agents, &mocks.ProjectRepository{}, &mocks.RackRepository{}, testLogger())
	require.NoError(t, svc.Logout(ctx, "current"))
	require.NotEmpty(t, rotated)
	require.NotEqual(t, "current", rotated)
}

func TestRefreshToken(t *testing.T) {
	ctx := context.Background()

	agents := &mocks.AgentRepository{}
	agents.On("GetByToken", ctx, "current").Return(&agent.Agent{ID: 3}, nil)
	agents.On("SetToken", ctx, int64(3), mock.AnythingOfType("string")).Return(nil)

	svc := agent.NewService(agents, &mocks.ProjectRepository{}, &mocks.RackRepository{}, testLogger())
	fresh, err := svc.RefreshToken(ctx, "current")
	require.NoError(t, err)
	require.Len(t, fresh, 32)
	require.NotEqual(t, "current", fresh)
}
