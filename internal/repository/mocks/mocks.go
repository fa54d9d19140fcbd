package mocks

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/castral/stocktake/internal/domain/agent"
	"github.com/castral/stocktake/internal/domain/project"
	"github.com/castral/stocktake/internal/domain/stock"
	"github.com/castral/stocktake/internal/domain/submission"
)

// AgentRepository is a mock for agent.AgentRepository.
type AgentRepository struct {
	mock.Mock
}

func (m *AgentRepository) GetByPhone(ctx context.Context, mobilePhone string) (*agent.Agent, error) {
	args := m.Called(ctx, mobilePhone)
	if a, ok := args.Get(0).(*agent.Agent); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AgentRepository) GetByToken(ctx context.Context, token string) (*agent.Agent, error) {
	args := m.Called(ctx, token)
	if a, ok := args.Get(0).(*agent.Agent); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AgentRepository) SetToken(ctx context.Context, agentID int64, token string) error {
	args := m.Called(ctx, agentID, token)
	return args.Error(0)
}

// ProjectRepository is a mock for the project lookup interfaces.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Get(ctx context.Context, id int64) (*project.Project, error) {
	args := m.Called(ctx, id)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) RunningAtLocation(ctx context.Context, locationID int64) (*project.Project, error) {
	args := m.Called(ctx, locationID)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

// RackRepository is a mock for agent.RackRepository.
type RackRepository struct {
	mock.Mock
}

func (m *RackRepository) ActiveAtLocation(ctx context.Context, locationID int64) ([]stock.Rack, error) {
	args := m.Called(ctx, locationID)
	if racks, ok := args.Get(0).([]stock.Rack); ok {
		return racks, args.Error(1)
	}
	return nil, args.Error(1)
}

// LotRepository is a mock for the lot lookup interfaces.
type LotRepository struct {
	mock.Mock
}

func (m *LotRepository) GetByID(ctx context.Context, id int64) (*stock.Lot, error) {
	args := m.Called(ctx, id)
	if lot, ok := args.Get(0).(*stock.Lot); ok {
		return lot, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *LotRepository) GetByName(ctx context.Context, name string) (*stock.Lot, error) {
	args := m.Called(ctx, name)
	if lot, ok := args.Get(0).(*stock.Lot); ok {
		return lot, args.Error(1)
	}
	return nil, args.Error(1)
}

// LocationRepository is a mock for stock.LocationRepository.
type LocationRepository struct {
	mock.Mock
}

func (m *LocationRepository) Get(ctx context.Context, id int64) (*stock.Location, error) {
	args := m.Called(ctx, id)
	if loc, ok := args.Get(0).(*stock.Location); ok {
		return loc, args.Error(1)
	}
	return nil, args.Error(1)
}

// QuantRepository is a mock for the stock ledger interfaces.
type QuantRepository struct {
	mock.Mock
}

func (m *QuantRepository) LotQuantity(ctx context.Context, productID, lotID, locationID int64) (decimal.Decimal, error) {
	args := m.Called(ctx, productID, lotID, locationID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *QuantRepository) ProductQuantity(ctx context.Context, productID, locationID int64) (decimal.Decimal, error) {
	args := m.Called(ctx, productID, locationID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *QuantRepository) ProductLots(ctx context.Context, productID, locationID int64) ([]stock.LotQuantity, error) {
	args := m.Called(ctx, productID, locationID)
	if lots, ok := args.Get(0).([]stock.LotQuantity); ok {
		return lots, args.Error(1)
	}
	return nil, args.Error(1)
}

// CountedQuantityRepository is a mock for stock.CountedQuantityRepository.
type CountedQuantityRepository struct {
	mock.Mock
}

func (m *CountedQuantityRepository) ValidatedQuantityForLot(ctx context.Context, lotID int64) (decimal.Decimal, error) {
	args := m.Called(ctx, lotID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// SubmissionRepository is a mock for submission.SubmissionRepository.
type SubmissionRepository struct {
	mock.Mock
}

func (m *SubmissionRepository) CreateBatch(ctx context.Context, sub *submission.Submission, lines []*submission.ScanLine) error {
	args := m.Called(ctx, sub, lines)
	return args.Error(0)
}

func (m *SubmissionRepository) Get(ctx context.Context, id int64) (*submission.Submission, error) {
	args := m.Called(ctx, id)
	if sub, ok := args.Get(0).(*submission.Submission); ok {
		return sub, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SubmissionRepository) Validate(ctx context.Context, id int64, validatedBy string, at time.Time) error {
	args := m.Called(ctx, id, validatedBy, at)
	return args.Error(0)
}

func (m *SubmissionRepository) AppendNote(ctx context.Context, id int64, note string) error {
	args := m.Called(ctx, id, note)
	return args.Error(0)
}

func (m *SubmissionRepository) List(ctx context.Context, opts submission.ListOptions) ([]submission.Submission, int, error) {
	args := m.Called(ctx, opts)
	if subs, ok := args.Get(0).([]submission.Submission); ok {
		return subs, args.Int(1), args.Error(2)
	}
	return nil, args.Int(1), args.Error(2)
}

func (m *SubmissionRepository) FindValidatedByLot(ctx context.Context, lotID int64, locationID *int64) ([]submission.Submission, error) {
	args := m.Called(ctx, lotID, locationID)
	if subs, ok := args.Get(0).([]submission.Submission); ok {
		return subs, args.Error(1)
	}
	return nil, args.Error(1)
}

// ScanLineRepository is a mock for submission.ScanLineRepository.
type ScanLineRepository struct {
	mock.Mock
}

func (m *ScanLineRepository) Create(ctx context.Context, line *submission.ScanLine) error {
	args := m.Called(ctx, line)
	return args.Error(0)
}

func (m *ScanLineRepository) Get(ctx context.Context, id int64) (*submission.ScanLine, error) {
	args := m.Called(ctx, id)
	if line, ok := args.Get(0).(*submission.ScanLine); ok {
		return line, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ScanLineRepository) Update(ctx context.Context, line *submission.ScanLine) error {
	args := m.Called(ctx, line)
	return args.Error(0)
}

func (m *ScanLineRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *ScanLineRepository) ListBySubmission(ctx context.Context, submissionID int64, order string) ([]submission.ScanLine, error) {
	args := m.Called(ctx, submissionID, order)
	if lines, ok := args.Get(0).([]submission.ScanLine); ok {
		return lines, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ScanLineRepository) ListBySubmissionAndLot(ctx context.Context, submissionID, lotID int64) ([]submission.ScanLine, error) {
	args := m.Called(ctx, submissionID, lotID)
	if lines, ok := args.Get(0).([]submission.ScanLine); ok {
		return lines, args.Error(1)
	}
	return nil, args.Error(1)
}
