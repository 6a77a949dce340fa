package handler

import (
	"context"

	"erp/internal/model"
	"erp/internal/repository"
	"erp/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockProjects struct{ mock.Mock }

func (m *mockProjects) Create(ctx context.Context, scope service.Scope, req service.CreateProjectRequest) (*model.Project, error) {
	args := m.Called(ctx, scope, req)
	p, _ := args.Get(0).(*model.Project)
	return p, args.Error(1)
}

func (m *mockProjects) Get(ctx context.Context, scope service.Scope, id uuid.UUID) (*model.Project, error) {
	args := m.Called(ctx, scope, id)
	p, _ := args.Get(0).(*model.Project)
	return p, args.Error(1)
}

type mockVariations struct{ mock.Mock }

func (m *mockVariations) Create(ctx context.Context, scope service.Scope, projectID uuid.UUID, req service.CreateVariationRequest) (service.VariationResponse, error) {
	args := m.Called(ctx, scope, projectID, req)
	return args.Get(0).(service.VariationResponse), args.Error(1)
}

func (m *mockVariations) Get(ctx context.Context, scope service.Scope, projectID, id uuid.UUID) (service.VariationResponse, error) {
	args := m.Called(ctx, scope, projectID, id)
	return args.Get(0).(service.VariationResponse), args.Error(1)
}

func (m *mockVariations) List(ctx context.Context, scope service.Scope, projectID uuid.UUID, status string, page, limit int) ([]service.VariationResponse, int64, error) {
	args := m.Called(ctx, scope, projectID, status, page, limit)
	list, _ := args.Get(0).([]service.VariationResponse)
	return list, args.Get(1).(int64), args.Error(2)
}

func (m *mockVariations) Update(ctx context.Context, scope service.Scope, projectID, id uuid.UUID, req service.UpdateVariationRequest) (service.VariationResponse, error) {
	args := m.Called(ctx, scope, projectID, id, req)
	return args.Get(0).(service.VariationResponse), args.Error(1)
}

func (m *mockVariations) ChangeStatus(ctx context.Context, scope service.Scope, projectID, id uuid.UUID, req service.ChangeStatusRequest) (service.VariationResponse, error) {
	args := m.Called(ctx, scope, projectID, id, req)
	return args.Get(0).(service.VariationResponse), args.Error(1)
}

func (m *mockVariations) History(ctx context.Context, scope service.Scope, projectID, id uuid.UUID) ([]model.VariationStatusHistory, error) {
	args := m.Called(ctx, scope, projectID, id)
	h, _ := args.Get(0).([]model.VariationStatusHistory)
	return h, args.Error(1)
}

type mockSnapshots struct{ mock.Mock }

func (m *mockSnapshots) Get(ctx context.Context, scope service.Scope, projectID uuid.UUID) (*model.ProjectSnapshot, error) {
	args := m.Called(ctx, scope, projectID)
	s, _ := args.Get(0).(*model.ProjectSnapshot)
	return s, args.Error(1)
}

func (m *mockSnapshots) Recompute(ctx context.Context, projectID uuid.UUID, categories ...model.SnapshotCategory) error {
	return m.Called(ctx, projectID, categories).Error(0)
}

func (m *mockSnapshots) RecomputeForTenant(ctx context.Context, scope service.Scope, projectID uuid.UUID, categories ...model.SnapshotCategory) (*model.ProjectSnapshot, error) {
	args := m.Called(ctx, scope, projectID, categories)
	s, _ := args.Get(0).(*model.ProjectSnapshot)
	return s, args.Error(1)
}

func (m *mockSnapshots) RecomputeAll(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type mockCVR struct{ mock.Mock }

func (m *mockCVR) SnapshotTotals(ctx context.Context, scope service.Scope, projectID uuid.UUID) (service.Breakdown, error) {
	args := m.Called(ctx, scope, projectID)
	return args.Get(0).(service.Breakdown), args.Error(1)
}

func (m *mockCVR) ByCostCode(ctx context.Context, scope service.Scope, projectID uuid.UUID) (service.CostCodeReport, error) {
	args := m.Called(ctx, scope, projectID)
	return args.Get(0).(service.CostCodeReport), args.Error(1)
}

func (m *mockCVR) ForPeriod(ctx context.Context, scope service.Scope, projectID uuid.UUID, period string, opts service.PeriodOptions) (service.PeriodReport, error) {
	args := m.Called(ctx, scope, projectID, period, opts)
	return args.Get(0).(service.PeriodReport), args.Error(1)
}

type mockAudit struct{ mock.Mock }

func (m *mockAudit) List(ctx context.Context, scope service.Scope, q service.AuditQuery) ([]service.AuditLogResponse, int64, error) {
	args := m.Called(ctx, scope, q)
	logs, _ := args.Get(0).([]service.AuditLogResponse)
	return logs, args.Get(1).(int64), args.Error(2)
}

// mockLedgers only records the calls the tests make; the rest satisfy the
// interface.
type mockLedgers struct{ mock.Mock }

func (m *mockLedgers) CreateBudgetLine(ctx context.Context, scope service.Scope, projectID uuid.UUID, in service.BudgetLineInput) (*model.BudgetLine, error) {
	args := m.Called(ctx, scope, projectID, in)
	row, _ := args.Get(0).(*model.BudgetLine)
	return row, args.Error(1)
}

func (m *mockLedgers) UpdateBudgetLine(ctx context.Context, scope service.Scope, projectID, id uuid.UUID, in service.BudgetLineInput) (*model.BudgetLine, error) {
	args := m.Called(ctx, scope, projectID, id, in)
	row, _ := args.Get(0).(*model.BudgetLine)
	return row, args.Error(1)
}

func (m *mockLedgers) DeleteBudgetLine(ctx context.Context, scope service.Scope, projectID, id uuid.UUID) error {
	return m.Called(ctx, scope, projectID, id).Error(0)
}

func (m *mockLedgers) ListBudgetLines(ctx context.Context, scope service.Scope, projectID uuid.UUID, filter repository.ListFilter) ([]model.BudgetLine, int64, error) {
	args := m.Called(ctx, scope, projectID, filter)
	rows, _ := args.Get(0).([]model.BudgetLine)
	return rows, args.Get(1).(int64), args.Error(2)
}

func (m *mockLedgers) CreateCommitment(ctx context.Context, scope service.Scope, projectID uuid.UUID, in service.CommitmentInput) (*model.Commitment, error) {
	args := m.Called(ctx, scope, projectID, in)
	row, _ := args.Get(0).(*model.Commitment)
	return row, args.Error(1)
}

func (m *mockLedgers) UpdateCommitment(ctx context.Context, scope service.Scope, projectID, id uuid.UUID, in service.CommitmentInput) (*model.Commitment, error) {
	args := m.Called(ctx, scope, projectID, id, in)
	row, _ := args.Get(0).(*model.Commitment)
	return row, args.Error(1)
}

func (m *mockLedgers) DeleteCommitment(ctx context.Context, scope service.Scope, projectID, id uuid.UUID) error {
	return m.Called(ctx, scope, projectID, id).Error(0)
}

func (m *mockLedgers) ListCommitments(ctx context.Context, scope service.Scope, projectID uuid.UUID, filter repository.ListFilter) ([]model.Commitment, int64, error) {
	args := m.Called(ctx, scope, projectID, filter)
	rows, _ := args.Get(0).([]model.Commitment)
	return rows, args.Get(1).(int64), args.Error(2)
}

func (m *mockLedgers) CreateActualCost(ctx context.Context, scope service.Scope, projectID uuid.UUID, in service.ActualCostInput) (*model.ActualCost, error) {
	args := m.Called(ctx, scope, projectID, in)
	row, _ := args.Get(0).(*model.ActualCost)
	return row, args.Error(1)
}

func (m *mockLedgers) UpdateActualCost(ctx context.Context, scope service.Scope, projectID, id uuid.UUID, in service.ActualCostInput) (*model.ActualCost, error) {
	args := m.Called(ctx, scope, projectID, id, in)
	row, _ := args.Get(0).(*model.ActualCost)
	return row, args.Error(1)
}

func (m *mockLedgers) DeleteActualCost(ctx context.Context, scope service.Scope, projectID, id uuid.UUID) error {
	return m.Called(ctx, scope, projectID, id).Error(0)
}

func (m *mockLedgers) ListActualCosts(ctx context.Context, scope service.Scope, projectID uuid.UUID, filter repository.ListFilter) ([]model.ActualCost, int64, error) {
	args := m.Called(ctx, scope, projectID, filter)
	rows, _ := args.Get(0).([]model.ActualCost)
	return rows, args.Get(1).(int64), args.Error(2)
}

func (m *mockLedgers) CreateForecast(ctx context.Context, scope service.Scope, projectID uuid.UUID, in service.ForecastInput) (*model.Forecast, error) {
	args := m.Called(ctx, scope, projectID, in)
	row, _ := args.Get(0).(*model.Forecast)
	return row, args.Error(1)
}

func (m *mockLedgers) UpdateForecast(ctx context.Context, scope service.Scope, projectID, id uuid.UUID, in service.ForecastInput) (*model.Forecast, error) {
	args := m.Called(ctx, scope, projectID, id, in)
	row, _ := args.Get(0).(*model.Forecast)
	return row, args.Error(1)
}

func (m *mockLedgers) DeleteForecast(ctx context.Context, scope service.Scope, projectID, id uuid.UUID) error {
	return m.Called(ctx, scope, projectID, id).Error(0)
}

func (m *mockLedgers) ListForecasts(ctx context.Context, scope service.Scope, projectID uuid.UUID, filter repository.ListFilter) ([]model.Forecast, int64, error) {
	args := m.Called(ctx, scope, projectID, filter)
	rows, _ := args.Get(0).([]model.Forecast)
	return rows, args.Get(1).(int64), args.Error(2)
}
