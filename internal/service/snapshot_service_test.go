package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"erp/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var snapshotNow = time.Date(2025, time.March, 20, 9, 0, 0, 0, time.UTC)

func TestRecomputeFinancialTotals(t *testing.T) {
	f := newFixture()
	f.budget(f.tenantID, "01", "Groundworks", "100000", "")
	f.commitment(f.tenantID, "Groundworks", "20000", model.CommitmentOpen, "")
	f.commitment(f.tenantID, "Groundworks", "9000", model.CommitmentClosed, "")
	f.actual(f.tenantID, "Groundworks", "15000", date(2025, 3, 1))
	f.forecast(f.tenantID, "2025-04", "5000")

	// Same project id, different tenant: must never be counted.
	other := uuid.New()
	f.budget(other, "01", "Groundworks", "999999", "")
	f.commitment(other, "Groundworks", "999999", model.CommitmentOpen, "")

	svc := f.snapshotService(snapshotNow)
	require.NoError(t, svc.Recompute(context.Background(), f.projectID, model.CategoryFinancial))

	snap, err := svc.Get(context.Background(), f.scope, f.projectID)
	require.NoError(t, err)
	assertDecimal(t, "100000", snap.BudgetTotal)
	assertDecimal(t, "20000", snap.CommittedTotal)
	assertDecimal(t, "15000", snap.ActualTotal)
	assertDecimal(t, "5000", snap.ForecastTotal)
	assert.Equal(t, snapshotNow, snap.UpdatedAt)
	assert.Len(t, f.notifier.published, 1)
}

func TestRecomputeIsIdempotent(t *testing.T) {
	f := newFixture()
	f.budget(f.tenantID, "01", "Groundworks", "1200.50", "")
	f.commitment(f.tenantID, "Groundworks", "300", model.CommitmentOpen, "")
	f.variation(model.VariationDraft, "10", nil)
	f.variation(model.VariationApproved, "250", ptr(date(2025, 3, 2)))
	due := snapshotNow.Add(48 * time.Hour)
	f.snapshots.tasks = []model.Task{{TenantID: f.tenantID, ProjectID: f.projectID, Status: "Open", DueDate: &due}}
	f.snapshots.carbon = []model.CarbonEntry{{TenantID: f.tenantID, ProjectID: f.projectID, Quantity: dec("4.5"), RecordedAt: date(2025, 3, 3)}}

	svc := f.snapshotService(snapshotNow)
	ctx := context.Background()

	require.NoError(t, svc.Recompute(ctx, f.projectID))
	first, err := json.Marshal(f.snapshots.rows[f.projectID])
	require.NoError(t, err)

	require.NoError(t, svc.Recompute(ctx, f.projectID))
	second, err := json.Marshal(f.snapshots.rows[f.projectID])
	require.NoError(t, err)

	assert.JSONEq(t, string(first), string(second))
}

func TestRecomputeIsolatesCategoryFailures(t *testing.T) {
	f := newFixture()
	f.budget(f.tenantID, "01", "Groundworks", "500", "")
	f.snapshots.fail[model.CategoryTask] = errors.New("tasks table unavailable")

	svc := f.snapshotService(snapshotNow)
	err := svc.Recompute(context.Background(), f.projectID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRecomputeFailure)
	assert.Contains(t, err.Error(), "task")

	snap := f.snapshots.rows[f.projectID]
	assertDecimal(t, "500", snap.BudgetTotal)
	assert.Equal(t, len(model.AllSnapshotCategories)-1, f.snapshots.upsert)
	assert.Len(t, f.notifier.published, 1)
}

func TestRecomputeOnlyTouchesCategoryColumns(t *testing.T) {
	f := newFixture()
	f.snapshots.rows[f.projectID] = model.ProjectSnapshot{
		ProjectID:    f.projectID,
		TenantID:     f.tenantID,
		RFIsOpen:     5,
		TasksOverdue: 2,
		BudgetTotal:  dec("1"),
	}
	f.budget(f.tenantID, "01", "Groundworks", "700", "")

	svc := f.snapshotService(snapshotNow)
	require.NoError(t, svc.Recompute(context.Background(), f.projectID, model.CategoryFinancial))

	snap := f.snapshots.rows[f.projectID]
	assertDecimal(t, "700", snap.BudgetTotal)
	assert.EqualValues(t, 5, snap.RFIsOpen)
	assert.EqualValues(t, 2, snap.TasksOverdue)
}

func TestRecomputeRejectsUnknownInputs(t *testing.T) {
	f := newFixture()
	svc := f.snapshotService(snapshotNow)

	err := svc.Recompute(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	err = svc.Recompute(context.Background(), f.projectID, model.SnapshotCategory("weather"))
	assert.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, f.snapshots.upsert)
}

func TestSnapshotGet(t *testing.T) {
	f := newFixture()
	svc := f.snapshotService(snapshotNow)

	t.Run("zeros before first rebuild", func(t *testing.T) {
		snap, err := svc.Get(context.Background(), f.scope, f.projectID)
		require.NoError(t, err)
		assert.Equal(t, f.projectID, snap.ProjectID)
		assert.True(t, snap.BudgetTotal.IsZero())
	})

	t.Run("foreign tenant is not found", func(t *testing.T) {
		require.NoError(t, svc.Recompute(context.Background(), f.projectID))
		_, err := svc.Get(context.Background(), f.otherTenant(), f.projectID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRecomputeForTenantChecksOwnership(t *testing.T) {
	f := newFixture()
	svc := f.snapshotService(snapshotNow)

	_, err := svc.RecomputeForTenant(context.Background(), f.otherTenant(), f.projectID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, f.snapshots.upsert)

	snap, err := svc.RecomputeForTenant(context.Background(), f.scope, f.projectID, model.CategoryRFI)
	require.NoError(t, err)
	assert.Equal(t, f.tenantID, snap.TenantID)
}

func TestRecomputeAll(t *testing.T) {
	f := newFixture()
	second := f.projects.add(f.tenantID, "P-002")
	svc := f.snapshotService(snapshotNow)

	n, err := svc.RecomputeAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Contains(t, f.snapshots.rows, f.projectID)
	assert.Contains(t, f.snapshots.rows, second)
}

func TestApplyVariationCounters(t *testing.T) {
	sell := func(s string) model.Variation { return model.Variation{EstimatedSell: dec(s)} }
	rows := []model.Variation{}
	for status, value := range map[model.VariationStatus]string{
		model.VariationDraft:       "1",
		model.VariationSubmitted:   "2",
		model.VariationUnderReview: "4",
		model.VariationApproved:    "100",
		model.VariationAgreed:      "200",
		model.VariationRejected:    "8",
		model.VariationDeleted:     "16",
	} {
		v := sell(value)
		v.Status = status
		rows = append(rows, v)
	}

	var snap model.ProjectSnapshot
	applyVariationCounters(&snap, rows)

	// rejected falls in neither pending nor approved, so it counts as draft.
	assert.EqualValues(t, 2, snap.VariationsDraft)
	assert.EqualValues(t, 2, snap.VariationsSubmitted)
	assert.EqualValues(t, 2, snap.VariationsApproved)
	assertDecimal(t, "300", snap.VariationsApprovedValue)
}

func TestApplyTaskCounters(t *testing.T) {
	at := func(d time.Duration) *time.Time { v := snapshotNow.Add(d); return &v }
	tasks := []model.Task{
		{Status: "Open", DueDate: at(-24 * time.Hour)},
		{Status: "Open", DueDate: at(72 * time.Hour)},
		{Status: "Open", DueDate: at(10 * 24 * time.Hour)},
		{Status: model.TaskStatusDone, DueDate: at(-48 * time.Hour)},
		{Status: "Open"},
	}

	var snap model.ProjectSnapshot
	applyTaskCounters(&snap, tasks, snapshotNow)
	assert.EqualValues(t, 1, snap.TasksOverdue)
	assert.EqualValues(t, 1, snap.TasksDueThisWeek)
	assertDecimal(t, "20", snap.SchedulePct)

	applyTaskCounters(&snap, nil, snapshotNow)
	assert.True(t, snap.SchedulePct.IsZero())
	assert.Zero(t, snap.TasksOverdue)
}

func TestApplyProcurementCounters(t *testing.T) {
	received := snapshotNow.Add(-time.Hour)
	orders := []model.PurchaseOrder{{Status: model.POStatusOpen}, {Status: "Closed"}, {Status: model.POStatusOpen}}
	deliveries := []model.Delivery{
		{ExpectedAt: snapshotNow.Add(-48 * time.Hour)},
		{ExpectedAt: snapshotNow.Add(-48 * time.Hour), ReceivedAt: &received},
		{ExpectedAt: snapshotNow.Add(48 * time.Hour)},
	}

	var snap model.ProjectSnapshot
	applyProcurementCounters(&snap, orders, deliveries, snapshotNow)
	assert.EqualValues(t, 2, snap.OpenPurchaseOrders)
	assert.EqualValues(t, 1, snap.CriticalLateDeliveries)
}

func TestCountOpen(t *testing.T) {
	rows := []model.RFI{{Status: "Open"}, {Status: model.TrackerStatusClosed}, {Status: "Answered"}}
	assert.EqualValues(t, 2, countOpen(rows, func(r model.RFI) string { return r.Status }))
}

func TestApplyCarbonTotals(t *testing.T) {
	entries := []model.CarbonEntry{
		{Quantity: dec("1.5"), RecordedAt: date(2025, 3, 2)},
		{Quantity: dec("2"), RecordedAt: date(2025, 1, 15)},
		{Quantity: dec("40"), RecordedAt: date(2024, 12, 31)},
		{Quantity: dec("7"), RecordedAt: date(2025, 3, 25)}, // after now
	}

	var snap model.ProjectSnapshot
	applyCarbonTotals(&snap, entries, snapshotNow)
	assertDecimal(t, "1.5", snap.CarbonMTD)
	assertDecimal(t, "3.5", snap.CarbonYTD)
}

func TestLedgerSumsCountOnlyOpenCommitments(t *testing.T) {
	rows := ledgerRows{
		commitments: []model.Commitment{
			{Amount: dec("10"), Status: model.CommitmentOpen},
			{Amount: dec("90"), Status: model.CommitmentClosed},
		},
	}
	sums := rows.sum()
	assertDecimal(t, "10", sums.committed)
	assert.True(t, sums.budget.Equal(decimal.Zero))
}

func ptr[T any](v T) *T { return &v }
