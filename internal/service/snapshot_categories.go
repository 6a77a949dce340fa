package service

import (
	"context"
	"fmt"
	"time"

	"erp/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// The functions below are the pure halves of the category rebuilds. Each
// takes the full row set and overwrites its category's fields.

func applyVariationCounters(snap *model.ProjectSnapshot, variations []model.Variation) {
	var total, pending, approved int64
	value := decimal.Zero
	for _, v := range variations {
		if v.Status == model.VariationDeleted {
			continue
		}
		total++
		switch {
		case v.Status.IsPending():
			pending++
		case v.Status.IsApproved():
			approved++
			value = value.Add(v.Value())
		}
	}
	snap.VariationsDraft = total - approved - pending
	snap.VariationsSubmitted = pending
	snap.VariationsApproved = approved
	snap.VariationsApprovedValue = value
}

const dueSoonWindow = 7 * 24 * time.Hour

func applyTaskCounters(snap *model.ProjectSnapshot, tasks []model.Task, now time.Time) {
	var overdue, dueSoon, done int64
	for _, t := range tasks {
		if t.Status == model.TaskStatusDone {
			done++
			continue
		}
		if t.DueDate == nil {
			continue
		}
		due := *t.DueDate
		switch {
		case due.Before(now):
			overdue++
		case due.Before(now.Add(dueSoonWindow)):
			dueSoon++
		}
	}
	snap.TasksOverdue = overdue
	snap.TasksDueThisWeek = dueSoon
	snap.SchedulePct = decimal.Zero
	if len(tasks) > 0 {
		snap.SchedulePct = decimal.NewFromInt(done).Div(decimal.NewFromInt(int64(len(tasks)))).Mul(decimal.NewFromInt(100)).Round(2)
	}
}

func applyProcurementCounters(snap *model.ProjectSnapshot, orders []model.PurchaseOrder, deliveries []model.Delivery, now time.Time) {
	var open, late int64
	for _, o := range orders {
		if o.Status == model.POStatusOpen {
			open++
		}
	}
	for _, d := range deliveries {
		if d.ReceivedAt == nil && d.ExpectedAt.Before(now) {
			late++
		}
	}
	snap.OpenPurchaseOrders = open
	snap.CriticalLateDeliveries = late
}

// countOpen counts rows whose status is not Closed. Soft-deleted rows are
// already filtered out by the store.
func countOpen[T any](rows []T, status func(T) string) int64 {
	var n int64
	for _, r := range rows {
		if status(r) != model.TrackerStatusClosed {
			n++
		}
	}
	return n
}

func applyCarbonTotals(snap *model.ProjectSnapshot, entries []model.CarbonEntry, now time.Time) {
	now = now.UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	mtd, ytd := decimal.Zero, decimal.Zero
	for _, e := range entries {
		at := e.RecordedAt.UTC()
		if at.After(now) || at.Before(yearStart) {
			continue
		}
		ytd = ytd.Add(e.Quantity)
		if !at.Before(monthStart) {
			mtd = mtd.Add(e.Quantity)
		}
	}
	snap.CarbonMTD = mtd
	snap.CarbonYTD = ytd
}

// ledgerSums is the budget/committed/actual/forecast quadruple.
type ledgerSums struct {
	budget    decimal.Decimal
	committed decimal.Decimal
	actual    decimal.Decimal
	forecast  decimal.Decimal
}

// ledgerRows is one project's four ledgers as read from the stores.
type ledgerRows struct {
	budgets     []model.BudgetLine
	commitments []model.Commitment
	actuals     []model.ActualCost
	forecasts   []model.Forecast
}

func loadLedgerRows(ctx context.Context, repos LedgerRepos, tenantID, projectID uuid.UUID) (ledgerRows, error) {
	var rows ledgerRows
	var err error
	if rows.budgets, err = repos.BudgetLines.ListAll(ctx, tenantID, projectID); err != nil {
		return rows, fmt.Errorf("load budget lines: %w", err)
	}
	if rows.commitments, err = repos.Commitments.ListAll(ctx, tenantID, projectID); err != nil {
		return rows, fmt.Errorf("load commitments: %w", err)
	}
	if rows.actuals, err = repos.ActualCosts.ListAll(ctx, tenantID, projectID); err != nil {
		return rows, fmt.Errorf("load actual costs: %w", err)
	}
	if rows.forecasts, err = repos.Forecasts.ListAll(ctx, tenantID, projectID); err != nil {
		return rows, fmt.Errorf("load forecasts: %w", err)
	}
	return rows, nil
}

// sum totals the rows; only Open commitments count as committed.
func (r ledgerRows) sum() ledgerSums {
	s := ledgerSums{decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero}
	for _, b := range r.budgets {
		s.budget = s.budget.Add(b.Amount)
	}
	for _, c := range r.commitments {
		if c.IsOpen() {
			s.committed = s.committed.Add(c.Amount)
		}
	}
	for _, a := range r.actuals {
		s.actual = s.actual.Add(a.Amount)
	}
	for _, f := range r.forecasts {
		s.forecast = s.forecast.Add(f.Amount)
	}
	return s
}

func loadLedgerSums(ctx context.Context, repos LedgerRepos, tenantID, projectID uuid.UUID) (ledgerSums, error) {
	rows, err := loadLedgerRows(ctx, repos, tenantID, projectID)
	if err != nil {
		return ledgerSums{}, err
	}
	return rows.sum(), nil
}
