package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"erp/internal/finance"
	"erp/internal/logging"
	"erp/internal/model"
	"erp/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// --- transactions ---

type fakeTx struct {
	calls int
}

func (f *fakeTx) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	f.calls++
	return fn(ctx)
}

// --- recompute trigger ---

type enqueued struct {
	projectID  uuid.UUID
	categories []model.SnapshotCategory
}

type fakeTrigger struct {
	mu    sync.Mutex
	calls []enqueued
}

func (f *fakeTrigger) Enqueue(projectID uuid.UUID, categories ...model.SnapshotCategory) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, enqueued{projectID: projectID, categories: categories})
}

// --- projects ---

type fakeProjects struct {
	rows map[uuid.UUID]model.Project
}

func newFakeProjects() *fakeProjects {
	return &fakeProjects{rows: map[uuid.UUID]model.Project{}}
}

func (f *fakeProjects) add(tenantID uuid.UUID, code string) uuid.UUID {
	p := model.Project{ID: uuid.New(), TenantID: tenantID, Code: code, Name: code}
	f.rows[p.ID] = p
	return p.ID
}

func (f *fakeProjects) Create(_ context.Context, p *model.Project) error {
	for _, existing := range f.rows {
		if existing.TenantID == p.TenantID && existing.Code == p.Code {
			return repository.ErrDuplicate
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.rows[p.ID] = *p
	return nil
}

func (f *fakeProjects) FindByID(_ context.Context, tenantID, id uuid.UUID) (*model.Project, error) {
	p, ok := f.rows[id]
	if !ok || p.TenantID != tenantID {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (f *fakeProjects) FindAnyByID(_ context.Context, id uuid.UUID) (*model.Project, error) {
	p, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (f *fakeProjects) ListIDs(context.Context) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(f.rows))
	for id := range f.rows {
		ids = append(ids, id)
	}
	return ids, nil
}

// --- ledgers ---

type rowIdent[T repository.LedgerRow] struct {
	keys   func(*T) (id, tenantID, projectID uuid.UUID)
	setID  func(*T, uuid.UUID)
	period func(*T) finance.Period
}

type fakeLedger[T repository.LedgerRow] struct {
	rows    []T
	ident   rowIdent[T]
	listErr error
	// onLock runs once a row lock is taken.
	onLock func()
}

func (f *fakeLedger[T]) Create(_ context.Context, row *T) error {
	if id, _, _ := f.ident.keys(row); id == uuid.Nil {
		f.ident.setID(row, uuid.New())
	}
	f.rows = append(f.rows, *row)
	return nil
}

func (f *fakeLedger[T]) index(tenantID, id uuid.UUID) int {
	for i := range f.rows {
		rid, tid, _ := f.ident.keys(&f.rows[i])
		if rid == id && tid == tenantID {
			return i
		}
	}
	return -1
}

func (f *fakeLedger[T]) FindByID(_ context.Context, tenantID, id uuid.UUID) (*T, error) {
	i := f.index(tenantID, id)
	if i < 0 {
		return nil, repository.ErrNotFound
	}
	row := f.rows[i]
	return &row, nil
}

func (f *fakeLedger[T]) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*T, error) {
	row, err := f.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if f.onLock != nil {
		f.onLock()
	}
	return row, nil
}

// Update never inserts, matching the SQL UPDATE ... WHERE tenant_id.
func (f *fakeLedger[T]) Update(_ context.Context, tenantID uuid.UUID, row *T) error {
	id, _, _ := f.ident.keys(row)
	i := f.index(tenantID, id)
	if i < 0 {
		return repository.ErrNotFound
	}
	f.rows[i] = *row
	return nil
}

func (f *fakeLedger[T]) Delete(_ context.Context, tenantID, id uuid.UUID) error {
	i := f.index(tenantID, id)
	if i < 0 {
		return repository.ErrNotFound
	}
	f.rows = append(f.rows[:i], f.rows[i+1:]...)
	return nil
}

func (f *fakeLedger[T]) List(ctx context.Context, tenantID, projectID uuid.UUID, filter repository.ListFilter) ([]T, int64, error) {
	all, err := f.ListAll(ctx, tenantID, projectID)
	if err != nil {
		return nil, 0, err
	}
	var out []T
	for i := range all {
		if filter.Period == "" || f.ident.period(&all[i]).String() == filter.Period {
			out = append(out, all[i])
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeLedger[T]) ListAll(_ context.Context, tenantID, projectID uuid.UUID) ([]T, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []T
	for i := range f.rows {
		_, tid, pid := f.ident.keys(&f.rows[i])
		if tid == tenantID && pid == projectID {
			out = append(out, f.rows[i])
		}
	}
	return out, nil
}

type fakeForecasts struct {
	*fakeLedger[model.Forecast]
}

func (f fakeForecasts) Upsert(ctx context.Context, fc *model.Forecast) (*model.Forecast, error) {
	for i := range f.rows {
		r := &f.rows[i]
		if r.TenantID == fc.TenantID && r.ProjectID == fc.ProjectID && r.Period == fc.Period {
			r.Category, r.Description, r.Amount = fc.Category, fc.Description, fc.Amount
			stored := *r
			return &stored, nil
		}
	}
	if err := f.Create(ctx, fc); err != nil {
		return nil, err
	}
	stored := *fc
	return &stored, nil
}

type fakeLedgers struct {
	budgets     *fakeLedger[model.BudgetLine]
	commitments *fakeLedger[model.Commitment]
	actuals     *fakeLedger[model.ActualCost]
	forecasts   fakeForecasts
}

func newFakeLedgers() *fakeLedgers {
	return &fakeLedgers{
		budgets: &fakeLedger[model.BudgetLine]{ident: rowIdent[model.BudgetLine]{
			keys:   func(r *model.BudgetLine) (uuid.UUID, uuid.UUID, uuid.UUID) { return r.ID, r.TenantID, r.ProjectID },
			setID:  func(r *model.BudgetLine, id uuid.UUID) { r.ID = id },
			period: func(r *model.BudgetLine) finance.Period { return r.Period() },
		}},
		commitments: &fakeLedger[model.Commitment]{ident: rowIdent[model.Commitment]{
			keys:   func(r *model.Commitment) (uuid.UUID, uuid.UUID, uuid.UUID) { return r.ID, r.TenantID, r.ProjectID },
			setID:  func(r *model.Commitment, id uuid.UUID) { r.ID = id },
			period: func(r *model.Commitment) finance.Period { return r.Period() },
		}},
		actuals: &fakeLedger[model.ActualCost]{ident: rowIdent[model.ActualCost]{
			keys:   func(r *model.ActualCost) (uuid.UUID, uuid.UUID, uuid.UUID) { return r.ID, r.TenantID, r.ProjectID },
			setID:  func(r *model.ActualCost, id uuid.UUID) { r.ID = id },
			period: func(r *model.ActualCost) finance.Period { return r.Period() },
		}},
		forecasts: fakeForecasts{&fakeLedger[model.Forecast]{ident: rowIdent[model.Forecast]{
			keys:   func(r *model.Forecast) (uuid.UUID, uuid.UUID, uuid.UUID) { return r.ID, r.TenantID, r.ProjectID },
			setID:  func(r *model.Forecast, id uuid.UUID) { r.ID = id },
			period: func(r *model.Forecast) finance.Period { return finance.Period(r.Period) },
		}}},
	}
}

func (f *fakeLedgers) repos() LedgerRepos {
	return LedgerRepos{
		BudgetLines: f.budgets,
		Commitments: f.commitments,
		ActualCosts: f.actuals,
		Forecasts:   f.forecasts,
	}
}

// --- variations ---

type fakeVariations struct {
	rows    map[uuid.UUID]model.Variation
	history []model.VariationStatusHistory
	// onLock runs after a row lock is taken; tests use it to simulate a
	// concurrent writer.
	onLock func(stored *model.Variation)
}

func newFakeVariations() *fakeVariations {
	return &fakeVariations{rows: map[uuid.UUID]model.Variation{}}
}

func (f *fakeVariations) Create(_ context.Context, v *model.Variation) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	v.CreatedAt = time.Now().UTC()
	v.UpdatedAt = v.CreatedAt
	f.rows[v.ID] = cloneVariation(*v)
	return nil
}

func cloneVariation(v model.Variation) model.Variation {
	v.Lines = append([]model.VariationLine(nil), v.Lines...)
	return v
}

func (f *fakeVariations) FindByID(_ context.Context, tenantID, id uuid.UUID) (*model.Variation, error) {
	v, ok := f.rows[id]
	if !ok || v.TenantID != tenantID {
		return nil, repository.ErrNotFound
	}
	out := cloneVariation(v)
	return &out, nil
}

func (f *fakeVariations) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*model.Variation, error) {
	v, err := f.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if f.onLock != nil {
		stored := f.rows[id]
		f.onLock(&stored)
		f.rows[id] = stored
	}
	return v, nil
}

func (f *fakeVariations) ListByProject(_ context.Context, tenantID, projectID uuid.UUID) ([]model.Variation, error) {
	var out []model.Variation
	for _, v := range f.rows {
		if v.TenantID == tenantID && v.ProjectID == projectID {
			out = append(out, cloneVariation(v))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Reference < out[j].Reference })
	return out, nil
}

func (f *fakeVariations) List(ctx context.Context, tenantID, projectID uuid.UUID, status string, _, _ int) ([]model.Variation, int64, error) {
	all, _ := f.ListByProject(ctx, tenantID, projectID)
	var out []model.Variation
	for _, v := range all {
		if status == "" || string(v.Status) == status {
			out = append(out, v)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeVariations) ListApprovedInWindow(ctx context.Context, tenantID, projectID uuid.UUID, from, to time.Time) ([]model.Variation, error) {
	all, _ := f.ListByProject(ctx, tenantID, projectID)
	within := func(t *time.Time) bool { return t != nil && !t.Before(from) && t.Before(to) }
	var out []model.Variation
	for _, v := range all {
		if v.Status.IsApproved() && (within(v.ApprovedDate) || within(v.DecisionDate)) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeVariations) Update(_ context.Context, v *model.Variation, replaceLines bool) error {
	stored, ok := f.rows[v.ID]
	if !ok || stored.TenantID != v.TenantID {
		return repository.ErrNotFound
	}
	next := cloneVariation(*v)
	next.Status = stored.Status
	if !replaceLines {
		next.Lines = stored.Lines
	}
	f.rows[v.ID] = next
	return nil
}

func (f *fakeVariations) UpdateStatus(_ context.Context, v *model.Variation, expected model.VariationStatus) error {
	stored, ok := f.rows[v.ID]
	if !ok || stored.TenantID != v.TenantID || stored.Status != expected {
		return repository.ErrConflict
	}
	f.rows[v.ID] = cloneVariation(*v)
	return nil
}

func (f *fakeVariations) AppendHistory(_ context.Context, h *model.VariationStatusHistory) error {
	h.ID = uuid.New()
	h.Seq = int64(len(f.history) + 1)
	f.history = append(f.history, *h)
	return nil
}

func (f *fakeVariations) History(_ context.Context, tenantID, variationID uuid.UUID) ([]model.VariationStatusHistory, error) {
	var out []model.VariationStatusHistory
	for _, h := range f.history {
		if h.TenantID == tenantID && h.VariationID == variationID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeVariations) NextReference(_ context.Context, tenantID, projectID uuid.UUID) (string, error) {
	n := 0
	for _, v := range f.rows {
		if v.TenantID == tenantID && v.ProjectID == projectID {
			n++
		}
	}
	return "VO-" + leftPad(n+1), nil
}

func leftPad(n int) string {
	s := []byte("0000")
	for i := 3; i >= 0 && n > 0; i-- {
		s[i] = byte('0' + n%10)
		n /= 10
	}
	return string(s)
}

// --- audit ---

type fakeAudit struct {
	entries []model.AuditLog
	err     error
}

func (f *fakeAudit) Log(_ context.Context, entry *model.AuditLog) error {
	if f.err != nil {
		return f.err
	}
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now().UTC()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAudit) List(_ context.Context, tenantID uuid.UUID, filter repository.AuditFilter) ([]model.AuditLog, int64, error) {
	var out []model.AuditLog
	for _, e := range f.entries {
		if e.TenantID != tenantID {
			continue
		}
		if filter.Entity != "" && e.Entity != filter.Entity {
			continue
		}
		if filter.EntityID != "" && e.EntityID != filter.EntityID {
			continue
		}
		out = append(out, e)
	}
	return out, int64(len(out)), nil
}

func (f *fakeAudit) actions() []string {
	out := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}

// --- snapshots ---

type fakeSnapshots struct {
	rows   map[uuid.UUID]model.ProjectSnapshot
	fail   map[model.SnapshotCategory]error
	upsert int

	tasks      []model.Task
	orders     []model.PurchaseOrder
	deliveries []model.Delivery
	rfis       []model.RFI
	qa         []model.QAItem
	hs         []model.HSEvent
	carbon     []model.CarbonEntry
}

func newFakeSnapshots() *fakeSnapshots {
	return &fakeSnapshots{
		rows: map[uuid.UUID]model.ProjectSnapshot{},
		fail: map[model.SnapshotCategory]error{},
	}
}

func (f *fakeSnapshots) FindByProject(_ context.Context, tenantID, projectID uuid.UUID) (*model.ProjectSnapshot, error) {
	s, ok := f.rows[projectID]
	if !ok || s.TenantID != tenantID {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

// UpsertColumns copies only the named columns, as the SQL upsert does.
func (f *fakeSnapshots) UpsertColumns(_ context.Context, snap *model.ProjectSnapshot, columns []string) error {
	f.upsert++
	cur, ok := f.rows[snap.ProjectID]
	if !ok {
		f.rows[snap.ProjectID] = *snap
		return nil
	}
	for _, c := range columns {
		switch c {
		case "variations_draft":
			cur.VariationsDraft = snap.VariationsDraft
		case "variations_submitted":
			cur.VariationsSubmitted = snap.VariationsSubmitted
		case "variations_approved":
			cur.VariationsApproved = snap.VariationsApproved
		case "variations_approved_value":
			cur.VariationsApprovedValue = snap.VariationsApprovedValue
		case "tasks_overdue":
			cur.TasksOverdue = snap.TasksOverdue
		case "tasks_due_this_week":
			cur.TasksDueThisWeek = snap.TasksDueThisWeek
		case "schedule_pct":
			cur.SchedulePct = snap.SchedulePct
		case "budget_total":
			cur.BudgetTotal = snap.BudgetTotal
		case "committed_total":
			cur.CommittedTotal = snap.CommittedTotal
		case "actual_total":
			cur.ActualTotal = snap.ActualTotal
		case "forecast_total":
			cur.ForecastTotal = snap.ForecastTotal
		case "open_purchase_orders":
			cur.OpenPurchaseOrders = snap.OpenPurchaseOrders
		case "critical_late_deliveries":
			cur.CriticalLateDeliveries = snap.CriticalLateDeliveries
		case "rfis_open":
			cur.RFIsOpen = snap.RFIsOpen
		case "qa_open":
			cur.QAOpen = snap.QAOpen
		case "hs_open":
			cur.HSOpen = snap.HSOpen
		case "carbon_mtd":
			cur.CarbonMTD = snap.CarbonMTD
		case "carbon_ytd":
			cur.CarbonYTD = snap.CarbonYTD
		default:
			return errors.New("unknown snapshot column " + c)
		}
	}
	cur.UpdatedAt = snap.UpdatedAt
	f.rows[snap.ProjectID] = cur
	return nil
}

func scoped[T any](f *fakeSnapshots, category model.SnapshotCategory, rows []T, match func(T) bool) ([]T, error) {
	if err := f.fail[category]; err != nil {
		return nil, err
	}
	var out []T
	for _, r := range rows {
		if match(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeSnapshots) Tasks(_ context.Context, tenantID, projectID uuid.UUID) ([]model.Task, error) {
	return scoped(f, model.CategoryTask, f.tasks, func(r model.Task) bool { return r.TenantID == tenantID && r.ProjectID == projectID })
}

func (f *fakeSnapshots) PurchaseOrders(_ context.Context, tenantID, projectID uuid.UUID) ([]model.PurchaseOrder, error) {
	return scoped(f, model.CategoryProcurement, f.orders, func(r model.PurchaseOrder) bool { return r.TenantID == tenantID && r.ProjectID == projectID })
}

func (f *fakeSnapshots) Deliveries(_ context.Context, tenantID, projectID uuid.UUID) ([]model.Delivery, error) {
	return scoped(f, model.CategoryProcurement, f.deliveries, func(r model.Delivery) bool { return r.TenantID == tenantID && r.ProjectID == projectID })
}

func (f *fakeSnapshots) RFIs(_ context.Context, tenantID, projectID uuid.UUID) ([]model.RFI, error) {
	return scoped(f, model.CategoryRFI, f.rfis, func(r model.RFI) bool { return r.TenantID == tenantID && r.ProjectID == projectID })
}

func (f *fakeSnapshots) QAItems(_ context.Context, tenantID, projectID uuid.UUID) ([]model.QAItem, error) {
	return scoped(f, model.CategoryQA, f.qa, func(r model.QAItem) bool { return r.TenantID == tenantID && r.ProjectID == projectID })
}

func (f *fakeSnapshots) HSEvents(_ context.Context, tenantID, projectID uuid.UUID) ([]model.HSEvent, error) {
	return scoped(f, model.CategoryHS, f.hs, func(r model.HSEvent) bool { return r.TenantID == tenantID && r.ProjectID == projectID })
}

func (f *fakeSnapshots) CarbonEntries(_ context.Context, tenantID, projectID uuid.UUID) ([]model.CarbonEntry, error) {
	return scoped(f, model.CategoryCarbon, f.carbon, func(r model.CarbonEntry) bool { return r.TenantID == tenantID && r.ProjectID == projectID })
}

type fakeNotifier struct {
	published []model.ProjectSnapshot
}

func (f *fakeNotifier) PublishSnapshot(s *model.ProjectSnapshot) {
	f.published = append(f.published, *s)
}

// --- helpers ---

func amt(s string) *AmountInput {
	a := AmountInput(s)
	return &a
}

func str(s string) *string { return &s }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func assertPct(t *testing.T, want string, got *decimal.Decimal) {
	t.Helper()
	if assert.NotNil(t, got) {
		assertDecimal(t, want, *got)
	}
}

// fixture wires every fake around one project in one tenant.
type fixture struct {
	tenantID   uuid.UUID
	scope      Scope
	projectID  uuid.UUID
	projects   *fakeProjects
	ledgers    *fakeLedgers
	variations *fakeVariations
	audit      *fakeAudit
	tx         *fakeTx
	trigger    *fakeTrigger
	snapshots  *fakeSnapshots
	notifier   *fakeNotifier
}

func newFixture() *fixture {
	tenantID := uuid.New()
	userID := uuid.New()
	f := &fixture{
		tenantID:   tenantID,
		scope:      Scope{TenantID: tenantID, UserID: &userID},
		projects:   newFakeProjects(),
		ledgers:    newFakeLedgers(),
		variations: newFakeVariations(),
		audit:      &fakeAudit{},
		tx:         &fakeTx{},
		trigger:    &fakeTrigger{},
		snapshots:  newFakeSnapshots(),
		notifier:   &fakeNotifier{},
	}
	f.projectID = f.projects.add(tenantID, "P-001")
	return f
}

func (f *fixture) otherTenant() Scope {
	return Scope{TenantID: uuid.New()}
}

func (f *fixture) ledgerService() LedgerService {
	return NewLedgerService(f.ledgers.repos(), f.projects, f.audit, f.tx, f.trigger)
}

func (f *fixture) variationService(now func() time.Time) *variationService {
	svc := NewVariationService(f.variations, f.projects, f.audit, f.tx, f.trigger, nil).(*variationService)
	if now != nil {
		svc.now = now
	}
	return svc
}

func (f *fixture) snapshotService(now time.Time) *snapshotService {
	svc := NewSnapshotService(f.projects, f.snapshots, f.variations, f.ledgers.repos(), f.notifier, logging.Discard(), nil).(*snapshotService)
	svc.now = func() time.Time { return now }
	return svc
}

func (f *fixture) cvrService() CVRService {
	return NewCVRService(f.ledgers.repos(), f.variations, f.projects, CVRLimits{DefaultTrend: 6, MaxTrend: 24})
}

// seed helpers write straight into the fakes.

func (f *fixture) budget(tenantID uuid.UUID, code, category, amount string, period string) {
	row := model.BudgetLine{ID: uuid.New(), TenantID: tenantID, ProjectID: f.projectID, Code: code, Category: category, Amount: dec(amount)}
	if period != "" {
		row.PeriodMonth = &period
	}
	f.ledgers.budgets.rows = append(f.ledgers.budgets.rows, row)
}

func (f *fixture) commitment(tenantID uuid.UUID, category, amount, status, period string) {
	row := model.Commitment{ID: uuid.New(), TenantID: tenantID, ProjectID: f.projectID, Category: category, Amount: dec(amount), Status: status}
	if period != "" {
		row.PeriodMonth = &period
	}
	f.ledgers.commitments.rows = append(f.ledgers.commitments.rows, row)
}

func (f *fixture) actual(tenantID uuid.UUID, category, amount string, incurredAt time.Time) {
	row := model.ActualCost{ID: uuid.New(), TenantID: tenantID, ProjectID: f.projectID, Category: category, Amount: dec(amount), IncurredAt: incurredAt}
	f.ledgers.actuals.rows = append(f.ledgers.actuals.rows, row)
}

func (f *fixture) forecast(tenantID uuid.UUID, period, amount string) {
	row := model.Forecast{ID: uuid.New(), TenantID: tenantID, ProjectID: f.projectID, Period: period, Amount: dec(amount)}
	f.ledgers.forecasts.rows = append(f.ledgers.forecasts.rows, row)
}

func (f *fixture) variation(status model.VariationStatus, sell string, approvedAt *time.Time) uuid.UUID {
	v := model.Variation{
		ID:            uuid.New(),
		TenantID:      f.tenantID,
		ProjectID:     f.projectID,
		Reference:     "VO-" + leftPad(len(f.variations.rows)+1),
		Title:         "seeded",
		Status:        status,
		EstimatedCost: decimal.Zero,
		EstimatedSell: dec(sell),
		ApprovedDate:  approvedAt,
		DecisionDate:  approvedAt,
	}
	f.variations.rows[v.ID] = v
	return v.ID
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}
