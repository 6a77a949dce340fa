package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"erp/internal/finance"
	"erp/internal/model"
	"erp/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PreliminariesCategory is the cost category reported as preliminaries in the PM view.
const PreliminariesCategory = "Preliminaries"

// --- DTOs ---

// Breakdown is one row of a CVR report.
type Breakdown struct {
	Budget    decimal.Decimal `json:"budget"`
	Committed decimal.Decimal `json:"committed"`
	Actual    decimal.Decimal `json:"actual"`
	Forecast  decimal.Decimal `json:"forecast"`
	finance.Figures
}

type CostCodeLine struct {
	CostCode finance.CostKey `json:"cost_code"`
	Breakdown
}

type TrendPoint struct {
	Period string `json:"period"`
	Breakdown
}

type CostCodeReport struct {
	ProjectID uuid.UUID      `json:"project_id"`
	Lines     []CostCodeLine `json:"lines"`
	Totals    Breakdown      `json:"totals"`
	Trend     []TrendPoint   `json:"trend"`
}

type PMView struct {
	Preliminaries   decimal.Decimal `json:"preliminaries"`
	ProgrammeSpend  decimal.Decimal `json:"programme_spend"`
	VariationImpact decimal.Decimal `json:"variation_impact"`
}

type QSView struct {
	Budget     decimal.Decimal `json:"budget"`
	Committed  decimal.Decimal `json:"committed"`
	Actual     decimal.Decimal `json:"actual"`
	Forecast   decimal.Decimal `json:"forecast"`
	Variations decimal.Decimal `json:"variations"`
}

type PeriodTrendPoint struct {
	TrendPoint
	VariationImpact decimal.Decimal `json:"variation_impact"`
}

type PeriodReport struct {
	ProjectID         uuid.UUID        `json:"project_id"`
	Period            string           `json:"period"`
	IncludeVariations bool             `json:"include_variations"`
	VariationImpact   decimal.Decimal  `json:"variation_impact"`
	ErosionPct        *decimal.Decimal `json:"erosion_pct"`
	Breakdown
	PMView PMView             `json:"pm_view"`
	QSView QSView             `json:"qs_view"`
	Trend  []PeriodTrendPoint `json:"trend"`
}

// PeriodOptions tunes ForPeriod. A nil IncludeVariations means true; a zero
// TrendLimit means the configured default.
type PeriodOptions struct {
	IncludeVariations *bool
	TrendLimit        int
}

// --- Interface ---

type CVRService interface {
	SnapshotTotals(ctx context.Context, scope Scope, projectID uuid.UUID) (Breakdown, error)
	ByCostCode(ctx context.Context, scope Scope, projectID uuid.UUID) (CostCodeReport, error)
	ForPeriod(ctx context.Context, scope Scope, projectID uuid.UUID, period string, opts PeriodOptions) (PeriodReport, error)
}

// CVRLimits bounds the trend series.
type CVRLimits struct {
	DefaultTrend int
	MaxTrend     int
}

type cvrService struct {
	ledgers       LedgerRepos
	variationRepo repository.VariationRepository
	projectRepo   repository.ProjectRepository
	limits        CVRLimits
}

func NewCVRService(
	ledgers LedgerRepos,
	variationRepo repository.VariationRepository,
	projectRepo repository.ProjectRepository,
	limits CVRLimits,
) CVRService {
	if limits.DefaultTrend < 1 {
		limits.DefaultTrend = 6
	}
	if limits.MaxTrend < limits.DefaultTrend {
		limits.MaxTrend = 24
	}
	return &cvrService{
		ledgers:       ledgers,
		variationRepo: variationRepo,
		projectRepo:   projectRepo,
		limits:        limits,
	}
}

// breakdown derives value = budget + extra and cost = actual + committed.
func (s ledgerSums) breakdown(extraValue decimal.Decimal) Breakdown {
	return Breakdown{
		Budget:    s.budget,
		Committed: s.committed,
		Actual:    s.actual,
		Forecast:  s.forecast,
		Figures:   finance.NewFigures(s.budget.Add(extraValue), s.actual.Add(s.committed)),
	}
}

func (s *cvrService) load(ctx context.Context, scope Scope, projectID uuid.UUID) (ledgerRows, error) {
	if _, err := requireProject(ctx, s.projectRepo, scope, projectID); err != nil {
		return ledgerRows{}, err
	}
	return loadLedgerRows(ctx, s.ledgers, scope.TenantID, projectID)
}

func (s *cvrService) SnapshotTotals(ctx context.Context, scope Scope, projectID uuid.UUID) (Breakdown, error) {
	rows, err := s.load(ctx, scope, projectID)
	if err != nil {
		return Breakdown{}, err
	}
	return rows.sum().breakdown(decimal.Zero), nil
}

func (s *cvrService) ByCostCode(ctx context.Context, scope Scope, projectID uuid.UUID) (CostCodeReport, error) {
	rows, err := s.load(ctx, scope, projectID)
	if err != nil {
		return CostCodeReport{}, err
	}

	byKey := groupByCostKey(rows)
	keys := make([]finance.CostKey, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	report := CostCodeReport{
		ProjectID: projectID,
		Lines:     make([]CostCodeLine, 0, len(keys)),
		Totals:    rows.sum().breakdown(decimal.Zero),
	}
	for _, k := range keys {
		report.Lines = append(report.Lines, CostCodeLine{CostCode: k, Breakdown: byKey[k].sumOrZero().breakdown(decimal.Zero)})
	}

	byPeriod := groupByPeriod(rows)
	periods := make([]finance.Period, 0, len(byPeriod))
	for p := range byPeriod {
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i] < periods[j] })
	report.Trend = make([]TrendPoint, 0, len(periods))
	for _, p := range periods {
		report.Trend = append(report.Trend, TrendPoint{Period: p.String(), Breakdown: byPeriod[p].sumOrZero().breakdown(decimal.Zero)})
	}
	return report, nil
}

func (s *cvrService) ForPeriod(ctx context.Context, scope Scope, projectID uuid.UUID, period string, opts PeriodOptions) (PeriodReport, error) {
	p, err := finance.ParsePeriod(period)
	if err != nil {
		return PeriodReport{}, validationf("%v", err)
	}
	limit := opts.TrendLimit
	if limit == 0 {
		limit = s.limits.DefaultTrend
	}
	if limit < 1 || limit > s.limits.MaxTrend {
		return PeriodReport{}, validationf("limit must be between 1 and %d", s.limits.MaxTrend)
	}
	include := opts.IncludeVariations == nil || *opts.IncludeVariations

	rows, err := s.load(ctx, scope, projectID)
	if err != nil {
		return PeriodReport{}, err
	}
	window := p.Window(limit)
	variations, err := s.variationRepo.ListApprovedInWindow(ctx, scope.TenantID, projectID, window[0].Start(), p.End())
	if err != nil {
		return PeriodReport{}, fmt.Errorf("load approved variations: %w", err)
	}

	byPeriod := groupByPeriod(rows)
	valueExtra := func(impact decimal.Decimal) decimal.Decimal {
		if include {
			return impact
		}
		return decimal.Zero
	}

	current := byPeriod[p]
	sums := current.sumOrZero()
	impact := variationImpact(variations, p)
	report := PeriodReport{
		ProjectID:         projectID,
		Period:            p.String(),
		IncludeVariations: include,
		VariationImpact:   impact,
		ErosionPct:        finance.ErosionPct(sums.budget, sums.committed, sums.actual),
		Breakdown:         sums.breakdown(valueExtra(impact)),
		PMView: PMView{
			Preliminaries:   preliminaries(current),
			ProgrammeSpend:  sums.committed.Add(sums.actual),
			VariationImpact: impact,
		},
		QSView: QSView{
			Budget:     sums.budget,
			Committed:  sums.committed,
			Actual:     sums.actual,
			Forecast:   sums.forecast,
			Variations: impact,
		},
		Trend: make([]PeriodTrendPoint, 0, len(window)),
	}

	for _, wp := range window {
		wi := variationImpact(variations, wp)
		report.Trend = append(report.Trend, PeriodTrendPoint{
			TrendPoint:      TrendPoint{Period: wp.String(), Breakdown: byPeriod[wp].sumOrZero().breakdown(valueExtra(wi))},
			VariationImpact: wi,
		})
	}
	return report, nil
}

// --- Grouping ---

func groupByCostKey(rows ledgerRows) map[finance.CostKey]*ledgerRows {
	out := map[finance.CostKey]*ledgerRows{}
	bucket := func(k finance.CostKey) *ledgerRows {
		if out[k] == nil {
			out[k] = &ledgerRows{}
		}
		return out[k]
	}
	for _, b := range rows.budgets {
		g := bucket(finance.ResolveCostKey(b.Code, b.Category))
		g.budgets = append(g.budgets, b)
	}
	for _, c := range rows.commitments {
		g := bucket(finance.ResolveCostKey(c.Category))
		g.commitments = append(g.commitments, c)
	}
	for _, a := range rows.actuals {
		g := bucket(finance.ResolveCostKey(a.Category))
		g.actuals = append(g.actuals, a)
	}
	for _, f := range rows.forecasts {
		g := bucket(finance.ResolveCostKey(f.Category))
		g.forecasts = append(g.forecasts, f)
	}
	return out
}

// groupByPeriod buckets rows by month. Budget lines and commitments without
// a period tag belong to no month; actual costs fall back to incurred_at.
func groupByPeriod(rows ledgerRows) map[finance.Period]*ledgerRows {
	out := map[finance.Period]*ledgerRows{}
	bucket := func(p finance.Period) *ledgerRows {
		if out[p] == nil {
			out[p] = &ledgerRows{}
		}
		return out[p]
	}
	for _, b := range rows.budgets {
		if p := b.Period(); p != "" {
			g := bucket(p)
			g.budgets = append(g.budgets, b)
		}
	}
	for _, c := range rows.commitments {
		if p := c.Period(); p != "" {
			g := bucket(p)
			g.commitments = append(g.commitments, c)
		}
	}
	for _, a := range rows.actuals {
		g := bucket(a.Period())
		g.actuals = append(g.actuals, a)
	}
	for _, f := range rows.forecasts {
		if f.Period != "" {
			g := bucket(finance.Period(f.Period))
			g.forecasts = append(g.forecasts, f)
		}
	}
	return out
}

// sumOrZero reports zeros for a month with no rows.
func (r *ledgerRows) sumOrZero() ledgerSums {
	if r == nil {
		return ledgerRows{}.sum()
	}
	return r.sum()
}

func preliminaries(rows *ledgerRows) decimal.Decimal {
	total := decimal.Zero
	if rows == nil {
		return total
	}
	for _, c := range rows.commitments {
		if c.IsOpen() && finance.ResolveCostKey(c.Category).Matches(PreliminariesCategory) {
			total = total.Add(c.Amount)
		}
	}
	for _, a := range rows.actuals {
		if finance.ResolveCostKey(a.Category).Matches(PreliminariesCategory) {
			total = total.Add(a.Amount)
		}
	}
	return total
}

// variationImpact sums Value over approved-bucket variations approved or
// decided inside the period.
func variationImpact(variations []model.Variation, p finance.Period) decimal.Decimal {
	total := decimal.Zero
	for _, v := range variations {
		if !v.Status.IsApproved() {
			continue
		}
		if inPeriod(v.ApprovedDate, p) || inPeriod(v.DecisionDate, p) {
			total = total.Add(v.Value())
		}
	}
	return total
}

func inPeriod(t *time.Time, p finance.Period) bool {
	return t != nil && p.Contains(*t)
}
