package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"erp/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newCVRCmd() *cobra.Command {
	var (
		tenantFlag   string
		projectFlag  string
		period       string
		noVariations bool
		limit        int
	)
	cmd := &cobra.Command{
		Use:   "cvr",
		Short: "Print the cost/value report of a project for one period",
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, err := uuid.Parse(tenantFlag)
			if err != nil {
				return fmt.Errorf("invalid --tenant: %w", err)
			}
			projectID, err := uuid.Parse(projectFlag)
			if err != nil {
				return fmt.Errorf("invalid --project: %w", err)
			}

			e, err := connect()
			if err != nil {
				return err
			}
			include := !noVariations
			report, err := e.services().CVR.ForPeriod(cmd.Context(), service.Scope{TenantID: tenantID}, projectID, period, service.PeriodOptions{
				IncludeVariations: &include,
				TrendLimit:        limit,
			})
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), report)
			}
			return writePeriodReport(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().StringVar(&tenantFlag, "tenant", "", "tenant ID owning the project")
	cmd.Flags().StringVar(&projectFlag, "project", "", "project ID")
	cmd.Flags().StringVar(&period, "period", "", "period as YYYY-MM")
	cmd.Flags().BoolVar(&noVariations, "no-variations", false, "leave approved variations out of value")
	cmd.Flags().IntVar(&limit, "limit", 0, "trend length in months (default from config)")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("period")
	return cmd
}

func pct(p *decimal.Decimal) string {
	if p == nil {
		return "-"
	}
	return p.StringFixed(2) + "%"
}

func writePeriodReport(w io.Writer, r service.PeriodReport) error {
	fmt.Fprintf(w, "CVR %s (variations included: %t)\n", r.Period, r.IncludeVariations)
	fmt.Fprintf(w, "  Value:     %s\n", r.Value.StringFixed(2))
	fmt.Fprintf(w, "  Cost:      %s\n", r.Cost.StringFixed(2))
	fmt.Fprintf(w, "  Margin:    %s (%s)\n", r.Margin.StringFixed(2), pct(r.MarginPct))
	fmt.Fprintf(w, "  Erosion:   %s\n", pct(r.ErosionPct))
	fmt.Fprintf(w, "  Variation impact: %s\n\n", r.VariationImpact.StringFixed(2))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PERIOD\tBUDGET\tCOMMITTED\tACTUAL\tFORECAST\tMARGIN%")
	for _, p := range r.Trend {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", p.Period,
			p.Budget.StringFixed(2), p.Committed.StringFixed(2), p.Actual.StringFixed(2),
			p.Forecast.StringFixed(2), pct(p.MarginPct))
	}
	return tw.Flush()
}
