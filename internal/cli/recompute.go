package cli

import (
	"errors"
	"fmt"

	"erp/internal/model"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newRecomputeCmd() *cobra.Command {
	var (
		projectFlag string
		all         bool
		categories  []string
	)
	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Rebuild project snapshots",
		Example: `  erpctl recompute --project 6f1c... --category financial,variation
  erpctl recompute --all`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (projectFlag != "") {
				return errors.New("exactly one of --project or --all is required")
			}
			cats, err := parseCategories(categories)
			if err != nil {
				return err
			}

			e, err := connect()
			if err != nil {
				return err
			}
			snapshots := e.services().Snapshots
			out := cmd.OutOrStdout()

			if all {
				if len(cats) > 0 {
					return errors.New("--category cannot be combined with --all")
				}
				n, err := snapshots.RecomputeAll(cmd.Context())
				if jsonOutput {
					res := map[string]any{"projects": n}
					if err != nil {
						res["error"] = err.Error()
					}
					if perr := printJSON(out, res); perr != nil {
						return perr
					}
					return err
				}
				fmt.Fprintf(out, "Recomputed %d projects\n", n)
				return err
			}

			projectID, err := uuid.Parse(projectFlag)
			if err != nil {
				return fmt.Errorf("invalid --project: %w", err)
			}
			if err := snapshots.Recompute(cmd.Context(), projectID, cats...); err != nil {
				return err
			}
			fmt.Fprintf(out, "Recomputed project %s\n", projectID)
			return nil
		},
	}
	cmd.Flags().StringVar(&projectFlag, "project", "", "project ID to rebuild")
	cmd.Flags().BoolVar(&all, "all", false, "rebuild every project")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "categories to rebuild (default all)")
	return cmd
}

func parseCategories(raw []string) ([]model.SnapshotCategory, error) {
	out := make([]model.SnapshotCategory, 0, len(raw))
	for _, r := range raw {
		c := model.SnapshotCategory(r)
		if !c.Valid() {
			return nil, fmt.Errorf("unknown category %q", r)
		}
		out = append(out, c)
	}
	return out, nil
}
