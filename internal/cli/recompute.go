package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"shopfloor/internal/service"
	"shopfloor/internal/service/progress"
)

func newRecomputeCmd(rt *runtime) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "recompute <jobsheet|mo|order> <id>",
		Short: "Recompute progress of an entity and all its ancestors",
		Long: `Recompute re-reads the children of the given entity, writes its progress,
then walks up to the order. Run it after deleting tasks, jobsheets or MOs.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validFormat(format); err != nil {
				return err
			}

			level, err := progress.ParseLevel(args[0])
			if err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q", args[1])
			}

			c, err := rt.app.Progress.Recompute(cmd.Context(), rt.scope(), level, id)
			if err != nil && !errors.Is(err, service.ErrOrphanedChild) {
				return err
			}
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
			}

			if format != formatTable {
				return write(cmd.OutOrStdout(), format, cascadeView(c))
			}

			out := cmd.OutOrStdout()
			for _, row := range cascadeView(c) {
				fmt.Fprintf(out, "%-9s %-6d %3d%%\n", row.Level, row.ID, row.ProgressPercent)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", formatTable, "output format: table, json, yaml")

	return cmd
}

type stepView struct {
	Level           string `json:"level" yaml:"level"`
	ID              int64  `json:"id" yaml:"id"`
	ProgressPercent int    `json:"progress_percent" yaml:"progress_percent"`
}

func cascadeView(c *progress.Cascade) []stepView {
	if c == nil {
		return []stepView{}
	}

	rows := make([]stepView, 0, len(c.Steps))
	for _, st := range c.Steps {
		row := stepView{Level: string(st.Level), ID: st.ID}
		switch st.Level {
		case progress.LevelJobsheet:
			row.ProgressPercent = c.Jobsheet.ProgressPercent
		case progress.LevelMO:
			row.ProgressPercent = c.MO.ProgressPercent
		case progress.LevelOrder:
			row.ProgressPercent = c.Order.ProgressPercent
		}
		rows = append(rows, row)
	}
	return rows
}
