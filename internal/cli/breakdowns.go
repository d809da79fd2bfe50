package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newBreakdownsCmd(rt *runtime) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "breakdowns <machine-id>",
		Short: "List unresolved breakdowns of a machine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validFormat(format); err != nil {
				return err
			}

			machineID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid machine id %q", args[0])
			}

			open, err := rt.app.Breakdowns.OpenForMachine(cmd.Context(), rt.scope(), machineID)
			if err != nil {
				return err
			}

			if format != formatTable {
				return write(cmd.OutOrStdout(), format, open)
			}

			out := cmd.OutOrStdout()
			if len(open) == 0 {
				fmt.Fprintln(out, "No open breakdowns.")
				return nil
			}
			for _, b := range open {
				fmt.Fprintf(out, "#%d  %s  %-12s %s\n", b.ID, b.ReportedAt.Format(dateLayout), b.Type, b.Description)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", formatTable, "output format: table, json, yaml")

	return cmd
}
