package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"shopfloor/internal/service/timeline"
)

const dateLayout = "2006-01-02 15:04"

func newTimelineCmd(rt *runtime) *cobra.Command {
	var (
		orders []int64
		format string
	)

	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Print the flattened Gantt timeline",
		Long:  `Without --order all non-terminal orders of the tenant are included.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validFormat(format); err != nil {
				return err
			}

			entries, err := rt.app.Timeline.Timeline(cmd.Context(), rt.scope(), orders)
			if err != nil {
				return err
			}

			if format != formatTable {
				return write(cmd.OutOrStdout(), format, timelineView(entries))
			}

			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No timeline entries.")
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), timelineTable(entries))
			return nil
		},
	}

	cmd.Flags().Int64SliceVar(&orders, "order", nil, "order id (repeatable or comma separated)")
	cmd.Flags().StringVar(&format, "format", formatTable, "output format: table, json, yaml")

	return cmd
}

type entryView struct {
	ID              string    `json:"id" yaml:"id"`
	Label           string    `json:"label" yaml:"label"`
	Level           string    `json:"level" yaml:"level"`
	Start           time.Time `json:"start" yaml:"start"`
	End             time.Time `json:"end" yaml:"end"`
	ProgressPercent int       `json:"progress_percent" yaml:"progress_percent"`
	Status          string    `json:"status,omitempty" yaml:"status,omitempty"`
	Parent          string    `json:"parent,omitempty" yaml:"parent,omitempty"`
	Ancestors       []string  `json:"ancestors" yaml:"ancestors"`
}

func timelineView(entries []timeline.Entry) []entryView {
	rows := make([]entryView, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, entryView{
			ID:              e.ID,
			Label:           e.Label,
			Level:           string(e.Level),
			Start:           e.Start,
			End:             e.End,
			ProgressPercent: e.ProgressPercent,
			Status:          e.Status,
			Parent:          e.Parent,
			Ancestors:       e.Ancestors,
		})
	}
	return rows
}

func timelineTable(entries []timeline.Entry) string {
	columns := []table.Column{
		{Title: "ID", Width: 14},
		{Title: "Label", Width: 32},
		{Title: "Start", Width: 16},
		{Title: "End", Width: 16},
		{Title: "Done", Width: 5},
		{Title: "Status", Width: 12},
	}

	rows := make([]table.Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, table.Row{
			e.ID,
			strings.Repeat("  ", len(e.Ancestors)) + e.Label,
			e.Start.Format(dateLayout),
			e.End.Format(dateLayout),
			fmt.Sprintf("%d%%", e.ProgressPercent),
			e.Status,
		})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(len(rows)+1),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Bold(true)
	s.Selected = lipgloss.NewStyle() // статичный вывод, без подсветки строки
	t.SetStyles(s)

	return t.View()
}
