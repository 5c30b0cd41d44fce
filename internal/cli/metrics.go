package cli

import (
	"fmt"
	"io"

	"beesync/internal/core/aggregate"

	"github.com/spf13/cobra"
)

type metricRow struct {
	Name       string             `json:"name"`
	Text       string             `json:"text"`
	Category   aggregate.Category `json:"category"`
	Kind       string             `json:"sample_kind"`
	Unit       string             `json:"unit"`
	Individual bool               `json:"individual"`
}

func newMetricsCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "List the metrics a goal can be connected to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ms := aggregate.Metrics()
			rows := make([]metricRow, 0, len(ms))
			for _, m := range ms {
				rows = append(rows, metricRow{m.Name, m.Text, m.Category, m.SampleKind, m.Unit, m.Individual})
			}
			return root.out(cmd).emit(rows, func(w io.Writer) {
				fmt.Fprintln(w, "NAME\tCATEGORY\tUNIT\tINDIVIDUAL\tDESCRIPTION")
				for _, r := range rows {
					fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", r.Name, r.Category, r.Unit, r.Individual, r.Text)
				}
			})
		},
	}
}
