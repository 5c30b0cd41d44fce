package cli

import (
	"context"

	"github.com/spf13/cobra"
)

type syncOptions struct {
	*RootOptions
	Goal string
	Days int
}

func newSyncCommand(root *RootOptions) *cobra.Command {
	opts := &syncOptions{RootOptions: root}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync connected goals once",
		Long: `Aggregate the last days of samples for every connected goal, or one goal,
and reconcile the ledger's datapoints with the result.

Example:
  beesync sync
  beesync sync --goal steps --days 14`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withEnv(cmd, func(ctx context.Context, e *env) error {
				out := opts.out(cmd)
				if opts.Goal != "" {
					rep, err := e.app.SyncPort.SyncGoal(ctx, opts.Goal, opts.Days)
					if err != nil {
						return err
					}
					if err := out.goalReport(rep); err != nil {
						return err
					}
					return rep.Result.Err()
				}
				rep, err := e.app.SyncPort.SyncAll(ctx, opts.Days)
				if err != nil {
					return err
				}
				if err := out.report(rep); err != nil {
					return err
				}
				return rep.Err()
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Goal, "goal", "g", "", "sync only this goal")
	cmd.Flags().IntVarP(&opts.Days, "days", "d", 0, "days to look back (default AUTODATA_DAYS)")
	return cmd
}

func newWatchCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Sync whenever the sample export changes",
		Long: `Watch the sample export named by AUTODATA_SAMPLES_PATH and sync every
connected goal when it changes, at most once per AUTODATA_WATCH_MIN_INTERVAL.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return root.withEnv(cmd, func(ctx context.Context, e *env) error {
				return e.app.Autodata.Watch(ctx)
			})
		},
	}
}
