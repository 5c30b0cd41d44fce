package cli

import (
	"context"
	"time"

	"beesync/internal/core/goal"
	"beesync/internal/services/goals/domain"

	"github.com/spf13/cobra"
)

func newGoalsCommand(root *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goals",
		Short: "Inspect and refresh the local goal cache",
	}
	cmd.AddCommand(newGoalsListCommand(root))
	cmd.AddCommand(newGoalsRefreshCommand(root))
	return cmd
}

func newGoalsListCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached goals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return root.withEnv(cmd, func(ctx context.Context, e *env) error {
				gs, err := e.app.GoalsPort.List(ctx)
				if err != nil {
					return err
				}
				return root.out(cmd).goals(gs)
			})
		},
	}
}

type refreshOptions struct {
	*RootOptions
	Wait bool
}

func newGoalsRefreshCommand(root *RootOptions) *cobra.Command {
	opts := &refreshOptions{RootOptions: root}

	cmd := &cobra.Command{
		Use:   "refresh [slug]",
		Short: "Reload goals from the ledger",
		Long: `Reload every goal, or the named goal, from the ledger into the cache.
Goals the ledger no longer returns are removed by a full refresh.

With --wait the command keeps polling queued goals until none remain.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withEnv(cmd, func(ctx context.Context, e *env) error {
				var gs []goal.State
				if len(args) == 1 {
					g, err := e.app.GoalsPort.RefreshGoal(ctx, args[0])
					if err != nil {
						return err
					}
					gs = []goal.State{g}
				} else {
					all, err := e.app.GoalsPort.RefreshAll(ctx)
					if err != nil {
						return err
					}
					gs = all
				}
				if opts.Wait {
					if err := waitIdle(ctx, e.app.PollerPort, 250*time.Millisecond); err != nil {
						return err
					}
					fresh, err := reload(ctx, e.app.GoalsPort, gs)
					if err != nil {
						return err
					}
					gs = fresh
				}
				return opts.out(cmd).goals(gs)
			})
		},
	}

	cmd.Flags().BoolVarP(&opts.Wait, "wait", "w", false, "wait until no goal is queued")
	return cmd
}

// waitIdle blocks until the poller's background loop has finished
func waitIdle(ctx context.Context, p domain.PollerPort, every time.Duration) error {
	t := time.NewTicker(every)
	defer t.Stop()
	for p.Status().State != domain.Idle {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return nil
}

// reload re-reads gs from the cache after polling updated them
func reload(ctx context.Context, goals domain.GoalsPort, gs []goal.State) ([]goal.State, error) {
	out := make([]goal.State, 0, len(gs))
	for _, g := range gs {
		fresh, err := goals.Get(ctx, g.Slug)
		if err != nil {
			return nil, err
		}
		out = append(out, fresh)
	}
	return out, nil
}
