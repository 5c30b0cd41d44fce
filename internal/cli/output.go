package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"beesync/internal/core/goal"
	autodatadomain "beesync/internal/services/autodata/domain"
	goalsdomain "beesync/internal/services/goals/domain"
)

// printer writes either indented JSON or aligned text tables
type printer struct {
	w    io.Writer
	json bool
}

// emit writes v as JSON, or hands a tab writer to text in text mode
func (p printer) emit(v any, text func(w io.Writer)) error {
	if p.json {
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	text(tw)
	return tw.Flush()
}

func (p printer) goals(gs []goal.State) error {
	return p.emit(gs, func(w io.Writer) {
		fmt.Fprintln(w, "SLUG\tMETRIC\tDEADLINE\tINIT\tQUEUED\tUPDATED")
		for _, g := range gs {
			metric := g.Metric
			if metric == "" {
				metric = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%s\n",
				g.Slug, metric, deadline(g.Deadline), g.InitDay, g.Queued, stamp(g.UpdatedAt))
		}
	})
}

func (p printer) goalReports(rs []autodatadomain.GoalReport) func(w io.Writer) {
	return func(w io.Writer) {
		fmt.Fprintln(w, "GOAL\tMETRIC\tDAYS\tPOINTS\tCREATED\tUPDATED\tDELETED\tUNCHANGED\tSKIPPED\tERRORS")
		for _, r := range rs {
			days := "-"
			if !r.From.IsZero() {
				days = r.From.String() + ".." + r.To.String()
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
				r.Goal, r.Metric, days, r.Points,
				r.Result.Created, r.Result.Updated, r.Result.Deleted, r.Result.Unchanged, r.Result.Skipped,
				r.Errors())
		}
		for _, r := range rs {
			if r.Err != nil {
				fmt.Fprintf(w, "%s: %v\n", r.Goal, r.Err)
			}
			for _, f := range r.Result.Failures {
				fmt.Fprintf(w, "%s: %s\n", r.Goal, f)
			}
		}
	}
}

func (p printer) report(rep autodatadomain.Report) error {
	return p.emit(rep, func(w io.Writer) {
		p.goalReports(rep.Goals)(w)
		fmt.Fprintf(w, "sync completed with %d errors\n", rep.Errors)
	})
}

func (p printer) goalReport(rep autodatadomain.GoalReport) error {
	return p.emit(rep, p.goalReports([]autodatadomain.GoalReport{rep}))
}

func (p printer) poller(st goalsdomain.PollerStatus) error {
	return p.emit(st, func(w io.Writer) {
		fmt.Fprintf(w, "state\t%s\n", st.State)
		fmt.Fprintf(w, "loops\t%d\n", st.Loops)
		fmt.Fprintf(w, "rounds\t%d\n", st.Rounds)
		if !st.LastExit.IsZero() {
			fmt.Fprintf(w, "last exit\t%s\n", stamp(st.LastExit))
		}
		if st.LastError != "" {
			fmt.Fprintf(w, "last error\t%s\n", st.LastError)
		}
	})
}

// deadline renders seconds from midnight as a signed clock offset
func deadline(secs int) string {
	sign := "+"
	if secs < 0 {
		sign, secs = "-", -secs
	}
	return fmt.Sprintf("%s%02d:%02d", sign, secs/3600, secs%3600/60)
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.RFC3339)
}
