package cli

import (
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/AndreyAkinshin/phpbuild/internal/engine"
	"github.com/AndreyAkinshin/phpbuild/internal/errors"
	"github.com/AndreyAkinshin/phpbuild/internal/history"
)

// defaultHistoryLimit is the number of runs listed when --limit is not set.
const defaultHistoryLimit = 20

func (a *app) historyCommand() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded validate and test runs",
		Long: `Lists the most recent runs recorded in the history database, or the
suites of a single run. Requires a 'history' section in the config.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return errors.Configf("--limit must be positive, got %d", limit)
			}
			s, store, err := a.openHistory()
			if err != nil {
				return err
			}
			defer s.Close()

			if len(args) == 1 {
				run, err := store.Get(cmd.Context(), args[0])
				if stderrors.Is(err, sql.ErrNoRows) {
					return errors.NotFound("run", args[0])
				}
				if err != nil {
					return errors.Wrap(err, "read history")
				}
				if asJSON {
					return a.printJSON(run)
				}
				a.printRun(run)
				return nil
			}

			runs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return errors.Wrap(err, "read history")
			}
			if asJSON {
				if runs == nil {
					runs = []history.Run{}
				}
				return a.printJSON(runs)
			}
			a.printRuns(runs)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultHistoryLimit, "number of runs to list")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

// openHistory opens a session and returns it with its history store.
func (a *app) openHistory() (*engine.Session, *history.Store, error) {
	s, _, err := a.newSession()
	if err != nil {
		return nil, nil, err
	}
	store := s.History()
	if store == nil {
		s.Close()
		return nil, nil, withHint(errors.Config("run history is not enabled"), `add a "history" section to the config`)
	}
	return s, store, nil
}

func (a *app) printRuns(runs []history.Run) {
	if len(runs) == 0 {
		a.out.Info("No runs recorded")
		return
	}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.ID,
			string(r.Kind),
			r.StartedAt.Local().Format(time.DateTime),
			formatDuration(r.Duration()),
			string(r.Status),
			fmt.Sprintf("%d/%d/%d", r.Tests, r.Failures, r.Errors),
			fmt.Sprintf("%d", r.WalkFailures),
		})
	}
	a.out.Table([]string{"ID", "KIND", "STARTED", "DURATION", "STATUS", "TESTS/FAIL/ERR", "FILE FAILURES"}, rows)
}

func (a *app) printRun(r history.Run) {
	a.out.SummaryHeader(fmt.Sprintf("Run %s", r.ID))
	a.out.SummaryItem("Kind", string(r.Kind))
	a.out.SummaryItem("Started", r.StartedAt.Local().Format(time.DateTime))
	a.out.SummaryItem("Duration", formatDuration(r.Duration()))
	if r.Status == history.StatusPassed {
		a.out.SummaryPassed("Status", string(r.Status))
	} else {
		a.out.SummaryFailed("Status", string(r.Status))
	}
	if r.Kind == history.KindTest {
		a.out.SummaryItem("Tests", fmt.Sprintf("%d", r.Tests))
		a.out.SummaryItem("Failures", fmt.Sprintf("%d", r.Failures))
		a.out.SummaryItem("Errors", fmt.Sprintf("%d", r.Errors))
	}
	a.out.SummaryItem("File failures", fmt.Sprintf("%d", r.WalkFailures))

	if len(r.Suites) == 0 {
		return
	}
	a.out.Println("")
	rows := make([][]string, 0, len(r.Suites))
	for _, s := range r.Suites {
		rows = append(rows, []string{
			s.Name,
			fmt.Sprintf("%d", s.Tests),
			fmt.Sprintf("%d", s.Failures),
			fmt.Sprintf("%d", s.Errors),
			s.Time,
		})
	}
	a.out.Table([]string{"SUITE", "TESTS", "FAILURES", "ERRORS", "TIME"}, rows)
}

func (a *app) printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	a.out.Println("%s", data)
	return nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm%ds", minutes, seconds)
}
