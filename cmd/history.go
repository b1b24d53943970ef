package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/xolan/tpsheet/internal/journal"
	"github.com/xolan/tpsheet/internal/service"
	"github.com/xolan/tpsheet/internal/timeutil"
	"github.com/xolan/tpsheet/internal/tui/ui"
)

var (
	historyLimit int
	historyDate  string
)

// historyCmd shows what earlier runs submitted
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent submissions",
	Long: `Show what earlier runs submitted, newest first.

Every submitted, dry-run and failed day is recorded in a local journal next
to the config file. The journal is informational only: Clockify itself is
always the source of truth.

Examples:
  tpsheet history                  The last 20 days submitted
  tpsheet history --limit 50       The last 50
  tpsheet history --date 08/08/22  Every run that touched 8 Aug 2022`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		showHistory(cmd.Context(), historyLimit, historyDate)
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of records to show (0 for all)")
	historyCmd.Flags().StringVar(&historyDate, "date", "", "only show records for this date")
	rootCmd.AddCommand(historyCmd)
}

func showHistory(ctx context.Context, limit int, dateToken string) {
	configPath, services, err := loadServices()
	if err != nil {
		fail(err, configPath)
		return
	}
	defer services.Close()

	var records []journal.Record
	if dateToken != "" {
		date, derr := resolveDate(dateToken, services)
		if derr != nil {
			fail(derr, configPath)
			return
		}
		records, err = services.History.ForDate(ctx, date)
	} else {
		records, err = services.History.Recent(ctx, limit)
	}
	if errors.Is(err, service.ErrNoJournal) {
		_, _ = fmt.Fprintln(deps.Stdout, "No submission journal is available.")
		return
	}
	if err != nil {
		fail(fmt.Errorf("failed to read the journal: %w", err), configPath)
		return
	}

	out := deps.Stdout
	styles := ui.DefaultStyles()
	if len(records) == 0 {
		_, _ = fmt.Fprintln(out, styles.Muted.Render("Nothing submitted yet."))
		return
	}
	for _, rec := range records {
		status := string(rec.Status)
		switch rec.Status {
		case journal.StatusSubmitted:
			status = styles.Success.Render(status)
		case journal.StatusFailed:
			status = styles.Error.Render(status)
		default:
			status = styles.Muted.Render(status)
		}
		line := fmt.Sprintf("%s %s %s  %-24s %-10s %s",
			styles.Date.Render(rec.Date.Format(timeutil.DateLayout)),
			rec.Date.Format("Mon"),
			styles.Hours.Render(fmt.Sprintf("%dh", rec.Hours)),
			rec.Tasks,
			status,
			styles.Muted.Render("run "+shortID(rec.RunID)+" at "+rec.CreatedAt.Local().Format("2006-01-02 15:04")))
		if rec.Error != "" {
			line += "\n    " + styles.Error.Render(strings.TrimSpace(rec.Error))
		}
		_, _ = fmt.Fprintln(out, line)
	}
}

// resolveDate reads a date token relative to today in the configured timezone.
func resolveDate(token string, services *service.Services) (time.Time, error) {
	loc, err := services.Config.Get().Location()
	if err != nil {
		return time.Time{}, err
	}
	return timeutil.Resolve(token, deps.Now().In(loc))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
