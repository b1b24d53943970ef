package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xolan/tpsheet/internal/entry"
	"github.com/xolan/tpsheet/internal/logger"
	"github.com/xolan/tpsheet/internal/osutil"
	"github.com/xolan/tpsheet/internal/sanity"
	"github.com/xolan/tpsheet/internal/service"
	"github.com/xolan/tpsheet/internal/timeutil"
	"github.com/xolan/tpsheet/internal/tui/ui"
)

// submitOptions are the flags of a submission run.
type submitOptions struct {
	Start  string
	Count  int
	Tasks  []string
	DryRun bool
	Yes    bool
}

var (
	submitOpts submitOptions
	verbose    bool
	logCleanup func() error
)

var rootCmd = &cobra.Command{
	Use:   "tpsheet",
	Short: "Submit Clockify timesheets for a run of working days",
	Long: `tpsheet books your working hours in Clockify, one day at a time.

Each day in the range gets exactly the entries you ask for: whatever the day
held before is removed first, so running the same command twice never
duplicates hours. Weekends are skipped and public holidays are booked on the
holiday task.

Usage:
  tpsheet --start today                          Submit today
  tpsheet --start 08/08/22 --count 5             Submit the week starting 8 Aug 2022
  tpsheet -s yesterday -t live=6 -t training=2   Split a day across tasks
  tpsheet -s 2022-08-08 -c 5 --dry-run           Show what would be written
  tpsheet config init                            Create the config file
  tpsheet holidays 2022                          List the holidays in use
  tpsheet history                                Show recent submissions

Dates are read day first: 05/02/22 is 5 February. A two-digit year that could
also be read year first (22/02/05) resolves to whichever date is nearer today.

Exit codes: 2 bad date, 3 invalid input or config, 4 aborted,
5 name not found in Clockify, 6 Clockify request failed.`,
	Args:              cobra.NoArgs,
	PersistentPreRun:  func(cmd *cobra.Command, args []string) { prepareEnv() },
	PersistentPostRun: func(cmd *cobra.Command, args []string) { closeLog() },
	Run: func(cmd *cobra.Command, args []string) {
		if !cmd.Flags().Changed("start") {
			_ = cmd.Help()
			return
		}
		runSubmit(cmd.Context(), submitOpts)
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&submitOpts.Start, "start", "s", "", "first date to submit: today, yesterday, DD/MM/YY or YYYY-MM-DD")
	f.IntVarP(&submitOpts.Count, "count", "c", 1, "number of calendar days to cover, starting at --start")
	f.StringArrayVarP(&submitOpts.Tasks, "task", "t", nil, "hours per task as code=hours, repeatable (default live=<daily_hours>)")
	f.BoolVarP(&submitOpts.DryRun, "dry-run", "d", false, "look up everything but write nothing")
	f.BoolVarP(&submitOpts.Yes, "yes", "y", false, "do not ask before submitting a distant start date")

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging, also written to stderr")
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(version, commit, date string) {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(
		"tpsheet version {{.Version}}\n" +
			"commit: " + commit + "\n" +
			"built: " + date + "\n",
	)
}

// Execute runs the root command. Ctrl-C cancels the run between requests.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// prepareEnv honours TPSHEET_HOME and opens the log file.
func prepareEnv() {
	if home := strings.TrimSpace(deps.Getenv("TPSHEET_HOME")); home != "" {
		osutil.SetProvider(osutil.DirProvider{Dir: home})
	}
	cleanup, err := logger.Setup(logger.Config{Verbose: verbose, Stderr: deps.Stderr})
	if err != nil {
		warn("logging disabled: %v", err)
		return
	}
	logCleanup = cleanup
}

func closeLog() {
	if logCleanup != nil {
		_ = logCleanup()
		logCleanup = nil
	}
}

// runSubmit performs a submission run and prints its report.
func runSubmit(ctx context.Context, opts submitOptions) {
	configPath, report, err := submit(ctx, opts)
	printReport(report, opts)
	if err != nil {
		fail(err, configPath)
	}
}

func submit(ctx context.Context, opts submitOptions) (string, service.Report, error) {
	items, err := entry.ParseTaskArgs(opts.Tasks)
	if err != nil {
		return "", service.Report{}, err
	}

	var svcOpts []service.Option
	if deps.FormSubmitter != nil {
		svcOpts = append(svcOpts, service.WithFormSubmitter(deps.FormSubmitter))
	}
	configPath, services, err := loadServices(svcOpts...)
	if err != nil {
		return configPath, service.Report{}, err
	}
	defer services.Close()

	var alloc entry.Allocation
	if len(items) > 0 {
		if alloc, err = entry.NewAllocation(items, services.Config.Get().DailyHours); err != nil {
			return configPath, service.Report{}, err
		}
	}

	report, err := services.Timesheet.Run(ctx, service.Request{
		Start:      opts.Start,
		Count:      opts.Count,
		Allocation: alloc,
		DryRun:     opts.DryRun,
		Confirm:    confirmStrategy(opts.Yes),
	})
	return configPath, report, err
}

// loadServices reads the config and builds the services around it. The
// returned path is set whenever it could be determined.
func loadServices(opts ...service.Option) (string, *service.Services, error) {
	configPath, err := deps.ConfigPath()
	if err != nil {
		return "", nil, fmt.Errorf("failed to determine config file location: %w", err)
	}
	cfg, err := service.LoadConfig(configPath, deps.Getenv)
	if err != nil {
		return configPath, nil, err
	}

	journalPath, err := deps.JournalPath()
	if err != nil {
		warn("submission journal disabled: %v", err)
		journalPath = ""
	}

	opts = append([]service.Option{service.WithClock(deps.Now)}, opts...)
	services, err := service.NewServices(configPath, journalPath, cfg, logger.L(), opts...)
	if err != nil {
		return configPath, nil, err
	}
	return configPath, services, nil
}

// confirmStrategy picks how distant start dates are confirmed. Without a
// terminal and without --yes they are declined.
func confirmStrategy(yes bool) sanity.ConfirmFunc {
	switch {
	case yes:
		return sanity.Always
	case deps.IsTerminal():
		return deps.Confirm(deps.Stdin, deps.Stdout)
	default:
		return nil
	}
}

// printReport writes the per-day outcome of a run.
func printReport(report service.Report, opts submitOptions) {
	out := deps.Stdout
	styles := ui.DefaultStyles()

	for _, n := range report.Notices {
		_, _ = fmt.Fprintf(out, "Note: %s\n", n)
	}
	if len(report.Days) == 0 {
		return
	}

	prefix := ""
	if report.DryRun {
		prefix = "[dry run] "
	}
	_, _ = fmt.Fprintf(out, "%sSubmitting %s from %s\n", prefix,
		pluralize("day", len(report.Days)), report.Start().Format(timeutil.DateLayout))

	for _, d := range report.Completed {
		line := fmt.Sprintf("  %s %s %s  %-24s",
			styles.Date.Render(d.Day.Date.Format(timeutil.DateLayout)),
			d.Day.Date.Format("Mon"),
			styles.Hours.Render(fmt.Sprintf("%dh", d.Day.HoursOwed)),
			d.Allocation.String())
		switch {
		case report.DryRun:
			line += fmt.Sprintf("would write %s", pluralize("entry", len(d.Result.Planned)))
		case len(d.Result.Deleted) > 0:
			line += fmt.Sprintf("%s written, %d replaced", pluralize("entry", len(d.Result.Created)), len(d.Result.Deleted))
		default:
			line += fmt.Sprintf("%s written", pluralize("entry", len(d.Result.Created)))
		}
		if d.Day.IsHoliday() {
			line += "  " + styles.Holiday.Render("(public holiday)")
		}
		_, _ = fmt.Fprintln(out, line)
	}

	if f := report.Failed; f != nil {
		date := f.Day.Date.Format(timeutil.DateLayout)
		_, _ = fmt.Fprintf(out, "  %s %s %s\n", styles.Date.Render(date), f.Day.Date.Format("Mon"), styles.Error.Render("FAILED"))
		remaining := opts.Count - timeutil.DaysBetween(report.Start(), f.Day.Date)
		_, _ = fmt.Fprintf(out, "\nStopped at %s. Earlier days stay submitted; to resume run:\n", date)
		_, _ = fmt.Fprintf(out, "  %s\n", resumeCommand(date, remaining, opts))
		return
	}

	if len(report.Completed) == len(report.Days) {
		if report.DryRun {
			_, _ = fmt.Fprintln(out, styles.Success.Render(fmt.Sprintf("Dry run complete: %s checked, nothing written.", pluralize("day", len(report.Completed)))))
		} else {
			_, _ = fmt.Fprintln(out, styles.Success.Render(fmt.Sprintf("Done: %s submitted, %dh owed.", pluralize("day", len(report.Completed)), report.Hours())))
		}
	}
}

// resumeCommand repeats the run's flags from date onwards.
func resumeCommand(date string, remaining int, opts submitOptions) string {
	args := []string{"tpsheet", "--start", date, "--count", strconv.Itoa(remaining)}
	for _, task := range opts.Tasks {
		args = append(args, "-t", task)
	}
	if opts.DryRun {
		args = append(args, "--dry-run")
	}
	if opts.Yes {
		args = append(args, "--yes")
	}
	return strings.Join(args, " ")
}

// pluralize returns "1 day" or "3 days"
func pluralize(word string, count int) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, word)
	}
	if strings.HasSuffix(word, "y") && !strings.HasSuffix(word, "ay") {
		return fmt.Sprintf("%d %sies", count, strings.TrimSuffix(word, "y"))
	}
	return fmt.Sprintf("%d %ss", count, word)
}
