package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/xolan/tpsheet/internal/apperr"
	"github.com/xolan/tpsheet/internal/timeutil"
	"github.com/xolan/tpsheet/internal/tui/ui"
)

// holidaysCmd lists the public holidays the day generator skips
var holidaysCmd = &cobra.Command{
	Use:   "holidays [year]",
	Short: "List the public holidays in use",
	Long: `List the public holidays tpsheet books on the holiday task.

The built-in calendar is Singapore's. Set holiday_file in the config to use
your own YAML calendar. Years missing from the calendar fall back to the
fixed-date holidays only, so check them before submitting.

Examples:
  tpsheet holidays           Holidays of the current year
  tpsheet holidays 2022      Holidays of 2022`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		year := deps.Now().Year()
		if len(args) == 1 {
			y, err := strconv.Atoi(args[0])
			if err != nil || y < 1 {
				fail(apperr.Validation("list holidays", args[0], fmt.Errorf("year must be a positive number")), "")
				return
			}
			year = y
		}
		listHolidays(year)
	},
}

func init() {
	rootCmd.AddCommand(holidaysCmd)
}

func listHolidays(year int) {
	configPath, services, err := loadServices()
	if err != nil {
		fail(err, configPath)
		return
	}
	defer services.Close()

	hy := services.Holidays.Year(year)
	out := deps.Stdout
	styles := ui.DefaultStyles()

	_, _ = fmt.Fprintln(out, styles.Title.Render(fmt.Sprintf("%s public holidays %d", hy.Calendar, hy.Year)))
	if !hy.FromTable {
		warn("%d is not in the %s calendar; only fixed-date holidays are listed", year, hy.Calendar)
	}
	if len(hy.Days) == 0 {
		_, _ = fmt.Fprintln(out, styles.Muted.Render("No holidays."))
		return
	}
	for _, d := range hy.Days {
		line := fmt.Sprintf("  %s %s  %s",
			styles.Date.Render(d.Date.Format(timeutil.DateLayout)),
			d.Date.Format("Mon"),
			styles.Holiday.Render(d.Name))
		if timeutil.IsWeekend(d.Date) {
			line += "  " + styles.Weekend.Render("(weekend, not booked)")
		}
		_, _ = fmt.Fprintln(out, line)
	}
}
