package cmd

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xolan/tpsheet/internal/apperr"
	"github.com/xolan/tpsheet/internal/config"
	"github.com/xolan/tpsheet/internal/service"
	"github.com/xolan/tpsheet/internal/tui"
	"github.com/xolan/tpsheet/internal/tui/ui"
)

var configSample bool

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Display or manage configuration settings",
	Long: `Display the current effective configuration settings for tpsheet.

Shows the configuration file location, whether it exists, and all current
settings. Values are merged from the config file, the defaults and the
environment (TPSHEET_API_KEY or CLOCKIFY_CRED override api_key).

Examples:
  tpsheet config                 Show all current settings
  tpsheet config path            Print the config file location
  tpsheet config init            Create the config file interactively
  tpsheet config init --sample   Write a commented sample file

Configuration file location:
  ~/.config/tpsheet/config.toml          Linux/macOS
  %APPDATA%\tpsheet\config.toml          Windows
  $TPSHEET_HOME/tpsheet/config.toml      when TPSHEET_HOME is set`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		showConfig()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		showConfig()
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, err := deps.ConfigPath()
		if err != nil {
			fail(fmt.Errorf("failed to determine config file location: %w", err), "")
			return
		}
		_, _ = fmt.Fprintln(deps.Stdout, configPath)
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the config file",
	Long: `Create the config file.

On a terminal a short form asks for the API key, locale, daily hours and
timezone. Elsewhere, or with --sample, a commented sample file is written
for you to edit. An existing file is never overwritten.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		initConfig(configSample)
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configSample, "sample", false, "write a commented sample file instead of asking")
	configCmd.AddCommand(configShowCmd, configPathCmd, configInitCmd)
	rootCmd.AddCommand(configCmd)
}

// showConfig displays the current effective configuration
func showConfig() {
	configPath, err := deps.ConfigPath()
	if err != nil {
		fail(fmt.Errorf("failed to determine config file location: %w", err), "")
		return
	}
	cfg, err := service.LoadConfig(configPath, deps.Getenv)
	if err != nil {
		fail(err, configPath)
		return
	}
	svc := service.NewConfigService(configPath, cfg)

	out := deps.Stdout
	styles := ui.DefaultStyles()
	row := func(label, value string) {
		_, _ = fmt.Fprintf(out, "%s %s\n", styles.Label.Render(label), styles.Value.Render(value))
	}

	_, _ = fmt.Fprintln(out, styles.Title.Render("Configuration for tpsheet"))
	_, _ = fmt.Fprintln(out, strings.Repeat("=", 60))
	row("Config file:", configPath)
	if svc.Exists() {
		row("Status:", "File exists (using custom configuration)")
	} else {
		row("Status:", "No config file (using defaults)")
	}
	_, _ = fmt.Fprintln(out)

	_, _ = fmt.Fprintln(out, "Current Settings:")
	_, _ = fmt.Fprintln(out, strings.Repeat("-", 60))
	row("API key:", cfg.MaskedAPIKey())
	row("Base URL:", cfg.BaseURL)
	row("Locale:", cfg.Locale)
	row("Daily hours:", fmt.Sprintf("%d", cfg.DailyHours))
	row("Timezone:", cfg.Timezone)
	row("Timeout:", cfg.RequestTimeout().String())
	if cfg.HolidayFile == "" {
		row("Holidays:", "built-in (Singapore)")
	} else {
		row("Holidays:", cfg.HolidayFile)
	}
	if cfg.SanityCheck.Enabled {
		row("Sanity check:", fmt.Sprintf("confirm dates more than %d days away", cfg.SanityCheck.RangeDays))
	} else {
		row("Sanity check:", "disabled")
	}
	if cfg.Email != "" {
		row("Email:", cfg.Email)
	}
	if cfg.FormURL != "" {
		row("Form URL:", cfg.FormURL)
	}
	_, _ = fmt.Fprintln(out)

	_, _ = fmt.Fprintln(out, "Tasks:")
	_, _ = fmt.Fprintln(out, strings.Repeat("-", 60))
	codes := make([]string, 0, len(cfg.Tasks))
	for code := range cfg.Tasks {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		task := cfg.Tasks[code]
		_, _ = fmt.Fprintf(out, "%s %s %s\n", styles.Label.Render(code), task.Label, styles.Muted.Render("("+task.Project+")"))
	}
	_, _ = fmt.Fprintln(out)

	if !svc.Exists() {
		_, _ = fmt.Fprintln(out, "Tip: Run 'tpsheet config init' to create the config file.")
	}
}

// initConfig creates the config file through the wizard or as a sample.
func initConfig(sample bool) {
	configPath, err := deps.ConfigPath()
	if err != nil {
		fail(fmt.Errorf("failed to determine config file location: %w", err), "")
		return
	}
	svc := service.NewConfigService(configPath, config.DefaultConfig())
	if svc.Exists() {
		fail(apperr.Validation("init config", configPath, service.ErrConfigExists), configPath)
		return
	}

	if sample || !deps.IsTerminal() {
		if err := svc.Init(); err != nil {
			fail(err, configPath)
			return
		}
		_, _ = fmt.Fprintf(deps.Stdout, "Wrote a sample config to %s\n", configPath)
		_, _ = fmt.Fprintln(deps.Stdout, "Set api_key (or TPSHEET_API_KEY) before submitting.")
		return
	}

	base := config.DefaultConfig()
	base.APIKey = firstNonEmpty(deps.Getenv("TPSHEET_API_KEY"), deps.Getenv("CLOCKIFY_CRED"))
	cfg, err := deps.Wizard(base, deps.Stdin, deps.Stdout)
	if errors.Is(err, tui.ErrCancelled) {
		_, _ = fmt.Fprintln(deps.Stderr, "Setup cancelled; nothing was written.")
		deps.Exit(exitAborted)
		return
	}
	if err != nil {
		fail(err, configPath)
		return
	}
	if err := svc.Update(cfg); err != nil {
		fail(err, configPath)
		return
	}
	_, _ = fmt.Fprintf(deps.Stdout, "Saved config to %s\n", configPath)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

