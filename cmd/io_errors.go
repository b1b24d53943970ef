package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/xolan/tpsheet/internal/apperr"
)

// Exit codes, one per error kind.
const (
	exitOK         = 0
	exitFailure    = 1
	exitParse      = 2
	exitValidation = 3
	exitAborted    = 4
	exitNotFound   = 5
	exitRemote     = 6
)

// exitCode maps err to the process exit code.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	kind, ok := apperr.KindOf(err)
	if !ok {
		return exitFailure
	}
	switch kind {
	case apperr.KindParse:
		return exitParse
	case apperr.KindValidation:
		return exitValidation
	case apperr.KindAborted:
		return exitAborted
	case apperr.KindNotFound:
		return exitNotFound
	case apperr.KindRemote:
		return exitRemote
	default:
		return exitFailure
	}
}

// printError writes the Error/Details/Hint block for err.
func printError(err error, configPath string) {
	headline, hint := describeError(err, configPath)
	_, _ = fmt.Fprintf(deps.Stderr, "Error: %s\n", headline)
	_, _ = fmt.Fprintf(deps.Stderr, "Details: %v\n", err)
	if hint != "" {
		_, _ = fmt.Fprintf(deps.Stderr, "Hint: %s\n", hint)
	}
}

// fail prints err and exits with its code.
func fail(err error, configPath string) {
	printError(err, configPath)
	deps.Exit(exitCode(err))
}

func describeError(err error, configPath string) (headline, hint string) {
	if errors.Is(err, context.Canceled) {
		return "Interrupted", "Days submitted before the interruption stay submitted"
	}

	kind, _ := apperr.KindOf(err)
	switch kind {
	case apperr.KindParse:
		return "Could not read the start date",
			"Use today, yesterday, DD/MM/YY, DD/MM/YYYY or YYYY-MM-DD (day before month)"
	case apperr.KindValidation:
		if configPath == "" {
			return "Invalid input", "Check the command line values"
		}
		return "Invalid input",
			fmt.Sprintf("Check the --task values and the config file: %s", configPath)
	case apperr.KindAborted:
		return "Aborted; nothing was submitted",
			"Pass --yes to skip the start date confirmation"
	case apperr.KindNotFound:
		return "A name could not be found in Clockify",
			fmt.Sprintf("Check the [tasks] and locale settings in %s against your Clockify workspace", configPath)
	case apperr.KindRemote:
		return "Clockify request failed", remoteHint(err)
	default:
		return "Unexpected failure", ""
	}
}

func remoteHint(err error) string {
	var re *apperr.RemoteError
	if !errors.As(err, &re) {
		return ""
	}
	switch {
	case re.Status == 0:
		return "Check your network connection and the base_url setting"
	case re.Status == http.StatusUnauthorized || re.Status == http.StatusForbidden:
		return "Check your API key (api_key in the config file or TPSHEET_API_KEY)"
	case re.Status == http.StatusTooManyRequests || re.Status >= 500:
		return "Clockify may be busy; rerun the same command, completed days are replaced, not duplicated"
	default:
		return ""
	}
}

func warn(format string, args ...any) {
	_, _ = fmt.Fprintf(deps.Stderr, "Warning: "+format+"\n", args...)
}
