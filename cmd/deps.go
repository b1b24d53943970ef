package cmd

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/xolan/tpsheet/internal/config"
	"github.com/xolan/tpsheet/internal/journal"
	"github.com/xolan/tpsheet/internal/sanity"
	"github.com/xolan/tpsheet/internal/service"
	"github.com/xolan/tpsheet/internal/tui"
)

// Deps holds external dependencies for CLI commands, enabling testability.
type Deps struct {
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader
	Exit   func(code int)
	Getenv func(key string) string
	Now    func() time.Time

	// IsTerminal reports whether Stdin can answer interactive prompts
	IsTerminal  func() bool
	ConfigPath  func() (string, error)
	JournalPath func() (string, error)

	Confirm func(in io.Reader, out io.Writer) sanity.ConfirmFunc
	Wizard  func(base config.Config, in io.Reader, out io.Writer) (config.Config, error)

	// FormSubmitter receives every submitted day when set
	FormSubmitter service.FormSubmitter
}

// DefaultDeps returns the default production dependencies.
func DefaultDeps() *Deps {
	return &Deps{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Stdin:  os.Stdin,
		Exit:   os.Exit,
		Getenv: os.Getenv,
		Now:    time.Now,
		IsTerminal: func() bool {
			fd := os.Stdin.Fd()
			return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
		},
		ConfigPath:  config.GetConfigPath,
		JournalPath: journal.DefaultPath,
		Confirm:     tui.Confirm,
		Wizard:      tui.RunWizard,
	}
}

// deps is the global dependencies instance used by commands.
// In production, this is DefaultDeps(). Tests can replace it.
var deps = DefaultDeps()

// SetDeps sets the global dependencies (for testing).
func SetDeps(d *Deps) {
	deps = d
}

// ResetDeps resets dependencies to defaults (for testing cleanup).
func ResetDeps() {
	deps = DefaultDeps()
}
