package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xolan/tpsheet/internal/apperr"
	"github.com/xolan/tpsheet/internal/clockify/clockifytest"
	"github.com/xolan/tpsheet/internal/config"
	"github.com/xolan/tpsheet/internal/osutil"
	"github.com/xolan/tpsheet/internal/sanity"
	"github.com/xolan/tpsheet/internal/service"
)

// testEnv captures the output and exit code of a command run.
type testEnv struct {
	dir        string
	configPath string
	env        map[string]string
	stdout     *bytes.Buffer
	stderr     *bytes.Buffer
	exitCode   int
	exited     bool
}

// testDeps installs deps rooted at a temp dir. Now is 10 Aug 2022, noon in Singapore.
func testDeps(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	e := &testEnv{
		dir:        dir,
		configPath: filepath.Join(dir, "config.toml"),
		env:        map[string]string{},
		stdout:     &bytes.Buffer{},
		stderr:     &bytes.Buffer{},
		exitCode:   -1,
	}
	sgt, err := time.LoadLocation("Asia/Singapore")
	if err != nil {
		t.Fatal(err)
	}

	SetDeps(&Deps{
		Stdout: e.stdout,
		Stderr: e.stderr,
		Stdin:  strings.NewReader(""),
		Exit: func(code int) {
			if !e.exited {
				e.exitCode, e.exited = code, true
			}
		},
		Getenv:      func(key string) string { return e.env[key] },
		Now:         func() time.Time { return time.Date(2022, time.August, 10, 12, 0, 0, 0, sgt) },
		IsTerminal:  func() bool { return false },
		ConfigPath:  func() (string, error) { return e.configPath, nil },
		JournalPath: func() (string, error) { return filepath.Join(dir, "journal.db"), nil },
		Confirm: func(in io.Reader, out io.Writer) sanity.ConfirmFunc {
			t.Error("Confirm should not be called")
			return nil
		},
		Wizard: func(base config.Config, in io.Reader, out io.Writer) (config.Config, error) {
			t.Error("Wizard should not be called")
			return config.Config{}, errors.New("unexpected")
		},
	})
	t.Cleanup(ResetDeps)
	return e
}

// writeConfig writes a config pointing at srv, followed by extra lines.
func (e *testEnv) writeConfig(t *testing.T, srv *clockifytest.Server, extra ...string) {
	t.Helper()
	lines := []string{
		fmt.Sprintf("api_key = %q", clockifytest.APIKey),
		fmt.Sprintf("base_url = %q", srv.BaseURL()),
		`timezone = "Asia/Singapore"`,
	}
	lines = append(lines, extra...)
	if err := os.WriteFile(e.configPath, []byte(strings.Join(lines, "\n")+"\n"), 0600); err != nil {
		t.Fatal(err)
	}
}

func TestPluralize(t *testing.T) {
	tests := []struct {
		word     string
		count    int
		expected string
	}{
		{"day", 1, "1 day"},
		{"day", 0, "0 days"},
		{"day", 3, "3 days"},
		{"entry", 1, "1 entry"},
		{"entry", 2, "2 entries"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if result := pluralize(tt.word, tt.count); result != tt.expected {
				t.Errorf("pluralize(%q, %d) = %q, expected %q", tt.word, tt.count, result, tt.expected)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil", nil, exitOK},
		{"plain error", errors.New("boom"), exitFailure},
		{"parse", apperr.Parse("resolve date", "x", errors.New("bad")), exitParse},
		{"validation", apperr.Validation("check", "x", errors.New("bad")), exitValidation},
		{"wrapped validation", fmt.Errorf("2022-08-08: %w", apperr.Validation("check", "x", errors.New("bad"))), exitValidation},
		{"aborted", apperr.Aborted("confirm", "x"), exitAborted},
		{"not found", apperr.NotFound("resolve", "x", errors.New("missing")), exitNotFound},
		{"remote", &apperr.RemoteError{Op: "list", Method: "GET", Path: "/user", Status: 500}, exitRemote},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := exitCode(tt.err); code != tt.expected {
				t.Errorf("exitCode(%v) = %d, expected %d", tt.err, code, tt.expected)
			}
		})
	}
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		headline     string
		hintContains string
	}{
		{"interrupted", fmt.Errorf("2022-08-08: %w", context.Canceled), "Interrupted", "stay submitted"},
		{"parse", apperr.Parse("resolve date", "x", errors.New("bad")), "Could not read the start date", "DD/MM/YY"},
		{"validation", apperr.Validation("check", "x", errors.New("bad")), "Invalid input", "/tmp/config.toml"},
		{"aborted", apperr.Aborted("confirm", "x"), "Aborted; nothing was submitted", "--yes"},
		{"not found", apperr.NotFound("resolve", "x", errors.New("missing")), "A name could not be found in Clockify", "[tasks]"},
		{"network", &apperr.RemoteError{Op: "get user", Method: "GET", Path: "/user"}, "Clockify request failed", "network"},
		{"unauthorized", &apperr.RemoteError{Op: "get user", Method: "GET", Path: "/user", Status: 401}, "Clockify request failed", "API key"},
		{"rate limited", &apperr.RemoteError{Op: "create", Method: "POST", Path: "/x", Status: 429}, "Clockify request failed", "rerun"},
		{"server error", &apperr.RemoteError{Op: "create", Method: "POST", Path: "/x", Status: 502}, "Clockify request failed", "rerun"},
		{"other status", &apperr.RemoteError{Op: "create", Method: "POST", Path: "/x", Status: 400}, "Clockify request failed", ""},
		{"unknown", errors.New("boom"), "Unexpected failure", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headline, hint := describeError(tt.err, "/tmp/config.toml")
			if headline != tt.headline {
				t.Errorf("headline = %q, expected %q", headline, tt.headline)
			}
			if tt.hintContains == "" && hint != "" {
				t.Errorf("hint = %q, expected none", hint)
			}
			if !strings.Contains(hint, tt.hintContains) {
				t.Errorf("hint = %q, expected it to contain %q", hint, tt.hintContains)
			}
		})
	}
}

func TestFail_PrintsAndExits(t *testing.T) {
	e := testDeps(t)

	fail(apperr.Validation("check task allocation", "live=3", errors.New("hours must sum to daily_hours (8)")), e.configPath)

	if e.exitCode != exitValidation {
		t.Errorf("exit code = %d, expected %d", e.exitCode, exitValidation)
	}
	out := e.stderr.String()
	for _, want := range []string{"Error: Invalid input", "Details: ", "live=3", "Hint: "} {
		if !strings.Contains(out, want) {
			t.Errorf("stderr missing %q:\n%s", want, out)
		}
	}
}

func TestRunSubmit_AgainstClockify(t *testing.T) {
	e := testDeps(t)
	srv := clockifytest.New(t)
	e.writeConfig(t, srv)

	opts := submitOptions{Start: "8/8/22", Count: 3}
	for run := 1; run <= 2; run++ {
		e.stdout.Reset()
		runSubmit(context.Background(), opts)
		if e.exited {
			t.Fatalf("run %d exited with %d:\n%s", run, e.exitCode, e.stderr.String())
		}
	}

	if n := len(srv.Entries()); n != 3 {
		t.Fatalf("server holds %d entries after two runs, expected 3", n)
	}
	out := e.stdout.String()
	for _, want := range []string{
		"Submitting 3 days from 2022-08-08",
		"live=8",
		"holiday=8",
		"(public holiday)",
		"1 entry written, 1 replaced",
		"Done: 3 days submitted, 16h owed.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunSubmit_SplitAllocation(t *testing.T) {
	e := testDeps(t)
	srv := clockifytest.New(t)
	e.writeConfig(t, srv)

	runSubmit(context.Background(), submitOptions{Start: "2022-08-08", Count: 1, Tasks: []string{"live=6", "training:2"}})
	if e.exited {
		t.Fatalf("exited with %d:\n%s", e.exitCode, e.stderr.String())
	}

	posted := srv.Posted()
	if len(posted) != 2 {
		t.Fatalf("posted %d entries, expected 2", len(posted))
	}
	if posted[0].TaskID != clockifytest.TaskLive || posted[1].TaskID != clockifytest.TaskTraining {
		t.Errorf("posted tasks = %s, %s", posted[0].TaskID, posted[1].TaskID)
	}
	if !strings.Contains(e.stdout.String(), "2 entries written") {
		t.Errorf("output:\n%s", e.stdout.String())
	}
}

func TestRunSubmit_DryRun(t *testing.T) {
	e := testDeps(t)
	srv := clockifytest.New(t)
	e.writeConfig(t, srv)

	runSubmit(context.Background(), submitOptions{Start: "8/8/22", Count: 2, DryRun: true})
	if e.exited {
		t.Fatalf("exited with %d:\n%s", e.exitCode, e.stderr.String())
	}

	if n := len(srv.Entries()); n != 0 {
		t.Errorf("dry run created %d entries", n)
	}
	out := e.stdout.String()
	for _, want := range []string{"[dry run] Submitting 2 days", "would write 1 entry", "nothing written"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunSubmit_WeekendOnly(t *testing.T) {
	e := testDeps(t)
	srv := clockifytest.New(t)
	e.writeConfig(t, srv)

	runSubmit(context.Background(), submitOptions{Start: "6/8/22", Count: 2})
	if e.exited {
		t.Fatalf("exited with %d", e.exitCode)
	}
	if !strings.Contains(e.stdout.String(), "Note: No weekdays") {
		t.Errorf("output:\n%s", e.stdout.String())
	}
	if n := srv.Calls(http.MethodGet, "/user"); n != 0 {
		t.Errorf("GET /user called %d times, expected no network access", n)
	}
}

func TestRunSubmit_ExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		opts     submitOptions
		extra    []string
		apiKey   string
		expected int
	}{
		{name: "bad date", opts: submitOptions{Start: "31/02/2022", Count: 1}, expected: exitParse},
		{name: "bad task syntax", opts: submitOptions{Start: "today", Count: 1, Tasks: []string{"live"}}, expected: exitValidation},
		{name: "hours do not add up", opts: submitOptions{Start: "today", Count: 1, Tasks: []string{"live=3"}}, expected: exitValidation},
		{name: "unknown task code", opts: submitOptions{Start: "today", Count: 1, Tasks: []string{"nope=8"}}, expected: exitValidation},
		{name: "count out of range", opts: submitOptions{Start: "today", Count: 0}, expected: exitValidation},
		{name: "invalid config", opts: submitOptions{Start: "today", Count: 1}, extra: []string{"daily_hours = 30"}, expected: exitValidation},
		{name: "distant date without terminal", opts: submitOptions{Start: "01/01/2021", Count: 1}, expected: exitAborted},
		{name: "unknown locale tag", opts: submitOptions{Start: "today", Count: 1}, extra: []string{`locale = "fr_FR"`}, expected: exitNotFound},
		{name: "wrong API key", opts: submitOptions{Start: "today", Count: 1}, apiKey: "wrong", expected: exitRemote},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := testDeps(t)
			srv := clockifytest.New(t)
			e.writeConfig(t, srv, tt.extra...)
			if tt.apiKey != "" {
				e.env["TPSHEET_API_KEY"] = tt.apiKey
			}

			runSubmit(context.Background(), tt.opts)

			if e.exitCode != tt.expected {
				t.Errorf("exit code = %d, expected %d\nstderr:\n%s", e.exitCode, tt.expected, e.stderr.String())
			}
			if !strings.Contains(e.stderr.String(), "Error: ") {
				t.Errorf("stderr should carry an error block:\n%s", e.stderr.String())
			}
			if tt.expected != exitRemote && tt.expected != exitNotFound && len(srv.Posted()) != 0 {
				t.Error("nothing should be posted")
			}
		})
	}
}

func TestRunSubmit_FailurePrintsResumeCommand(t *testing.T) {
	e := testDeps(t)
	srv := clockifytest.New(t)
	e.writeConfig(t, srv)
	srv.FailNext(http.MethodPost, "/workspaces/ws-1/time-entries", clockifytest.Failure{Status: 500, Body: "boom", After: 1})

	runSubmit(context.Background(), submitOptions{Start: "8/8/22", Count: 3})

	if e.exitCode != exitRemote {
		t.Fatalf("exit code = %d, expected %d\n%s", e.exitCode, exitRemote, e.stderr.String())
	}
	if n := len(srv.Entries()); n != 1 {
		t.Errorf("server holds %d entries, expected the first day only", n)
	}
	out := e.stdout.String()
	for _, want := range []string{"FAILED", "Stopped at 2022-08-09", "tpsheet --start 2022-08-09 --count 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(e.stderr.String(), "rerun") {
		t.Errorf("expected a rerun hint:\n%s", e.stderr.String())
	}
}

func TestRunSubmit_ResumeCommandKeepsTaskSplit(t *testing.T) {
	e := testDeps(t)
	srv := clockifytest.New(t)
	e.writeConfig(t, srv)
	// day one posts two entries, day two fails on its first
	srv.FailNext(http.MethodPost, "/workspaces/ws-1/time-entries", clockifytest.Failure{Status: 500, Body: "boom", After: 2})

	runSubmit(context.Background(), submitOptions{Start: "8/8/22", Count: 3, Tasks: []string{"live=6", "training=2"}})

	if e.exitCode != exitRemote {
		t.Fatalf("exit code = %d, expected %d\n%s", e.exitCode, exitRemote, e.stderr.String())
	}
	want := "  tpsheet --start 2022-08-09 --count 2 -t live=6 -t training=2\n"
	if out := e.stdout.String(); !strings.Contains(out, want) {
		t.Errorf("output missing %q:\n%s", want, out)
	}
}

func TestResumeCommand(t *testing.T) {
	tests := []struct {
		name     string
		opts     submitOptions
		expected string
	}{
		{"defaults", submitOptions{}, "tpsheet --start 2022-08-09 --count 2"},
		{"task split", submitOptions{Tasks: []string{"live=6", "training=2"}}, "tpsheet --start 2022-08-09 --count 2 -t live=6 -t training=2"},
		{"dry run", submitOptions{DryRun: true}, "tpsheet --start 2022-08-09 --count 2 --dry-run"},
		{"everything", submitOptions{Tasks: []string{"OOO=8"}, DryRun: true, Yes: true}, "tpsheet --start 2022-08-09 --count 2 -t OOO=8 --dry-run --yes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resumeCommand("2022-08-09", 2, tt.opts); got != tt.expected {
				t.Errorf("resumeCommand() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestRunSubmit_ConfirmsOnTerminal(t *testing.T) {
	tests := []struct {
		name    string
		answer  bool
		entries int
		code    int
	}{
		{"accepted", true, 1, -1},
		{"declined", false, 0, exitAborted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := testDeps(t)
			srv := clockifytest.New(t)
			e.writeConfig(t, srv)

			var prompts []sanity.Prompt
			deps.IsTerminal = func() bool { return true }
			deps.Confirm = func(in io.Reader, out io.Writer) sanity.ConfirmFunc {
				return func(p sanity.Prompt) bool {
					prompts = append(prompts, p)
					return tt.answer
				}
			}

			runSubmit(context.Background(), submitOptions{Start: "01/06/22", Count: 1})

			if len(prompts) != 1 {
				t.Fatalf("prompted %d times, expected once", len(prompts))
			}
			if prompts[0].Distance != 70 {
				t.Errorf("Distance = %d, expected 70", prompts[0].Distance)
			}
			if e.exitCode != tt.code {
				t.Errorf("exit code = %d, expected %d", e.exitCode, tt.code)
			}
			if n := len(srv.Entries()); n != tt.entries {
				t.Errorf("server holds %d entries, expected %d", n, tt.entries)
			}
		})
	}
}

func TestRunSubmit_YesSkipsPrompt(t *testing.T) {
	e := testDeps(t)
	srv := clockifytest.New(t)
	e.writeConfig(t, srv)
	deps.IsTerminal = func() bool { return true }

	runSubmit(context.Background(), submitOptions{Start: "01/06/22", Count: 1, Yes: true})

	if e.exited {
		t.Fatalf("exited with %d:\n%s", e.exitCode, e.stderr.String())
	}
	if n := len(srv.Entries()); n != 1 {
		t.Errorf("server holds %d entries, expected 1", n)
	}
}

type recordingForm struct {
	dates []string
}

func (f *recordingForm) Submit(ctx context.Context, req service.FormRequest) error {
	f.dates = append(f.dates, req.Date.Format("2006-01-02"))
	return nil
}

func TestRunSubmit_FormSubmitter(t *testing.T) {
	e := testDeps(t)
	srv := clockifytest.New(t)
	e.writeConfig(t, srv, `email = "me@example.com"`, `form_url = "https://forms.example.com/t"`)
	form := &recordingForm{}
	deps.FormSubmitter = form

	runSubmit(context.Background(), submitOptions{Start: "8/8/22", Count: 2})

	if e.exited {
		t.Fatalf("exited with %d:\n%s", e.exitCode, e.stderr.String())
	}
	if strings.Join(form.dates, ",") != "2022-08-08,2022-08-09" {
		t.Errorf("form dates = %v", form.dates)
	}
}

func TestRunSubmit_JournalPathError(t *testing.T) {
	e := testDeps(t)
	srv := clockifytest.New(t)
	e.writeConfig(t, srv)
	deps.JournalPath = func() (string, error) { return "", errors.New("no home") }

	runSubmit(context.Background(), submitOptions{Start: "today", Count: 1})

	if e.exited {
		t.Fatalf("exited with %d:\n%s", e.exitCode, e.stderr.String())
	}
	if !strings.Contains(e.stderr.String(), "Warning: submission journal disabled") {
		t.Errorf("stderr:\n%s", e.stderr.String())
	}
	if n := len(srv.Entries()); n != 1 {
		t.Errorf("server holds %d entries, expected 1", n)
	}
}

func TestRunSubmit_ConfigPathError(t *testing.T) {
	e := testDeps(t)
	deps.ConfigPath = func() (string, error) { return "", errors.New("permission denied") }

	runSubmit(context.Background(), submitOptions{Start: "today", Count: 1})

	if e.exitCode != exitFailure {
		t.Errorf("exit code = %d, expected %d", e.exitCode, exitFailure)
	}
	if !strings.Contains(e.stderr.String(), "permission denied") {
		t.Errorf("stderr:\n%s", e.stderr.String())
	}
}

func TestConfirmStrategy(t *testing.T) {
	testDeps(t)
	p := sanity.Prompt{Distance: 30, RangeDays: 14}

	if confirm := confirmStrategy(true); confirm == nil || !confirm(p) {
		t.Error("--yes should accept")
	}
	if confirm := confirmStrategy(false); confirm != nil {
		t.Error("without a terminal there should be no prompt")
	}

	called := false
	deps.IsTerminal = func() bool { return true }
	deps.Confirm = func(in io.Reader, out io.Writer) sanity.ConfirmFunc {
		called = true
		return func(sanity.Prompt) bool { return false }
	}
	if confirm := confirmStrategy(false); confirm == nil || confirm(p) {
		t.Error("terminal prompt should be used and decline")
	}
	if !called {
		t.Error("deps.Confirm was not used")
	}
}

func TestRootCommand_HelpWithoutStart(t *testing.T) {
	e := testDeps(t)
	e.env["TPSHEET_HOME"] = e.dir
	defer osutil.ResetProvider()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{})
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	}()

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !strings.Contains(out.String(), "tpsheet books your working hours") {
		t.Errorf("expected help output, got:\n%s", out.String())
	}
	if e.exited {
		t.Errorf("unexpected exit %d", e.exitCode)
	}
	if _, err := os.Stat(filepath.Join(e.dir, "tpsheet", "logs")); err != nil {
		t.Errorf("expected logs under TPSHEET_HOME: %v", err)
	}
}

func TestRootCommand_Flags(t *testing.T) {
	tests := []struct {
		name      string
		shorthand string
		defValue  string
	}{
		{"start", "s", ""},
		{"count", "c", "1"},
		{"task", "t", "[]"},
		{"dry-run", "d", "false"},
		{"yes", "y", "false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := rootCmd.Flags().Lookup(tt.name)
			if f == nil {
				t.Fatalf("flag --%s not defined", tt.name)
			}
			if f.Shorthand != tt.shorthand {
				t.Errorf("shorthand = %q, expected %q", f.Shorthand, tt.shorthand)
			}
			if f.DefValue != tt.defValue {
				t.Errorf("default = %q, expected %q", f.DefValue, tt.defValue)
			}
		})
	}

	if rootCmd.PersistentFlags().Lookup("verbose") == nil {
		t.Error("--verbose should be a persistent flag")
	}
}

func TestSetVersionInfo(t *testing.T) {
	SetVersionInfo("1.2.3", "abc123", "2022-08-10")
	defer SetVersionInfo("", "", "")

	if rootCmd.Version != "1.2.3" {
		t.Errorf("Version = %q", rootCmd.Version)
	}
}
