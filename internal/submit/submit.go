// Package submit writes one day's time entries, replacing whatever the day held before.
package submit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/xolan/tpsheet/internal/apperr"
	"github.com/xolan/tpsheet/internal/clockify"
	"github.com/xolan/tpsheet/internal/entry"
	"github.com/xolan/tpsheet/internal/timeutil"
)

// Remote is the write side of the time-tracking API.
type Remote interface {
	TimeEntries(ctx context.Context, workspaceID, userID string, start, end time.Time) ([]clockify.TimeEntry, error)
	DeleteTimeEntry(ctx context.Context, workspaceID, entryID string) error
	CreateTimeEntry(ctx context.Context, workspaceID string, req clockify.TimeEntryRequest) (clockify.TimeEntry, error)
}

// Identities resolves the identifiers entries are written with.
type Identities interface {
	Identity() clockify.Identity
	ProjectID(ctx context.Context, task string) (string, error)
	TaskID(ctx context.Context, task string) (string, error)
	LocaleTagID(ctx context.Context) (string, error)
}

// Result is what a submission did, or in dry-run would have done. On error it
// holds the work completed before the failure.
type Result struct {
	Date    time.Time
	DryRun  bool
	Deleted []string
	Planned []clockify.TimeEntryRequest
	Created []clockify.TimeEntry
}

// CreatedIDs returns the ids of the created entries.
func (r Result) CreatedIDs() []string {
	ids := make([]string, len(r.Created))
	for i, e := range r.Created {
		ids[i] = e.ID
	}
	return ids
}

// Engine submits days one at a time.
type Engine struct {
	remote Remote
	ids    Identities
	log    *slog.Logger
}

// New builds an engine. A nil logger discards.
func New(remote Remote, ids Identities, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{remote: remote, ids: ids, log: log}
}

// Submit makes date's remote entries match alloc. Identifiers are resolved
// first; then, unless dryRun, every entry starting on the day is deleted and
// one entry per task is posted back to back from the account's start of day.
// Entries that only run into the day from the one before are left alone.
// Entries created before a failure are kept.
func (e *Engine) Submit(ctx context.Context, date time.Time, alloc entry.Allocation, dryRun bool) (Result, error) {
	id := e.ids.Identity()
	res := Result{Date: timeutil.InLocation(date, id.Location), DryRun: dryRun}
	day := res.Date.Format(timeutil.DateLayout)

	if alloc.Len() == 0 {
		return res, apperr.Validation("submit day", day, errors.New("allocation is empty"))
	}

	reqs, err := e.build(ctx, id, res.Date, alloc)
	if err != nil {
		return res, err
	}
	res.Planned = reqs

	if dryRun {
		for _, r := range reqs {
			e.log.Info("submit.dry_run_entry", "date", day, "start", r.Start, "end", r.End,
				"project_id", r.ProjectID, "task_id", r.TaskID)
		}
		return res, nil
	}

	start, end := id.DayBounds(res.Date)
	existing, err := e.remote.TimeEntries(ctx, id.WorkspaceID, id.UserID, start, end)
	if err != nil {
		return res, err
	}
	owned, err := startingWithin(existing, start, end)
	if err != nil {
		return res, err
	}
	if skipped := len(existing) - len(owned); skipped > 0 {
		e.log.Debug("submit.kept_overlapping", "date", day, "count", skipped)
	}
	for _, old := range owned {
		if err := e.remote.DeleteTimeEntry(ctx, id.WorkspaceID, old.ID); err != nil {
			return res, err
		}
		res.Deleted = append(res.Deleted, old.ID)
	}
	if len(res.Deleted) > 0 {
		e.log.Info("submit.deleted", "date", day, "count", len(res.Deleted))
	}

	for i, r := range reqs {
		created, err := e.remote.CreateTimeEntry(ctx, id.WorkspaceID, r)
		if err != nil {
			e.log.Error("submit.create_failed", "date", day, "index", i, "created_so_far", len(res.Created), "err", err)
			return res, err
		}
		res.Created = append(res.Created, created)
	}
	e.log.Info("submit.created", "date", day, "count", len(res.Created))
	return res, nil
}

func (e *Engine) build(ctx context.Context, id clockify.Identity, date time.Time, alloc entry.Allocation) ([]clockify.TimeEntryRequest, error) {
	tagID, err := e.ids.LocaleTagID(ctx)
	if err != nil {
		return nil, err
	}

	intervals := entry.Plan(id.DayStart(date), alloc)
	reqs := make([]clockify.TimeEntryRequest, 0, len(intervals))
	for _, iv := range intervals {
		projectID, err := e.ids.ProjectID(ctx, iv.Task)
		if err != nil {
			return nil, err
		}
		taskID, err := e.ids.TaskID(ctx, iv.Task)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, clockify.TimeEntryRequest{
			Start:     clockify.FormatTime(iv.Start),
			End:       clockify.FormatTime(iv.End),
			Billable:  true,
			ProjectID: projectID,
			TaskID:    taskID,
			TagIDs:    []string{tagID},
		})
	}
	return reqs, nil
}

// startingWithin keeps the entries whose start lies in [start, end].
func startingWithin(entries []clockify.TimeEntry, start, end time.Time) ([]clockify.TimeEntry, error) {
	var in []clockify.TimeEntry
	for _, en := range entries {
		at, err := time.Parse(time.RFC3339, en.TimeInterval.Start)
		if err != nil {
			return nil, apperr.Parse("read time entry", en.ID, err)
		}
		if !at.Before(start) && !at.After(end) {
			in = append(in, en)
		}
	}
	return in, nil
}
