package clockify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/xolan/tpsheet/internal/apperr"
	"github.com/xolan/tpsheet/internal/config"
)

// DefaultStartOfDay is used when the account has no myStartOfDay setting.
const DefaultStartOfDay = 9 * time.Hour

// Directory is the read side of the API the resolver needs.
type Directory interface {
	CurrentUser(ctx context.Context) (User, error)
	Projects(ctx context.Context, workspaceID string) ([]NamedEntity, error)
	Tasks(ctx context.Context, workspaceID, projectID string) ([]NamedEntity, error)
	Tags(ctx context.Context, workspaceID string) ([]NamedEntity, error)
}

// Identity is the account context every entry is written under.
type Identity struct {
	WorkspaceID string
	UserID      string
	Location    *time.Location
	StartOfDay  time.Duration
}

// DayStart returns the account's start of work on date's calendar day.
func (id Identity) DayStart(date time.Time) time.Time {
	h := int(id.StartOfDay / time.Hour)
	m := int(id.StartOfDay % time.Hour / time.Minute)
	return time.Date(date.Year(), date.Month(), date.Day(), h, m, 0, 0, id.Location)
}

// DayBounds returns 00:00:00 and 23:59:59 of date's calendar day in the account's zone.
func (id Identity) DayBounds(date time.Time) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, id.Location)
	end := time.Date(date.Year(), date.Month(), date.Day(), 23, 59, 59, 0, id.Location)
	return start, end
}

type taskKey struct {
	projectID string
	label     string
}

// Cache holds resolved identifiers, keyed by the names that were looked up.
// Each Resolver owns one; nothing is shared between instances.
type Cache struct {
	projects map[string]string
	tasks    map[taskKey]string
	tags     map[string]string
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{
		projects: map[string]string{},
		tasks:    map[taskKey]string{},
		tags:     map[string]string{},
	}
}

// Len returns the number of cached identifiers.
func (c *Cache) Len() int {
	return len(c.projects) + len(c.tasks) + len(c.tags)
}

// Resolver maps task codes and the locale name to remote identifiers.
type Resolver struct {
	api      Directory
	catalog  map[string]config.TaskSpec
	locale   string
	cache    *Cache
	identity Identity
	log      *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*resolverOptions)

type resolverOptions struct {
	fallback *time.Location
	log      *slog.Logger
}

// WithFallbackLocation sets the zone used when the account's time zone is
// missing or unknown.
func WithFallbackLocation(loc *time.Location) ResolverOption {
	return func(o *resolverOptions) { o.fallback = loc }
}

// WithResolverLogger sets the resolver's logger.
func WithResolverLogger(l *slog.Logger) ResolverOption {
	return func(o *resolverOptions) { o.log = l }
}

// NewResolver looks up the current user once and keeps the result for the
// resolver's lifetime. A nil cache gets a fresh one.
func NewResolver(ctx context.Context, api Directory, catalog map[string]config.TaskSpec, locale string, cache *Cache, opts ...ResolverOption) (*Resolver, error) {
	o := resolverOptions{fallback: time.UTC}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cache == nil {
		cache = NewCache()
	}

	user, err := api.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	workspace := user.ActiveWorkspace
	if workspace == "" {
		workspace = user.DefaultWorkspace
	}
	if workspace == "" || user.ID == "" {
		return nil, apperr.NotFound("resolve identity", "workspace", fmt.Errorf("the account has no active workspace; check the API key"))
	}

	loc := o.fallback
	if tz := strings.TrimSpace(user.Settings.TimeZone); tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		} else {
			o.log.Warn("clockify.unknown_time_zone", "time_zone", tz, "fallback", loc.String())
		}
	}

	startOfDay := DefaultStartOfDay
	if s := strings.TrimSpace(user.Settings.MyStartOfDay); s != "" {
		if d, ok := parseClock(s); ok {
			startOfDay = d
		} else {
			o.log.Warn("clockify.invalid_start_of_day", "value", s, "fallback", "09:00")
		}
	}

	r := &Resolver{
		api:     api,
		catalog: catalog,
		locale:  locale,
		cache:   cache,
		identity: Identity{
			WorkspaceID: workspace,
			UserID:      user.ID,
			Location:    loc,
			StartOfDay:  startOfDay,
		},
		log: o.log,
	}
	o.log.Debug("clockify.identity_resolved",
		"workspace_id", workspace, "user_id", user.ID,
		"time_zone", loc.String(), "start_of_day", startOfDay.String())
	return r, nil
}

// Identity returns the account context resolved at construction.
func (r *Resolver) Identity() Identity {
	return r.identity
}

// Locale returns the locale tag name entries are tagged with.
func (r *Resolver) Locale() string {
	return r.locale
}

// ProjectID returns the id of the project owning task.
func (r *Resolver) ProjectID(ctx context.Context, task string) (string, error) {
	spec, err := r.spec(task)
	if err != nil {
		return "", err
	}
	if id, ok := r.cache.projects[spec.Project]; ok {
		return id, nil
	}

	projects, err := r.api.Projects(ctx, r.identity.WorkspaceID)
	if err != nil {
		return "", err
	}
	id, ok := findByName(projects, spec.Project)
	if !ok {
		return "", apperr.NotFound("resolve project", spec.Project,
			fmt.Errorf("no project with this name in the workspace; check [tasks.%s] in the config file", task))
	}
	r.cache.projects[spec.Project] = id
	return id, nil
}

// TaskID returns the id of task within its project.
func (r *Resolver) TaskID(ctx context.Context, task string) (string, error) {
	spec, err := r.spec(task)
	if err != nil {
		return "", err
	}
	projectID, err := r.ProjectID(ctx, task)
	if err != nil {
		return "", err
	}

	key := taskKey{projectID: projectID, label: spec.Label}
	if id, ok := r.cache.tasks[key]; ok {
		return id, nil
	}

	tasks, err := r.api.Tasks(ctx, r.identity.WorkspaceID, projectID)
	if err != nil {
		return "", err
	}
	id, ok := findByName(tasks, spec.Label)
	if !ok {
		return "", apperr.NotFound("resolve task", spec.Label,
			fmt.Errorf("no task with this name in project %q; check [tasks.%s] in the config file", spec.Project, task))
	}
	r.cache.tasks[key] = id
	return id, nil
}

// LocaleTagID returns the id of the tag named after the configured locale.
func (r *Resolver) LocaleTagID(ctx context.Context) (string, error) {
	if id, ok := r.cache.tags[r.locale]; ok {
		return id, nil
	}

	tags, err := r.api.Tags(ctx, r.identity.WorkspaceID)
	if err != nil {
		return "", err
	}
	id, ok := findByName(tags, r.locale)
	if !ok {
		return "", apperr.NotFound("resolve locale tag", r.locale,
			fmt.Errorf("no tag with this name in the workspace; check locale in the config file"))
	}
	r.cache.tags[r.locale] = id
	return id, nil
}

func (r *Resolver) spec(task string) (config.TaskSpec, error) {
	spec, ok := r.catalog[task]
	if !ok {
		return config.TaskSpec{}, apperr.NotFound("resolve task code", task,
			fmt.Errorf("unknown task code; define it under [tasks] in the config file"))
	}
	return spec, nil
}

func findByName(items []NamedEntity, name string) (string, bool) {
	for _, it := range items {
		if it.Name == name {
			return it.ID, true
		}
	}
	return "", false
}

// parseClock parses "HH:MM" into an offset from midnight.
func parseClock(s string) (time.Duration, bool) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, false
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, true
}
