// Package clockifytest provides an in-memory Clockify API for tests.
package clockifytest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/xolan/tpsheet/internal/clockify"
)

// Fixture identifiers served by New.
const (
	APIKey      = "test-key"
	WorkspaceID = "ws-1"
	UserID      = "user-1"
	TimeZone    = "Asia/Singapore"

	ProjectAPAC        = "proj-apac"
	ProjectNonBillable = "proj-nb"
	TaskLive           = "task-live"
	TaskTraining       = "task-training"
	TaskOOO            = "task-ooo"
	TaskHoliday        = "task-holiday"
	TagLocale          = "tag-en-sg"
)

// Failure makes the server answer a request with status and body after
// letting After matching requests through.
type Failure struct {
	Status int
	Body   string
	After  int
}

// Server is a fake API rooted at URL()+"/api/v1". Fields may be changed
// before the first request.
type Server struct {
	*httptest.Server

	User     clockify.User
	Projects []clockify.NamedEntity
	Tasks    map[string][]clockify.NamedEntity
	Tags     []clockify.NamedEntity

	mu      sync.Mutex
	entries map[string]clockify.TimeEntry
	nextID  int
	calls   map[string]int
	fail    map[string][]Failure
	posted  []clockify.TimeEntryRequest
}

// New starts a server with the default catalog's projects, tasks and an
// en_SG tag. It is closed when the test ends.
func New(t testing.TB) *Server {
	s := &Server{
		User: clockify.User{
			ID:              UserID,
			Name:            "Test User",
			ActiveWorkspace: WorkspaceID,
			Settings:        clockify.UserSettings{TimeZone: TimeZone, MyStartOfDay: "09:00"},
		},
		Projects: []clockify.NamedEntity{
			{ID: "proj-other", Name: "Internal"},
			{ID: ProjectAPAC, Name: "Jupiter Staffing APAC"},
			{ID: ProjectNonBillable, Name: "Jupiter Non-Billable"},
		},
		Tasks: map[string][]clockify.NamedEntity{
			ProjectAPAC: {
				{ID: TaskLive, Name: "Live hours"},
				{ID: TaskTraining, Name: "Training"},
			},
			ProjectNonBillable: {
				{ID: TaskOOO, Name: "Out Of Office"},
				{ID: TaskHoliday, Name: "Holiday"},
			},
		},
		Tags: []clockify.NamedEntity{
			{ID: "tag-en-us", Name: "en_US"},
			{ID: TagLocale, Name: "en_SG"},
		},
		entries: map[string]clockify.TimeEntry{},
		calls:   map[string]int{},
		fail:    map[string][]Failure{},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// BaseURL returns the API base to hand to clockify.New.
func (s *Server) BaseURL() string {
	return s.URL + "/api/v1"
}

// Client returns a client for this server.
func (s *Server) Client(t testing.TB, opts ...clockify.Option) *clockify.Client {
	t.Helper()
	c, err := clockify.New(s.BaseURL(), APIKey, opts...)
	if err != nil {
		t.Fatalf("clockify.New() error: %v", err)
	}
	return c
}

// FailNext queues a failure for the next request matching method and path
// (path relative to /api/v1, without query).
func (s *Server) FailNext(method, path string, f Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + path
	s.fail[key] = append(s.fail[key], f)
}

// Calls returns how many requests hit method and path.
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+path]
}

// Posted returns every accepted create request in arrival order.
func (s *Server) Posted() []clockify.TimeEntryRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]clockify.TimeEntryRequest, len(s.posted))
	copy(out, s.posted)
	return out
}

// Seed stores an entry as if it had been created earlier.
func (s *Server) Seed(start, end time.Time, taskID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store(clockify.TimeEntryRequest{
		Start:  clockify.FormatTime(start),
		End:    clockify.FormatTime(end),
		TaskID: taskID,
	})
}

// Entries returns the stored entries ordered by start.
func (s *Server) Entries() []clockify.TimeEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]clockify.TimeEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TimeInterval.Start == out[j].TimeInterval.Start {
			return out[i].ID < out[j].ID
		}
		return out[i].TimeInterval.Start < out[j].TimeInterval.Start
	})
	return out
}

func (s *Server) store(req clockify.TimeEntryRequest) string {
	s.nextID++
	id := fmt.Sprintf("entry-%d", s.nextID)
	s.entries[id] = clockify.TimeEntry{
		ID:           id,
		Description:  req.Description,
		ProjectID:    req.ProjectID,
		TaskID:       req.TaskID,
		TagIDs:       req.TagIDs,
		Billable:     req.Billable,
		TimeInterval: clockify.TimeInterval{Start: req.Start, End: req.End},
	}
	return id
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1")

	s.mu.Lock()
	key := r.Method + " " + path
	s.calls[key]++
	var failure *Failure
	if queued := s.fail[key]; len(queued) > 0 {
		if queued[0].After > 0 {
			queued[0].After--
		} else {
			f := queued[0]
			failure = &f
			s.fail[key] = queued[1:]
		}
	}
	s.mu.Unlock()

	if r.Header.Get("X-Api-Key") != APIKey {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Full authentication is required", "code": 1000})
		return
	}
	if failure != nil {
		w.WriteHeader(failure.Status)
		_, _ = w.Write([]byte(failure.Body))
		return
	}

	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch {
	case r.Method == http.MethodGet && path == "/user":
		writeJSON(w, http.StatusOK, s.User)

	case len(parts) < 3 || parts[0] != "workspaces" || parts[1] != s.User.ActiveWorkspace:
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "workspace not found"})

	case r.Method == http.MethodGet && len(parts) == 3 && parts[2] == "projects":
		writePage(w, r, s.Projects)

	case r.Method == http.MethodGet && len(parts) == 5 && parts[2] == "projects" && parts[4] == "tasks":
		tasks, ok := s.Tasks[parts[3]]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "project not found"})
			return
		}
		writePage(w, r, tasks)

	case r.Method == http.MethodGet && len(parts) == 3 && parts[2] == "tags":
		writePage(w, r, s.Tags)

	case r.Method == http.MethodGet && len(parts) == 5 && parts[2] == "user" && parts[4] == "time-entries":
		s.listEntries(w, r)

	case r.Method == http.MethodDelete && len(parts) == 4 && parts[2] == "time-entries":
		s.mu.Lock()
		_, ok := s.entries[parts[3]]
		delete(s.entries, parts[3])
		s.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "time entry not found"})
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case r.Method == http.MethodPost && len(parts) == 3 && parts[2] == "time-entries":
		var req clockify.TimeEntryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": err.Error()})
			return
		}
		if _, err := time.Parse(clockify.TimeLayout, req.Start); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": "invalid start"})
			return
		}
		s.mu.Lock()
		id := s.store(req)
		s.posted = append(s.posted, req)
		created := s.entries[id]
		s.mu.Unlock()
		writeJSON(w, http.StatusCreated, created)

	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "no route"})
	}
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err1 := time.Parse(clockify.TimeLayout, q.Get("start"))
	end, err2 := time.Parse(clockify.TimeLayout, q.Get("end"))
	if err1 != nil || err2 != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "start and end are required"})
		return
	}

	var matched []clockify.TimeEntry
	for _, e := range s.Entries() {
		es, _ := time.Parse(clockify.TimeLayout, e.TimeInterval.Start)
		ee, err := time.Parse(clockify.TimeLayout, e.TimeInterval.End)
		if err != nil {
			ee = es
		}
		if !es.After(end) && !ee.Before(start) {
			matched = append(matched, e)
		}
	}
	writePage(w, r, matched)
}

func writePage[T any](w http.ResponseWriter, r *http.Request, items []T) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("page-size"))
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 50
	}
	from := (page - 1) * size
	if from > len(items) {
		from = len(items)
	}
	to := from + size
	if to > len(items) {
		to = len(items)
	}
	out := items[from:to]
	if out == nil {
		out = []T{}
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
