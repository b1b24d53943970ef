package clockify

import "time"

// TimeLayout is the UTC instant format the service accepts and returns.
const TimeLayout = "2006-01-02T15:04:05Z"

// FormatTime renders t as a UTC instant for the wire.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// User is the authenticated account returned by GET /user.
type User struct {
	ID               string       `json:"id"`
	Name             string       `json:"name,omitempty"`
	Email            string       `json:"email,omitempty"`
	ActiveWorkspace  string       `json:"activeWorkspace"`
	DefaultWorkspace string       `json:"defaultWorkspace,omitempty"`
	Settings         UserSettings `json:"settings"`
}

// UserSettings holds the per-user preferences used to place entries in the day.
type UserSettings struct {
	TimeZone     string `json:"timeZone"`
	MyStartOfDay string `json:"myStartOfDay"`
}

// NamedEntity is the {id, name} shape shared by projects, tasks and tags.
type NamedEntity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TimeInterval is the start and end of a stored entry.
type TimeInterval struct {
	Start    string `json:"start"`
	End      string `json:"end,omitempty"`
	Duration string `json:"duration,omitempty"`
}

// TimeEntry is a stored time entry.
type TimeEntry struct {
	ID           string       `json:"id"`
	Description  string       `json:"description,omitempty"`
	ProjectID    string       `json:"projectId,omitempty"`
	TaskID       string       `json:"taskId,omitempty"`
	TagIDs       []string     `json:"tagIds,omitempty"`
	Billable     bool         `json:"billable"`
	TimeInterval TimeInterval `json:"timeInterval"`
}

// TimeEntryRequest is the body of POST /workspaces/{wid}/time-entries.
type TimeEntryRequest struct {
	Start       string   `json:"start"`
	End         string   `json:"end"`
	Billable    bool     `json:"billable"`
	ProjectID   string   `json:"projectId"`
	TaskID      string   `json:"taskId"`
	TagIDs      []string `json:"tagIds"`
	Description string   `json:"description,omitempty"`
}
