package entry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xolan/tpsheet/internal/apperr"
)

// MaxDailyHours caps a single day's total.
const MaxDailyHours = 24

// Item is one task code with its hours for a day.
type Item struct {
	Task  string
	Hours int
}

func (i Item) String() string {
	return fmt.Sprintf("%s=%d", i.Task, i.Hours)
}

// Allocation is a validated, ordered split of a day's hours across tasks.
// The zero value is empty and is never accepted by the submission engine.
type Allocation struct {
	items []Item
	total int
}

// NewAllocation validates items against dailyTotal. Items must be non-empty,
// carry positive hours, use each task code once and sum to dailyTotal.
func NewAllocation(items []Item, dailyTotal int) (Allocation, error) {
	const op = "build task allocation"

	if dailyTotal <= 0 || dailyTotal > MaxDailyHours {
		return Allocation{}, apperr.Validation(op, "daily total", fmt.Errorf("daily total must be between 1 and %d hours, got %d", MaxDailyHours, dailyTotal))
	}
	if len(items) == 0 {
		return Allocation{}, apperr.Validation(op, "tasks", fmt.Errorf("at least one task is required"))
	}

	seen := make(map[string]bool, len(items))
	sum := 0
	for _, it := range items {
		task := strings.TrimSpace(it.Task)
		if task == "" {
			return Allocation{}, apperr.Validation(op, "tasks", fmt.Errorf("task code cannot be empty"))
		}
		if it.Hours <= 0 {
			return Allocation{}, apperr.Validation(op, task, fmt.Errorf("hours must be positive, got %d", it.Hours))
		}
		if seen[task] {
			return Allocation{}, apperr.Validation(op, task, fmt.Errorf("task %q listed more than once", task))
		}
		seen[task] = true
		sum += it.Hours
	}
	if sum != dailyTotal {
		return Allocation{}, apperr.Validation(op, describe(items), fmt.Errorf("hours sum to %d, expected %d", sum, dailyTotal))
	}

	normalized := make([]Item, len(items))
	for i, it := range items {
		normalized[i] = Item{Task: strings.TrimSpace(it.Task), Hours: it.Hours}
	}
	return Allocation{items: normalized, total: dailyTotal}, nil
}

// Single is an allocation that books the whole day on one task.
func Single(task string, dailyTotal int) (Allocation, error) {
	return NewAllocation([]Item{{Task: task, Hours: dailyTotal}}, dailyTotal)
}

// Items returns a copy of the allocation's items in order.
func (a Allocation) Items() []Item {
	out := make([]Item, len(a.items))
	copy(out, a.items)
	return out
}

// Total returns the day's hours.
func (a Allocation) Total() int { return a.total }

// Len returns the number of tasks.
func (a Allocation) Len() int { return len(a.items) }

// Tasks returns the task codes in order.
func (a Allocation) Tasks() []string {
	tasks := make([]string, len(a.items))
	for i, it := range a.items {
		tasks[i] = it.Task
	}
	return tasks
}

func (a Allocation) String() string {
	return describe(a.items)
}

// CheckCodes fails with a validation error naming every task code that known rejects.
func (a Allocation) CheckCodes(known func(code string) bool) error {
	var unknown []string
	for _, it := range a.items {
		if !known(it.Task) {
			unknown = append(unknown, it.Task)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return apperr.Validation("check task codes", strings.Join(unknown, ", "),
		fmt.Errorf("unknown task code(s); define them under [tasks] in the config file"))
}

func describe(items []Item) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.String()
	}
	return strings.Join(parts, " ")
}
