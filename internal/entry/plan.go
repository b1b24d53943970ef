package entry

import "time"

// Interval is one task's slot within a day.
type Interval struct {
	Task  string
	Start time.Time
	End   time.Time
}

// Duration returns the interval's length.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Plan lays the allocation out back to back from start, in allocation order.
// Each interval ends where the next one begins.
func Plan(start time.Time, alloc Allocation) []Interval {
	intervals := make([]Interval, 0, len(alloc.items))
	cursor := start
	for _, it := range alloc.items {
		end := cursor.Add(time.Duration(it.Hours) * time.Hour)
		intervals = append(intervals, Interval{Task: it.Task, Start: cursor, End: end})
		cursor = end
	}
	return intervals
}
