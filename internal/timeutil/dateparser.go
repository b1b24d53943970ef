package timeutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xolan/tpsheet/internal/apperr"
)

const acceptedFormats = "DD/MM/YYYY, YYYY/MM/DD, DD/MM/YY, YY/MM/DD, today or yesterday; separators '/', '-' or ' '"

// Resolution is the outcome of resolving a date token.
type Resolution struct {
	Date time.Time
	// Ambiguous is set when a two-digit-year token had two valid readings at
	// the same distance from today. Date then holds the day-first reading.
	Ambiguous bool
	// Alternative is the reading that was not chosen, zero if there was none.
	Alternative time.Time
}

// Resolve turns a user-supplied date token into a calendar date at midnight
// in today's location. Month-first (US) order is never produced.
//
// Valid inputs:
//   - "today", "yesterday" (any case)
//   - "05/02/2022", "5-2-2022", "05 02 2022" (day first, 4-digit year)
//   - "2022/02/05", "2022-2-5" (year first, 4-digit year)
//   - "05/02/22", "22/02/05" (2-digit year: the reading nearest to today wins)
func Resolve(token string, today time.Time) (time.Time, error) {
	r, err := ResolveDetailed(token, today)
	if err != nil {
		return time.Time{}, err
	}
	return r.Date, nil
}

// ResolveDetailed is Resolve with the ambiguity information kept.
func ResolveDetailed(token string, today time.Time) (Resolution, error) {
	today = StartOfDay(today)
	trimmed := strings.TrimSpace(token)

	switch strings.ToLower(trimmed) {
	case "today":
		return Resolution{Date: today}, nil
	case "yesterday":
		return Resolution{Date: AddDays(today, -1)}, nil
	case "":
		return Resolution{}, parseError(token, errors.New("date cannot be empty"))
	}

	fields := strings.FieldsFunc(trimmed, func(r rune) bool {
		return r == '/' || r == '-' || r == ' '
	})
	if len(fields) != 3 {
		return Resolution{}, parseError(token, fmt.Errorf("expected 3 date parts, got %d", len(fields)))
	}

	nums := make([]int, 3)
	yearPos := -1
	for i, f := range fields {
		if len(f) > 4 || len(f) == 3 || !isDigits(f) {
			return Resolution{}, parseError(token, fmt.Errorf("invalid date part %q", f))
		}
		nums[i], _ = strconv.Atoi(f)
		if len(f) == 4 {
			if yearPos != -1 {
				return Resolution{}, parseError(token, errors.New("more than one 4-digit year"))
			}
			yearPos = i
		}
	}

	loc := today.Location()
	switch yearPos {
	case 0:
		d, ok := buildDate(nums[0], nums[1], nums[2], loc)
		if !ok {
			return Resolution{}, parseError(token, errors.New("not a real calendar date"))
		}
		return Resolution{Date: d}, nil
	case 2:
		d, ok := buildDate(nums[2], nums[1], nums[0], loc)
		if !ok {
			return Resolution{}, parseError(token, errors.New("not a real calendar date"))
		}
		return Resolution{Date: d}, nil
	case 1:
		return Resolution{}, parseError(token, errors.New("the year must be the first or last part"))
	}

	ref := today.Year()
	dayFirst, dfOK := buildDate(expandYear(nums[2], ref), nums[1], nums[0], loc)
	yearFirst, yfOK := buildDate(expandYear(nums[0], ref), nums[1], nums[2], loc)

	switch {
	case dfOK && !yfOK:
		return Resolution{Date: dayFirst}, nil
	case yfOK && !dfOK:
		return Resolution{Date: yearFirst}, nil
	case !dfOK && !yfOK:
		return Resolution{}, parseError(token, errors.New("not a real calendar date in day-first or year-first order"))
	}

	if dayFirst.Equal(yearFirst) {
		return Resolution{Date: dayFirst}, nil
	}

	dfDist := AbsDays(today, dayFirst)
	yfDist := AbsDays(today, yearFirst)
	switch {
	case dfDist < yfDist:
		return Resolution{Date: dayFirst, Alternative: yearFirst}, nil
	case yfDist < dfDist:
		return Resolution{Date: yearFirst, Alternative: dayFirst}, nil
	default:
		return Resolution{Date: dayFirst, Alternative: yearFirst, Ambiguous: true}, nil
	}
}

func parseError(token string, cause error) error {
	return apperr.Parse("resolve start date", token, fmt.Errorf("%w (use %s)", cause, acceptedFormats))
}

// buildDate rejects dates that time.Date would silently normalize, like 31/02.
func buildDate(year, month, day int, loc *time.Location) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// expandYear maps a 2-digit year into the century window of ±50 years around ref.
func expandYear(yy, ref int) int {
	year := ref/100*100 + yy
	switch {
	case year >= ref+50:
		year -= 100
	case year < ref-50:
		year += 100
	}
	return year
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
