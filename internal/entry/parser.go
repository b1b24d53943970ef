package entry

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/xolan/tpsheet/internal/apperr"
)

// taskArgPattern matches "code=hours" or "code:hours", with an optional trailing "h"
// (e.g., "live=6", "training:2", "OOO=8h")
var taskArgPattern = regexp.MustCompile(`^\s*([A-Za-z][A-Za-z0-9_-]*)\s*[=:]\s*(\d+)h?\s*$`)

// ParseTaskArg parses a single --task value into an Item.
// Valid inputs: "live=6", "training:2", "OOO=8h"
// Invalid inputs: "live", "=6", "live=1.5", "live=-2"
func ParseTaskArg(input string) (Item, error) {
	matches := taskArgPattern.FindStringSubmatch(input)
	if matches == nil {
		return Item{}, apperr.Validation("parse task", input, fmt.Errorf("expected code=hours, e.g. live=6"))
	}

	hours, err := strconv.Atoi(matches[2])
	if err != nil || hours > MaxDailyHours {
		return Item{}, apperr.Validation("parse task", input, fmt.Errorf("hours must be a whole number up to %d", MaxDailyHours))
	}
	return Item{Task: matches[1], Hours: hours}, nil
}

// ParseTaskArgs parses repeated --task values, keeping their order.
func ParseTaskArgs(inputs []string) ([]Item, error) {
	items := make([]Item, 0, len(inputs))
	for _, in := range inputs {
		it, err := ParseTaskArg(in)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}
