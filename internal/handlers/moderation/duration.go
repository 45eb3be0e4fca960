package handlers

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var durationPattern = regexp.MustCompile(`(?i)(\d+)\s*(min(?:ute)?s?|hours?|days?)`)

// ParseDuration extracts the first duration expression from free text,
// e.g. "20 minutes", "1 hour", "2 days". The unit at the first occurrence
// wins, later expressions are ignored.
func ParseDuration(text string) (time.Duration, bool) {
	match := durationPattern.FindStringSubmatch(text)
	if match == nil {
		return 0, false
	}
	amount, err := strconv.Atoi(match[1])
	if err != nil || amount <= 0 {
		return 0, false
	}
	unit := strings.ToLower(match[2])
	switch {
	case strings.HasPrefix(unit, "min"):
		return time.Duration(amount) * time.Minute, true
	case strings.HasPrefix(unit, "hour"):
		return time.Duration(amount) * time.Hour, true
	case strings.HasPrefix(unit, "day"):
		return time.Duration(amount) * 24 * time.Hour, true
	}
	return 0, false
}
