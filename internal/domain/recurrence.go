package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ErrEmptyRecurrence   = errors.New("empty recurrence")
	ErrInvalidRecurrence = errors.New("invalid recurrence")
	ErrRecurrenceSmall   = errors.New("recurrence too small")
	ErrRecurrenceLarge   = errors.New("recurrence too large")
)

var (
	hoursRe   = regexp.MustCompile(`(?i)(\d+)\s*h`)
	minutesRe = regexp.MustCompile(`(?i)(\d+)\s*m`)
)

// ParseRecurrence parses human-friendly intervals like "30m", "1h30m",
// "90m", "2h" for custom recurring reminders. A plain number means
// minutes. Constraints: 10m <= d <= 7d.
func ParseRecurrence(s string) (time.Duration, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0, ErrEmptyRecurrence
	}

	var total time.Duration
	if isAllDigits(s) {
		mins, _ := strconv.Atoi(s)
		total = time.Duration(mins) * time.Minute
	} else {
		if mh := hoursRe.FindStringSubmatch(s); len(mh) == 2 {
			h, _ := strconv.Atoi(mh[1])
			total += time.Duration(h) * time.Hour
		}
		if mm := minutesRe.FindStringSubmatch(s); len(mm) == 2 {
			m, _ := strconv.Atoi(mm[1])
			total += time.Duration(m) * time.Minute
		}
		if total == 0 {
			return 0, fmt.Errorf("%w: %s", ErrInvalidRecurrence, s)
		}
	}

	if total < 10*time.Minute {
		return 0, fmt.Errorf("%w: min 10m", ErrRecurrenceSmall)
	}
	if total > 7*24*time.Hour {
		return 0, fmt.Errorf("%w: max 7d", ErrRecurrenceLarge)
	}
	return total, nil
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
