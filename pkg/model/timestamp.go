package model

import (
	"regexp"
	"strconv"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// TimeLayout is the canonical timestamp form: UTC with millisecond precision. All values share
// one width, so lexical order equals chronological order.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

var (
	ErrInvalidTimestamp = goerr.New("invalid timestamp")

	// yy/MM/dd or yyyy/M/d, optionally followed by H:mm[:ss]
	slashDatePattern = regexp.MustCompile(`^(\d{2}|\d{4})/(\d{1,2})/(\d{1,2})(?:[ T](\d{1,2}):(\d{2})(?::(\d{2}))?)?$`)
)

// Now truncates t to the canonical precision so that formatting and parsing it again yields the
// same instant.
func Now(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// FormatTime renders t in canonical form.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// IsCanonicalTime reports whether s is already in canonical form.
func IsCanonicalTime(s string) bool {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return false
	}
	return FormatTime(t) == s
}

// ParseTime reads a timestamp in canonical form or in one of the legacy forms: RFC 3339 with any
// precision or offset, yyyy-MM-dd, and slash-separated dates where a 2-digit year means 20yy.
// Dates without a zone are taken as UTC.
func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(TimeLayout, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return Now(t), nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return Now(t), nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t.UTC(), nil
	}
	if t, ok := parseSlashDate(s); ok {
		return t, nil
	}

	return time.Time{}, goerr.Wrap(ErrInvalidTimestamp, "unsupported timestamp form", goerr.V("value", s))
}

func parseSlashDate(s string) (time.Time, bool) {
	match := slashDatePattern.FindStringSubmatch(s)
	if match == nil {
		return time.Time{}, false
	}

	year, _ := strconv.Atoi(match[1])
	if len(match[1]) == 2 {
		year += 2000
	}
	month, _ := strconv.Atoi(match[2])
	day, _ := strconv.Atoi(match[3])

	var hour, minute, second int
	if match[4] != "" {
		hour, _ = strconv.Atoi(match[4])
		minute, _ = strconv.Atoi(match[5])
	}
	if match[6] != "" {
		second, _ = strconv.Atoi(match[6])
	}

	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
	// time.Date normalizes 2024/02/31 into March; reject instead of guessing.
	if t.Day() != day {
		return time.Time{}, false
	}

	return t, true
}
