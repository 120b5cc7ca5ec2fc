// Package timespec normalizes user-supplied time-of-day strings into
// canonical 24-hour values. Input arrives from forms and chat messages, so
// it accepts several formats and a free-form list syntax ("09:00, 1:30 PM
// and 21:00").
package timespec

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Accepted input layouts, tried in order.
var layouts = []string{
	"15:04",
	"15:04:05",
	"3:04 PM",
	"3:04PM",
	"3:04 pm",
	"3:04pm",
}

// List entries are separated by commas or the word "and".
var listSep = regexp.MustCompile(`(?i)\s+and\s+|,`)

// TimeOfDay is a canonical wall-clock time with minute precision.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// String renders the canonical "HH:MM" form. Parse(t.String()) == t for
// every valid value.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// At combines the time-of-day with a calendar date in the given location.
func (t TimeOfDay) At(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour, t.Minute, 0, 0, loc)
}

func (t TimeOfDay) Before(o TimeOfDay) bool {
	if t.Hour != o.Hour {
		return t.Hour < o.Hour
	}
	return t.Minute < o.Minute
}

// FormatError reports a single token that matched none of the accepted
// layouts.
type FormatError struct {
	Token string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("timespec: unrecognized time %q", e.Token)
}

// BatchError collects the malformed tokens of a list parse. The valid
// entries are still returned alongside it so callers can accept the partial
// result and report exactly which inputs were bad.
type BatchError struct {
	Errors []*FormatError
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("timespec: %d invalid time entries: %s", len(e.Errors), strings.Join(e.Tokens(), ", "))
}

// Tokens returns the offending input tokens in encounter order.
func (e *BatchError) Tokens() []string {
	out := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		out[i] = fe.Token
	}
	return out
}

// Parse normalizes one time string. Accepts 24-hour "HH:MM" and "HH:MM:SS"
// and 12-hour "h:mm AM/PM" with or without the space.
func Parse(s string) (TimeOfDay, error) {
	token := strings.TrimSpace(s)
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, token)
		if err == nil {
			return TimeOfDay{Hour: parsed.Hour(), Minute: parsed.Minute()}, nil
		}
	}
	return TimeOfDay{}, &FormatError{Token: token}
}

// ParseList parses a separated list of times. The returned slice holds the
// valid entries, deduplicated and sorted ascending; it is valid even when
// the error is non-nil. A non-nil error is always a *BatchError naming every
// malformed token — one bad entry never aborts the rest of the list.
func ParseList(raw string) ([]TimeOfDay, error) {
	var (
		times []TimeOfDay
		batch BatchError
		seen  = map[TimeOfDay]bool{}
	)
	for _, token := range listSep.Split(raw, -1) {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		t, err := Parse(token)
		if err != nil {
			batch.Errors = append(batch.Errors, err.(*FormatError))
			continue
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		times = append(times, t)
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	if len(batch.Errors) > 0 {
		return times, &batch
	}
	return times, nil
}

// ParseEntries parses a slice of time strings, where each entry may itself
// be a list ("09:00 and 21:00"). Semantics match ParseList.
func ParseEntries(entries []string) ([]TimeOfDay, error) {
	return ParseList(strings.Join(entries, ","))
}

// Strings renders times to their canonical "HH:MM" forms. Canonical strings
// sort lexically in chronological order.
func Strings(times []TimeOfDay) []string {
	out := make([]string, len(times))
	for i, t := range times {
		out[i] = t.String()
	}
	return out
}
