package schedule

import (
	"fmt"
	"regexp"
)

// Schedule is a medication's configured daily dose times as the backend
// reports them. Edits are held by the caller and submitted atomically;
// nothing here is persisted locally.
type Schedule struct {
	MedicationID        string   `json:"medicationId"`
	Name                string   `json:"name"`
	Type                string   `json:"type"`
	Dosage              string   `json:"dosage"`
	Unit                string   `json:"unit"`
	DoseTimes           []string `json:"doseTimes"`
	DoseIntervalMinutes *int     `json:"doseIntervalMinutes,omitempty"`
}

// 24-hour wall-clock time of day, leading zero optional.
var doseTimePattern = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)

type ValidationKind string

const (
	ValidationInvalidFormat ValidationKind = "invalid_format"
	ValidationDuplicate     ValidationKind = "duplicate"
)

// ValidationError is a client-local rejection of a proposed dose-time edit,
// raised before any network call.
type ValidationError struct {
	Kind  ValidationKind
	Value string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case ValidationInvalidFormat:
		return fmt.Sprintf("invalid dose time %q: must be HH:MM (24-hour)", e.Value)
	case ValidationDuplicate:
		return fmt.Sprintf("duplicate dose time %q", e.Value)
	}
	return fmt.Sprintf("invalid dose times: %s", e.Value)
}

// ValidateDoseTimes checks format and uniqueness of a proposed edit.
// Interval sufficiency is deliberately not checked; the server is
// authoritative for that and reports it as a structured rejection.
func ValidateDoseTimes(times []string) error {
	for _, t := range times {
		if !doseTimePattern.MatchString(t) {
			return &ValidationError{Kind: ValidationInvalidFormat, Value: t}
		}
	}
	seen := make(map[string]struct{}, len(times))
	for _, t := range times {
		if _, dup := seen[t]; dup {
			return &ValidationError{Kind: ValidationDuplicate, Value: t}
		}
		seen[t] = struct{}{}
	}
	return nil
}

// FormatInterval renders a minute count for user-facing messages,
// decomposed into hours and minutes: 480 -> "8 hour(s)",
// 450 -> "7 hour(s) 30 minute(s)", 45 -> "45 minute(s)".
func FormatInterval(minutes int) string {
	h := minutes / 60
	m := minutes % 60
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%d hour(s) %d minute(s)", h, m)
	case h > 0:
		return fmt.Sprintf("%d hour(s)", h)
	default:
		return fmt.Sprintf("%d minute(s)", m)
	}
}
