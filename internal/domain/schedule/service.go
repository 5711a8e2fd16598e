package schedule

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

type RejectionKind string

const (
	RejectNone              RejectionKind = ""
	RejectIntervalTooShort  RejectionKind = "dose_interval_too_short"
	RejectInvalidTimeFormat RejectionKind = "invalid_time_format"
	RejectInvalidInput      RejectionKind = "invalid_input"
	RejectOther             RejectionKind = "other"
)

// SubmitOutcome is what the edit screen renders: either a success message
// or an actionable rejection.
type SubmitOutcome struct {
	OK                      bool
	Kind                    RejectionKind
	Message                 string
	RequiredIntervalMinutes int
	Updated                 *Schedule
}

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Get fetches a medication's current schedule for editing.
func (s *Service) Get(ctx context.Context, medicationID string) (*Schedule, error) {
	if medicationID == "" {
		return nil, fmt.Errorf("medication id is required")
	}
	return s.repo.Get(ctx, medicationID)
}

// Submit validates locally, then replaces the medication's dose times in
// one atomic call. Client validation errors return synchronously; server
// rejections come back as a structured outcome; only transport failures
// are returned as errors.
func (s *Service) Submit(ctx context.Context, medicationID string, doseTimes []string) (*SubmitOutcome, error) {
	if medicationID == "" {
		return nil, fmt.Errorf("medication id is required")
	}
	if err := ValidateDoseTimes(doseTimes); err != nil {
		return nil, err
	}

	result, err := s.repo.Update(ctx, medicationID, doseTimes)
	if err != nil {
		return nil, err
	}

	if result.OK {
		msg := result.Message
		if msg == "" {
			msg = "schedule updated"
		}
		return &SubmitOutcome{OK: true, Message: msg, Updated: result.Updated}, nil
	}

	outcome := &SubmitOutcome{Message: result.Message}
	switch result.Code {
	case "DOSE_INTERVAL_TOO_SHORT":
		outcome.Kind = RejectIntervalTooShort
		outcome.RequiredIntervalMinutes = result.RequiredIntervalMinutes
		outcome.Message = fmt.Sprintf("doses must be at least %s apart", FormatInterval(result.RequiredIntervalMinutes))
	case "INVALID_TIME_FORMAT":
		outcome.Kind = RejectInvalidTimeFormat
		if outcome.Message == "" {
			outcome.Message = "dose times must be HH:MM (24-hour)"
		}
	case "INVALID_INPUT":
		outcome.Kind = RejectInvalidInput
		if outcome.Message == "" {
			outcome.Message = "invalid schedule input"
		}
	default:
		outcome.Kind = RejectOther
		if outcome.Message == "" {
			outcome.Message = "schedule update rejected"
		}
		s.logger.Warn().Str("code", result.Code).Msg("unrecognized schedule rejection code")
	}
	return outcome, nil
}
