package schedule

import "context"

// UpdateResult is the decoded outcome of the atomic schedule replacement.
// A business-rule rejection arrives here as a value; only transport
// failures surface as errors from Update.
type UpdateResult struct {
	OK                      bool
	Code                    string
	Message                 string
	RequiredIntervalMinutes int
	Updated                 *Schedule
}

type Repository interface {
	Get(ctx context.Context, medicationID string) (*Schedule, error)
	Update(ctx context.Context, medicationID string, doseTimes []string) (*UpdateResult, error)
}
