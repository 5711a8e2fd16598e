package intake

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dosewise/dosewise/internal/platform/rest"
)

type RepoHTTP struct {
	client *rest.Client
}

func NewRepoHTTP(client *rest.Client) *RepoHTTP {
	return &RepoHTTP{client: client}
}

func (r *RepoHTTP) FetchByIDs(ctx context.Context, ids []string) ([]LogEntry, error) {
	body := map[string][]string{"intakeIds": ids}
	var envelope struct {
		MedicationIntakeLogs []LogEntry `json:"medicationIntakeLogs"`
	}
	if err := r.client.Do(ctx, http.MethodPost, "/medication-logs", body, &envelope); err != nil {
		return nil, err
	}
	return envelope.MedicationIntakeLogs, nil
}

type markEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (r *RepoHTTP) Mark(ctx context.Context, id string, status Status, at time.Time) error {
	body := map[string]interface{}{
		"entryId": id,
		"status":  status,
		"takenAt": at.Format(time.RFC3339),
	}
	var envelope markEnvelope
	err := r.client.Do(ctx, http.MethodPatch, "/mark-medication", body, &envelope)
	if err != nil {
		if env, ok := rejectionFrom(err); ok {
			envelope = *env
		} else {
			return err
		}
	}
	if !envelope.Success {
		return &BusinessError{Code: envelope.Error, Message: envelope.Message}
	}
	return nil
}

func (r *RepoHTTP) Snooze(ctx context.Context, ids []string) (*SnoozeAck, error) {
	body := map[string][]string{"medicationIds": ids}
	var envelope struct {
		Success     bool       `json:"success"`
		Error       string     `json:"error"`
		Message     string     `json:"message"`
		SnoozeUntil *time.Time `json:"snoozeUntil,omitempty"`
	}
	if err := r.client.Do(ctx, http.MethodPost, "/notification/snooze-medication-reminder", body, &envelope); err != nil {
		return nil, err
	}
	if !envelope.Success {
		return nil, &BusinessError{Code: envelope.Error, Message: envelope.Message}
	}
	return &SnoozeAck{Message: envelope.Message, SnoozeUntil: envelope.SnoozeUntil}, nil
}

// rejectionFrom recovers a structured success=false envelope off a 4xx so
// business-rule rejections never masquerade as transport errors.
func rejectionFrom(err error) (*markEnvelope, bool) {
	var statusErr *rest.StatusError
	if !errors.As(err, &statusErr) || statusErr.Code < 400 || statusErr.Code >= 500 {
		return nil, false
	}
	var envelope markEnvelope
	if jsonErr := json.Unmarshal(statusErr.Body, &envelope); jsonErr != nil || envelope.Success {
		return nil, false
	}
	if envelope.Error == "" && envelope.Message == "" {
		return nil, false
	}
	return &envelope, true
}
