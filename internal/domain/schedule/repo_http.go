package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dosewise/dosewise/internal/platform/rest"
)

type RepoHTTP struct {
	client *rest.Client
}

func NewRepoHTTP(client *rest.Client) *RepoHTTP {
	return &RepoHTTP{client: client}
}

type medicationWire struct {
	ID                string   `json:"_id"`
	Name              string   `json:"name"`
	Type              string   `json:"type"`
	Dosage            string   `json:"dosage"`
	Unit              string   `json:"unit"`
	SelectedDoseTimes []string `json:"selectedDoseTimes"`
	DoseInterval      *int     `json:"doseInterval,omitempty"`
}

func (w *medicationWire) toSchedule() *Schedule {
	return &Schedule{
		MedicationID:        w.ID,
		Name:                w.Name,
		Type:                w.Type,
		Dosage:              w.Dosage,
		Unit:                w.Unit,
		DoseTimes:           w.SelectedDoseTimes,
		DoseIntervalMinutes: w.DoseInterval,
	}
}

func (r *RepoHTTP) Get(ctx context.Context, medicationID string) (*Schedule, error) {
	var envelope struct {
		Medication medicationWire `json:"medication"`
	}
	if err := r.client.Do(ctx, http.MethodGet, "/medications/"+medicationID+"/schedule", nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Medication.toSchedule(), nil
}

type updateEnvelope struct {
	Success                 bool            `json:"success"`
	Error                   string          `json:"error"`
	Message                 string          `json:"message"`
	RequiredIntervalMinutes int             `json:"requiredIntervalMinutes"`
	UpdatedSchedule         *medicationWire `json:"updatedSchedule"`
}

func (r *RepoHTTP) Update(ctx context.Context, medicationID string, doseTimes []string) (*UpdateResult, error) {
	body := map[string][]string{"selectedDoseTimes": doseTimes}
	var envelope updateEnvelope
	err := r.client.Do(ctx, http.MethodPatch, "/medications/"+medicationID+"/schedule", body, &envelope)
	if err != nil {
		// Validation rejections may ride on a 4xx; recover the structured
		// envelope rather than reporting a transport failure.
		var statusErr *rest.StatusError
		if errors.As(err, &statusErr) && statusErr.Code >= 400 && statusErr.Code < 500 {
			var rejected updateEnvelope
			if jsonErr := json.Unmarshal(statusErr.Body, &rejected); jsonErr == nil && !rejected.Success && rejected.Error != "" {
				envelope = rejected
			} else {
				return nil, err
			}
		} else {
			return nil, err
		}
	}

	result := &UpdateResult{
		OK:                      envelope.Success,
		Code:                    envelope.Error,
		Message:                 envelope.Message,
		RequiredIntervalMinutes: envelope.RequiredIntervalMinutes,
	}
	if envelope.UpdatedSchedule != nil {
		result.Updated = envelope.UpdatedSchedule.toSchedule()
	}
	return result, nil
}
