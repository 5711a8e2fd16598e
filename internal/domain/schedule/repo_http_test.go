package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dosewise/dosewise/internal/platform/rest"
)

func newTestRepo(t *testing.T, handler http.HandlerFunc) (*RepoHTTP, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := rest.NewClient(srv.URL, "", time.Second, zerolog.Nop())
	return NewRepoHTTP(client), srv
}

func TestRepoHTTP_Get(t *testing.T) {
	repo, _ := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/medications/med-1/schedule" {
			t.Errorf("path = %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"medication":{"_id":"med-1","name":"Metformin","type":"tablet","dosage":"500","unit":"mg","selectedDoseTimes":["08:00","20:00"],"doseInterval":480}}`)
	})

	sched, err := repo.Get(context.Background(), "med-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sched.MedicationID != "med-1" || sched.Name != "Metformin" {
		t.Errorf("schedule = %+v", sched)
	}
	if len(sched.DoseTimes) != 2 || sched.DoseTimes[0] != "08:00" {
		t.Errorf("dose times = %v", sched.DoseTimes)
	}
	if sched.DoseIntervalMinutes == nil || *sched.DoseIntervalMinutes != 480 {
		t.Errorf("dose interval = %v", sched.DoseIntervalMinutes)
	}
}

func TestRepoHTTP_Update_Success(t *testing.T) {
	repo, _ := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method = %s, want PATCH", r.Method)
		}
		var body map[string][]string
		json.NewDecoder(r.Body).Decode(&body)
		if len(body["selectedDoseTimes"]) != 2 {
			t.Errorf("body = %v", body)
		}
		fmt.Fprint(w, `{"success":true,"updatedSchedule":{"_id":"med-1","selectedDoseTimes":["08:00","20:00"]}}`)
	})

	result, err := repo.Update(context.Background(), "med-1", []string{"08:00", "20:00"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.OK {
		t.Error("expected OK result")
	}
	if result.Updated == nil || len(result.Updated.DoseTimes) != 2 {
		t.Errorf("updated = %+v", result.Updated)
	}
}

func TestRepoHTTP_Update_RejectionOn400(t *testing.T) {
	repo, _ := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"success":false,"error":"DOSE_INTERVAL_TOO_SHORT","message":"too close","requiredIntervalMinutes":480}`)
	})

	result, err := repo.Update(context.Background(), "med-1", []string{"08:00", "09:00"})
	if err != nil {
		t.Fatalf("business rejection must not be a transport error, got %v", err)
	}
	if result.OK {
		t.Error("expected rejection")
	}
	if result.Code != "DOSE_INTERVAL_TOO_SHORT" || result.RequiredIntervalMinutes != 480 {
		t.Errorf("result = %+v", result)
	}
}

func TestRepoHTTP_Update_ServerErrorIsTransport(t *testing.T) {
	repo, _ := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	if _, err := repo.Update(context.Background(), "med-1", []string{"08:00"}); err == nil {
		t.Fatal("expected transport error for 5xx")
	}
}
