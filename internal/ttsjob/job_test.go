package ttsjob

import (
	"errors"
	"testing"
)

func TestJobCompleteSetsResultAndStatus(t *testing.T) {
	j := &Job{ID: "1", Status: Processing}
	j.complete([]byte("wav-bytes"), "头疼", 2, 1.5, 0.3, []float64{0.2, 0.4})

	status, result, errMsg := j.Snapshot()
	if status != Completed {
		t.Errorf("expected status Completed, got %v", status)
	}
	if errMsg != "" {
		t.Errorf("expected no error message, got %q", errMsg)
	}
	if result.Text != "头疼" || result.Segments != 2 || result.AudioSize != len("wav-bytes") {
		t.Errorf("unexpected result: %+v", result)
	}
	if result.AudioBase64 == "" {
		t.Error("expected a base64-encoded audio payload")
	}
}

func TestJobFailSetsErrorAndStatus(t *testing.T) {
	j := &Job{ID: "1", Status: Processing}
	j.fail(errors.New("synthesis backend not ready"))

	status, _, errMsg := j.Snapshot()
	if status != Error {
		t.Errorf("expected status Error, got %v", status)
	}
	if errMsg != "synthesis backend not ready" {
		t.Errorf("unexpected error message: %q", errMsg)
	}
}

func TestJobSnapshotStatusMatchesDirectField(t *testing.T) {
	j := &Job{ID: "1", Status: Pending}
	if got := j.snapshotStatus(); got != Pending {
		t.Errorf("expected Pending, got %v", got)
	}
	j.setStatus(Processing)
	if got := j.snapshotStatus(); got != Processing {
		t.Errorf("expected Processing, got %v", got)
	}
}
