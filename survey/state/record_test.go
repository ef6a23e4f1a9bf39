package state

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNewConversationRecordDefaults(t *testing.T) {
	t.Parallel()

	rec := NewConversationRecord("U123")
	if rec.ID != "U123" {
		t.Fatalf("ID = %q, want %q", rec.ID, "U123")
	}
	if rec.Progress != StageAwaitingProjectCount {
		t.Fatalf("Progress = %v, want StageAwaitingProjectCount", rec.Progress)
	}
	if rec.NumberOfProjects != 0 || rec.NumberOfHoursWorked != 0 {
		t.Fatalf("numeric fields = %d/%d, want 0/0", rec.NumberOfProjects, rec.NumberOfHoursWorked)
	}
}

func TestConversationRecordValidate(t *testing.T) {
	t.Parallel()

	if err := NewConversationRecord("U1").Validate(); err != nil {
		t.Fatalf("Validate() on default record = %v", err)
	}
	if err := (ConversationRecord{Progress: StageAwaitingHours}).Validate(); err == nil {
		t.Fatal("Validate() accepted empty id")
	}
	if err := (ConversationRecord{ID: "U1", Progress: Stage(7)}).Validate(); err == nil {
		t.Fatal("Validate() accepted invalid progress")
	}
}

func TestStageEncodesNumerically(t *testing.T) {
	t.Parallel()

	rec := ConversationRecord{ID: "U1", Progress: StageAwaitingHours, NumberOfProjects: 3}
	raw, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(raw), `"progress":1`) {
		t.Fatalf("marshaled record = %s, want numeric progress", raw)
	}

	var back ConversationRecord
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back != rec {
		t.Fatalf("round trip = %+v, want %+v", back, rec)
	}
}
