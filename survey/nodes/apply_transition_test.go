package intakenode

import (
	"testing"
	"time"

	"github.com/pulseops/pulsecheck/survey/contract"
	statex "github.com/pulseops/pulsecheck/survey/state"
)

func TestApplyTransitionTable(t *testing.T) {
	t.Parallel()

	base := statex.ConversationRecord{ID: "U1"}

	tests := []struct {
		name       string
		stage      statex.Stage
		extraction contract.ExtractionResult
		wantRecord statex.ConversationRecord
		wantReply  string
	}{
		{
			name:       "project count found advances to hours",
			stage:      statex.StageAwaitingProjectCount,
			extraction: contract.ExtractionResult{Found: true, Value: 3},
			wantRecord: statex.ConversationRecord{ID: "U1", Progress: statex.StageAwaitingHours, NumberOfProjects: 3},
			wantReply:  PromptHours,
		},
		{
			name:       "project count missing re-asks",
			stage:      statex.StageAwaitingProjectCount,
			extraction: contract.ExtractionResult{Found: false},
			wantRecord: statex.ConversationRecord{ID: "U1", Progress: statex.StageAwaitingProjectCount},
			wantReply:  PromptProjectCount,
		},
		{
			name:       "hours found completes and resets",
			stage:      statex.StageAwaitingHours,
			extraction: contract.ExtractionResult{Found: true, Value: 20},
			wantRecord: statex.ConversationRecord{ID: "U1", Progress: statex.StageAwaitingProjectCount, NumberOfHoursWorked: 20},
			wantReply:  MessageCompletion,
		},
		{
			name:       "hours missing re-asks",
			stage:      statex.StageAwaitingHours,
			extraction: contract.ExtractionResult{Found: false},
			wantRecord: statex.ConversationRecord{ID: "U1", Progress: statex.StageAwaitingHours},
			wantReply:  PromptHoursReask,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := base
			rec.Progress = tt.stage
			in := &GraphState{
				UserID:     "U1",
				Now:        time.Now().UTC(),
				Record:     rec,
				StageIn:    tt.stage,
				Extraction: tt.extraction,
			}

			out, err := ApplyTransition(in)
			if err != nil {
				t.Fatalf("ApplyTransition() error = %v", err)
			}
			if out.Record != tt.wantRecord {
				t.Fatalf("record = %+v, want %+v", out.Record, tt.wantRecord)
			}
			if out.Reply != tt.wantReply {
				t.Fatalf("reply = %q, want %q", out.Reply, tt.wantReply)
			}
		})
	}
}

func TestApplyTransitionRejectsInvalidStage(t *testing.T) {
	t.Parallel()

	in := &GraphState{
		UserID: "U1",
		Record: statex.ConversationRecord{ID: "U1", Progress: statex.Stage(5)},
	}
	if _, err := ApplyTransition(in); err == nil {
		t.Fatal("ApplyTransition() accepted invalid stage")
	}
}
