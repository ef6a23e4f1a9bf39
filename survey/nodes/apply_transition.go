package intakenode

import (
	"fmt"

	"github.com/pulseops/pulsecheck/pkg/metrics"
	"github.com/pulseops/pulsecheck/survey/contract"
	statex "github.com/pulseops/pulsecheck/survey/state"
)

// The entire prompt surface of the survey. The two-slot sequence is the
// whole state space; keep it exhaustively enumerable.
const (
	PromptProjectCount = "How many projects are you working on?"
	PromptHours        = "How many hours have you worked this week?"
	PromptHoursReask   = "How many hours have you worked?"
	MessageCompletion  = "Alright. That is all I need for now. Thank you."
)

// ApplyTransition advances the record through the fixed two-stage sequence.
// A successful extraction writes the slot and moves forward (wrapping to the
// first stage after the second answer); a failed one leaves the record
// untouched and re-asks the current question.
func ApplyTransition(in *GraphState) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contract.ErrValidation)
	}

	switch in.Record.Progress {
	case statex.StageAwaitingProjectCount:
		if in.Extraction.Found {
			in.Record.NumberOfProjects = in.Extraction.Value
			in.Record.Progress = statex.StageAwaitingHours
			in.Reply = PromptHours
		} else {
			in.Reply = PromptProjectCount
		}

	case statex.StageAwaitingHours:
		if in.Extraction.Found {
			in.Record.NumberOfHoursWorked = in.Extraction.Value
			in.Record.Progress = statex.StageAwaitingProjectCount
			in.Reply = MessageCompletion
			metrics.CyclesCompletedTotal.Inc()
		} else {
			in.Reply = PromptHoursReask
		}

	default:
		return nil, fmt.Errorf("%w: record %s has invalid progress %d",
			contract.ErrValidation, in.Record.ID, int(in.Record.Progress))
	}

	outcome := "reask"
	if in.Extraction.Found {
		outcome = "advanced"
	}
	metrics.TurnsTotal.WithLabelValues(in.StageIn.String(), outcome).Inc()

	return in, nil
}
