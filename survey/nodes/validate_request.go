package intakenode

import (
	"errors"
	"strings"
	"time"

	"github.com/pulseops/pulsecheck/survey/contract"
	statex "github.com/pulseops/pulsecheck/survey/state"
)

var ErrInvalidUser = errors.New("user id is empty")

type GraphInput struct {
	UserID    string
	Utterance string
}

type GraphOutput struct {
	Reply string
}

// GraphState is threaded through the turn graph. StageIn keeps the stage the
// record was in when the turn arrived; ApplyTransition may advance Record
// past it.
type GraphState struct {
	UserID    string
	Utterance string
	Now       time.Time

	Record     statex.ConversationRecord
	StageIn    statex.Stage
	Extraction contract.ExtractionResult

	Reply string
}

// ValidateRequest admits the turn. An empty utterance is allowed: extraction
// short-circuits it to not-found and the machine re-asks.
func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return nil, ErrInvalidUser
	}

	return &GraphState{
		UserID:    userID,
		Utterance: strings.TrimSpace(in.Utterance),
		Now:       nowFn().UTC(),
	}, nil
}
