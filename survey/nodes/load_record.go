package intakenode

import (
	"context"
	"fmt"

	"github.com/pulseops/pulsecheck/survey/contract"
	statex "github.com/pulseops/pulsecheck/survey/state"
)

// LoadRecord fetches the user's progress record, defaulting for first
// contact. The store guarantees a missing key is not an error.
func LoadRecord(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contract.ErrValidation)
	}

	rec, err := store.Get(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	in.Record = rec
	in.StageIn = rec.Progress
	return in, nil
}
