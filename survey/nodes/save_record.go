package intakenode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/pulseops/pulsecheck/pkg/metrics"
	"github.com/pulseops/pulsecheck/survey/contract"
	statex "github.com/pulseops/pulsecheck/survey/state"
)

// SaveRecord upserts the post-transition record. Every turn persists, even a
// no-op re-ask, so stored state stays identical to in-memory state. A write
// failure is reported to the operator but never withholds the reply:
// durability here is best effort by contract.
func SaveRecord(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contract.ErrValidation)
	}

	if err := store.Upsert(ctx, in.Record); err != nil {
		metrics.StoreWriteFailuresTotal.Inc()
		log.Error().
			Err(fmt.Errorf("%w: %v", contract.ErrStoreWrite, err)).
			Str("user_id", in.UserID).
			Msg("record upsert failed, reply still sent")
	}
	return in, nil
}
