package intakenode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/pulseops/pulsecheck/survey/contract"
)

// ExtractNumber runs the slot extractor. A failed extraction is not a failed
// turn: any error collapses to a not-found result and the machine re-asks.
func ExtractNumber(ctx context.Context, in *GraphState, extractor contract.Extractor) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contract.ErrValidation)
	}

	result, err := extractor.Extract(ctx, in.Utterance)
	if err != nil {
		log.Warn().
			Err(err).
			Str("user_id", in.UserID).
			Stringer("stage", in.StageIn).
			Msg("extraction failed, re-asking")
		result = contract.ExtractionResult{Found: false}
	}
	in.Extraction = result
	return in, nil
}
