package contract

import "context"

// Extractor locates a single cardinal number in free-form text. A returned
// error is always recoverable: callers must treat it exactly like
// ExtractionResult{Found: false} and re-ask, never fail the turn.
type Extractor interface {
	Extract(ctx context.Context, utterance string) (ExtractionResult, error)
}

// Messenger is the outbound half of the chat layer: deliver plain text to a
// user's direct conversation.
type Messenger interface {
	SendDirect(ctx context.Context, userID, text string) error
}
