package contract

// ExtractionResult is the outcome of one slot-extraction attempt. When Found
// is false, Value carries no meaning.
type ExtractionResult struct {
	Found bool `json:"found"`
	Value int  `json:"value,omitempty"`
}

// ConversationKind classifies where an inbound message came from. Only
// direct (one-to-one) conversations are routed into the survey.
type ConversationKind string

const (
	KindDirect ConversationKind = "direct"
	KindOther  ConversationKind = "other"
)

// InboundMessage is one user turn as seen by the dialogue driver after the
// chat-platform envelope has been stripped.
type InboundMessage struct {
	UserID    string           `json:"user_id"`
	Utterance string           `json:"utterance"`
	Kind      ConversationKind `json:"kind"`
}
