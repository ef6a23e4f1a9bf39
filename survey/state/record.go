package state

import "fmt"

// Stage is the dialogue position within one survey cycle. It encodes
// numerically in JSON, matching the persisted collection format.
type Stage int

const (
	StageAwaitingProjectCount Stage = iota
	StageAwaitingHours
)

func (s Stage) Valid() bool {
	return s == StageAwaitingProjectCount || s == StageAwaitingHours
}

func (s Stage) String() string {
	switch s {
	case StageAwaitingProjectCount:
		return "awaiting_project_count"
	case StageAwaitingHours:
		return "awaiting_hours"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// ConversationRecord is the per-user survey progress: one record per user id,
// created lazily, never deleted. Completing both stages wraps Progress back
// to the start; the next cycle overwrites the prior answers.
type ConversationRecord struct {
	ID                  string `json:"id"`
	Progress            Stage  `json:"progress"`
	NumberOfProjects    int    `json:"numberOfProjects"`
	NumberOfHoursWorked int    `json:"numberOfHoursWorked"`
}

// NewConversationRecord returns the default record for a user who has never
// answered: first stage, zero counts.
func NewConversationRecord(id string) ConversationRecord {
	return ConversationRecord{
		ID:       id,
		Progress: StageAwaitingProjectCount,
	}
}

func (r ConversationRecord) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("conversation record has empty id")
	}
	if !r.Progress.Valid() {
		return fmt.Errorf("conversation record %s has invalid progress %d", r.ID, int(r.Progress))
	}
	return nil
}
