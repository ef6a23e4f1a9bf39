package intake

import (
	"context"
	"errors"
	"testing"

	"github.com/pulseops/pulsecheck/survey/contract"
	intakenode "github.com/pulseops/pulsecheck/survey/nodes"
	statex "github.com/pulseops/pulsecheck/survey/state"
)

type fakeStore struct {
	records   map[string]statex.ConversationRecord
	upserts   []statex.ConversationRecord
	upsertErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]statex.ConversationRecord)}
}

func (f *fakeStore) Get(ctx context.Context, userID string) (statex.ConversationRecord, error) {
	if rec, ok := f.records[userID]; ok {
		return rec, nil
	}
	return statex.NewConversationRecord(userID), nil
}

func (f *fakeStore) Upsert(ctx context.Context, rec statex.ConversationRecord) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.records[rec.ID] = rec
	f.upserts = append(f.upserts, rec)
	return nil
}

type extractorReply struct {
	result contract.ExtractionResult
	err    error
}

type fakeExtractor struct {
	replies    []extractorReply
	utterances []string
}

func (f *fakeExtractor) Extract(ctx context.Context, utterance string) (contract.ExtractionResult, error) {
	f.utterances = append(f.utterances, utterance)
	idx := len(f.utterances) - 1
	if idx >= len(f.replies) {
		return contract.ExtractionResult{}, errors.New("no extractor reply left")
	}
	reply := f.replies[idx]
	return reply.result, reply.err
}

func newTestService(t *testing.T, store statex.Store, extractor contract.Extractor) *Service {
	t.Helper()
	svc, err := New(store, extractor)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return svc
}

func TestHandleMessageRejectsEmptyUser(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newFakeStore(), &fakeExtractor{})
	if _, err := svc.HandleMessage(context.Background(), "  ", "3"); !errors.Is(err, ErrInvalidUser) {
		t.Fatalf("HandleMessage() error = %v, want ErrInvalidUser", err)
	}
}

func TestHandleMessageAdvancesOnProjectCount(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	extractor := &fakeExtractor{replies: []extractorReply{
		{result: contract.ExtractionResult{Found: true, Value: 3}},
	}}
	svc := newTestService(t, store, extractor)

	reply, err := svc.HandleMessage(context.Background(), "U1", "I think 3")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if reply != intakenode.PromptHours {
		t.Fatalf("reply = %q, want hours question", reply)
	}

	if len(store.upserts) != 1 {
		t.Fatalf("upserts = %d, want 1", len(store.upserts))
	}
	want := statex.ConversationRecord{ID: "U1", Progress: statex.StageAwaitingHours, NumberOfProjects: 3}
	if store.upserts[0] != want {
		t.Fatalf("persisted record = %+v, want %+v", store.upserts[0], want)
	}
}

func TestHandleMessageReasksOnExtractionFailure(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	extractor := &fakeExtractor{replies: []extractorReply{
		{result: contract.ExtractionResult{Found: false}},
	}}
	svc := newTestService(t, store, extractor)

	reply, err := svc.HandleMessage(context.Background(), "U1", "no idea")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if reply != intakenode.PromptProjectCount {
		t.Fatalf("reply = %q, want project count re-ask", reply)
	}

	// The no-op turn still persists, and the record stays at defaults.
	if len(store.upserts) != 1 {
		t.Fatalf("upserts = %d, want 1", len(store.upserts))
	}
	if store.upserts[0] != statex.NewConversationRecord("U1") {
		t.Fatalf("persisted record = %+v, want default", store.upserts[0])
	}
}

func TestHandleMessageExtractorErrorBehavesLikeNotFound(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	extractor := &fakeExtractor{replies: []extractorReply{
		{err: context.DeadlineExceeded},
	}}
	svc := newTestService(t, store, extractor)

	reply, err := svc.HandleMessage(context.Background(), "U1", "three-ish maybe")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if reply != intakenode.PromptProjectCount {
		t.Fatalf("reply = %q, want project count re-ask", reply)
	}
	if store.upserts[0] != statex.NewConversationRecord("U1") {
		t.Fatalf("persisted record = %+v, want default", store.upserts[0])
	}
}

func TestHandleMessageHoursReask(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.records["U1"] = statex.ConversationRecord{ID: "U1", Progress: statex.StageAwaitingHours, NumberOfProjects: 3}
	extractor := &fakeExtractor{replies: []extractorReply{
		{result: contract.ExtractionResult{Found: false}},
	}}
	svc := newTestService(t, store, extractor)

	reply, err := svc.HandleMessage(context.Background(), "U1", "a lot")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if reply != intakenode.PromptHoursReask {
		t.Fatalf("reply = %q, want hours re-ask", reply)
	}
	want := statex.ConversationRecord{ID: "U1", Progress: statex.StageAwaitingHours, NumberOfProjects: 3}
	if store.records["U1"] != want {
		t.Fatalf("record = %+v, want unchanged %+v", store.records["U1"], want)
	}
}

func TestHandleMessageFullCycle(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	extractor := &fakeExtractor{replies: []extractorReply{
		{result: contract.ExtractionResult{Found: true, Value: 3}},
		{result: contract.ExtractionResult{Found: true, Value: 20}},
	}}
	svc := newTestService(t, store, extractor)
	ctx := context.Background()

	first, err := svc.HandleMessage(ctx, "U1", "3")
	if err != nil {
		t.Fatalf("first turn error = %v", err)
	}
	if first != intakenode.PromptHours {
		t.Fatalf("first reply = %q, want hours question", first)
	}

	second, err := svc.HandleMessage(ctx, "U1", "20 hours")
	if err != nil {
		t.Fatalf("second turn error = %v", err)
	}
	if second != intakenode.MessageCompletion {
		t.Fatalf("second reply = %q, want completion message", second)
	}

	if len(store.upserts) != 2 {
		t.Fatalf("upserts = %d, want exactly 2", len(store.upserts))
	}
	final := statex.ConversationRecord{
		ID:                  "U1",
		Progress:            statex.StageAwaitingProjectCount,
		NumberOfProjects:    3,
		NumberOfHoursWorked: 20,
	}
	if store.records["U1"] != final {
		t.Fatalf("final record = %+v, want %+v", store.records["U1"], final)
	}

	if extractor.utterances[0] != "3" || extractor.utterances[1] != "20 hours" {
		t.Fatalf("extractor saw %v", extractor.utterances)
	}
}

func TestHandleMessageStoreWriteFailureStillReplies(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.upsertErr = errors.New("disk full")
	extractor := &fakeExtractor{replies: []extractorReply{
		{result: contract.ExtractionResult{Found: true, Value: 3}},
	}}
	svc := newTestService(t, store, extractor)

	reply, err := svc.HandleMessage(context.Background(), "U1", "3")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if reply != intakenode.PromptHours {
		t.Fatalf("reply = %q, want hours question despite write failure", reply)
	}
}
