// Package intake is the conversational state machine: one inbound utterance
// in, one reply out, with the user's progress record loaded, advanced, and
// persisted along the way.
package intake

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/compose"

	"github.com/pulseops/pulsecheck/survey/contract"
	intakenode "github.com/pulseops/pulsecheck/survey/nodes"
	statex "github.com/pulseops/pulsecheck/survey/state"
)

var ErrInvalidUser = intakenode.ErrInvalidUser

// OpeningQuestion is the prompt that starts a cycle; the initiation trigger
// sends it before any record exists.
const OpeningQuestion = intakenode.PromptProjectCount

type Service struct {
	store     statex.Store
	extractor contract.Extractor

	graphRunner compose.Runnable[intakenode.GraphInput, intakenode.GraphOutput]

	now func() time.Time
}

func New(store statex.Store, extractor contract.Extractor) (*Service, error) {
	if store == nil {
		return nil, errors.New("record store is required")
	}
	if extractor == nil {
		return nil, errors.New("extractor is required")
	}

	s := &Service{
		store:     store,
		extractor: extractor,
		now:       time.Now,
	}

	graphRunner, err := s.compileTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	s.graphRunner = graphRunner

	return s, nil
}

// HandleMessage runs one survey turn to completion: the reply it returns
// reflects post-persistence state.
func (s *Service) HandleMessage(ctx context.Context, userID, text string) (string, error) {
	out, err := s.graphRunner.Invoke(ctx, intakenode.GraphInput{
		UserID:    userID,
		Utterance: text,
	})
	if err != nil {
		return "", err
	}
	return out.Reply, nil
}
