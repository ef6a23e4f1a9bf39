package intake

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	intakenode "github.com/pulseops/pulsecheck/survey/nodes"
)

func (s *Service) compileTurnGraph(
	ctx context.Context,
) (compose.Runnable[intakenode.GraphInput, intakenode.GraphOutput], error) {
	graph := compose.NewGraph[intakenode.GraphInput, intakenode.GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in intakenode.GraphInput) (*intakenode.GraphState, error) {
			return intakenode.ValidateRequest(in, s.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("load_record",
		compose.InvokableLambda(func(ctx context.Context, in *intakenode.GraphState) (*intakenode.GraphState, error) {
			return intakenode.LoadRecord(ctx, in, s.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node load_record: %w", err)
	}

	if err := graph.AddLambdaNode("extract_number",
		compose.InvokableLambda(func(ctx context.Context, in *intakenode.GraphState) (*intakenode.GraphState, error) {
			return intakenode.ExtractNumber(ctx, in, s.extractor)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node extract_number: %w", err)
	}

	if err := graph.AddLambdaNode("apply_transition",
		compose.InvokableLambda(func(ctx context.Context, in *intakenode.GraphState) (*intakenode.GraphState, error) {
			return intakenode.ApplyTransition(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node apply_transition: %w", err)
	}

	if err := graph.AddLambdaNode("save_record",
		compose.InvokableLambda(func(ctx context.Context, in *intakenode.GraphState) (*intakenode.GraphState, error) {
			return intakenode.SaveRecord(ctx, in, s.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node save_record: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_reply",
		compose.InvokableLambda(func(ctx context.Context, in *intakenode.GraphState) (intakenode.GraphOutput, error) {
			return intakenode.FinalizeReply(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_reply: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "load_record"},
		{"load_record", "extract_number"},
		{"extract_number", "apply_transition"},
		{"apply_transition", "save_record"},
		{"save_record", "finalize_reply"},
		{"finalize_reply", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("intake.handle_turn"))
	if err != nil {
		return nil, fmt.Errorf("compile intake turn graph: %w", err)
	}
	return runner, nil
}
