package intakenode

import (
	"fmt"
	"strings"

	"github.com/pulseops/pulsecheck/survey/contract"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contract.ErrValidation)
	}

	reply := strings.TrimSpace(in.Reply)
	if reply == "" {
		return GraphOutput{}, fmt.Errorf("%w: transition produced no reply", contract.ErrValidation)
	}
	return GraphOutput{Reply: reply}, nil
}
