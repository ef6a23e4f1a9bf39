// Package extract turns one free-form utterance into a numeric slot value by
// way of a single chat-completion call with a fixed instruction.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/rs/zerolog/log"

	"github.com/pulseops/pulsecheck/pkg/metrics"
	"github.com/pulseops/pulsecheck/survey/contract"
	promptx "github.com/pulseops/pulsecheck/survey/prompt"
)

type Config struct {
	Model       string
	Temperature float64
	MaxTokens   int64
	Timeout     time.Duration
}

// Extractor adapts the external language-understanding call to the
// contract.Extractor shape. It holds no per-conversation state.
type Extractor struct {
	client      *openaisdk.Client
	instruction string
	model       string
	temperature float64
	maxTokens   int64
	timeout     time.Duration
}

func New(client *openaisdk.Client, cfg Config) (*Extractor, error) {
	if client == nil {
		return nil, errors.New("openai client is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, errors.New("extractor model is required")
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 64
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Extractor{
		client:      client,
		instruction: promptx.ExtractorInstruction(),
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
		timeout:     timeout,
	}, nil
}

var _ contract.Extractor = (*Extractor)(nil)

// Extract asks the model for the single cardinal number in utterance.
// Every failure mode (transport error, timeout, malformed response) comes
// back as a not-found result with a recoverable error; callers re-ask.
func (e *Extractor) Extract(ctx context.Context, utterance string) (contract.ExtractionResult, error) {
	notFound := contract.ExtractionResult{Found: false}

	// No content, no call.
	if strings.TrimSpace(utterance) == "" {
		return notFound, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	completion, err := e.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(e.model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(e.instruction),
			openaisdk.UserMessage(utterance),
		},
		Temperature:         openaisdk.Float(e.temperature),
		MaxCompletionTokens: openaisdk.Int(e.maxTokens),
	})
	if err != nil {
		metrics.ExtractionFailuresTotal.Inc()
		return notFound, fmt.Errorf("%w: %v", contract.ErrModelInvoke, err)
	}
	if len(completion.Choices) == 0 {
		metrics.ExtractionFailuresTotal.Inc()
		return notFound, fmt.Errorf("%w: completion has no choices", contract.ErrSchemaViolation)
	}

	result, err := decodeResult(completion.Choices[0].Message.Content)
	if err != nil {
		metrics.ExtractionFailuresTotal.Inc()
		log.Warn().Err(err).Msg("extractor returned an unusable response")
		return notFound, err
	}
	return result, nil
}

// decodeResult enforces the two-field response shape. Anything beyond
// {"found": bool} plus an optional integer "value" is a schema violation.
func decodeResult(content string) (contract.ExtractionResult, error) {
	payload := strings.TrimSpace(content)
	if strings.HasPrefix(payload, "```") {
		payload = stripFence(payload)
	}

	var parsed struct {
		Found bool `json:"found"`
		Value *int `json:"value"`
	}
	dec := json.NewDecoder(strings.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&parsed); err != nil {
		return contract.ExtractionResult{}, fmt.Errorf("%w: %v", contract.ErrSchemaViolation, err)
	}
	if dec.More() {
		return contract.ExtractionResult{}, fmt.Errorf("%w: trailing content after result object", contract.ErrSchemaViolation)
	}

	if !parsed.Found {
		return contract.ExtractionResult{Found: false}, nil
	}
	if parsed.Value == nil {
		return contract.ExtractionResult{}, fmt.Errorf("%w: found=true without value", contract.ErrSchemaViolation)
	}
	return contract.ExtractionResult{Found: true, Value: *parsed.Value}, nil
}

func stripFence(payload string) string {
	payload = strings.TrimPrefix(payload, "```json")
	payload = strings.TrimPrefix(payload, "```")
	payload = strings.TrimSuffix(strings.TrimSpace(payload), "```")
	return strings.TrimSpace(payload)
}
