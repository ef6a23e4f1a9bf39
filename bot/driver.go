// Package bot is the dialogue driver: the adapter between the chat platform
// and the intake state machine. It classifies inbound Slack events, routes
// plain direct messages into the machine, sends replies, and initiates
// survey cycles.
package bot

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pulseops/pulsecheck/pkg/metrics"
	"github.com/pulseops/pulsecheck/survey/contract"
	"github.com/pulseops/pulsecheck/survey/intake"
)

const maxEventBodyBytes = 1 << 20

// TurnHandler is the surface of the intake state machine the driver needs.
type TurnHandler interface {
	HandleMessage(ctx context.Context, userID, text string) (string, error)
}

type Driver struct {
	machine   TurnHandler
	messenger contract.Messenger
	roster    []string
}

func New(machine TurnHandler, messenger contract.Messenger, roster []string) (*Driver, error) {
	if machine == nil {
		return nil, errors.New("turn handler is required")
	}
	if messenger == nil {
		return nil, errors.New("messenger is required")
	}

	cleaned := make([]string, 0, len(roster))
	for _, id := range roster {
		if id = strings.TrimSpace(id); id != "" {
			cleaned = append(cleaned, id)
		}
	}

	return &Driver{
		machine:   machine,
		messenger: messenger,
		roster:    cleaned,
	}, nil
}

type eventEnvelope struct {
	Type      string     `json:"type"`
	Challenge string     `json:"challenge"`
	Event     slackEvent `json:"event"`
}

type slackEvent struct {
	Type        string `json:"type"`
	Subtype     string `json:"subtype"`
	ChannelType string `json:"channel_type"`
	User        string `json:"user"`
	BotID       string `json:"bot_id"`
	Text        string `json:"text"`
}

// classify maps a raw Slack event to the core's inbound-message shape.
// Anything that is not a plain, untyped user message in a one-to-one
// conversation is dropped here; the state machine never sees it.
func classify(ev slackEvent) (contract.InboundMessage, bool) {
	if ev.Type != "message" || ev.Subtype != "" || ev.BotID != "" {
		return contract.InboundMessage{}, false
	}
	if strings.TrimSpace(ev.User) == "" {
		return contract.InboundMessage{}, false
	}

	kind := contract.KindOther
	if ev.ChannelType == "im" {
		kind = contract.KindDirect
	}

	msg := contract.InboundMessage{
		UserID:    strings.TrimSpace(ev.User),
		Utterance: ev.Text,
		Kind:      kind,
	}
	return msg, msg.Kind == contract.KindDirect
}

// EventsHandler serves the Slack Events API endpoint. The webhook always
// acknowledges with 200 once the envelope decodes; turn-level failures are
// an operator concern, not Slack's.
func (d *Driver) EventsHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBodyBytes))
		if err != nil {
			http.Error(w, "unreadable body", http.StatusBadRequest)
			return
		}

		var envelope eventEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			http.Error(w, "malformed event", http.StatusBadRequest)
			return
		}

		switch envelope.Type {
		case "url_verification":
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"challenge": envelope.Challenge})
			return
		case "event_callback":
			msg, ok := classify(envelope.Event)
			if ok {
				d.handleTurn(r.Context(), msg)
			}
		}

		w.WriteHeader(http.StatusOK)
	})
}

func (d *Driver) handleTurn(ctx context.Context, msg contract.InboundMessage) {
	eventID := uuid.NewString()
	logger := log.With().Str("event_id", eventID).Str("user_id", msg.UserID).Logger()

	reply, err := d.machine.HandleMessage(ctx, msg.UserID, msg.Utterance)
	if err != nil {
		logger.Error().Err(err).Msg("survey turn failed")
		return
	}

	if err := d.messenger.SendDirect(ctx, msg.UserID, reply); err != nil {
		metrics.TransportFailuresTotal.Inc()
		logger.Error().Err(err).Msg("reply delivery failed")
		return
	}
	logger.Debug().Msg("survey turn completed")
}

// Kickoff begins a survey cycle for one user by sending the opening
// question. The machine itself only reacts to inbound utterances, so this is
// purely an outbound send; the user's record is created lazily on their
// first reply.
func (d *Driver) Kickoff(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return errors.New("kickoff user id is empty")
	}

	if err := d.messenger.SendDirect(ctx, userID, intake.OpeningQuestion); err != nil {
		metrics.TransportFailuresTotal.Inc()
		return err
	}
	metrics.KickoffsTotal.Inc()
	return nil
}

// KickoffRoster starts a cycle for every configured user. Individual send
// failures are logged and skipped so one broken DM does not stall the rest.
func (d *Driver) KickoffRoster(ctx context.Context) {
	for _, userID := range d.roster {
		if err := d.Kickoff(ctx, userID); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("kickoff failed")
		}
	}
}
