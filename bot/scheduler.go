package bot

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	qstashx "github.com/pulseops/pulsecheck/pkg/qstash"
)

type SchedulerConfig struct {
	// CallbackURL is the public URL of the pulse webhook. When empty, no
	// schedule is registered and cycles start only via manual kickoff.
	CallbackURL string `envconfig:"CALLBACK_URL" split_words:"true"`
	Cron        string `envconfig:"CRON" split_words:"true" default:"0 9 * * 5"`
}

// SignatureVerifier checks a scheduled-delivery signature against the
// request body. qstash.Client.VerifySignature satisfies it.
type SignatureVerifier func(signature string, body []byte) error

// ScheduleHandler serves the endpoint the schedule delivers to. A verified
// delivery kicks off the whole roster.
func (d *Driver) ScheduleHandler(verify SignatureVerifier) http.Handler {
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

		if verify != nil {
			if err := verify(r.Header.Get("Upstash-Signature"), body); err != nil {
				log.Warn().Err(err).Msg("rejected unsigned pulse trigger")
				http.Error(w, "invalid signature", http.StatusUnauthorized)
				return
			}
		}

		d.KickoffRoster(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

// EnsureSchedule registers the recurring pulse trigger at startup. Missing
// callback URL means scheduling is disabled, not an error.
func EnsureSchedule(ctx context.Context, client *qstashx.Client, cfg SchedulerConfig) error {
	destination := strings.TrimSpace(cfg.CallbackURL)
	if destination == "" {
		log.Info().Msg("no scheduler callback url, skipping schedule registration")
		return nil
	}

	scheduleID, err := client.CreateSchedule(ctx, destination, cfg.Cron)
	if err != nil {
		return err
	}
	log.Info().Str("schedule_id", scheduleID).Str("cron", cfg.Cron).Msg("pulse schedule registered")
	return nil
}
