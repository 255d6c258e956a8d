package queue

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/99minutos/authgate/internal/core/domain"
)

// LogSink records audit events as structured log lines. It is the sink used
// when no database backs the audit trail.
type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log.With().Str("component", "audit").Logger()}
}

func (s *LogSink) Record(_ context.Context, event domain.AuthEvent) error {
	s.log.Info().
		Str("kind", string(event.Kind)).
		Int64("user_id", event.UserID).
		Str("email", event.Email).
		Str("remote_ip", event.RemoteIP).
		Time("at", event.At).
		Msg("auth event")
	return nil
}
