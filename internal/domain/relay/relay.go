package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/isooko/gateway/internal/domain/session"
	"github.com/isooko/gateway/internal/infrastructure/logging"
	"github.com/isooko/gateway/internal/infrastructure/monitoring"
)

// EndOfMessage is the framing sentinel sent after each completed response
// so clients can tell consecutive responses apart.
const EndOfMessage = "[[END_OF_MESSAGE]]"

// Assistant is the upstream streaming surface the relay drives.
type Assistant interface {
	StreamMessage(ctx context.Context, message string, fn func(fragment string) error) error
}

// Relay executes conversation turns for connected WebSocket clients,
// forwarding assistant output fragments as they arrive.
type Relay struct {
	assistant   Assistant
	registry    *session.Registry
	logger      *logging.Logger
	metrics     *monitoring.Metrics
	turnTimeout time.Duration
}

// New creates a relay. turnTimeout bounds each upstream turn.
func New(assistant Assistant, registry *session.Registry, turnTimeout time.Duration, logger *logging.Logger, metrics *monitoring.Metrics) *Relay {
	if turnTimeout <= 0 {
		turnTimeout = 2 * time.Minute
	}
	return &Relay{
		assistant:   assistant,
		registry:    registry,
		logger:      logger,
		metrics:     metrics,
		turnTimeout: turnTimeout,
	}
}

// Turn runs one conversation turn for clientID: the message goes upstream,
// every produced fragment is forwarded in arrival order, and the sentinel
// closes the response. A per-turn failure is reported to the client as an
// `Error: ...` fragment followed by the sentinel; it never tears down the
// connection. If the client vanishes mid-turn the upstream stream is
// abandoned and nothing more is sent.
func (r *Relay) Turn(ctx context.Context, clientID, message string) {
	turnID := uuid.NewString()
	start := time.Now()
	log := r.logger.With(
		zap.String("client_id", clientID),
		zap.String("turn_id", turnID),
	)
	log.Info("turn started", zap.Int("message_length", len(message)))

	ctx, cancel := context.WithTimeout(ctx, r.turnTimeout)
	defer cancel()

	err := r.assistant.StreamMessage(ctx, message, func(fragment string) error {
		if !r.registry.Send(clientID, fragment) {
			return session.ErrNotConnected
		}
		r.metrics.RecordWSMessage("outbound", "fragment")
		return nil
	})

	switch {
	case err == nil:
		r.sendSentinel(clientID)
		log.Info("turn completed", zap.Duration("duration", time.Since(start)))
		r.metrics.RecordTurn("ok", time.Since(start))

	case errors.Is(err, session.ErrNotConnected):
		log.Info("client disconnected mid-turn", zap.Duration("duration", time.Since(start)))
		r.metrics.RecordTurn("disconnected", time.Since(start))

	default:
		log.Error("turn failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		if r.registry.Send(clientID, fmt.Sprintf("Error: %v", err)) {
			r.metrics.RecordWSMessage("outbound", "error")
			// The sentinel still follows an error fragment so client
			// framing stays uniform across outcomes.
			r.sendSentinel(clientID)
		}
		r.metrics.RecordTurn("error", time.Since(start))
	}
}

func (r *Relay) sendSentinel(clientID string) {
	if r.registry.Send(clientID, EndOfMessage) {
		r.metrics.RecordWSMessage("outbound", "sentinel")
	}
}
