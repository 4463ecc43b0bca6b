package events

import (
	"context"
	"log/slog"

	"github.com/bvandewe/tools-provider-sub014/internal/circuitbreaker"
	"github.com/bvandewe/tools-provider-sub014/internal/metrics"
)

// Collector receives breaker transitions on a buffered channel and fans
// them out to the structured log and the Prometheus collectors. It is the
// process-local stand-in for the external audit event bus: emission never
// blocks and never fails the protected call path.
type Collector struct {
	eventCh chan circuitbreaker.Transition
	logger  *slog.Logger
	done    chan struct{}
}

func NewCollector(bufferSize int, logger *slog.Logger) *Collector {
	return &Collector{
		eventCh: make(chan circuitbreaker.Transition, bufferSize),
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// Emit implements circuitbreaker.Sink. When the buffer is full the
// transition is dropped, counted and logged rather than propagated.
func (c *Collector) Emit(t circuitbreaker.Transition) {
	select {
	case c.eventCh <- t:
	default:
		metrics.TransitionsDropped.Inc()
		c.logger.Warn("transition event dropped, buffer full",
			slog.String("circuit_id", t.CircuitID),
			slog.String("reason", string(t.Reason)))
	}
}

// EmitRejection implements circuitbreaker.RejectionSink. A rejection is a
// single counter increment, so it is recorded inline rather than queued.
func (c *Collector) EmitRejection(id circuitbreaker.Identity) {
	metrics.ObserveRejection(id)
}

func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
}

// Done is closed once the collector has drained and stopped.
func (c *Collector) Done() <-chan struct{} {
	return c.done
}

func (c *Collector) run(ctx context.Context) {
	defer close(c.done)
	c.logger.Info("Transition collector started")
	defer c.logger.Info("Transition collector stopped")

	for {
		select {
		case t := <-c.eventCh:
			c.process(t)
		case <-ctx.Done():
			// Drain remaining events before shutdown
			c.drain()
			return
		}
	}
}

func (c *Collector) process(t circuitbreaker.Transition) {
	metrics.ObserveTransition(t)

	attrs := []any{
		slog.String("circuit_id", t.CircuitID),
		slog.String("circuit_type", string(t.CircuitType)),
		slog.String("from", t.From.String()),
		slog.String("to", t.To.String()),
		slog.String("reason", string(t.Reason)),
		slog.Int("failure_count", t.FailureCount),
		slog.Int("failure_threshold", t.FailureThreshold),
	}
	if t.SourceID != "" {
		attrs = append(attrs, slog.String("source_id", t.SourceID))
	}
	if t.LastFailureTime != "" {
		attrs = append(attrs, slog.String("last_failure_time", t.LastFailureTime))
	}
	if t.WasManual {
		attrs = append(attrs, slog.Bool("was_manual", true), slog.String("closed_by", t.ClosedBy))
	}

	if t.To == circuitbreaker.StateOpen {
		c.logger.Warn("circuit breaker opened", attrs...)
	} else {
		c.logger.Info("circuit breaker transition", attrs...)
	}
}

func (c *Collector) drain() {
	for {
		select {
		case t := <-c.eventCh:
			c.process(t)
		default:
			return
		}
	}
}
