package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"convertstudio/config"
	"convertstudio/models"
)

// Handler processes one upload event. Handle returning means the event is
// handled; the pool never re-queues based on the handler's outcome.
type Handler interface {
	Handle(ctx context.Context, event models.ConversionEvent)
}

// Pool pops upload events from the pending queue and runs them through the
// pipeline. Delivery is at-least-once: events sit on the processing queue
// while in flight, and the recovery loop re-queues entries stranded by a
// crashed or timed-out worker. Duplicate deliveries are tolerated by the
// pipeline's idempotent path derivation and status merges.
type Pool struct {
	config      *config.Config
	redisClient *redis.Client
	handler     Handler
	log         zerolog.Logger
}

const (
	popTimeout       = 30 * time.Second
	recoveryInterval = 5 * time.Minute
)

func NewPool(cfg *config.Config, redisClient *redis.Client, handler Handler, log zerolog.Logger) *Pool {
	return &Pool{
		config:      cfg,
		redisClient: redisClient,
		handler:     handler,
		log:         log,
	}
}

func (p *Pool) StartWorker(ctx context.Context, workerID int) {
	log := p.log.With().Int("worker", workerID).Logger()
	log.Info().Msg("worker starting")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("worker shutting down")
			return
		default:
			// Atomic pop from pending and push to processing
			result, err := p.redisClient.BRPopLPush(
				ctx,
				p.config.PendingQueue,
				p.config.ProcessingQueue,
				popTimeout,
			).Result()

			if err == redis.Nil {
				// Timeout, no events available
				continue
			}

			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				log.Error().Err(err).Msg("redis pop failed")
				time.Sleep(5 * time.Second)
				continue
			}

			var event models.ConversionEvent
			if err := json.Unmarshal([]byte(result), &event); err != nil {
				log.Error().Err(err).Msg("malformed event payload")
				// Park malformed payloads instead of poisoning the queue.
				p.redisClient.LPush(ctx, p.config.FailedQueue, result)
				p.redisClient.LRem(ctx, p.config.ProcessingQueue, 1, result)
				continue
			}

			p.processEvent(ctx, log, event, result)
		}
	}
}

func (p *Pool) processEvent(ctx context.Context, log zerolog.Logger, event models.ConversionEvent, payload string) {
	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(p.config.ConversionTimeout)*time.Second)
	defer cancel()

	p.handler.Handle(timeoutCtx, event)

	// Handled regardless of outcome; failures are visible through the
	// status record and the log, not through redelivery.
	p.redisClient.LRem(ctx, p.config.ProcessingQueue, 1, payload)
}

// RecoveryLoop periodically re-queues processing entries whose worker died
// or timed out. This is the redelivery half of the at-least-once contract.
func (p *Pool) RecoveryLoop(ctx context.Context) {
	ticker := time.NewTicker(recoveryInterval)
	defer ticker.Stop()

	p.log.Info().Msg("stale event recovery loop starting")

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("recovery loop shutting down")
			return
		case <-ticker.C:
			p.recoverStaleEvents(ctx)
		}
	}
}

func (p *Pool) recoverStaleEvents(ctx context.Context) {
	entries, err := p.redisClient.LRange(ctx, p.config.ProcessingQueue, 0, -1).Result()
	if err != nil {
		p.log.Error().Err(err).Msg("failed to read processing queue")
		return
	}

	staleAfter := time.Duration(p.config.ConversionTimeout) * time.Second
	recovered := 0

	for _, payload := range entries {
		var event models.ConversionEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			p.redisClient.LPush(ctx, p.config.FailedQueue, payload)
			p.redisClient.LRem(ctx, p.config.ProcessingQueue, 1, payload)
			continue
		}

		// Producers that don't stamp receivedAt opt out of recovery.
		if event.ReceivedAt.IsZero() || time.Since(event.ReceivedAt) <= staleAfter {
			continue
		}

		p.redisClient.LRem(ctx, p.config.ProcessingQueue, 1, payload)
		p.redisClient.LPush(ctx, p.config.PendingQueue, payload)
		recovered++
	}

	if recovered > 0 {
		p.log.Info().Int("count", recovered).Msg("re-queued stale events")
	}
}
