package worker

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"roadmon/config"
	core "roadmon/ingestion/service/core"
	"roadmon/internal/messaging/consumer"
)

// Worker bridges a message queue consumer into the ingestion service:
// every consumed payload goes through the same normalize-and-append path
// as an HTTP submission.
type Worker struct {
	bridgeConfig       config.BridgeConfig
	consumerRetryDelay time.Duration // Parsed from bridgeConfig.ConsumerRetryDelay

	logger   *log.Logger
	svc      *core.Service
	consumer consumer.Consumer
}

// New creates a new Worker instance
func New(cfg config.BridgeConfig, logger *log.Logger, svc *core.Service, c consumer.Consumer) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}

	consumerRetryDelay, err := time.ParseDuration(cfg.ConsumerRetryDelay)
	if err != nil {
		logger.Printf("Warning: Invalid consumer_retry_delay '%s', using default 5s", cfg.ConsumerRetryDelay)
		consumerRetryDelay = 5 * time.Second
	}

	return &Worker{
		bridgeConfig:       cfg,
		consumerRetryDelay: consumerRetryDelay,
		logger:             logger,
		svc:                svc,
		consumer:           c,
	}
}

// Run starts the worker pool and blocks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Printf("Starting bridge worker pool with concurrency: %d", w.bridgeConfig.Concurrency)
	var wg sync.WaitGroup
	for i := 0; i < w.bridgeConfig.Concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w.logger.Printf("Bridge worker %d started", workerID)
			w.processMessages(ctx, workerID)
			w.logger.Printf("Bridge worker %d stopped", workerID)
		}(i + 1)
	}
	wg.Wait()
	w.logger.Println("Bridge worker pool stopped.")
}

// processMessages is the main loop for a worker goroutine
func (w *Worker) processMessages(ctx context.Context, workerID int) {
	for {
		select {
		case <-ctx.Done():
			w.logger.Printf("Bridge worker %d: Context cancelled, stopping.", workerID)
			return
		default:
		}

		consumeCtx, consumeCancel := context.WithTimeout(ctx, 100*time.Millisecond)
		msg, ack, err := w.consumer.Consume(consumeCtx)
		consumeCancel()

		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				continue
			}
			// Only log real consumer errors
			w.logger.Printf("Bridge worker %d: Consumer error: %v", workerID, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.consumerRetryDelay):
			}
			continue
		}

		if msg == nil {
			continue
		}

		if _, err := w.svc.SubmitReading(ctx, msg.Payload); err != nil {
			w.logger.Printf("Bridge worker %d: Failed to persist reading (request_id %s): %v", workerID, msg.RequestID, err)
			ack(false)
			continue
		}
		ack(true)
	}
}
