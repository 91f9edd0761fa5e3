package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/buildmart/buildmart_api/internal/service"
)

// OrderReaperWorker cancels Processing orders that stayed unpaid past the
// configured age and returns their reserved stock to the catalog.
type OrderReaperWorker struct {
	orderService *service.OrderService
	interval     time.Duration
	maxAge       time.Duration
}

// NewOrderReaperWorker constructs an OrderReaperWorker.
func NewOrderReaperWorker(orderService *service.OrderService, interval, maxAge time.Duration) *OrderReaperWorker {
	return &OrderReaperWorker{
		orderService: orderService,
		interval:     interval,
		maxAge:       maxAge,
	}
}

// Start begins the reaper loop and listens for context cancellation.
func (w *OrderReaperWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Dur("max_age", w.maxAge).Msg("Starting order reaper worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Order reaper worker stopped")
			return
		}
	}
}

func (w *OrderReaperWorker) run(ctx context.Context) {
	cancelled, err := w.orderService.CancelStale(ctx, w.maxAge)
	if err != nil {
		log.Error().Err(err).Msg("Failed to cancel stale orders")
		return
	}
	if cancelled > 0 {
		log.Info().Int("count", cancelled).Msg("Cancelled stale unpaid orders")
	}
}
