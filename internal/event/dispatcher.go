// Package event delivers drained domain events to downstream sinks.
package event

import (
	"context"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/brewline/sales-service/internal/domain/sale"
)

var _ sale.Dispatcher = (*LogDispatcher)(nil)

// LogDispatcher is a notification sink that records each domain event in the
// structured log. Delivery is synchronous and best-effort; the aggregate's
// queue has already been cleared by the time events arrive here.
type LogDispatcher struct{}

// NewLogDispatcher returns a dispatcher that logs every event.
func NewLogDispatcher() *LogDispatcher {
	return &LogDispatcher{}
}

// Dispatch logs every event with its identifying fields.
func (d *LogDispatcher) Dispatch(ctx context.Context, events []sale.Event) {
	lg := zctx.From(ctx)
	for _, e := range events {
		fields := []zap.Field{
			zap.String("event", e.EventName()),
			zap.Time("occurred_at", e.OccurredAt()),
		}
		switch ev := e.(type) {
		case sale.CreatedEvent:
			fields = append(fields, zap.String("sale_id", ev.SaleID), zap.String("customer_id", ev.CustomerID))
		case sale.ModifiedEvent:
			fields = append(fields, zap.String("sale_id", ev.SaleID), zap.String("customer_id", ev.CustomerID))
		}
		lg.Info("Domain event", fields...)
	}
}
