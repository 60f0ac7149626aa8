package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes the broadcast pipeline counters. Delivery drops are
// per-recipient: a slow or dead member never aborts delivery to the rest,
// it only shows up here.
type Metrics struct {
	MessagesPersisted prometheus.Counter
	PersistFailures   prometheus.Counter
	Deliveries        prometheus.Counter
	DeliveryDrops     prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MessagesPersisted: factory.NewCounter(prometheus.CounterOpts{
			Name: "concord_messages_persisted_total",
			Help: "Messages durably appended to the store.",
		}),
		PersistFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "concord_persist_failures_total",
			Help: "Store appends that failed; nothing was broadcast for these.",
		}),
		Deliveries: factory.NewCounter(prometheus.CounterOpts{
			Name: "concord_deliveries_total",
			Help: "Per-recipient deliveries of persisted messages.",
		}),
		DeliveryDrops: factory.NewCounter(prometheus.CounterOpts{
			Name: "concord_delivery_drops_total",
			Help: "Per-recipient deliveries skipped (gone or saturated sink).",
		}),
	}
}
