package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Переходы заказов по действию и итоговому статусу
	OrderTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_order_transitions_total",
			Help: "Количество переходов заказов между статусами",
		},
		[]string{"action", "status"},
	)

	OrderAmountTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_order_amount_yen_total",
			Help: "Сумма заказов в иенах по статусу эскроу после перехода",
		},
		[]string{"escrow_status"},
	)

	JobTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_job_transitions_total",
			Help: "Количество переходов заданий между статусами",
		},
		[]string{"action", "status"},
	)

	BidsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_bids_total",
			Help: "Отклики по итоговому статусу",
		},
		[]string{"status"},
	)

	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_payment_webhook_events_total",
			Help: "События платёжного шлюза по типу и результату обработки",
		},
		[]string{"type", "result"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_http_requests_total",
			Help: "HTTP запросы по маршруту и коду ответа",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "market_http_request_duration_seconds",
			Help:    "Длительность обработки HTTP запросов",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"method", "route"},
	)
)

func RecordOrderTransition(action, status, escrow string, amount int64) {
	OrderTransitionsTotal.WithLabelValues(action, status).Inc()
	OrderAmountTotal.WithLabelValues(escrow).Add(float64(amount))
}

func RecordJobTransition(action, status string) {
	JobTransitionsTotal.WithLabelValues(action, status).Inc()
}

func RecordBid(status string) {
	BidsTotal.WithLabelValues(status).Inc()
}

func RecordWebhookEvent(eventType, result string) {
	WebhookEventsTotal.WithLabelValues(eventType, result).Inc()
}
