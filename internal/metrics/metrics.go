package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "code"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "code"},
	)

	// Kafka
	kafkaMessagesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kafka_messages_sent_total",
			Help: "Total number of Kafka messages successfully sent.",
		},
	)
	kafkaMessagesProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kafka_messages_processed_total",
			Help: "Total number of Kafka messages successfully processed.",
		},
	)
	kafkaErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_errors_total",
			Help: "Total number of Kafka-related errors.",
		},
		[]string{"component", "operation"},
	)
	kafkaConsumerLag = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kafka_consumer_lag",
			Help: "Kafka consumer lag (high watermark - current offset - 1).",
		},
		[]string{"topic", "partition"},
	)

	// Dispatcher
	dispatchScans = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_scans_total",
			Help: "Total number of due-reminder scans executed.",
		},
	)
	dispatchDueReminders = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_due_reminders_total",
			Help: "Total number of due reminders observed by scans.",
		},
	)
	dispatchMessagesEnqueued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_messages_enqueued_total",
			Help: "Total number of dispatch messages enqueued (one per subscription).",
		},
	)
	dispatchReminderFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_reminder_failures_total",
			Help: "Reminders left waiting after a failed dispatch attempt.",
		},
		[]string{"stage"}, // resolve, enqueue, status
	)
	dispatchScanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dispatch_scan_duration_seconds",
			Help:    "Duration of a full due-reminder scan (seconds).",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Push delivery
	pushSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "push_notifications_sent_total",
			Help: "Total number of push notifications delivered to the provider.",
		},
	)
	pushFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "push_notifications_failed_total",
			Help: "Total number of push notifications rejected by the provider.",
		},
	)
	pushDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "push_delivery_duration_seconds",
			Help:    "Time spent delivering a single push notification (seconds).",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Business
	reminderStatusCount = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reminders_status_count",
			Help: "Current count of reminder rows by status.",
		},
		[]string{"status"},
	)
	subscriptionsCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "subscriptions_count",
			Help: "Current count of registered push subscriptions.",
		},
	)
)

var registerOnce sync.Once

func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,

			kafkaMessagesSent,
			kafkaMessagesProcessed,
			kafkaErrors,
			kafkaConsumerLag,

			dispatchScans,
			dispatchDueReminders,
			dispatchMessagesEnqueued,
			dispatchReminderFailures,
			dispatchScanDuration,

			pushSent,
			pushFailed,
			pushDuration,

			reminderStatusCount,
			subscriptionsCount,
		)
		registerRedisMetrics()
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// --- HTTP ---
func ObserveHTTPRequest(method, route, code string, d time.Duration) {
	httpRequests.WithLabelValues(method, route, code).Inc()
	httpDuration.WithLabelValues(method, route, code).Observe(d.Seconds())
}

// --- Kafka ---
func IncKafkaSent()      { kafkaMessagesSent.Inc() }
func IncKafkaProcessed() { kafkaMessagesProcessed.Inc() }
func IncKafkaError(component, operation string) {
	kafkaErrors.WithLabelValues(component, operation).Inc()
}
func SetKafkaConsumerLag(topic string, partition int32, lag int64) {
	if lag < 0 {
		lag = 0
	}
	kafkaConsumerLag.WithLabelValues(topic, itoa32(partition)).Set(float64(lag))
}

// --- Dispatcher ---
func IncDispatchScan()            { dispatchScans.Inc() }
func AddDueReminders(n int)       { dispatchDueReminders.Add(float64(max0(n))) }
func IncDispatchEnqueued()        { dispatchMessagesEnqueued.Inc() }
func IncDispatchFailure(stage string) {
	dispatchReminderFailures.WithLabelValues(stage).Inc()
}
func ObserveScanDuration(d time.Duration) { dispatchScanDuration.Observe(d.Seconds()) }

// --- Push ---
func IncPushSent()                        { pushSent.Inc() }
func IncPushFailed()                      { pushFailed.Inc() }
func ObservePushDuration(d time.Duration) { pushDuration.Observe(d.Seconds()) }

// --- Gauges (DB collectors) ---
func SetReminderStatusCount(status string, count int64) {
	if count < 0 {
		count = 0
	}
	reminderStatusCount.WithLabelValues(status).Set(float64(count))
}
func SetSubscriptionsCount(count int64) {
	if count < 0 {
		count = 0
	}
	subscriptionsCount.Set(float64(count))
}

// helpers
func max0(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

func itoa32(v int32) string { return fmtInt(int64(v)) }

func fmtInt(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [32]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
