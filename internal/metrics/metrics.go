package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// NewRateLimitExceededTotal returns a Prometheus counter for the number of rejected HTTP requests due to rate limiting
func NewRateLimitExceededTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rate_limit_exceeded_total",
		Help: "Total number of rejected HTTP requests due to rate limiting",
	})
}

// NewSMSRetriesTotal returns a Prometheus counter for retry attempts against the SMS gateway
func NewSMSRetriesTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sms_gateway_retries_total",
		Help: "Total number of retry attempts performed against the SMS gateway",
	})
}

// Assignment holds the collectors of the offer workflow.
type Assignment struct {
	Created              prometheus.Counter
	Resolved             *prometheus.CounterVec
	NotificationFailures *prometheus.CounterVec
	ArmedTimers          prometheus.Gauge
}

// NewAssignment creates the offer workflow collectors. They are not registered.
func NewAssignment() *Assignment {
	return &Assignment{
		Created: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "assignments_created_total",
			Help: "Total number of offers committed to a driver",
		}),
		Resolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assignments_resolved_total",
			Help: "Total number of offers resolved, by outcome",
		}, []string{"outcome"}),
		NotificationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assignment_notification_failures_total",
			Help: "Total number of notifications that could not be handed off, by kind",
		}, []string{"kind"}),
		ArmedTimers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "assignment_expiry_timers_armed",
			Help: "Number of expiry timers currently armed in this process",
		}),
	}
}

// Collectors returns every collector for registration.
func (a *Assignment) Collectors() []prometheus.Collector {
	return []prometheus.Collector{a.Created, a.Resolved, a.NotificationFailures, a.ArmedTimers}
}

// Register registers collectors on reg, tolerating duplicates from a previous registration.
func Register(reg prometheus.Registerer, cs ...prometheus.Collector) error {
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}
