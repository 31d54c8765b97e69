package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "events"

var (
	// Admission decisions
	RSVPDecisions       *prometheus.CounterVec
	AllocationDecisions *prometheus.CounterVec
	AdmissionDuration   *prometheus.HistogramVec
	AdmissionRetries    *prometheus.CounterVec
	LockWaitDuration    prometheus.Histogram

	// Occurrence expansion
	OccurrencesExpanded prometheus.Histogram
	ExpansionTruncated  prometheus.Counter

	// Publishing
	DecisionsPublished *prometheus.CounterVec

	// HTTP
	RequestDuration *prometheus.HistogramVec

	// Auditor gauges
	OvercommittedEvents    prometheus.Gauge
	OvercommittedResources prometheus.Gauge
	AuditRuns              *prometheus.CounterVec
	AuditLastSuccess       prometheus.Gauge

	initOnce sync.Once
)

// Init registers every collector with the default registry. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		initMetrics(prometheus.DefaultRegisterer)
	})
}

func initMetrics(reg prometheus.Registerer) {
	factory := promauto.With(reg)

	RSVPDecisions = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rsvp_decisions_total",
		Help:      "RSVP admission decisions by outcome and reason",
	}, []string{"outcome", "reason"})

	AllocationDecisions = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "allocation_decisions_total",
		Help:      "Resource allocation decisions by outcome and resulting status",
	}, []string{"outcome", "status"})

	AdmissionDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "admission_duration_seconds",
		Help:      "Time spent deciding and persisting an admission, including retries",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"kind"})

	AdmissionRetries = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "admission_retries_total",
		Help:      "Admission transactions retried after a transient failure",
	}, []string{"kind"})

	LockWaitDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "lock_wait_seconds",
		Help:      "Time spent waiting for an admission lock",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
	})

	OccurrencesExpanded = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "occurrences_per_query",
		Help:      "Number of virtual occurrences returned per expansion",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	})

	ExpansionTruncated = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "occurrence_expansions_truncated_total",
		Help:      "Expansions cut short by the instance cap",
	})

	DecisionsPublished = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "decisions_published_total",
		Help:      "Decision events handed to the publisher",
	}, []string{"event_type", "result"})

	RequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"method", "route", "status"})

	OvercommittedEvents = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "overcommitted_events",
		Help:      "Events whose ACCEPTED RSVPs exceed capacity at the last audit",
	})

	OvercommittedResources = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "overcommitted_resource_dates",
		Help:      "Resource and date pools allocated beyond inventory at the last audit",
	})

	AuditRuns = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_runs_total",
		Help:      "Capacity audit runs by result",
	}, []string{"result"})

	AuditLastSuccess = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_last_success_timestamp_seconds",
		Help:      "Unix time of the last successful capacity audit",
	})
}

// RecordRSVPDecision counts one RSVP decision
func RecordRSVPDecision(outcome, reason string) {
	if RSVPDecisions != nil {
		RSVPDecisions.WithLabelValues(outcome, reason).Inc()
	}
}

// RecordAllocationDecision counts one allocation decision. status is empty on rejection.
func RecordAllocationDecision(outcome, status string) {
	if AllocationDecisions != nil {
		AllocationDecisions.WithLabelValues(outcome, status).Inc()
	}
}

// ObserveAdmission records how long an admission of kind took
func ObserveAdmission(kind string, d time.Duration) {
	if AdmissionDuration != nil {
		AdmissionDuration.WithLabelValues(kind).Observe(d.Seconds())
	}
}

// RecordRetry counts one retried admission attempt
func RecordRetry(kind string) {
	if AdmissionRetries != nil {
		AdmissionRetries.WithLabelValues(kind).Inc()
	}
}

// ObserveLockWait records time spent acquiring an admission lock
func ObserveLockWait(d time.Duration) {
	if LockWaitDuration != nil {
		LockWaitDuration.Observe(d.Seconds())
	}
}

// RecordExpansion records the size of one occurrence expansion
func RecordExpansion(count int, truncated bool) {
	if OccurrencesExpanded != nil {
		OccurrencesExpanded.Observe(float64(count))
	}
	if truncated && ExpansionTruncated != nil {
		ExpansionTruncated.Inc()
	}
}

// RecordPublish counts one publish attempt
func RecordPublish(eventType string, err error) {
	if DecisionsPublished == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	DecisionsPublished.WithLabelValues(eventType, result).Inc()
}

// RecordAudit publishes the result of one audit run
func RecordAudit(events, resources int, err error) {
	if AuditRuns == nil {
		return
	}
	if err != nil {
		AuditRuns.WithLabelValues("error").Inc()
		return
	}
	AuditRuns.WithLabelValues("ok").Inc()
	OvercommittedEvents.Set(float64(events))
	OvercommittedResources.Set(float64(resources))
	AuditLastSuccess.SetToCurrentTime()
}

// HTTPMiddleware observes request duration per matched route
func HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if RequestDuration == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		RequestDuration.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
