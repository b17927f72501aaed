package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

const (
	namespace = "task_board"
)

// Metrics holds all application metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Database metrics
	DBConnectionsOpen        prometheus.Gauge
	DBConnectionsInUse       prometheus.Gauge
	DBConnectionsIdle        prometheus.Gauge
	DBConnectionsMax         prometheus.Gauge
	DBConnectionWaitTotal    prometheus.Counter
	DBConnectionWaitDuration prometheus.Counter
	DBQueryDuration          *prometheus.HistogramVec
	DBQueryErrors            *prometheus.CounterVec

	// External API metrics
	ExternalAPIRequestDuration *prometheus.HistogramVec
	ExternalAPIRequestsTotal   *prometheus.CounterVec
	ExternalAPIErrors          *prometheus.CounterVec

	// Business metrics
	ProjectsTotal       prometheus.Gauge
	TasksTotal          prometheus.Gauge
	ActiveRulesTotal    prometheus.Gauge
	ProjectCreatedTotal prometheus.Counter
	TaskCreatedTotal    prometheus.Counter
	TaskMovedTotal      *prometheus.CounterVec

	// Automation metrics
	RuleFiringsTotal    *prometheus.CounterVec
	RuleChainDepth      prometheus.Histogram
	RuleCyclesTotal     prometheus.Counter
	DueDateFiringsTotal prometheus.Counter

	// Realtime metrics
	RealtimeConnections prometheus.Gauge

	// Logger for error reporting
	logger *zap.Logger

	// last cumulative pool wait figures, counters only receive the delta
	dbWait dbWaitCursor
}

// New creates and registers all metrics with the default registry
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer, nil)
}

// NewWithLogger creates and registers all metrics with the default registry and a logger
func NewWithLogger(logger *zap.Logger) *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer, logger)
}

// builder registers collectors under the task_board namespace
type builder struct {
	factory promauto.Factory
}

func (b builder) gauge(name, help string) prometheus.Gauge {
	return b.factory.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help})
}

func (b builder) counter(name, help string) prometheus.Counter {
	return b.factory.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help})
}

func (b builder) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return b.factory.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help}, labels)
}

func (b builder) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return b.factory.NewHistogramVec(prometheus.HistogramOpts{Namespace: namespace, Name: name, Help: help, Buckets: buckets}, labels)
}

var (
	requestBuckets  = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	queryBuckets    = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5}
	outboundBuckets = []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	chainBuckets    = []float64{0, 1, 2, 3, 5, 8, 10, 15, 20}
)

// NewWithRegistry creates and registers all metrics with a custom registry
func NewWithRegistry(registerer prometheus.Registerer, logger *zap.Logger) *Metrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := builder{factory: promauto.With(registerer)}
	m := &Metrics{logger: logger}

	m.HTTPRequestsTotal = b.counterVec("http_requests_total", "Total number of HTTP requests", "method", "endpoint", "status")
	m.HTTPRequestDuration = b.histogramVec("http_request_duration_seconds", "HTTP request duration in seconds", requestBuckets, "method", "endpoint")

	// connection pool, fed by UpdateDBStats
	m.DBConnectionsOpen = b.gauge("db_connections_open", "Open database connections")
	m.DBConnectionsInUse = b.gauge("db_connections_in_use", "Database connections currently in use")
	m.DBConnectionsIdle = b.gauge("db_connections_idle", "Idle database connections")
	m.DBConnectionsMax = b.gauge("db_connections_max", "Configured limit of open database connections")
	m.DBConnectionWaitTotal = b.counter("db_connection_wait_total", "Times a query waited for a free database connection")
	m.DBConnectionWaitDuration = b.counter("db_connection_wait_duration_seconds_total", "Seconds spent waiting for a free database connection")
	m.DBQueryDuration = b.histogramVec("db_query_duration_seconds", "Database query duration in seconds", queryBuckets, "operation", "table")
	m.DBQueryErrors = b.counterVec("db_query_errors_total", "Failed database queries", "operation", "table")

	// user, auth and notification services
	m.ExternalAPIRequestDuration = b.histogramVec("external_api_request_duration_seconds", "Outbound API call duration in seconds", outboundBuckets, "endpoint", "status")
	m.ExternalAPIRequestsTotal = b.counterVec("external_api_requests_total", "Outbound API calls", "endpoint", "method", "status")
	m.ExternalAPIErrors = b.counterVec("external_api_errors_total", "Failed outbound API calls by failure class", "endpoint", "error_type")

	m.ProjectsTotal = b.gauge("projects_total", "Total number of projects")
	m.TasksTotal = b.gauge("tasks_total", "Total number of tasks")
	m.ActiveRulesTotal = b.gauge("active_rules_total", "Total number of active automation rules")
	m.ProjectCreatedTotal = b.counter("project_created_total", "Total number of project creation events")
	m.TaskCreatedTotal = b.counter("task_created_total", "Total number of task creation events")
	m.TaskMovedTotal = b.counterVec("task_moved_total", "Total number of task moves", "kind")

	m.RuleFiringsTotal = b.counterVec("rule_firings_total", "Total number of automation rule firings", "trigger", "action", "result")
	m.RuleChainDepth = b.factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "rule_chain_depth",
		Help:      "Deepest rule chain level reached per processed mutation",
		Buckets:   chainBuckets,
	})
	m.RuleCyclesTotal = b.counter("rule_cycles_total", "Total number of rule chains aborted at the depth limit")
	m.DueDateFiringsTotal = b.counter("due_date_firings_total", "Total number of due date rule firings")

	m.RealtimeConnections = b.gauge("realtime_connections", "Current number of open board websocket connections")

	return m
}

// safeExecute wraps metric operations with panic recovery
func (m *Metrics) safeExecute(operation string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			if m.logger != nil {
				m.logger.Error("Panic in metrics operation",
					zap.String("operation", operation),
					zap.Any("panic", r),
				)
			}
		}
	}()
	fn()
}
