package metrics

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// boardGauge is one COUNT(*) published as a gauge
type boardGauge struct {
	name  string
	table string
	where string
	set   func(m *Metrics, n int64)
}

var boardGauges = []boardGauge{
	{name: "projects", table: "projects", set: (*Metrics).SetProjectsTotal},
	{name: "tasks", table: "tasks", set: (*Metrics).SetTasksTotal},
	{name: "active_rules", table: "automation_rules", where: "is_active = true", set: (*Metrics).SetActiveRulesTotal},
}

// BusinessMetricsCollector refreshes the board totals on an interval
type BusinessMetricsCollector struct {
	db       *gorm.DB
	metrics  *Metrics
	logger   *zap.Logger
	interval time.Duration
	done     chan struct{}
	stopOnce sync.Once
}

// NewBusinessMetricsCollector creates a collector that refreshes every minute
func NewBusinessMetricsCollector(db *gorm.DB, metrics *Metrics, logger *zap.Logger) *BusinessMetricsCollector {
	return NewBusinessMetricsCollectorWithInterval(db, metrics, logger, 60*time.Second)
}

// NewBusinessMetricsCollectorWithInterval creates a collector with a custom interval
func NewBusinessMetricsCollectorWithInterval(db *gorm.DB, metrics *Metrics, logger *zap.Logger, interval time.Duration) *BusinessMetricsCollector {
	return &BusinessMetricsCollector{
		db:       db,
		metrics:  metrics,
		logger:   logger,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start collects once right away, then on every tick until Stop
func (c *BusinessMetricsCollector) Start() {
	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.done:
				return
			}
		}
	}()
}

// Stop ends collection. Safe to call more than once.
func (c *BusinessMetricsCollector) Stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

func (c *BusinessMetricsCollector) collect() {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Panic in business metrics collection", zap.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, g := range boardGauges {
		q := c.db.WithContext(ctx).Table(g.table)
		if g.where != "" {
			q = q.Where(g.where)
		}
		var n int64
		if err := q.Count(&n).Error; err != nil {
			c.logger.Warn("Failed to count board totals", zap.String("metric", g.name), zap.Error(err))
			continue
		}
		g.set(c.metrics, n)
	}
}
