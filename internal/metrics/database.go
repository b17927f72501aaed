package metrics

import (
	"database/sql"
	"strings"
	"sync"
	"time"
)

type dbWaitCursor struct {
	mu       sync.Mutex
	count    int64
	duration time.Duration
}

// advance returns how much the cumulative figures grew since the last call.
// A pool reopened behind the same metrics resets the baseline.
func (c *dbWaitCursor) advance(count int64, duration time.Duration) (int64, time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if count < c.count || duration < c.duration {
		c.count, c.duration = 0, 0
	}
	dc, dd := count-c.count, duration-c.duration
	c.count, c.duration = count, duration
	return dc, dd
}

// UpdateDBStats publishes a sql.DBStats snapshot. Anything else is ignored.
func (m *Metrics) UpdateDBStats(statsInterface interface{}) {
	m.safeExecute("UpdateDBStats", func() {
		stats, ok := statsInterface.(sql.DBStats)
		if !ok {
			return
		}
		m.DBConnectionsOpen.Set(float64(stats.OpenConnections))
		m.DBConnectionsInUse.Set(float64(stats.InUse))
		m.DBConnectionsIdle.Set(float64(stats.Idle))
		m.DBConnectionsMax.Set(float64(stats.MaxOpenConnections))

		waits, waited := m.dbWait.advance(stats.WaitCount, stats.WaitDuration)
		m.DBConnectionWaitTotal.Add(float64(waits))
		m.DBConnectionWaitDuration.Add(waited.Seconds())
	})
}

// RecordDBQuery records one gorm statement. Raw and row statements have no table.
func (m *Metrics) RecordDBQuery(operation, table string, duration time.Duration, err error) {
	m.safeExecute("RecordDBQuery", func() {
		operation = strings.ToLower(operation)
		if table == "" {
			table = "none"
		}
		m.DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
		if err != nil {
			m.DBQueryErrors.WithLabelValues(operation, table).Inc()
		}
	})
}
