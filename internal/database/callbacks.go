package database

import (
	"time"

	"gorm.io/gorm"
)

// MetricsRecorder is an interface for recording database metrics
type MetricsRecorder interface {
	RecordDBQuery(operation, table string, duration time.Duration, err error)
	UpdateDBStats(stats interface{})
}

const queryStartKey = "metrics:query_start_time"

// RegisterMetricsCallbacks times every query, create, update and delete
func RegisterMetricsCallbacks(db *gorm.DB, recorder MetricsRecorder) {
	before := func(db *gorm.DB) {
		db.InstanceSet(queryStartKey, time.Now())
	}
	after := func(operation string) func(*gorm.DB) {
		return func(db *gorm.DB) {
			start, ok := db.InstanceGet(queryStartKey)
			if !ok {
				return
			}
			table := db.Statement.Table
			if table == "" {
				table = "unknown"
			}
			recorder.RecordDBQuery(operation, table, time.Since(start.(time.Time)), db.Error)
		}
	}

	cb := db.Callback()
	_ = cb.Query().Before("gorm:query").Register("metrics:query_before", before)
	_ = cb.Query().After("gorm:query").Register("metrics:query_after", after("select"))
	_ = cb.Create().Before("gorm:create").Register("metrics:create_before", before)
	_ = cb.Create().After("gorm:create").Register("metrics:create_after", after("insert"))
	_ = cb.Update().Before("gorm:update").Register("metrics:update_before", before)
	_ = cb.Update().After("gorm:update").Register("metrics:update_after", after("update"))
	_ = cb.Delete().Before("gorm:delete").Register("metrics:delete_before", before)
	_ = cb.Delete().After("gorm:delete").Register("metrics:delete_after", after("delete"))
	_ = cb.Raw().Before("gorm:raw").Register("metrics:raw_before", before)
	_ = cb.Raw().After("gorm:raw").Register("metrics:raw_after", after("raw"))
}

// StartDBStatsCollector publishes connection pool stats every interval until done is closed
func StartDBStatsCollector(db *gorm.DB, recorder MetricsRecorder, interval time.Duration) chan struct{} {
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					continue
				}
				recorder.UpdateDBStats(sqlDB.Stats())
			case <-done:
				return
			}
		}
	}()

	return done
}
