package database

import (
	"database/sql"
	"errors"
	"time"

	"gorm.io/gorm"
)

const startTimeKey = "metrics:start_time"

// MetricsRecorder receives database metrics
type MetricsRecorder interface {
	RecordDBQuery(operation, table string, duration time.Duration, err error)
	UpdateDBStats(stats sql.DBStats)
}

// RegisterMetricsCallbacks times every select, insert, update and delete.
// Record-not-found is not counted as a query error.
func RegisterMetricsCallbacks(db *gorm.DB, recorder MetricsRecorder) error {
	cb := db.Callback()

	if err := cb.Query().Before("gorm:query").Register("metrics:query_before", startTimer); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("metrics:query_after", recordQuery(recorder, "select")); err != nil {
		return err
	}

	if err := cb.Create().Before("gorm:create").Register("metrics:create_before", startTimer); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("metrics:create_after", recordQuery(recorder, "insert")); err != nil {
		return err
	}

	if err := cb.Update().Before("gorm:update").Register("metrics:update_before", startTimer); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("metrics:update_after", recordQuery(recorder, "update")); err != nil {
		return err
	}

	if err := cb.Delete().Before("gorm:delete").Register("metrics:delete_before", startTimer); err != nil {
		return err
	}
	return cb.Delete().After("gorm:delete").Register("metrics:delete_after", recordQuery(recorder, "delete"))
}

func startTimer(db *gorm.DB) {
	db.InstanceSet(startTimeKey, time.Now())
}

func recordQuery(recorder MetricsRecorder, operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		v, ok := db.InstanceGet(startTimeKey)
		if !ok {
			return
		}
		start, ok := v.(time.Time)
		if !ok {
			return
		}

		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}
		err := db.Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = nil
		}
		recorder.RecordDBQuery(operation, table, time.Since(start), err)
	}
}

// ReportPoolStats pushes the current connection pool statistics to recorder
func ReportPoolStats(db *gorm.DB, recorder MetricsRecorder) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	recorder.UpdateDBStats(sqlDB.Stats())
	return nil
}
