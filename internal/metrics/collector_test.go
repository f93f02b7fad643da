package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestBusinessMetricsCollector_Collect(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Exec("CREATE TABLE opportunities (id TEXT, status TEXT)").Error)
	require.NoError(t, db.Exec("CREATE TABLE leads (id TEXT, status TEXT)").Error)
	require.NoError(t, db.Exec("INSERT INTO opportunities VALUES ('a','open'),('b','open'),('c','won')").Error)
	require.NoError(t, db.Exec("INSERT INTO leads VALUES ('a','new')").Error)

	m := getTestMetrics()
	NewBusinessMetricsCollector(db, m, zap.NewNop()).Collect(context.Background())

	assert.Equal(t, float64(2), getGaugeValue(t, m.OpportunitiesTotal.WithLabelValues("open")))
	assert.Equal(t, float64(1), getGaugeValue(t, m.OpportunitiesTotal.WithLabelValues("won")))
	assert.Equal(t, float64(1), getGaugeValue(t, m.LeadsTotal.WithLabelValues("new")))
}
