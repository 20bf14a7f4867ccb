package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.NotNil(t, config)
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, 8000, config.Server.Port)
	assert.Equal(t, time.Hour, config.Stats.TodayTTL)
	assert.Equal(t, 24*time.Hour, config.Stats.PastTTL)
	assert.Equal(t, 30, config.Stats.MonthlyDays)
	assert.Equal(t, 7, config.Popular.Days)
	assert.Equal(t, 90, config.Popular.MaxDays)
	assert.Equal(t, 30, config.Popular.Items)
	assert.Equal(t, time.Hour, config.Popular.TTL)
	assert.False(t, config.Scheduler.Enabled)
	assert.Equal(t, "info", config.Logging.Level)
}
