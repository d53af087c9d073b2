package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRateLimiterAllowsUnderLimit(t *testing.T) {
	rl := NewRateLimiter(5, 0, 0, 0)
	for range 5 {
		require.NoError(t, rl.CheckRateLimit("user1", 0))
	}
}

func TestRateLimiterBlocksOverMinuteLimit(t *testing.T) {
	rl := NewRateLimiter(2, 0, 0, 0)
	require.NoError(t, rl.CheckRateLimit("user1", 0))
	require.NoError(t, rl.CheckRateLimit("user1", 0))

	err := rl.CheckRateLimit("user1", 0)
	require.Error(t, err)
	var rlErr *RateLimitError
	require.ErrorAs(t, err, &rlErr)
	require.Equal(t, "minute", rlErr.Type)
}

func TestRateLimiterBlocksOverHourLimit(t *testing.T) {
	rl := NewRateLimiter(0, 1, 0, 0)
	require.NoError(t, rl.CheckRateLimit("user1", 0))

	err := rl.CheckRateLimit("user1", 0)
	require.Error(t, err)
	var rlErr *RateLimitError
	require.ErrorAs(t, err, &rlErr)
	require.Equal(t, "hour", rlErr.Type)
}

func TestRateLimiterEnforcesDailyRequestQuota(t *testing.T) {
	rl := NewRateLimiter(0, 0, 1, 0)
	require.NoError(t, rl.CheckRateLimit("user1", 0))

	err := rl.CheckRateLimit("user1", 0)
	require.Error(t, err)
	var qErr *QuotaExceededError
	require.ErrorAs(t, err, &qErr)
	require.Equal(t, "requests", qErr.Type)
}

func TestRateLimiterEnforcesDailyDataQuota(t *testing.T) {
	rl := NewRateLimiter(0, 0, 0, 1000)
	require.NoError(t, rl.CheckRateLimit("user1", 900))

	err := rl.CheckRateLimit("user1", 200)
	require.Error(t, err)
	var qErr *QuotaExceededError
	require.ErrorAs(t, err, &qErr)
	require.Equal(t, "data", qErr.Type)
}

func TestRateLimiterTracksUsersIndependently(t *testing.T) {
	rl := NewRateLimiter(1, 0, 0, 0)
	require.NoError(t, rl.CheckRateLimit("user1", 0))
	require.NoError(t, rl.CheckRateLimit("user2", 0))
}

func TestRateLimiterGetUsage(t *testing.T) {
	rl := NewRateLimiter(10, 0, 0, 0)
	require.NoError(t, rl.CheckRateLimit("user1", 512))

	usage := rl.GetUsage("user1")
	require.Equal(t, 1, usage.requestsLastMinute)
	require.Equal(t, int64(512), usage.dataToday)
}

func TestRateLimiterGetUsageUnknownUser(t *testing.T) {
	rl := NewRateLimiter(10, 0, 0, 0)
	usage := rl.GetUsage("ghost")
	require.Equal(t, 0, usage.requestsToday)
}

func TestRateLimitErrorMessage(t *testing.T) {
	err := &RateLimitError{Type: "minute", Limit: 5, RetryAfter: 30 * time.Second}
	require.Contains(t, err.Error(), "minute")
	require.Contains(t, err.Error(), "5")
}

func TestQuotaExceededErrorMessage(t *testing.T) {
	err := &QuotaExceededError{Type: "data", Limit: 100, Used: 150, Resets: time.Now()}
	require.Contains(t, err.Error(), "data")
}
