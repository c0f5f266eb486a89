package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 5000, cfg.Port)
	require.Equal(t, "./monitor.db", cfg.DatabasePath)

	require.Equal(t, 3.0, cfg.ZScoreThreshold)
	require.Equal(t, 4.0, cfg.ZScoreHigh)
	require.Equal(t, 10, cfg.MovingWindow)
	require.Equal(t, 2.0, cfg.MovingThreshold)
	require.Equal(t, 3.0, cfg.MovingHigh)
	require.Equal(t, 0.1, cfg.Contamination)
	require.Equal(t, -0.5, cfg.ModelScoreHigh)
	require.Equal(t, 10, cfg.MinZScoreSamples)
	require.Equal(t, 50, cfg.MinModelSamples)

	require.Equal(t, 24*time.Hour, cfg.Lookback())
	require.Equal(t, 5*time.Minute, cfg.DedupWindow())
	require.Equal(t, time.Minute, cfg.ScanInterval())
	require.Equal(t, 5, cfg.MaxConsecutiveErrors)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("NETSENTRY_PORT", "8088")
	t.Setenv("NETSENTRY_DEDUP_WINDOW_MINUTES", "10")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 8088, cfg.Port)
	require.Equal(t, 10*time.Minute, cfg.DedupWindow())
}
