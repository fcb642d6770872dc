package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		ReviewThreshold: 0.70,
		MatchThreshold:  0.85,
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	t.Run("review must stay below match", func(t *testing.T) {
		cfg := validConfig()
		cfg.ReviewThreshold = 0.85
		assert.Error(t, cfg.Validate())

		cfg.ReviewThreshold = 0.9
		assert.Error(t, cfg.Validate())
	})

	t.Run("thresholds must be in range", func(t *testing.T) {
		cfg := validConfig()
		cfg.MatchThreshold = 1.5
		assert.Error(t, cfg.Validate())

		cfg = validConfig()
		cfg.ReviewThreshold = -0.1
		assert.Error(t, cfg.Validate())
	})
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.70, cfg.ReviewThreshold)
	assert.Equal(t, 0.85, cfg.MatchThreshold)
	assert.False(t, cfg.Commit)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
}

func TestLoadBindsEnvironment(t *testing.T) {
	t.Setenv("REVIEW_THRESHOLD", "0.60")
	t.Setenv("MATCH_THRESHOLD", "0.80")
	t.Setenv("COMMIT", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.60, cfg.ReviewThreshold)
	assert.Equal(t, 0.80, cfg.MatchThreshold)
	assert.True(t, cfg.Commit)
}

func TestLoadRejectsInvertedThresholds(t *testing.T) {
	t.Setenv("REVIEW_THRESHOLD", "0.9")
	t.Setenv("MATCH_THRESHOLD", "0.5")

	_, err := Load()
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	cfg := validConfig()
	cfg.DatabaseHost = "db"
	cfg.DatabasePort = "5432"
	cfg.DatabaseUserName = "zlv"
	cfg.DatabasePassword = "secret"
	cfg.DatabaseName = "zlv"
	cfg.DatabaseSSLMode = "disable"

	assert.Equal(t, "host=db port=5432 user=zlv password=secret dbname=zlv sslmode=disable", cfg.DSN())
}
