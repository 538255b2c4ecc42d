package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shahadul-17/dispatcher/core/config"
)

type poolConfig struct {
	ProcessCount  int           `env:"CONFIG_TEST_PROCESS_COUNT" envDefault:"1"`
	DrainInterval time.Duration `env:"CONFIG_TEST_DRAIN_INTERVAL" envDefault:"5ms"`
}

type requiredConfig struct {
	Initializer string `env:"CONFIG_TEST_REQUIRED_INITIALIZER,required"`
}

func TestLoadDefaults(t *testing.T) {
	var cfg poolConfig
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, 1, cfg.ProcessCount)
	assert.Equal(t, 5*time.Millisecond, cfg.DrainInterval)
}

func TestLoadCachesPerType(t *testing.T) {
	var first poolConfig
	require.NoError(t, config.Load(&first))

	// A later environment change is not observed; the type is cached.
	t.Setenv("CONFIG_TEST_PROCESS_COUNT", "16")

	var second poolConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, first, second)
}

func TestLoadRequiredMissing(t *testing.T) {
	var cfg requiredConfig
	err := config.Load(&cfg)
	assert.ErrorIs(t, err, config.ErrFailedToLoadConfig)
}

func TestMustLoadPanicsOnFailure(t *testing.T) {
	assert.Panics(t, func() {
		var cfg requiredConfig
		config.MustLoad(&cfg)
	})
}
