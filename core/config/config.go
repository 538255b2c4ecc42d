package config

import (
	"errors"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrFailedToLoadConfig wraps every parsing failure returned by Load.
var ErrFailedToLoadConfig = errors.New("failed to load config")

var (
	cache       sync.Map // reflect.Type -> parsed value
	loadEnvOnce sync.Once
)

// Load parses environment variables into cfg. The first call for a given
// type reads the environment (loading a .env file if one exists); subsequent
// calls for the same type return the cached value.
func Load[T any](cfg *T) error {
	loadEnvOnce.Do(func() {
		// Missing .env files are expected outside local development.
		_ = godotenv.Load()
	})

	t := reflect.TypeOf(*cfg)
	if cached, ok := cache.Load(t); ok {
		*cfg = cached.(T)
		return nil
	}

	if err := env.Parse(cfg); err != nil {
		return errors.Join(ErrFailedToLoadConfig, err)
	}

	cached, _ := cache.LoadOrStore(t, *cfg)
	*cfg = cached.(T)
	return nil
}

// MustLoad is like Load but panics on failure. Useful during startup where a
// missing required variable should abort the process.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}
