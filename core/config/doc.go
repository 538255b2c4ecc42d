// Package config provides type-safe environment variable loading with caching
// using Go generics. Each configuration type is loaded once and cached for
// subsequent calls.
//
// The package automatically loads .env files on first use and uses the
// caarlos0/env library for parsing environment variables into struct fields.
//
// Basic usage:
//
//	import "github.com/shahadul-17/dispatcher/core/config"
//
//	type PoolConfig struct {
//		ProcessCount int    `env:"DISPATCHER_PROCESS_COUNT" envDefault:"1"`
//		Initializer  string `env:"DISPATCHER_SERVICE_INITIALIZER,required"`
//	}
//
//	func main() {
//		var pool PoolConfig
//
//		// Load with error handling
//		if err := config.Load(&pool); err != nil {
//			log.Fatal(err)
//		}
//
//		// Or panic on failure (useful for startup)
//		config.MustLoad(&pool)
//	}
//
// # Caching Behavior
//
// Each configuration type is loaded only once per application lifetime:
//
//	var cfg1 PoolConfig
//	config.Load(&cfg1) // Loads from environment
//
//	var cfg2 PoolConfig
//	config.Load(&cfg2) // Returns cached value, cfg1 == cfg2
//
// Different types are cached independently; a second struct type gets its own
// cache entry even when its fields overlap.
package config
