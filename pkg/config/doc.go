// Package config provides a type-safe, generic and cached way to load
// configuration from environment variables.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11 behind a
// small API: LoadEnv reads one or more .env files into the process
// environment, Load parses the environment into any annotated struct, and
// each successfully loaded type is cached so it is parsed only once for the
// lifetime of the process.
//
// # Usage
//
//	type RedisConfig struct {
//	    ConnectionURL string `env:"REDIS_URL,required"`
//	}
//
//	var cfg RedisConfig
//	if err := config.Load(&cfg); err != nil {
//	    log.Fatalf("parsing env: %v", err)
//	}
//
// Subsequent calls to config.Load(&cfg) are served from the in-memory cache
// without re-parsing. Use ResetCache in tests that change the environment
// between loads.
//
// # Error Handling
//
// Sentinel errors compare with errors.Is: ErrParsingConfig,
// ErrConfigNotLoaded, ErrNilPointer and ErrEnvFileNotLoaded.
package config
