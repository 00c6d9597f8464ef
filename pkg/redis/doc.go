// Package redis provides connection helpers for the Redis server backing
// notification stream bridges.
//
// It wraps the go-redis client with a retrying Connect driven by a Config
// struct (populated from the environment via pkg/config) and a Healthcheck
// probe for liveness endpoints.
//
// # Usage
//
//	var cfg redis.Config
//	if err := config.Load(&cfg); err != nil {
//	    log.Fatal(err)
//	}
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
// Sentinel errors (ErrRedisNotReady, ErrFailedToParseRedisConnString,
// ErrHealthcheckFailed) wrap the underlying go-redis errors with errors.Join
// so they unwrap cleanly.
package redis
