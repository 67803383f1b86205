package db

import (
	"github.com/roncastellon/BWM-walker-app-sub000/internal/config"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis returns the client used for scene fan-out between companion
// instances. An empty address disables fan-out.
func ConnectRedis(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}

	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
}
