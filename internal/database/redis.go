package database

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/viper"

	"github.com/stewardbooks/backend/internal/logger"
)

// InitRedis initializes the Redis client used for the outbound notification
// queue. Redis being down is not fatal; notifications fall back to logging.
func InitRedis() *redis.Client {
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", "6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	addr := viper.GetString("redis.host") + ":" + viper.GetString("redis.port")
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: viper.GetString("redis.password"),
		DB:       viper.GetInt("redis.db"),
	})

	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Log.Warnf("Redis connection failed, continuing without Redis: %v", err)
		return nil
	}

	logger.Log.Info("Redis connection established")
	return rdb
}
