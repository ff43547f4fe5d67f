package initializers

import (
	"context"

	"org-portal-backend/config"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

func InitRedis(ctx context.Context) *redis.Client {
	opts, err := redis.ParseURL(config.Conf.Redis.URL)
	if err != nil {
		panic(err.Error())
	}
	client := redis.NewClient(opts)
	if err = client.Ping(ctx).Err(); err != nil {
		panic(err.Error())
	}
	log.Info("redis connected")
	return client
}
