package utils

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/cppla/filehub/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedis returns a client for the response cache, or nil when caching is
// disabled. An unreachable server is logged, not fatal: cache calls then
// miss and the database serves every read.
func NewRedis(cfg config.AppConfig, log *zap.Logger) *redis.Client {
	if !cfg.CacheEnabled {
		return nil
	}
	addr := net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort))
	rc := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		log.Warn("redis ping failed, cache will miss until it recovers", zap.String("addr", addr), zap.Error(err))
	} else {
		log.Info("redis cache connected", zap.String("addr", addr), zap.Int("db", cfg.RedisDB))
	}
	return rc
}
