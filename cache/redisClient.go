package cache

import (
	"sync"

	"github.com/go-redis/redis"
)

var (
	redisClient *redis.Client
	redisMutex  sync.RWMutex
)

func SetRedisClient(s *redis.Client) {
	redisMutex.Lock()
	redisClient = s
	redisMutex.Unlock()
}

// GetRedisClient returns nil if no redis is configured
func GetRedisClient() *redis.Client {
	redisMutex.RLock()
	defer redisMutex.RUnlock()

	return redisClient
}

func HasRedisClient() bool {
	return GetRedisClient() != nil
}
