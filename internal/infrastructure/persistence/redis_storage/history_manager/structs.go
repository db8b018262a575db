// internal/infrastructure/persistence/redis_storage/history_manager/structs.go
package history_manager

import "github.com/go-redis/redis/v8"

// HistoryManager ведет хронологию событий алертов в Redis.
// События лежат в одном ZSET, score - unix-время обнаружения.
type HistoryManager struct {
	client *redis.Client
	key    string
	limit  int
}

const defaultFetchLimit = 100
