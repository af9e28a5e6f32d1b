package queue

import (
	"fmt"
	"strings"

	"github.com/soltixdb/orelens/internal/config"
	"github.com/soltixdb/orelens/internal/utils"
)

// NewPublisher creates the Publisher selected by cfg.Type.
// An empty type or "none" yields a publisher that drops every message.
func NewPublisher(cfg config.QueueConfig) (Publisher, error) {
	switch utils.QueueType(strings.ToLower(cfg.Type)) {
	case "", utils.QueueTypeNone:
		return nopPublisher{}, nil

	case utils.QueueTypeMemory:
		return NewMemoryPublisher(), nil

	case utils.QueueTypeNATS:
		return NewNATSPublisher(cfg.URL, cfg.Username, cfg.Password)

	case utils.QueueTypeRedis:
		return NewRedisPublisher(RedisConfig{
			URL:      cfg.URL,
			Password: cfg.Password,
			DB:       cfg.RedisDB,
			Stream:   cfg.RedisStream,
		})

	case utils.QueueTypeKafka:
		return NewKafkaPublisher(KafkaConfig{Brokers: cfg.KafkaBrokers})

	default:
		return nil, fmt.Errorf("unsupported queue type: %s (supported: none, memory, nats, redis, kafka)", cfg.Type)
	}
}
