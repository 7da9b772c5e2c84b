package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Predefined book event kinds. Each kind is pushed onto its own list.
const (
	BookCreated = "created"
	BookUpdated = "updated"
	BookDeleted = "deleted"
)

var (
	_ EventPublisher = (*redisEventPublisher)(nil)
	_ EventPublisher = (*noopEventPublisher)(nil)
)

// BookEvent is the notification published after a successful write.
type BookEvent struct {
	Kind      string `json:"kind"`
	BookID    int64  `json:"book_id"`
	Book      *Book  `json:"book,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Timestamp string `json:"timestamp"`
}

// EventPublisher describes a sink for book events.
type EventPublisher interface {
	Publish(ctx context.Context, event BookEvent) error
}

// GetRedisClient provides a ready to use redis client.
func GetRedisClient(config *Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", config.Redis.Host, config.Redis.Port),
		DialTimeout:  config.Redis.DialTimeout,
		ReadTimeout:  config.Redis.ReadTimeout,
		WriteTimeout: config.Redis.WriteTimeout,
		PoolSize:     config.Redis.PoolSize,
		PoolTimeout:  config.Redis.PoolTimeout,
		Password:     config.Redis.Password,
		Username:     config.Redis.Username,
		DB:           config.Redis.DatabaseIndex,
	})

	// test connection.
	if pong, err := client.Ping(context.Background()).Result(); pong != "PONG" || err != nil {
		return client, fmt.Errorf("test connection failed: %v", err)
	}
	return client, nil
}

// GetEventPublisher returns the redis publisher when events are enabled and
// the noop one otherwise. The client is nil when redis is not used and is
// closed before returning when the connection test fails.
func GetEventPublisher(config *Config) (EventPublisher, *redis.Client, error) {
	if !config.Redis.Enabled {
		return NewNoopEventPublisher(), nil, nil
	}
	client, err := GetRedisClient(config)
	if err != nil {
		if client != nil {
			_ = client.Close()
		}
		return nil, nil, err
	}
	return NewRedisEventPublisher(client, config.Redis.EventsPrefix), client, nil
}

// redisEventPublisher appends events to redis lists named <prefix>:<kind>.
type redisEventPublisher struct {
	client *redis.Client
	prefix string
}

func NewRedisEventPublisher(client *redis.Client, prefix string) EventPublisher {
	return &redisEventPublisher{client: client, prefix: prefix}
}

// EventsListName returns the redis list holding events of a given kind.
func EventsListName(prefix, kind string) string {
	return prefix + ":" + kind
}

// Publish enqueues the event onto the list of its kind.
func (p *redisEventPublisher) Publish(ctx context.Context, event BookEvent) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.client.RPush(ctx, EventsListName(p.prefix, event.Kind), eventBytes).Err()
}

// noopEventPublisher is used when no events backend is configured.
type noopEventPublisher struct{}

func NewNoopEventPublisher() EventPublisher {
	return noopEventPublisher{}
}

func (noopEventPublisher) Publish(context.Context, BookEvent) error {
	return nil
}
