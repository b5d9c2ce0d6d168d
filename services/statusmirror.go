package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"convertstudio/models"
)

// RedisStatusMirror keeps a per-record status hash in Redis as a cheap read
// path for dashboards. It mirrors the record store on a best-effort basis;
// the tracker swallows its failures.
type RedisStatusMirror struct {
	client *redis.Client
	prefix string
}

func NewRedisStatusMirror(client *redis.Client, prefix string) *RedisStatusMirror {
	return &RedisStatusMirror{client: client, prefix: prefix}
}

// Set writes the update's fields to the record's status hash.
func (m *RedisStatusMirror) Set(ctx context.Context, userID, recordID string, update models.StatusUpdate) error {
	fields := map[string]interface{}{
		"status":     string(update.Status),
		"updated_at": time.Now().Format(time.RFC3339),
	}
	if update.ConvertedPath != nil {
		fields["converted_path"] = *update.ConvertedPath
	}
	if update.ProcessingTimeMs != nil {
		fields["processing_time_ms"] = *update.ProcessingTimeMs
	}
	if update.ErrorMessage != nil {
		fields["error"] = *update.ErrorMessage
	}

	key := fmt.Sprintf("%sconversion:status:%s:%s", m.prefix, userID, recordID)
	return m.client.HSet(ctx, key, fields).Err()
}
