package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// MaintenanceRepository holds keyspace-wide operations used by the
// stats screen and the destructive admin reset.
type MaintenanceRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewMaintenanceRepository constructs a MaintenanceRepository.
func NewMaintenanceRepository(client *redis.Client, logger *zap.Logger) *MaintenanceRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaintenanceRepository{client: client, logger: logger}
}

// Ping verifies the store is reachable.
func (r *MaintenanceRepository) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// TotalKeys returns the number of keys in the current database.
func (r *MaintenanceRepository) TotalKeys(ctx context.Context) (int64, error) {
	n, err := r.client.DBSize(ctx).Result()
	if err != nil {
		return 0, fmt.Errorf("redis dbsize: %w", err)
	}
	return n, nil
}

// FlushAll wipes the whole database. Admin reset and test teardown only.
func (r *MaintenanceRepository) FlushAll(ctx context.Context) error {
	if err := r.client.FlushDB(ctx).Err(); err != nil {
		return fmt.Errorf("redis flushdb: %w", err)
	}
	r.logger.Warn("database flushed")
	return nil
}
