package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FiringTTL keeps a due-date claim past the end of its UTC day
const FiringTTL = 48 * time.Hour

const firingKeyPrefix = "board:duedate:"

// SetNXClient is the part of the redis client the ledger needs
type SetNXClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// Claimer claims a (rule, task, day) firing slot
type Claimer interface {
	Claim(ctx context.Context, ruleID, taskID uuid.UUID, day string) (bool, error)
}

// RedisFiringLedger de-duplicates due-date firings with SETNX.
// When redis fails and a fallback is set, the claim is delegated to it.
type RedisFiringLedger struct {
	client   SetNXClient
	fallback Claimer
	ttl      time.Duration
	logger   *zap.Logger
}

// NewRedisFiringLedger creates a ledger. fallback may be nil.
func NewRedisFiringLedger(client SetNXClient, fallback Claimer, logger *zap.Logger) *RedisFiringLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisFiringLedger{client: client, fallback: fallback, ttl: FiringTTL, logger: logger}
}

// FiringKey returns the redis key for a firing slot
func FiringKey(ruleID, taskID uuid.UUID, day string) string {
	return fmt.Sprintf("%s%s:%s:%s", firingKeyPrefix, ruleID, taskID, day)
}

func (l *RedisFiringLedger) Claim(ctx context.Context, ruleID, taskID uuid.UUID, day string) (bool, error) {
	ok, err := l.client.SetNX(ctx, FiringKey(ruleID, taskID, day), time.Now().UTC().Unix(), l.ttl).Result()
	if err == nil {
		return ok, nil
	}
	if l.fallback == nil {
		return false, err
	}
	l.logger.Warn("Redis firing ledger unavailable, using database ledger",
		zap.String("rule_id", ruleID.String()),
		zap.String("task_id", taskID.String()),
		zap.Error(err),
	)
	return l.fallback.Claim(ctx, ruleID, taskID, day)
}
