package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hubride/ride-pool-system/internal/domain/models"
	"github.com/hubride/ride-pool-system/internal/domain/types"
	"github.com/hubride/ride-pool-system/pkg/logger"
	"github.com/hubride/ride-pool-system/pkg/metrics"
)

const (
	openSetKey  = "nodes:open"
	nodeKeyFmt  = "node:%s"
	nodeSnapTTL = 24 * time.Hour
)

// NodeCache is the read-side snapshot of open nodes, refreshed from the
// committed change feed. Postgres stays the source of truth; a cache
// miss just means the browse endpoint falls back to the database.
type NodeCache struct {
	client  *redis.Client
	service string

	l logger.Logger
}

func NewNodeCache(client *redis.Client, service string, log logger.Logger) *NodeCache {
	return &NodeCache{
		client:  client,
		service: service,
		l:       log,
	}
}

type Config interface {
	Addr() string
	GetPassword() string
	GetDB() int
}

func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.GetPassword(),
		DB:       cfg.GetDB(),
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// Refresh applies one node event to the snapshot: forming and qualified
// nodes are kept browsable, everything else drops out of the open set.
func (c *NodeCache) Refresh(ctx context.Context, msg models.NodeEventMessage) error {
	key := fmt.Sprintf(nodeKeyFmt, msg.NodeID)

	open := !msg.Deleted &&
		(msg.Status == types.NodeForming || msg.Status == types.NodeQualified)

	if !open {
		pipe := c.client.TxPipeline()
		pipe.Del(ctx, key)
		pipe.SRem(ctx, openSetKey, msg.NodeID.String())
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("node cache: evict %s: %w", msg.NodeID, err)
		}
		c.recordOpenCount(ctx)
		return nil
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("node cache: marshal: %w", err)
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, key, body, nodeSnapTTL)
	pipe.SAdd(ctx, openSetKey, msg.NodeID.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("node cache: store %s: %w", msg.NodeID, err)
	}
	c.recordOpenCount(ctx)
	return nil
}

// ListOpen returns the cached open-node snapshots. Members whose
// snapshot expired are pruned on the way out.
func (c *NodeCache) ListOpen(ctx context.Context) ([]models.NodeEventMessage, error) {
	ids, err := c.client.SMembers(ctx, openSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("node cache: members: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = fmt.Sprintf(nodeKeyFmt, id)
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("node cache: mget: %w", err)
	}

	nodes := make([]models.NodeEventMessage, 0, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			// snapshot expired, drop the stale member
			if err := c.client.SRem(ctx, openSetKey, ids[i]).Err(); err != nil {
				c.l.Warn(ctx, "node cache: prune failed", "node_id", ids[i])
			}
			continue
		}
		var msg models.NodeEventMessage
		if err := json.Unmarshal([]byte(s), &msg); err != nil {
			c.l.Warn(ctx, "node cache: bad snapshot", "node_id", ids[i])
			continue
		}
		nodes = append(nodes, msg)
	}
	return nodes, nil
}

func (c *NodeCache) recordOpenCount(ctx context.Context) {
	n, err := c.client.SCard(ctx, openSetKey).Result()
	if err != nil {
		return
	}
	metrics.OpenNodesGauge.WithLabelValues(c.service).Set(float64(n))
}
