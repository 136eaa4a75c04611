package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/redis/go-redis/v9"

	"github.com/freeeve/hexciv/pkg/civ"
)

// Key patterns for Redis session state.
func worldKey(sessionID string) string      { return "session:" + sessionID + ":world" }
func turnResultKey(sessionID string) string { return "session:" + sessionID + ":turn_result" }
func turnLockKey(sessionID string) string   { return "session:" + sessionID + ":turn_lock" }

// worldTTL bounds how long an idle session snapshot stays cached.
const worldTTL = 24 * time.Hour

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	decoder, _ = zstd.NewReader(nil)
)

// SetWorld caches a zstd-compressed JSON snapshot of the world.
func (c *Client) SetWorld(ctx context.Context, w *civ.World) error {
	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("encode world: %w", err)
	}
	return c.rdb.Set(ctx, worldKey(w.SessionID), encoder.EncodeAll(data, nil), worldTTL).Err()
}

// GetWorld returns the cached world, or nil when none is cached.
func (c *Client) GetWorld(ctx context.Context, sessionID string) (*civ.World, error) {
	raw, err := c.rdb.Get(ctx, worldKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get world: %w", err)
	}
	data, err := decoder.DecodeAll(raw, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress world: %w", err)
	}
	var w civ.World
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode world: %w", err)
	}
	w.Reindex()
	return &w, nil
}

// InvalidateWorld drops the cached snapshot.
func (c *Client) InvalidateWorld(ctx context.Context, sessionID string) error {
	return c.rdb.Del(ctx, worldKey(sessionID)).Err()
}

// SetTurnResult stores the last turn result JSON.
func (c *Client) SetTurnResult(ctx context.Context, sessionID string, result json.RawMessage) error {
	return c.rdb.Set(ctx, turnResultKey(sessionID), []byte(result), worldTTL).Err()
}

// GetTurnResult retrieves the last turn result JSON.
func (c *Client) GetTurnResult(ctx context.Context, sessionID string) (json.RawMessage, error) {
	data, err := c.rdb.Get(ctx, turnResultKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get turn result: %w", err)
	}
	return json.RawMessage(data), nil
}

// DeleteSessionData removes every key of a session.
func (c *Client) DeleteSessionData(ctx context.Context, sessionID string) error {
	return c.rdb.Del(ctx, worldKey(sessionID), turnResultKey(sessionID), turnLockKey(sessionID)).Err()
}
