package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// AcquireTurnLock takes the turn lock of a session with SET NX PX. It
// returns the token to release with, and false when another holder has it.
func (c *Client) AcquireTurnLock(ctx context.Context, sessionID string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := c.rdb.SetNX(ctx, turnLockKey(sessionID), token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("acquire turn lock: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// ReleaseTurnLock releases the lock if token still owns it. An expired or
// foreign lock is left alone.
func (c *Client) ReleaseTurnLock(ctx context.Context, sessionID, token string) error {
	if err := releaseScript.Run(ctx, c.rdb, []string{turnLockKey(sessionID)}, token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("release turn lock: %w", err)
	}
	return nil
}
