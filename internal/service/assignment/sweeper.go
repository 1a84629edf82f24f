package assignment

import (
	"context"
	"fmt"
	"time"

	"loadboard-dispatch/internal/logx"
)

// ExpireOverdue expires every pending assignment whose deadline has passed.
// It backs up the expiry timers and returns how many assignments it resolved.
func (c *Coordinator) ExpireOverdue(ctx context.Context) (int, error) {
	listCtx, cancel := c.withTimeout(ctx)
	ids, err := c.runner.ListOverdue(listCtx, c.now(), c.sweepBatch)
	cancel()
	if err != nil {
		return 0, fmt.Errorf("list overdue: %w", err)
	}

	expired := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return expired, ctx.Err()
		}
		ok, err := c.expire(ctx, id)
		if err != nil {
			c.logger.Error("overdue assignment not expired",
				logx.String("assignment_id", id),
				logx.Err(err),
			)
			continue
		}
		if ok {
			expired++
		}
	}
	return expired, nil
}

// RunSweeper calls ExpireOverdue every interval until ctx is done.
func (c *Coordinator) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := c.ExpireOverdue(ctx)
			if err != nil {
				c.logger.Warn("overdue sweep failed", logx.Err(err))
				continue
			}
			if n > 0 {
				c.logger.Info("overdue assignments expired", logx.Int("count", n))
			}
		}
	}
}
