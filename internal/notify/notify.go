// Fire-and-forget change notifications over Redis pub/sub.
package notify

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"campool/internal/types"
)

// Channel carries "rides changed" signals for external consumers such as UI
// refresh; there is no delivery guarantee.
const Channel = "campool:rides:changed"

type Publisher struct {
	redis  *redis.Client
	logger *zap.Logger
}

func NewPublisher(rdb *redis.Client, logger *zap.Logger) *Publisher {
	return &Publisher{redis: rdb, logger: logger}
}

// RidesChanged publishes the ride id on the channel. Errors are logged and
// swallowed; a lost signal never fails the mutation that produced it.
func (p *Publisher) RidesChanged(ctx context.Context, rideID types.ID) {
	if err := p.redis.Publish(ctx, Channel, string(rideID)).Err(); err != nil {
		p.logger.Warn("publish rides-changed", zap.String("ride_id", string(rideID)), zap.Error(err))
	}
}
