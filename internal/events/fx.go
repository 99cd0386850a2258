package events

import (
	"context"

	"github.com/inkworks/atelier/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("events",
	fx.Provide(NewPublisher),
)

// NewPublisher builds the AMQP publisher when a broker is configured,
// falling back to a no-op. A broken broker downgrades the service to
// no events rather than failing startup.
func NewPublisher(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) Publisher {
	if cfg.AMQPURL == "" {
		return NoopPublisher{}
	}

	publisher, err := NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		log.Warn("amqp publisher disabled", zap.Error(err))
		return NoopPublisher{}
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = ctx
			return publisher.Close()
		},
	})

	return publisher
}
