package app

import (
	"context"
	"errors"
	"time"

	"loadboard-dispatch/internal/gateway/sms"
	"loadboard-dispatch/internal/service/notify"
	"loadboard-dispatch/internal/transport/kafka"
)

const notifyTimeout = 30 * time.Second

type eventHandler interface {
	Handle(ctx context.Context, e notify.Event) error
}

// makeNotifyKafka adapts the processor to the consumer. Messages the gateway
// refused are skipped, everything else is redelivered.
func makeNotifyKafka(p eventHandler) kafka.HandleFunc {
	return func(ctx context.Context, event notify.Event) error {
		hCtx, cancel := context.WithTimeout(ctx, notifyTimeout)
		defer cancel()

		err := p.Handle(hCtx, event)
		if errors.Is(err, sms.ErrRejected) || errors.Is(err, sms.ErrNotConfigured) {
			return kafka.Permanent(err)
		}
		return err
	}
}
