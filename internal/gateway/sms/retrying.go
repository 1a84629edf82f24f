package sms

import (
	"context"
	"errors"
	"net"
	"time"

	"loadboard-dispatch/internal/logx"
)

type sender interface {
	Send(ctx context.Context, phone, text string) error
}

type counter interface {
	Inc()
}

// RetryConfig описывает поведение RetryingSender
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// RetryingSender повторяет временные ошибки шлюза с экспоненциальной задержкой
type RetryingSender struct {
	next    sender
	logger  logx.Logger
	retries counter
	cfg     RetryConfig
}

// NewRetryingSender returns nil when next is nil
func NewRetryingSender(next sender, logger logx.Logger, retries counter, cfg RetryConfig) *RetryingSender {
	if next == nil {
		return nil
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &RetryingSender{next: next, logger: logger, retries: retries, cfg: cfg}
}

// Send delivers text, retrying while the error is transient
func (s *RetryingSender) Send(ctx context.Context, phone, text string) error {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		err := s.next.Send(ctx, phone, text)
		if err == nil {
			return nil
		}
		lastErr = err

		// есть ли смысл повторять
		if ctx.Err() != nil || attempt == s.cfg.MaxAttempts || !isRetryable(err) {
			break
		}

		// вычисляем задержку
		delay := backoff(s.cfg.BaseDelay, s.cfg.MaxDelay, attempt)
		if s.retries != nil {
			s.retries.Inc()
		}
		s.logger.Warn("sms gateway retry",
			logx.Int("attempt", attempt),
			logx.Duration("delay", delay),
			logx.Err(err),
		)
		// ждем, но не дольше контекста
		if !sleepWithContext(ctx, delay) {
			break
		}
	}
	return lastErr
}

// isRetryable определяет, можно ли повторить отправку
func isRetryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500 || se.Code == 429
	}
	if errors.Is(err, ErrRejected) || errors.Is(err, ErrNotConfigured) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}

func backoff(base, max time.Duration, attempt int) time.Duration {
	d := base << (attempt - 1)
	if d > max {
		return max
	}
	return d
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
