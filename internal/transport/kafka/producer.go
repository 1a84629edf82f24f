package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/prometheus/client_golang/prometheus"

	"loadboard-dispatch/internal/apperr"
	"loadboard-dispatch/internal/domain"
	"loadboard-dispatch/internal/logx"
	"loadboard-dispatch/internal/service/notify"
)

var newAsyncProducer = sarama.NewAsyncProducer

// messageMeta rides along with a message so a failed delivery can be reported.
type messageMeta struct {
	kind         string
	assignmentID string
}

// Dispatcher publishes notification events keyed by assignment id, so all
// events of one assignment stay ordered on a single partition.
//
// Publishing only hands the message to the producer queue. Broker failures
// surface later on the errors channel and are logged and counted there.
type Dispatcher struct {
	producer sarama.AsyncProducer
	topic    string
	logger   logx.Logger
	failures *prometheus.CounterVec
	now      func() time.Time

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewDispatcher creates a Dispatcher. It returns nil when Kafka is not configured.
// failures is labelled by event kind and may be nil.
func NewDispatcher(
	logger logx.Logger,
	brokers []string,
	topic string,
	failures *prometheus.CounterVec,
) (*Dispatcher, error) {
	if len(brokers) == 0 || strings.TrimSpace(topic) == "" {
		return nil, nil
	}

	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = false
	cfg.Producer.Return.Errors = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Partitioner = sarama.NewHashPartitioner

	p, err := newAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return NewDispatcherWithProducer(p, topic, logger, failures), nil
}

// NewDispatcherWithProducer wraps an existing producer and starts draining its errors.
func NewDispatcherWithProducer(
	p sarama.AsyncProducer,
	topic string,
	logger logx.Logger,
	failures *prometheus.CounterVec,
) *Dispatcher {
	if logger == nil {
		logger = logx.Nop()
	}
	d := &Dispatcher{
		producer: p,
		topic:    topic,
		logger:   logger,
		failures: failures,
		now:      func() time.Time { return time.Now().UTC() },
		done:     make(chan struct{}),
	}
	go d.drainErrors()
	return d
}

// SendCode asks the worker to text the verification code to the driver.
func (d *Dispatcher) SendCode(
	ctx context.Context,
	driverID, loadID, assignmentID, code string,
	deadline time.Time,
) error {
	return d.publish(ctx, notify.Event{
		Kind:         notify.KindCode,
		AssignmentID: assignmentID,
		LoadID:       loadID,
		DriverID:     driverID,
		Code:         code,
		Deadline:     deadline,
	})
}

// NotifyResolution announces how an assignment left pending.
func (d *Dispatcher) NotifyResolution(ctx context.Context, r domain.Resolution) error {
	return d.publish(ctx, notify.Event{
		Kind:         notify.KindResolution,
		AssignmentID: r.AssignmentID,
		LoadID:       r.LoadID,
		DriverID:     r.DriverID,
		Outcome:      string(r.Outcome),
	})
}

// publish waits for room in the producer queue, never for the broker.
func (d *Dispatcher) publish(ctx context.Context, e notify.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.OccurredAt = d.now()

	b, err := json.Marshal(FromDomain(e))
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	msg := &sarama.ProducerMessage{
		Topic:    d.topic,
		Key:      sarama.StringEncoder(e.AssignmentID),
		Value:    sarama.ByteEncoder(b),
		Metadata: messageMeta{kind: e.Kind, assignmentID: e.AssignmentID},
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return fmt.Errorf("publish %s notification: dispatcher closed", e.Kind)
	}
	select {
	case d.producer.Input() <- msg:
	case <-ctx.Done():
		return fmt.Errorf("publish %s notification: %w", e.Kind, ctx.Err())
	}

	d.logger.Debug("notification queued",
		logx.String("assignment_id", e.AssignmentID),
		logx.String("kind", e.Kind),
	)
	return nil
}

func (d *Dispatcher) drainErrors() {
	defer close(d.done)
	for pe := range d.producer.Errors() {
		var meta messageMeta
		if pe.Msg != nil {
			meta, _ = pe.Msg.Metadata.(messageMeta)
		}
		if d.failures != nil {
			d.failures.WithLabelValues(meta.kind).Inc()
		}
		d.logger.Warn("notification delivery failed",
			logx.String("error_kind", apperr.Kind(apperr.ErrNotificationDeliveryFailed)),
			logx.String("notification", meta.kind),
			logx.String("assignment_id", meta.assignmentID),
			logx.Err(pe.Err),
		)
	}
}

// Close flushes queued messages and waits until every failure is reported.
func (d *Dispatcher) Close() error {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	d.producer.AsyncClose()
	<-d.done
	return nil
}
