// Package notify turns notification events into text messages for drivers.
package notify

import (
	"context"
	"fmt"

	"loadboard-dispatch/internal/domain"
	"loadboard-dispatch/internal/logx"
)

// Processor handles notification events
type Processor struct {
	phones  PhoneBook
	sender  Sender
	logger  logx.Logger
	factory *actionFactory
}

// NewProcessor creates a new Processor
func NewProcessor(phones PhoneBook, sender Sender, logger logx.Logger) *Processor {
	if logger == nil {
		logger = logx.Nop()
	}
	p := &Processor{
		phones: phones,
		sender: sender,
		logger: logger,
	}
	p.factory = newActionFactory(p.onCode, p.onResolution)
	return p
}

// Handle processes a single Event. Unknown kinds are ignored.
func (p *Processor) Handle(ctx context.Context, e Event) error {
	fn, ok := p.factory.get(e.Kind)
	if !ok {
		p.logger.Debug("notification kind ignored", logx.String("kind", e.Kind))
		return nil
	}
	return fn(ctx, e)
}

func (p *Processor) onCode(ctx context.Context, e Event) error {
	text := fmt.Sprintf("Load %s is offered to you. Code %s, accept before %s UTC.",
		e.LoadID, e.Code, e.Deadline.UTC().Format("15:04"))
	return p.sendTo(ctx, e, text)
}

func (p *Processor) onResolution(ctx context.Context, e Event) error {
	outcome := domain.AssignmentStatus(e.Outcome)
	r := domain.Resolution{Outcome: outcome}
	if r.NeedsReassignment() {
		p.logger.Info("load released for reassignment",
			logx.String("load_id", e.LoadID),
			logx.String("assignment_id", e.AssignmentID),
			logx.String("outcome", e.Outcome),
		)
	}

	switch outcome {
	case domain.AssignmentAccepted:
		return p.sendTo(ctx, e, fmt.Sprintf("Load %s is confirmed. Safe travels.", e.LoadID))
	case domain.AssignmentExpired:
		return p.sendTo(ctx, e, fmt.Sprintf("The offer for load %s has expired.", e.LoadID))
	default:
		return nil
	}
}

func (p *Processor) sendTo(ctx context.Context, e Event, text string) error {
	phone, err := p.phones.Phone(ctx, e.DriverID)
	if err != nil {
		return fmt.Errorf("lookup phone of %s: %w", e.DriverID, err)
	}
	if phone == "" {
		p.logger.Warn("driver has no phone, message dropped",
			logx.String("driver_id", e.DriverID),
			logx.String("assignment_id", e.AssignmentID),
		)
		return nil
	}
	if err := p.sender.Send(ctx, phone, text); err != nil {
		return fmt.Errorf("send %s message for %s: %w", e.Kind, e.AssignmentID, err)
	}
	return nil
}
