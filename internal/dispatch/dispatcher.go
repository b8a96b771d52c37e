// Package dispatch sends output toggle commands to the backend. The local
// state is flipped before the request goes out; a failed request is logged
// and, by default, left for the next poll to correct.
package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jkaberg/sensor-dash/internal/domain"
	"github.com/jkaberg/sensor-dash/internal/sensors"
	"github.com/sirupsen/logrus"
)

// Sender delivers a control request to the backend.
type Sender interface {
	SendControl(ctx context.Context, ch sensors.Channel, state sensors.OutputState, requestID string) error
}

// Command is one toggle request.
type Command struct {
	Channel   sensors.Channel
	Target    sensors.OutputState
	RequestID string
}

// Result is the outcome of sending a Command.
type Result struct {
	Command  Command
	Err      error
	rollback bool
}

// Event returns the command outcome for the reducer when rollback is
// enabled. ok is false when nothing should be applied.
func (r Result) Event() (ev domain.Event, ok bool) {
	if !r.rollback {
		return nil, false
	}
	c := r.Command
	if r.Err != nil {
		return domain.CommandFailed{Channel: c.Channel, Target: c.Target, RequestID: c.RequestID}, true
	}
	return domain.CommandSucceeded{Channel: c.Channel, Target: c.Target, RequestID: c.RequestID}, true
}

// Dispatcher turns operator toggles into optimistic state updates and
// control requests. Requests are neither coalesced nor deduplicated.
type Dispatcher struct {
	sender   Sender
	timeout  time.Duration
	rollback bool
	logger   *logrus.Logger
}

// New creates a Dispatcher. With rollback set, failed commands produce a
// CommandFailed event instead of waiting for the next poll.
func New(sender Sender, timeout time.Duration, rollback bool, logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		sender:   sender,
		timeout:  timeout,
		rollback: rollback,
		logger:   logger,
	}
}

// Toggle computes the target as the negation of the displayed value and
// flips the displayed value immediately.
func (d *Dispatcher) Toggle(s domain.DisplayState, ch sensors.Channel) (domain.DisplayState, Command) {
	on := !s.Output(ch)
	cmd := Command{
		Channel:   ch,
		Target:    sensors.StateFor(on),
		RequestID: uuid.NewString(),
	}
	return domain.Reduce(s, domain.OutputToggled{Channel: ch, On: on, RequestID: cmd.RequestID}), cmd
}

// Send issues the control request. Errors are logged and carried in the
// Result; they never propagate further.
func (d *Dispatcher) Send(ctx context.Context, cmd Command) Result {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	err := d.sender.SendControl(ctx, cmd.Channel, cmd.Target, cmd.RequestID)
	if err != nil {
		d.logger.WithError(err).WithFields(logrus.Fields{
			"channel":    cmd.Channel,
			"state":      cmd.Target,
			"request_id": cmd.RequestID,
			"rollback":   d.rollback,
		}).Error("Error sending LED state")
	}
	return Result{Command: cmd, Err: err, rollback: d.rollback}
}
