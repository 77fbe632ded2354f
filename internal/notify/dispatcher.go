// Package notify fans a domain event out to independent sinks: the
// notifications table, transactional email and SMS. A failing sink is logged
// and counted but never fails the dispatch.
package notify

import (
	"context"
	stderrors "errors"
	"fmt"

	"monopco-workers/internal/common/errors"
	"monopco-workers/internal/common/logger"
	"monopco-workers/internal/common/metrics"
	"monopco-workers/internal/models"

	"github.com/google/uuid"
)

// Sink is one delivery channel.
type Sink interface {
	Name() string
	// Accepts reports whether the sink applies to this event.
	Accepts(ev models.NotificationEvent) bool
	Deliver(ctx context.Context, notificationID string, ev models.NotificationEvent) error
}

type SinkFailure struct {
	Sink  string `json:"sink"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

// Result is what the caller sees. Acknowledged is always true.
type Result struct {
	NotificationID string        `json:"notificationId"`
	Acknowledged   bool          `json:"acknowledged"`
	Delivered      []string      `json:"delivered"`
	Skipped        []string      `json:"skipped"`
	SinkFailures   []SinkFailure `json:"sinkFailures"`
}

type Dispatcher struct {
	sinks  []Sink
	logger logger.Logger
	newID  func() string
}

// NewDispatcher runs sinks in the order given.
func NewDispatcher(log logger.Logger, sinks ...Sink) *Dispatcher {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Dispatcher{
		sinks:  sinks,
		logger: log,
		newID:  func() string { return uuid.New().String() },
	}
}

// Dispatch acknowledges the event, then tries every accepting sink in turn.
func (d *Dispatcher) Dispatch(ctx context.Context, ev models.NotificationEvent) Result {
	res := Result{
		NotificationID: d.newID(),
		Acknowledged:   true,
		Delivered:      []string{},
		Skipped:        []string{},
		SinkFailures:   []SinkFailure{},
	}

	log := d.logger.WithFields(map[string]interface{}{
		"notificationId": res.NotificationID,
		"userId":         ev.UserID,
		"kind":           ev.Kind,
	})
	log.Info("Notification acknowledged", map[string]interface{}{"title": ev.Title})

	for _, sink := range d.sinks {
		if !sink.Accepts(ev) {
			res.Skipped = append(res.Skipped, sink.Name())
			continue
		}

		err := d.deliver(ctx, sink, res.NotificationID, ev)
		if stderrors.Is(err, errOptedOut) {
			res.Skipped = append(res.Skipped, sink.Name())
			continue
		}
		if err != nil {
			stdErr := errors.NewNotificationSinkFailure(sink.Name(), err)
			metrics.NotificationSinkFailures.WithLabelValues(sink.Name()).Inc()
			log.Error("Notification sink failed", map[string]interface{}{
				"sink":      sink.Name(),
				"errorCode": string(stdErr.Code),
				"error":     err.Error(),
			})
			res.SinkFailures = append(res.SinkFailures, SinkFailure{
				Sink:  sink.Name(),
				Code:  string(stdErr.Code),
				Error: err.Error(),
			})
			continue
		}
		res.Delivered = append(res.Delivered, sink.Name())
	}

	return res
}

// deliver turns a sink panic into an error so the remaining sinks still run.
func (d *Dispatcher) deliver(ctx context.Context, sink Sink, id string, ev models.NotificationEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panicked: %v", r)
		}
	}()
	return sink.Deliver(ctx, id, ev)
}
