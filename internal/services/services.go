// Package services implements the application use cases on top of the store
// ports. Every operation takes the owning user id explicitly.
package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"smartspend/internal/amqp"
	"smartspend/internal/core"
)

// Invalidator drops cached read models for one user after a write.
type Invalidator interface {
	Invalidate(userID string)
}

type nopInvalidator struct{}

func (nopInvalidator) Invalidate(string) {}

// Options carries the collaborators shared by the write services. Nil
// fields fall back to no-ops.
type Options struct {
	Publisher   amqp.Publisher
	Invalidator Invalidator
	Logger      *slog.Logger
	Now         func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Invalidator == nil {
		o.Invalidator = nopInvalidator{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// publish sends e when a publisher is configured. Failures are logged and
// swallowed: the write already succeeded.
func (o Options) publish(ctx context.Context, e *amqp.Event) {
	if o.Publisher == nil {
		return
	}
	if err := o.Publisher.Publish(ctx, e); err != nil {
		o.Logger.ErrorContext(ctx, "Failed to publish event",
			"event_type", e.Type,
			"user_id", e.UserID,
			"record_id", e.RecordID,
			"error", err)
	}
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return core.ErrEmptyUserID
	}
	return nil
}
