// Package event defines the domain events emitted after every successful
// signal or signal log mutation, and the Publisher they are sent through.
package event

import "context"

// Publisher sends domain events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, evt DomainEvent)
}

// PublisherFunc adapts a plain function to the Publisher interface.
type PublisherFunc func(ctx context.Context, evt DomainEvent)

func (f PublisherFunc) Publish(ctx context.Context, evt DomainEvent) { f(ctx, evt) }

// Discard is a Publisher that drops every event.
var Discard Publisher = PublisherFunc(func(context.Context, DomainEvent) {})
