// Package notify carries the "storage changed" signal between store
// instances. A browser fires a storage event in every other tab when
// localStorage changes; here every mutating store publishes an Event on a
// Bus and interested instances re-read the affected key.
//
// Events carry no payload. Listeners re-query the store.
package notify

import (
	"context"
	"errors"
	"time"
)

var ErrClosed = errors.New("bus closed")

// Event announces that the data behind Topic changed for Origin. Source is
// the id of the instance that wrote it.
type Event struct {
	Topic  string    `json:"topic"`
	Origin string    `json:"origin"`
	Source string    `json:"source"`
	At     time.Time `json:"at"`
}

// Bus delivers events to subscribers of (origin, topic).
type Bus interface {
	Publish(ctx context.Context, e Event) error
	Subscribe(origin, topic string, fn func(Event)) (cancel func(), err error)
	Close() error
}

// Notifier is what the stores depend on: a Bus bound to one origin and one
// instance id.
type Notifier interface {
	Notify(ctx context.Context, topic string) error
	OnChange(topic string, fn func(Event)) (cancel func(), err error)
	Source() string
}
