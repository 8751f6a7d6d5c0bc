package notify

import (
	"context"
	"fmt"
	"time"
)

// Emitter implements Notifier on top of a Bus.
type Emitter struct {
	bus    Bus
	origin string
	source string
	now    func() time.Time
}

func NewEmitter(bus Bus, origin, source string) *Emitter {
	return &Emitter{bus: bus, origin: origin, source: source, now: time.Now}
}

func (e *Emitter) Source() string {
	return e.source
}

// Notify publishes a change on topic stamped with this emitter's origin and
// source.
func (e *Emitter) Notify(ctx context.Context, topic string) error {
	ev := Event{Topic: topic, Origin: e.origin, Source: e.source, At: e.now().UTC()}
	if err := e.bus.Publish(ctx, ev); err != nil {
		return fmt.Errorf("publish %s change: %w", topic, err)
	}
	return nil
}

// OnChange subscribes fn to every change on topic for this origin, including
// changes made by this instance. Callers that only care about other
// instances compare Event.Source with Source().
func (e *Emitter) OnChange(topic string, fn func(Event)) (func(), error) {
	return e.bus.Subscribe(e.origin, topic, fn)
}
