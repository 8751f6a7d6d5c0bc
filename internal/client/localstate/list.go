// Package localstate keeps a JSON-encoded list under one storage key and an
// in-memory snapshot of it, the way a page keeps what it last read from
// localStorage.
//
// Reads are served from the snapshot. A mutation is applied to the snapshot
// and the whole list is written back, so the last writer wins; another
// instance only sees the change after Refresh, which Watch triggers on
// change events from other sources.
package localstate

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/dmitrijs2005/storefront/internal/client/notify"
	"github.com/dmitrijs2005/storefront/internal/client/storage"
	"github.com/dmitrijs2005/storefront/internal/logging"
)

type List[T any] struct {
	st       storage.Storage
	key      string
	topic    string
	notifier notify.Notifier
	log      logging.Logger

	mu    sync.RWMutex
	items []T
}

func NewList[T any](st storage.Storage, key, topic string, n notify.Notifier, log logging.Logger) *List[T] {
	return &List[T]{
		st:       st,
		key:      key,
		topic:    topic,
		notifier: n,
		log:      log.With("key", key, "origin", st.Origin()),
	}
}

// Snapshot returns a copy of the last known list.
func (l *List[T]) Snapshot() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.items)
}

// Refresh replaces the snapshot with what storage holds now. A value that
// does not decode is treated as an empty list. The read happens under the
// same lock as Update, so a refresh never installs a value older than a
// local write.
func (l *List[T]) Refresh(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	items, err := l.read(ctx)
	if err != nil {
		return err
	}
	l.items = items
	return nil
}

func (l *List[T]) read(ctx context.Context) ([]T, error) {
	raw, err := l.st.Get(ctx, l.key)
	if err != nil {
		l.log.Error(ctx, "reading stored list failed", "error", err)
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		l.log.Warn(ctx, "stored list is corrupt, treating as empty", "error", err)
		return nil, nil
	}
	return items, nil
}

// Update applies fn to a copy of the snapshot, writes the result and, once
// the write succeeded, makes it the snapshot and emits a change event. A
// failed write leaves the snapshot untouched.
func (l *List[T]) Update(ctx context.Context, fn func([]T) []T) error {
	l.mu.Lock()
	next := fn(slices.Clone(l.items))

	raw, err := json.Marshal(emptyIfNil(next))
	if err != nil {
		l.mu.Unlock()
		return fmt.Errorf("encode %s: %w", l.key, err)
	}
	if err := l.st.Set(ctx, l.key, raw); err != nil {
		l.mu.Unlock()
		l.log.Error(ctx, "writing list failed", "error", err)
		return err
	}
	l.items = next
	l.mu.Unlock()

	if err := l.notifier.Notify(ctx, l.topic); err != nil {
		l.log.Warn(ctx, "change notification failed", "error", err)
	}
	return nil
}

// Watch refreshes the snapshot whenever another source reports a change on
// the list's topic, until ctx is done. onChange, if not nil, runs after each
// refresh.
func (l *List[T]) Watch(ctx context.Context, onChange func()) error {
	cancel, err := l.notifier.OnChange(l.topic, func(e notify.Event) {
		if e.Source == l.notifier.Source() {
			return
		}
		if err := l.Refresh(ctx); err != nil {
			return
		}
		if onChange != nil {
			onChange()
		}
	})
	if err != nil {
		return err
	}
	defer cancel()

	<-ctx.Done()
	return nil
}

func emptyIfNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
