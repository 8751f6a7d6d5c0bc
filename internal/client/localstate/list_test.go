package localstate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/storefront/internal/client/notify"
	"github.com/dmitrijs2005/storefront/internal/client/storage"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type readOnly struct {
	*storage.Memory
	err error
}

func (r readOnly) Set(context.Context, string, []byte) error { return r.err }

// gatedGet pauses the first Get after it has read the value, until release
// is closed.
type gatedGet struct {
	*storage.Memory
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedGet) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := g.Memory.Get(ctx, key)
	g.once.Do(func() {
		close(g.started)
		<-g.release
	})
	return raw, err
}

func newList(st storage.Storage, bus notify.Bus, source string) *List[string] {
	return NewList[string](st, "names", "names", notify.NewEmitter(bus, st.Origin(), source), logging.Nop())
}

func appendName(name string) func([]string) []string {
	return func(xs []string) []string { return append(xs, name) }
}

func TestList_RefreshMissingAndCorrupt(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemory("shop")
	l := newList(st, notify.NewLocalBus(), "a")

	require.NoError(t, l.Refresh(ctx))
	assert.Empty(t, l.Snapshot())

	require.NoError(t, st.Set(ctx, "names", []byte(`{"not":"a list"}`)))
	require.NoError(t, l.Refresh(ctx))
	assert.Empty(t, l.Snapshot())

	require.NoError(t, st.Set(ctx, "names", []byte(`["x","y"]`)))
	require.NoError(t, l.Refresh(ctx))
	assert.Equal(t, []string{"x", "y"}, l.Snapshot())
}

func TestList_UpdateWritesThenNotifies(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemory("shop")
	bus := notify.NewLocalBus()
	l := newList(st, bus, "a")

	var stored []byte
	cancel, err := bus.Subscribe("shop", "names", func(notify.Event) {
		stored, _ = st.Get(ctx, "names")
	})
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, l.Update(ctx, appendName("x")))
	assert.JSONEq(t, `["x"]`, string(stored), "value is durable before listeners run")

	require.NoError(t, l.Update(ctx, func([]string) []string { return nil }))
	raw, _ := st.Get(ctx, "names")
	assert.JSONEq(t, `[]`, string(raw))
}

func TestList_FailedWriteKeepsSnapshot(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory("shop")
	require.NoError(t, mem.Set(ctx, "names", []byte(`["x"]`)))
	boom := errors.New("read-only")
	bus := notify.NewLocalBus()
	l := newList(readOnly{Memory: mem, err: boom}, bus, "a")
	require.NoError(t, l.Refresh(ctx))

	notified := false
	cancel, err := bus.Subscribe("shop", "names", func(notify.Event) { notified = true })
	require.NoError(t, err)
	defer cancel()

	require.ErrorIs(t, l.Update(ctx, appendName("y")), boom)
	assert.Equal(t, []string{"x"}, l.Snapshot())
	assert.False(t, notified)
}

func TestList_SnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	l := newList(storage.NewMemory("shop"), notify.NewLocalBus(), "a")
	require.NoError(t, l.Update(ctx, appendName("x")))

	snap := l.Snapshot()
	snap[0] = "mutated"
	assert.Equal(t, []string{"x"}, l.Snapshot())
}

func TestList_LastWriterWins(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemory("shop")
	bus := notify.NewLocalBus()
	a := newList(st, bus, "a")
	b := newList(st, bus, "b")

	require.NoError(t, a.Update(ctx, appendName("from-a")))
	require.NoError(t, b.Update(ctx, appendName("from-b")))

	raw, _ := st.Get(ctx, "names")
	assert.JSONEq(t, `["from-b"]`, string(raw), "b wrote its own stale view over a's")
}

func TestList_WatchRefreshesOnForeignChanges(t *testing.T) {
	st := storage.NewMemory("shop")
	bus := notify.NewLocalBus()
	a := newList(st, bus, "a")
	b := newList(st, bus, "b")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 16)
	done := make(chan error, 1)
	go func() { done <- b.Watch(ctx, func() { changed <- struct{}{} }) }()

	require.Eventually(t, func() bool {
		_ = a.Update(context.Background(), func([]string) []string { return []string{"x"} })
		select {
		case <-changed:
			return true
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"x"}, b.Snapshot())

	// b's own writes do not trigger its watcher.
	for len(changed) > 0 {
		<-changed
	}
	require.NoError(t, b.Update(context.Background(), appendName("y")))
	assert.Empty(t, changed)

	cancel()
	require.NoError(t, <-done)
}

func TestList_RefreshDoesNotOverwriteConcurrentUpdate(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory("shop")
	require.NoError(t, mem.Set(ctx, "names", []byte(`["old"]`)))
	st := &gatedGet{Memory: mem, started: make(chan struct{}), release: make(chan struct{})}
	l := newList(st, notify.NewLocalBus(), "a")

	refreshed := make(chan error, 1)
	go func() { refreshed <- l.Refresh(ctx) }()
	<-st.started

	updated := make(chan error, 1)
	go func() { updated <- l.Update(ctx, appendName("new")) }()

	select {
	case <-updated:
		t.Fatal("update finished while a refresh was reading")
	case <-time.After(50 * time.Millisecond):
	}

	close(st.release)
	require.NoError(t, <-refreshed)
	require.NoError(t, <-updated)

	assert.Equal(t, []string{"old", "new"}, l.Snapshot())
	raw, err := mem.Get(ctx, "names")
	require.NoError(t, err)
	assert.JSONEq(t, `["old","new"]`, string(raw))
}
