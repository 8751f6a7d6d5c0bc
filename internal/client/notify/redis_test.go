package notify

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisBus_CrossInstanceDelivery(t *testing.T) {
	addr := os.Getenv("STOREFRONT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("STOREFRONT_TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	bus := NewRedisBus(rdb, logging.Nop())
	defer bus.Close()

	origin := "test-" + uuid.NewString()
	got := make(chan Event, 1)
	cancel, err := bus.Subscribe(origin, "cart", func(e Event) { got <- e })
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, bus.Publish(context.Background(), Event{Topic: "cart", Origin: origin, Source: "tab-a"}))

	select {
	case e := <-got:
		assert.Equal(t, "tab-a", e.Source)
	case <-time.After(3 * time.Second):
		t.Fatal("event not delivered")
	}
}
