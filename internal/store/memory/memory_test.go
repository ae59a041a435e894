package memory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rolodex/internal/store"
	"rolodex/internal/store/memory"
	"rolodex/internal/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return memory.New()
	})
}

func TestMemoryConcurrentReaders(t *testing.T) {
	ctx := context.Background()
	m := memory.New()
	_, err := m.CreatePerson(ctx, "Ann", store.PersonFields{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = m.View(ctx, func(r store.Reader) error {
					items, err := r.ListInteractions(ctx, "Ann")
					if err != nil {
						return err
					}
					for _, it := range items {
						assert.Len(t, it.Takeaways, 3)
					}
					return nil
				})
			}
		}()
	}
	for j := 0; j < 20; j++ {
		_, err := m.CreateInteraction(ctx, storetest.Input("Ann", "2025-01-01", "text"))
		require.NoError(t, err)
	}
	wg.Wait()

	ids, err := m.InteractionIDs(ctx, "Ann")
	require.NoError(t, err)
	assert.Len(t, ids, 20)
}

func TestMemoryCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := memory.New()
	_, err := m.CreatePerson(ctx, "Ann", store.PersonFields{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, m.View(ctx, func(store.Reader) error { return nil }), context.Canceled)
}
