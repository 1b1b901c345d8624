package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_Seeded(t *testing.T) {
	store := NewConfigStore(map[string]any{
		"llm.provider":    "local",
		"retrieval.top_k": int64(6),
	})

	assert.Equal(t, "local", store.GetString("llm.provider"))
	assert.Equal(t, 6, store.GetInt("retrieval.top_k"))
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("embedding.model", "hash-256"))
	require.NoError(t, store.Set("embedding.model", "nomic-embed-text"))

	val, ok := store.Get("embedding.model")
	assert.True(t, ok)
	assert.Equal(t, "nomic-embed-text", val)
}

func TestConfigStore_Numbers(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("a", 3))
	require.NoError(t, store.Set("b", 2.5))
	require.NoError(t, store.Set("c", "nope"))

	assert.Equal(t, 3, store.GetInt("a"))
	assert.Equal(t, 3.0, store.GetFloat("a"))
	assert.Equal(t, 2, store.GetInt("b"))
	assert.Equal(t, 2.5, store.GetFloat("b"))
	assert.Zero(t, store.GetInt("c"))
	assert.Zero(t, store.GetFloat("missing"))
	assert.Empty(t, store.GetString("a"))
}

func TestConfigStore_SaveLoadNoop(t *testing.T) {
	store := NewConfigStore()
	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
}

func TestConfigStore_Concurrent(t *testing.T) {
	store := NewConfigStore()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Set("k", i)
		}()
		go func() {
			defer wg.Done()
			_ = store.GetInt("k")
		}()
	}
	wg.Wait()
	_, ok := store.Get("k")
	assert.True(t, ok)
}
