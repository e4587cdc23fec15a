package credentials

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialsBearer(t *testing.T) {
	assert.Equal(t, "a", Credentials{AccessToken: "a", LegacyToken: "l"}.Bearer())
	assert.Equal(t, "l", Credentials{LegacyToken: "l"}.Bearer())
	assert.Equal(t, "", Credentials{RefreshToken: "r"}.Bearer())
	assert.True(t, Credentials{}.Empty())
}

func TestMemoryStoreLifecycle(t *testing.T) {
	store := NewMemoryStore(Credentials{})

	require.NoError(t, store.Set(Credentials{AccessToken: "a", RefreshToken: "r", LegacyToken: "l"}))
	got, err := store.Get()
	require.NoError(t, err)
	assert.Equal(t, "a", got.AccessToken)

	require.NoError(t, store.Clear())
	got, err = store.Get()
	require.NoError(t, err)
	assert.True(t, got.Empty())
}

func TestMemoryStoreUpdateIsSerialized(t *testing.T) {
	store := NewMemoryStore(Credentials{})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Update(func(c *Credentials) { c.AccessToken += "x" })
		}()
	}
	wg.Wait()

	got, err := store.Get()
	require.NoError(t, err)
	assert.Len(t, got.AccessToken, 100)
}
