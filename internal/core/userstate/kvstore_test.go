package userstate_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hay-kot/dyna/internal/core/userstate"
	"github.com/hay-kot/dyna/internal/data/db"
	"github.com/hay-kot/dyna/internal/data/stores"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, ttl time.Duration) (*userstate.KVStore, *stores.KVStore) {
	t.Helper()
	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	backing := stores.NewKVStore(database)
	return userstate.NewKVStore(backing, ttl), backing
}

func TestKVStore_Token(t *testing.T) {
	ctx := context.Background()
	s, backing := newStore(t, 0)

	_, ok := s.GetToken(ctx, 1)
	assert.False(t, ok)

	require.True(t, s.SaveToken(ctx, 1, "first"))
	require.True(t, s.SaveToken(ctx, 1, "second"))

	token, ok := s.GetToken(ctx, 1)
	assert.True(t, ok)
	assert.Equal(t, "second", token)

	has, err := backing.Has(ctx, "chat:1:dynalist_token")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestKVStore_ProcessingFlag(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t, 0)

	assert.False(t, s.IsProcessing(ctx, 7))
	assert.True(t, s.TrySetProcessing(ctx, 7))
	assert.True(t, s.IsProcessing(ctx, 7))
	assert.False(t, s.TrySetProcessing(ctx, 7), "flag already held")
	assert.True(t, s.TrySetProcessing(ctx, 8), "other chats are independent")

	assert.True(t, s.ClearProcessing(ctx, 7))
	assert.True(t, s.ClearProcessing(ctx, 7), "clear is idempotent")
	assert.False(t, s.IsProcessing(ctx, 7))
	assert.True(t, s.TrySetProcessing(ctx, 7))
}

func TestKVStore_ProcessingFlagExpires(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t, 10*time.Millisecond)

	require.True(t, s.TrySetProcessing(ctx, 3))
	time.Sleep(30 * time.Millisecond)

	assert.False(t, s.IsProcessing(ctx, 3))
	assert.True(t, s.TrySetProcessing(ctx, 3), "expired flag must not wedge the chat")
}

func TestKVStore_ProcessingFlagMutualExclusion(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t, 0)

	const workers = 20

	var (
		wg      sync.WaitGroup
		winners atomic.Int32
		start   = make(chan struct{})
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if s.TrySetProcessing(ctx, 99) {
				winners.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
}

func TestKVStore_ClearConversationKeepsToken(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t, 0)

	require.True(t, s.SaveToken(ctx, 5, "abcdef123456789"))
	require.True(t, s.TrySetProcessing(ctx, 5))

	assert.True(t, s.ClearConversation(ctx, 5))

	token, ok := s.GetToken(ctx, 5)
	assert.True(t, ok)
	assert.Equal(t, "abcdef123456789", token)
	assert.False(t, s.IsProcessing(ctx, 5))
}

func TestKVStore_ClearAll(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t, 0)

	require.True(t, s.SaveToken(ctx, 5, "tok"))
	require.True(t, s.TrySetProcessing(ctx, 5))

	assert.True(t, s.ClearAll(ctx, 5))

	_, ok := s.GetToken(ctx, 5)
	assert.False(t, ok)
	assert.False(t, s.IsProcessing(ctx, 5))
}

func TestKVStore_Status(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t, time.Minute)

	st, err := s.Status(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, userstate.Status{ChatID: 11}, st)

	require.True(t, s.SaveToken(ctx, 11, "abcdef123456789"))
	require.True(t, s.TrySetProcessing(ctx, 11))

	st, err = s.Status(ctx, 11)
	require.NoError(t, err)
	assert.True(t, st.HasToken)
	assert.Equal(t, "abcdef12...6789", st.MaskedToken)
	assert.True(t, st.Processing)
	require.NotNil(t, st.ProcessingExpires)
	assert.WithinDuration(t, time.Now().Add(time.Minute), *st.ProcessingExpires, 5*time.Second)
}
