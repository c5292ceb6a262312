package future

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuture_FirstSettlementWins(t *testing.T) {
	f := New[int]()

	assert.True(t, f.Resolve(1))
	assert.False(t, f.Resolve(2))
	assert.False(t, f.Reject(errors.New("late")))

	v, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.True(t, f.Settled())
}

func TestFuture_RejectNil(t *testing.T) {
	f := Rejected[string](nil)

	_, err := f.Wait(context.Background())
	assert.ErrorIs(t, err, ErrRejected)
}

func TestFuture_ThenBeforeAndAfterSettle(t *testing.T) {
	f := New[string]()
	var got []string

	f.Then(func(v string, err error) { got = append(got, "before:"+v) })
	f.Resolve("x")
	f.Then(func(v string, err error) { got = append(got, "after:"+v) })

	assert.Equal(t, []string{"before:x", "after:x"}, got)
}

func TestFuture_WaitHonoursContext(t *testing.T) {
	f := New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, f.Settled())
}

func TestFuture_ConcurrentSettle(t *testing.T) {
	f := New[int]()
	var wg sync.WaitGroup
	wins := make(chan int, 50)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if f.Resolve(i) {
				wins <- i
			}
		}(i)
	}
	wg.Wait()
	close(wins)

	assert.Len(t, wins, 1)
	<-f.Done()
}

func TestGo(t *testing.T) {
	f := Go(context.Background(), func(ctx context.Context) (int, error) {
		return 7, nil
	})

	v, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestGo_Panic(t *testing.T) {
	f := Go(context.Background(), func(ctx context.Context) (int, error) {
		panic("boom")
	})

	_, err := f.Wait(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}
