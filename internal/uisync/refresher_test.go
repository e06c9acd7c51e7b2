package uisync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatest_Accept(t *testing.T) {
	var l Latest[string]
	assert.False(t, l.Set())

	assert.True(t, l.Accept(Result[string]{Seq: 2, Value: "b"}))
	assert.False(t, l.Accept(Result[string]{Seq: 1, Value: "a"}), "older result must be dropped")
	assert.False(t, l.Accept(Result[string]{Seq: 2, Value: "again"}), "duplicate must be dropped")

	v, err := l.Value()
	assert.Equal(t, "b", v)
	assert.NoError(t, err)

	boom := errors.New("boom")
	assert.True(t, l.Accept(Result[string]{Seq: 3, Err: boom}))
	_, err = l.Value()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, uint64(3), l.Seq())
}

func TestRefresher_OutOfOrderResults(t *testing.T) {
	release := map[int]chan struct{}{1: make(chan struct{}), 2: make(chan struct{})}
	calls := make(chan int, 2)
	n := 0
	r := NewRefresher(func(ctx context.Context) (int, error) {
		n++
		id := n
		calls <- id
		<-release[id]
		return id * 10, nil
	}, 2)

	// Start loads one after another so the closure's counter is not raced.
	s1, err := r.Refresh(context.Background())
	require.NoError(t, err)
	<-calls
	s2, err := r.Refresh(context.Background())
	require.NoError(t, err)
	<-calls
	assert.Less(t, s1, s2)

	close(release[2])
	close(release[1])

	var l Latest[int]
	accepted := 0
	for range 2 {
		select {
		case res := <-r.Results():
			if l.Accept(res) {
				accepted++
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for results")
		}
	}
	v, _ := l.Value()
	assert.Equal(t, 20, v, "newest request wins")
	assert.Equal(t, s2, l.Seq())
	assert.GreaterOrEqual(t, accepted, 1)

	r.Close()
	_, ok := <-r.Results()
	assert.False(t, ok)
}

func TestRefresher_Close(t *testing.T) {
	r := NewRefresher(func(ctx context.Context) (string, error) {
		return "x", nil
	}, 0)

	_, err := r.Refresh(context.Background())
	require.NoError(t, err)

	// Nobody reads the unbuffered channel; Close must still return.
	r.Close()
	r.Close()

	_, err = r.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}
