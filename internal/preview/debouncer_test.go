package preview

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testDelay = 20 * time.Millisecond

func TestScheduleCollapsesBurst(t *testing.T) {
	var calls atomic.Int32
	fired := make(chan uint64, 4)
	d := NewDebouncer(testDelay, func(ctx context.Context, seq uint64) {
		calls.Add(1)
		fired <- seq
	})
	defer d.Close()

	d.Schedule()
	d.Schedule()
	last := d.Schedule()

	select {
	case seq := <-fired:
		assert.Equal(t, last, seq)
	case <-time.After(time.Second):
		t.Fatal("expected preview call")
	}
	time.Sleep(3 * testDelay)
	assert.Equal(t, int32(1), calls.Load())
}

func TestScheduleSpacedCallsBothFire(t *testing.T) {
	fired := make(chan uint64, 4)
	d := NewDebouncer(testDelay, func(ctx context.Context, seq uint64) { fired <- seq })
	defer d.Close()

	for i := 0; i < 2; i++ {
		want := d.Schedule()
		select {
		case seq := <-fired:
			assert.Equal(t, want, seq)
		case <-time.After(time.Second):
			t.Fatalf("expected call %d", i+1)
		}
	}
}

func TestNewerCallCancelsInflight(t *testing.T) {
	started := make(chan uint64, 2)
	aborted := make(chan uint64, 2)
	release := make(chan struct{})
	d := NewDebouncer(testDelay, func(ctx context.Context, seq uint64) {
		started <- seq
		select {
		case <-ctx.Done():
			aborted <- seq
		case <-release:
		}
	})

	first := d.Schedule()
	require.Equal(t, first, <-started)
	assert.True(t, d.Current(first))

	second := d.Schedule()
	assert.False(t, d.Current(first), "scheduling a newer call makes the in-flight one stale")

	require.Equal(t, second, <-started)
	select {
	case seq := <-aborted:
		assert.Equal(t, first, seq)
	case <-time.After(time.Second):
		t.Fatal("expected first call to be aborted")
	}
	assert.True(t, d.Current(second))

	close(release)
	d.Close()
	assert.False(t, d.Current(second))
}

func TestCancelDropsPendingCall(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(testDelay, func(ctx context.Context, seq uint64) { calls.Add(1) })
	defer d.Close()

	seq := d.Schedule()
	d.Cancel()
	time.Sleep(3 * testDelay)

	assert.Equal(t, int32(0), calls.Load())
	assert.False(t, d.Current(seq))
}

func TestCloseWaitsForInflight(t *testing.T) {
	started := make(chan struct{})
	var finished atomic.Bool
	d := NewDebouncer(testDelay, func(ctx context.Context, seq uint64) {
		close(started)
		<-ctx.Done()
		finished.Store(true)
	})

	d.Schedule()
	<-started
	d.Close()

	assert.True(t, finished.Load())
	d.Schedule()
	d.Close()
}
