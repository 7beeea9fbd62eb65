package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toksikk/soundbig/internal/metrics"
	"github.com/toksikk/soundbig/internal/soundboard"
)

type fakeOutput struct {
	mu        sync.Mutex
	emitted   []string
	released  int
	failOn    string
	onEmit    func(n int)
	onRelease func()
	done      chan struct{}
}

func newFakeOutput() *fakeOutput {
	return &fakeOutput{done: make(chan struct{})}
}

func (f *fakeOutput) Emit(ctx context.Context, s soundboard.Sound) error {
	f.mu.Lock()
	if s.ID == f.failOn {
		f.mu.Unlock()
		return errors.New("emit failed")
	}
	f.emitted = append(f.emitted, s.ID)
	n := len(f.emitted)
	hook := f.onEmit
	f.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	return nil
}

func (f *fakeOutput) Release() error {
	if f.onRelease != nil {
		f.onRelease()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released++
	if f.released == 1 {
		close(f.done)
	}
	return nil
}

func (f *fakeOutput) ids() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.emitted...)
}

func sound(id string) soundboard.Sound {
	return soundboard.Sound{Name: "sound-" + id, ID: id, GuildID: "g", Available: true}
}

func TestEnqueueReturnsPosition(t *testing.T) {
	r := NewRegistry(0, nil)

	for i := 1; i <= 10; i++ {
		got := r.Enqueue("g", sound(fmt.Sprint(i)))
		assert.Equal(t, i, got)
	}
	assert.Equal(t, 10, r.Len("g"))
	assert.Equal(t, 12, r.Enqueue("g", sound("a"), sound("b")))
}

func TestDrainIsFIFO(t *testing.T) {
	r := NewRegistry(0, metrics.New())
	var want []string
	for i := 0; i < 25; i++ {
		id := fmt.Sprint(i)
		want = append(want, id)
		r.Enqueue("g", sound(id))
	}

	out := newFakeOutput()
	require.NoError(t, r.drain(context.Background(), "g", out))

	assert.Equal(t, want, out.ids())
	assert.Equal(t, 1, out.released)
	assert.Zero(t, r.Len("g"))
}

func TestDrainEmptyQueue(t *testing.T) {
	r := NewRegistry(time.Hour, nil)
	out := newFakeOutput()

	start := time.Now()
	require.NoError(t, r.drain(context.Background(), "g", out))

	assert.Empty(t, out.ids())
	assert.Equal(t, 1, out.released)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDrainAbortsOnFirstError(t *testing.T) {
	r := NewRegistry(0, nil)
	r.Enqueue("g", sound("1"), sound("2"), sound("3"), sound("4"))

	out := newFakeOutput()
	out.failOn = "2"

	err := r.drain(context.Background(), "g", out)
	require.Error(t, err)

	assert.Equal(t, []string{"1"}, out.ids())
	assert.Equal(t, 1, out.released)
	// failed sound is consumed, the rest stays queued
	assert.Equal(t, []soundboard.Sound{sound("3"), sound("4")}, r.Snapshot("g"))
}

func TestDrainPicksUpLateEnqueues(t *testing.T) {
	r := NewRegistry(0, nil)
	r.Enqueue("g", sound("1"))

	out := newFakeOutput()
	out.onEmit = func(n int) {
		if n == 1 {
			r.Enqueue("g", sound("2"))
			r.Enqueue("g", sound("3"))
		}
	}

	require.NoError(t, r.drain(context.Background(), "g", out))
	assert.Equal(t, []string{"1", "2", "3"}, out.ids())
}

func TestDrainWaitsDelay(t *testing.T) {
	delay := 20 * time.Millisecond
	r := NewRegistry(delay, nil)
	r.Enqueue("g", sound("1"), sound("2"), sound("3"))

	start := time.Now()
	require.NoError(t, r.drain(context.Background(), "g", newFakeOutput()))
	assert.GreaterOrEqual(t, time.Since(start), 3*delay)
}

func TestDrainStopsOnCancel(t *testing.T) {
	r := NewRegistry(time.Hour, nil)
	r.Enqueue("g", sound("1"), sound("2"))

	ctx, cancel := context.WithCancel(context.Background())
	out := newFakeOutput()
	out.onEmit = func(int) { cancel() }

	err := r.drain(ctx, "g", out)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"1"}, out.ids())
	assert.Equal(t, 1, out.released)
}

func TestGuildsAreIsolated(t *testing.T) {
	r := NewRegistry(0, nil)
	r.Enqueue("a", sound("a1"), sound("a2"))
	r.Enqueue("b", sound("b1"))

	out := newFakeOutput()
	require.NoError(t, r.drain(context.Background(), "a", out))

	assert.Equal(t, []string{"a1", "a2"}, out.ids())
	assert.Equal(t, 1, r.Len("b"))
	assert.Equal(t, 2, r.Guilds())
}

func TestReset(t *testing.T) {
	r := NewRegistry(0, nil)
	r.Enqueue("g", sound("1"), sound("2"))
	r.Reset("g")
	assert.Zero(t, r.Len("g"))
	assert.Equal(t, 1, r.Enqueue("g", sound("3")))
}

func TestConcurrentEnqueueKeepsEverySound(t *testing.T) {
	r := NewRegistry(0, nil)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				r.Enqueue("g", sound(fmt.Sprintf("%d-%d", w, i)))
			}
		}(w)
	}
	wg.Wait()

	out := newFakeOutput()
	require.NoError(t, r.drain(context.Background(), "g", out))

	seen := make(map[string]bool)
	for _, id := range out.ids() {
		assert.False(t, seen[id], "sound %s played twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, 400)
}

func TestStart(t *testing.T) {
	r := NewRegistry(0, nil)
	r.Enqueue("g", sound("1"), sound("2"))

	block := make(chan struct{})
	out := newFakeOutput()
	out.onEmit = func(n int) {
		if n == 1 {
			<-block
		}
	}

	started, err := r.Start(context.Background(), "g", func() (Output, error) { return out, nil })
	require.NoError(t, err)
	require.True(t, started)
	assert.True(t, r.Draining("g"))
	assert.Equal(t, 1, r.ActiveDrains())

	opened := false
	started, err = r.Start(context.Background(), "g", func() (Output, error) {
		opened = true
		return newFakeOutput(), nil
	})
	require.NoError(t, err)
	assert.False(t, started, "second drain must not start")
	assert.False(t, opened)

	close(block)
	select {
	case <-out.done:
	case <-time.After(5 * time.Second):
		t.Fatal("drain did not finish")
	}
	assert.Equal(t, []string{"1", "2"}, out.ids())
	assert.Eventually(t, func() bool { return !r.Draining("g") }, time.Second, 5*time.Millisecond)
}

func TestStartOpenFails(t *testing.T) {
	r := NewRegistry(0, nil)
	r.Enqueue("g", sound("1"))

	started, err := r.Start(context.Background(), "g", func() (Output, error) {
		return nil, errors.New("no voice")
	})
	assert.Error(t, err)
	assert.False(t, started)
	assert.False(t, r.Draining("g"))
	assert.Equal(t, 1, r.Len("g"))
}

func TestStartRejoinsForSoundsQueuedDuringRelease(t *testing.T) {
	r := NewRegistry(0, nil)
	r.Enqueue("g", sound("a"))

	releasing := make(chan struct{})
	unblock := make(chan struct{})
	first := newFakeOutput()
	first.onRelease = func() {
		close(releasing)
		<-unblock
	}
	second := newFakeOutput()

	var mu sync.Mutex
	opens := 0
	open := func() (Output, error) {
		mu.Lock()
		defer mu.Unlock()
		opens++
		if opens == 1 {
			return first, nil
		}
		return second, nil
	}

	started, err := r.Start(context.Background(), "g", open)
	require.NoError(t, err)
	require.True(t, started)

	<-releasing
	// the drain is leaving voice, a new sound must still be played
	assert.Equal(t, 1, r.Enqueue("g", sound("b")))
	started, err = r.Start(context.Background(), "g", open)
	require.NoError(t, err)
	assert.False(t, started, "running drain must keep the guild")
	close(unblock)

	select {
	case <-second.done:
	case <-time.After(5 * time.Second):
		t.Fatal("queued sound was not played")
	}
	require.NoError(t, r.Wait(context.Background()))

	assert.Equal(t, []string{"a"}, first.ids())
	assert.Equal(t, []string{"b"}, second.ids())
	assert.Zero(t, r.Len("g"))
	assert.False(t, r.Draining("g"))
}

func TestStartRejoinFails(t *testing.T) {
	r := NewRegistry(0, nil)
	r.Enqueue("g", sound("a"))

	first := newFakeOutput()
	first.onRelease = func() { r.Enqueue("g", sound("b")) }

	opens := 0
	started, err := r.Start(context.Background(), "g", func() (Output, error) {
		opens++
		if opens == 1 {
			return first, nil
		}
		return nil, errors.New("no voice")
	})
	require.NoError(t, err)
	require.True(t, started)
	require.NoError(t, r.Wait(context.Background()))

	assert.Equal(t, 2, opens)
	assert.False(t, r.Draining("g"))
	assert.Equal(t, 1, r.Len("g"))
}

func TestWaitReturnsAfterRelease(t *testing.T) {
	r := NewRegistry(time.Hour, nil)
	r.Enqueue("g", sound("1"), sound("2"))

	ctx, cancel := context.WithCancel(context.Background())
	out := newFakeOutput()
	emitted := make(chan struct{})
	out.onEmit = func(int) { close(emitted) }

	started, err := r.Start(ctx, "g", func() (Output, error) { return out, nil })
	require.NoError(t, err)
	require.True(t, started)

	<-emitted
	cancel()
	require.NoError(t, r.Wait(context.Background()))

	out.mu.Lock()
	assert.Equal(t, 1, out.released)
	out.mu.Unlock()
	assert.False(t, r.Draining("g"))
	assert.Equal(t, 1, r.Len("g"))
}

func TestWaitTimesOut(t *testing.T) {
	r := NewRegistry(0, nil)
	r.Enqueue("g", sound("1"))

	block := make(chan struct{})
	defer close(block)
	out := newFakeOutput()
	out.onEmit = func(int) { <-block }

	_, err := r.Start(context.Background(), "g", func() (Output, error) { return out, nil })
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Wait(ctx), context.DeadlineExceeded)
}
