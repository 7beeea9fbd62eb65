// Package playback keeps one sound queue per guild and drains it into a
// voice channel.
package playback

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/toksikk/soundbig/internal/metrics"
	"github.com/toksikk/soundbig/internal/soundboard"
)

// Output is where a drain sends its sounds.
type Output interface {
	// Emit plays one sound. It returns once the platform accepted the sound,
	// not when playback finished.
	Emit(ctx context.Context, s soundboard.Sound) error
	// Release leaves the voice channel.
	Release() error
}

// Session is the queue state of one guild. The mutex guards every field.
type Session struct {
	GuildID string

	mu       sync.Mutex
	queue    []soundboard.Sound
	draining bool
}

func (s *Session) pop() (soundboard.Sound, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return soundboard.Sound{}, false
	}
	next := s.queue[0]
	s.queue[0] = soundboard.Sound{}
	s.queue = s.queue[1:]
	return next, true
}

func (s *Session) setDraining(v bool) {
	s.mu.Lock()
	s.draining = v
	s.mu.Unlock()
}

// Registry holds the sessions of all guilds, created on first use.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session

	delay   time.Duration
	metrics *metrics.Metrics

	// wg counts running drain goroutines
	wg sync.WaitGroup
}

// NewRegistry creates a registry. delay is the estimated play time of a
// sound and is waited after every emitted sound.
func NewRegistry(delay time.Duration, m *metrics.Metrics) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		delay:    delay,
		metrics:  m,
	}
}

// Delay returns the wait after each sound
func (r *Registry) Delay() time.Duration {
	return r.delay
}

// Session returns the session of a guild and creates it if needed
func (r *Registry) Session(guildID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[guildID]
	if !ok {
		s = &Session{GuildID: guildID}
		r.sessions[guildID] = s
	}
	return s
}

// Enqueue appends sounds to the guild queue and returns the new length.
func (r *Registry) Enqueue(guildID string, sounds ...soundboard.Sound) int {
	s := r.Session(guildID)
	s.mu.Lock()
	s.queue = append(s.queue, sounds...)
	n := len(s.queue)
	s.mu.Unlock()

	for range sounds {
		r.metrics.SoundEnqueued()
	}
	return n
}

// Reset empties the guild queue. A running drain stops after its current sound.
func (r *Registry) Reset(guildID string) {
	s := r.Session(guildID)
	s.mu.Lock()
	s.queue = nil
	s.mu.Unlock()
}

// Len returns the number of queued sounds
func (r *Registry) Len(guildID string) int {
	s := r.Session(guildID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Snapshot returns a copy of the queued sounds
func (r *Registry) Snapshot(guildID string) []soundboard.Sound {
	s := r.Session(guildID)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]soundboard.Sound, len(s.queue))
	copy(out, s.queue)
	return out
}

// Draining reports whether a drain runs for the guild
func (r *Registry) Draining(guildID string) bool {
	s := r.Session(guildID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draining
}

// Guilds returns the number of known sessions
func (r *Registry) Guilds() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// ActiveDrains returns the number of guilds currently playing
func (r *Registry) ActiveDrains() int {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	n := 0
	for _, s := range sessions {
		s.mu.Lock()
		if s.draining {
			n++
		}
		s.mu.Unlock()
	}
	return n
}

// Start claims the drain of a guild, opens the output and drains in the
// background. It returns false without calling open when a drain already runs.
// open is called again when sounds were queued while the output was released.
func (r *Registry) Start(ctx context.Context, guildID string, open func() (Output, error)) (bool, error) {
	s := r.Session(guildID)
	s.mu.Lock()
	if s.draining {
		s.mu.Unlock()
		return false, nil
	}
	s.draining = true
	s.mu.Unlock()

	out, err := open()
	if err != nil {
		s.setDraining(false)
		return false, err
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(ctx, s, out, open)
	}()
	return true, nil
}

// Wait blocks until every drain returned, or ctx is done.
func (r *Registry) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run drains until the queue stays empty across a release. The draining
// flag is held the whole time and cleared under the session lock only
// when the queue is empty, so no enqueued sound is left without a drain.
func (r *Registry) run(ctx context.Context, s *Session, out Output, open func() (Output, error)) {
	for {
		if err := r.drain(ctx, s.GuildID, out); err != nil {
			slog.Warn("Queue playback aborted", "guild", s.GuildID, "error", err)
			s.setDraining(false)
			return
		}
		if !s.rearm() {
			return
		}

		slog.Info("Sounds queued while leaving voice, joining again", "guild", s.GuildID)
		var err error
		if out, err = open(); err != nil {
			slog.Error("Could not restart queue playback", "guild", s.GuildID, "error", err)
			s.setDraining(false)
			return
		}
	}
}

// rearm keeps the draining flag when sounds are queued, otherwise it clears it.
func (s *Session) rearm() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) > 0 {
		return true
	}
	s.draining = false
	return false
}

// drain pops and emits sounds until the queue is empty, the first emit
// fails or ctx is done. The output is released in every case.
// The lock is only held while popping, sounds enqueued meanwhile are played too.
func (r *Registry) drain(ctx context.Context, guildID string, out Output) error {
	s := r.Session(guildID)
	r.metrics.DrainStarted()

	played := 0
	defer func() {
		if err := out.Release(); err != nil {
			slog.Error("could not release voice connection", "guild", guildID, "error", err)
		}
		r.metrics.DrainFinished()
		slog.Info("Queue finished", "guild", guildID, "played", played)
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		sound, ok := s.pop()
		if !ok {
			return nil
		}

		slog.Debug("Playing sound from queue", "guild", guildID, "sound", sound)
		if err := out.Emit(ctx, sound); err != nil {
			r.metrics.PlayFailed()
			return fmt.Errorf("could not play %s: %w", sound, err)
		}
		played++
		r.metrics.SoundPlayed()

		if err := wait(ctx, r.delay); err != nil {
			return err
		}
	}
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
