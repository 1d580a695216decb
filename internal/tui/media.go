package tui

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

const (
	minClipSeconds = 15
	maxClipSeconds = 60
)

// SimulatedMedia is a clock-driven stand-in for a video element. Playback
// advances only when Tick is called and loops at the end of the clip.
type SimulatedMedia struct {
	mu        sync.Mutex
	duration  float64
	current   float64
	playing   bool
	playErr   error
	listeners map[int]func()
	nextID    int
}

// NewSimulatedMedia returns paused media of the given length in seconds.
func NewSimulatedMedia(duration float64) *SimulatedMedia {
	return &SimulatedMedia{duration: duration, listeners: make(map[int]func())}
}

// ClipDuration derives a stable clip length for a video id.
func ClipDuration(videoID string) float64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(videoID))
	return float64(minClipSeconds + int(h.Sum32()%(maxClipSeconds-minClipSeconds+1)))
}

// RefusePlay makes later Play calls fail with err, as an autoplay policy
// would. A nil err allows playback again.
func (m *SimulatedMedia) RefusePlay(err error) {
	m.mu.Lock()
	m.playErr = err
	m.mu.Unlock()
}

func (m *SimulatedMedia) Play(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playErr != nil {
		return m.playErr
	}
	m.playing = true
	return nil
}

func (m *SimulatedMedia) Pause() {
	m.mu.Lock()
	m.playing = false
	m.mu.Unlock()
}

func (m *SimulatedMedia) Playing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

func (m *SimulatedMedia) CurrentTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *SimulatedMedia) SetCurrentTime(seconds float64) {
	m.mu.Lock()
	m.current = min(max(seconds, 0), m.duration)
	m.mu.Unlock()
}

func (m *SimulatedMedia) Duration() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *SimulatedMedia) OnTimeUpdate(fn func()) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.listeners, id)
			m.mu.Unlock()
		})
	}
}

// Tick advances a playing clip by d and fires time updates. Paused media
// ignores ticks.
func (m *SimulatedMedia) Tick(d time.Duration) {
	m.mu.Lock()
	if !m.playing || m.duration <= 0 {
		m.mu.Unlock()
		return
	}
	m.current += d.Seconds()
	if m.current >= m.duration {
		m.current = 0
	}
	fns := make([]func(), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
