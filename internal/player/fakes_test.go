package player

import (
	"context"
	"sync"

	"github.com/reelfeed/reelfeed/internal/models"
)

type fakeMedia struct {
	mu         sync.Mutex
	playErr    error
	gate       chan struct{}
	ignoreCtx  bool
	playCalls  int
	pauseCalls int
	playing    bool
	current    float64
	duration   float64
	seeks      []float64
	listeners  map[int]func()
	nextID     int
}

func newFakeMedia(duration float64) *fakeMedia {
	return &fakeMedia{duration: duration, listeners: make(map[int]func())}
}

func (m *fakeMedia) Play(ctx context.Context) error {
	m.mu.Lock()
	m.playCalls++
	gate, ignoreCtx := m.gate, m.ignoreCtx
	m.mu.Unlock()

	if gate != nil {
		if ignoreCtx {
			<-gate
		} else {
			select {
			case <-gate:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playErr != nil {
		return m.playErr
	}
	m.playing = true
	return nil
}

func (m *fakeMedia) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauseCalls++
	m.playing = false
}

func (m *fakeMedia) CurrentTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *fakeMedia) SetCurrentTime(seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = seconds
	m.seeks = append(m.seeks, seconds)
}

func (m *fakeMedia) Duration() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *fakeMedia) OnTimeUpdate(fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

// tick moves the media clock to t and fires time updates.
func (m *fakeMedia) tick(t float64) {
	m.mu.Lock()
	m.current = t
	fns := make([]func(), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (m *fakeMedia) playCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playCalls
}

func (m *fakeMedia) pauseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pauseCalls
}

func (m *fakeMedia) seekLog() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.seeks...)
}

func (m *fakeMedia) listenerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.listeners)
}

type fakeViewport struct {
	mu        sync.Mutex
	onChange  func(float64)
	threshold float64
	stops     int
}

func (v *fakeViewport) Observe(threshold float64, onChange func(float64)) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.threshold = threshold
	v.onChange = onChange
	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		v.stops++
		v.onChange = nil
	}
}

func (v *fakeViewport) set(ratio float64) {
	v.mu.Lock()
	fn := v.onChange
	v.mu.Unlock()
	if fn != nil {
		fn(ratio)
	}
}

func (v *fakeViewport) observing() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.onChange != nil
}

type fakeSubscriber struct {
	mu           sync.Mutex
	err          error
	handlers     map[string]func([]models.Comment)
	unsubscribed map[string]int
}

func newFakeSubscriber() *fakeSubscriber {
	return &fakeSubscriber{
		handlers:     make(map[string]func([]models.Comment)),
		unsubscribed: make(map[string]int),
	}
}

func (f *fakeSubscriber) SubscribeToComments(videoID string, onUpdate func([]models.Comment)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.handlers[videoID] = onUpdate
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.unsubscribed[videoID]++
		delete(f.handlers, videoID)
	}, nil
}

func (f *fakeSubscriber) handler(videoID string) func([]models.Comment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handlers[videoID]
}

func (f *fakeSubscriber) deliver(videoID string, comments []models.Comment) {
	if h := f.handler(videoID); h != nil {
		h(comments)
	}
}

func (f *fakeSubscriber) unsubscribeCount(videoID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unsubscribed[videoID]
}

func syncSpawn(f func()) { f() }
