package player

import (
	"log/slog"
	"sync"

	"github.com/reelfeed/reelfeed/internal/models"
)

// CommentSubscriber delivers the full, current comment list of a video on
// every change until the returned unsubscribe func is called.
type CommentSubscriber interface {
	SubscribeToComments(videoID string, onUpdate func([]models.Comment)) (unsubscribe func(), err error)
}

// CountMirror keeps a live comment count for one video at a time.
type CountMirror struct {
	sub      CommentSubscriber
	onChange func(int)
	logger   *slog.Logger

	mu      sync.Mutex
	videoID string
	count   int
	gen     uint64
	dispose func()
	closed  bool
}

// NewCountMirror returns a mirror that reports count changes to onChange,
// which may be nil.
func NewCountMirror(sub CommentSubscriber, onChange func(int)) *CountMirror {
	return &CountMirror{sub: sub, onChange: onChange, logger: slog.Default()}
}

// Count returns the latest count.
func (m *CountMirror) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

// Watch mirrors videoID, showing fallback until the first live update. The
// previous subscription, if any, is released before subscribing. Watching
// the id already being watched does nothing.
func (m *CountMirror) Watch(videoID string, fallback int) {
	m.mu.Lock()
	if m.closed || (videoID == m.videoID && m.dispose != nil) {
		m.mu.Unlock()
		return
	}
	prev := m.dispose
	m.dispose = nil
	m.gen++
	gen := m.gen
	m.videoID = videoID
	m.count = fallback
	m.mu.Unlock()

	if prev != nil {
		prev()
	}
	if videoID == "" {
		return
	}

	unsubscribe, err := m.sub.SubscribeToComments(videoID, func(comments []models.Comment) {
		m.apply(gen, len(comments))
	})
	if err != nil {
		m.logger.Warn("comments: subscribe failed", "video_id", videoID, "error", err)
		return
	}
	dispose := runOnce(unsubscribe)

	m.mu.Lock()
	if m.closed || m.gen != gen {
		m.mu.Unlock()
		dispose()
		return
	}
	m.dispose = dispose
	m.mu.Unlock()
}

// Close releases the active subscription. Further updates and Watch calls
// are ignored.
func (m *CountMirror) Close() {
	m.mu.Lock()
	m.closed = true
	m.gen++
	dispose := m.dispose
	m.dispose = nil
	m.mu.Unlock()

	if dispose != nil {
		dispose()
	}
}

func (m *CountMirror) apply(gen uint64, n int) {
	m.mu.Lock()
	if m.closed || m.gen != gen {
		m.mu.Unlock()
		return
	}
	m.count = n
	onChange := m.onChange
	m.mu.Unlock()

	if onChange != nil {
		onChange(n)
	}
}

func runOnce(f func()) func() {
	var once sync.Once
	return func() { once.Do(f) }
}
