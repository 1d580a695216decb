package comment

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/reelfeed/reelfeed/internal/models"
	"github.com/rs/xid"
)

// Loader reads the current comment snapshot of a video.
type Loader interface {
	List(ctx context.Context, videoID string) ([]models.Comment, error)
}

type topic struct {
	deliver sync.Mutex
	subs    map[string]func([]models.Comment)
}

// Hub fans comment snapshots out to in-process subscribers, grouped by video.
// Snapshots for one video are delivered in order; subscriber callbacks must
// not block.
type Hub struct {
	loader Loader

	mu     sync.Mutex
	topics map[string]*topic
}

func NewHub(loader Loader) *Hub {
	return &Hub{
		loader: loader,
		topics: make(map[string]*topic),
	}
}

// Subscribe registers fn for videoID and delivers the current snapshot to it
// before returning. The returned disposer is idempotent.
func (h *Hub) Subscribe(ctx context.Context, videoID string, fn func([]models.Comment)) (func(), error) {
	id := xid.New().String()

	h.mu.Lock()
	t, ok := h.topics[videoID]
	if !ok {
		t = &topic{subs: make(map[string]func([]models.Comment))}
		h.topics[videoID] = t
	}
	t.subs[id] = fn
	h.mu.Unlock()

	var once sync.Once
	dispose := func() {
		once.Do(func() { h.unsubscribe(videoID, id) })
	}

	t.deliver.Lock()
	defer t.deliver.Unlock()
	snapshot, err := h.loader.List(ctx, videoID)
	if err != nil {
		dispose()
		return nil, fmt.Errorf("load comments: %w", err)
	}
	fn(snapshot)

	slog.Debug("comment hub: subscribed", "video_id", videoID, "subscriber", id)
	return dispose, nil
}

func (h *Hub) unsubscribe(videoID, id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	t, ok := h.topics[videoID]
	if !ok {
		return
	}
	delete(t.subs, id)
	if len(t.subs) == 0 {
		delete(h.topics, videoID)
	}
}

// Notify reloads the snapshot of videoID and sends it to every subscriber.
// It does nothing when the video has no subscribers.
func (h *Hub) Notify(ctx context.Context, videoID string) error {
	h.mu.Lock()
	t, ok := h.topics[videoID]
	h.mu.Unlock()
	if !ok {
		return nil
	}

	t.deliver.Lock()
	defer t.deliver.Unlock()

	snapshot, err := h.loader.List(ctx, videoID)
	if err != nil {
		return fmt.Errorf("reload comments: %w", err)
	}

	h.mu.Lock()
	fns := make([]func([]models.Comment), 0, len(t.subs))
	for _, fn := range t.subs {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(snapshot)
	}
	return nil
}

// Publish satisfies Publisher for single-instance deployments.
func (h *Hub) Publish(ctx context.Context, videoID string) error {
	return h.Notify(ctx, videoID)
}

// Subscribers returns how many subscribers videoID has.
func (h *Hub) Subscribers(videoID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if t, ok := h.topics[videoID]; ok {
		return len(t.subs)
	}
	return 0
}
