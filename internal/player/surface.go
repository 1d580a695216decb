package player

import (
	"log/slog"
	"sync"

	"github.com/reelfeed/reelfeed/internal/models"
)

// Target identifies the part of a surface a click landed on.
type Target int

const (
	TargetSurface Target = iota
	TargetSeekTrack
	TargetActions
	TargetOverlay
)

// SurfaceConfig holds the collaborators of a Surface. Comments and Document
// are optional.
type SurfaceConfig struct {
	Video    models.Video
	Media    Media
	Viewport Viewport
	Comments CommentSubscriber
	Document *Document
	Logger   *slog.Logger

	// OnChange is called after playback state or the comment count changes.
	OnChange func()
}

// Surface composes the playback controller, the comment count and the
// comment overlay of one feed entry.
type Surface struct {
	video    models.Video
	media    Media
	viewport Viewport
	ctrl     *Controller
	comments *CountMirror

	mu               sync.Mutex
	mounted          bool
	unmounted        bool
	stopObserving    func()
	removeTimeUpdate func()
	commentsOpen     bool
}

// NewSurface builds an unmounted surface.
func NewSurface(cfg SurfaceConfig) *Surface {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("video_id", cfg.Video.ID)

	notify := func() {
		if cfg.OnChange != nil {
			cfg.OnChange()
		}
	}

	opts := []Option{
		WithLogger(logger),
		WithOnChange(func(State) { notify() }),
	}
	if cfg.Document != nil {
		opts = append(opts, WithDocument(cfg.Document))
	}

	s := &Surface{
		video:    cfg.Video,
		media:    cfg.Media,
		viewport: cfg.Viewport,
		ctrl:     NewController(cfg.Media, opts...),
	}
	if cfg.Comments != nil {
		s.comments = NewCountMirror(cfg.Comments, func(int) { notify() })
		s.comments.logger = logger
	}
	return s
}

// Mount starts observing visibility and media time, and subscribes the
// comment count. It has no effect after the first call.
func (s *Surface) Mount() {
	s.mu.Lock()
	if s.mounted || s.unmounted {
		s.mu.Unlock()
		return
	}
	s.mounted = true
	s.mu.Unlock()

	remove := s.media.OnTimeUpdate(s.ctrl.OnTimeUpdate)
	var stop func()
	if s.viewport != nil {
		stop = s.viewport.Observe(VisibilityThreshold, s.ctrl.SetVisibility)
	}

	s.mu.Lock()
	if s.unmounted {
		s.mu.Unlock()
		remove()
		if stop != nil {
			stop()
		}
		return
	}
	s.removeTimeUpdate, s.stopObserving = remove, stop
	s.mu.Unlock()

	if s.comments != nil {
		s.comments.Watch(s.video.ID, s.video.CommentCount)
	}
}

// Unmount stops observing, detaches the time-update listener, pauses the
// media, releases the comment subscription and any drag in progress.
func (s *Surface) Unmount() {
	s.mu.Lock()
	if s.unmounted {
		s.mu.Unlock()
		return
	}
	s.unmounted = true
	stop, remove := s.stopObserving, s.removeTimeUpdate
	s.stopObserving, s.removeTimeUpdate = nil, nil
	s.mu.Unlock()

	if stop != nil {
		stop()
	}
	if remove != nil {
		remove()
	}
	s.ctrl.Unmount()
	if s.comments != nil {
		s.comments.Close()
	}
}

// Click handles a click on target and reports whether it toggled playback.
// Only clicks on the bare surface toggle; the seek track, the action column
// and overlays consume their clicks.
func (s *Surface) Click(target Target) bool {
	switch target {
	case TargetSurface:
		s.ctrl.Toggle()
		return true
	case TargetSeekTrack, TargetActions, TargetOverlay:
		return false
	default:
		return false
	}
}

// PressTrack starts a drag at x on the seek track.
func (s *Surface) PressTrack(x float64, track Rect) bool {
	return s.ctrl.PointerDown(x, track)
}

// OpenComments shows the comment overlay.
func (s *Surface) OpenComments() { s.setCommentsOpen(true) }

// CloseComments hides the comment overlay.
func (s *Surface) CloseComments() { s.setCommentsOpen(false) }

// CommentsOpen reports whether the comment overlay is shown.
func (s *Surface) CommentsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commentsOpen
}

func (s *Surface) setCommentsOpen(open bool) {
	s.mu.Lock()
	s.commentsOpen = open
	s.mu.Unlock()
}

// State returns the playback snapshot.
func (s *Surface) State() State { return s.ctrl.State() }

// CommentCount returns the live comment count, or the video's own counter
// when no subscriber is configured.
func (s *Surface) CommentCount() int {
	if s.comments == nil {
		return s.video.CommentCount
	}
	return s.comments.Count()
}

// Video returns the entity this surface plays.
func (s *Surface) Video() models.Video { return s.video }
