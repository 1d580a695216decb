package player

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
)

// VisibilityThreshold is the visible ratio at which an entry starts playing.
const VisibilityThreshold = 0.5

// State is a snapshot of a controller.
type State struct {
	Phase       Phase
	IsPlaying   bool
	CurrentTime float64
	Duration    float64
	Progress    float64
	IsDragging  bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithDocument sets the document whose pointer stream drags capture.
func WithDocument(d *Document) Option {
	return func(c *Controller) { c.doc = d }
}

// WithLogger sets the logger used for recoverable failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithOnChange registers fn to receive a snapshot after every handled event.
func WithOnChange(fn func(State)) Option {
	return func(c *Controller) { c.onChange = fn }
}

func withSpawn(spawn func(func())) Option {
	return func(c *Controller) { c.spawn = spawn }
}

// Controller owns the playback state of one media element. All methods are
// safe for concurrent use; events are applied one at a time.
type Controller struct {
	media    Media
	doc      *Document
	logger   *slog.Logger
	onChange func(State)
	spawn    func(func())

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	st       state
	visible  bool
	current  float64
	duration float64
	progress float64
	gen      uint64
	closed   bool
	jobs     []func()
}

// NewController returns an idle controller for media.
func NewController(media Media, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		media:  media,
		doc:    DefaultDocument(),
		logger: slog.Default(),
		spawn:  func(f func()) { go f() },
		ctx:    ctx,
		cancel: cancel,
		st:     idleState{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// SetVisibility applies a visible-area ratio reported for the surface.
// Crossing VisibilityThreshold upwards requests playback; dropping below it
// pauses. A drag in progress is left alone and the new visibility is applied
// when it ends.
func (c *Controller) SetVisibility(ratio float64) {
	c.do(func() {
		c.visible = !math.IsNaN(ratio) && ratio >= VisibilityThreshold

		switch st := c.st.(type) {
		case idleState:
			if c.visible {
				c.startLocked()
			}
		case startingState:
			if !c.visible {
				st.cancel()
				c.media.Pause()
				c.st = idleState{}
			}
		case playingState, pausedState:
			if !c.visible {
				c.media.Pause()
				c.st = idleState{}
			}
		case seekingState:
		}
	})
}

// Toggle flips between playing and paused, as a click on the surface does.
// It is ignored while a drag is in progress, and while idle it only starts
// playback for a visible surface.
func (c *Controller) Toggle() {
	c.do(func() {
		switch st := c.st.(type) {
		case playingState:
			c.media.Pause()
			c.st = pausedState{}
		case pausedState:
			c.startLocked()
		case idleState:
			if c.visible {
				c.startLocked()
			}
		case startingState:
			st.cancel()
			c.media.Pause()
			c.st = pausedState{}
		case seekingState:
		}
	})
}

// PointerDown starts a drag on the seek track. The position is applied
// immediately and the document pointer stream is captured until release.
// It reports whether a drag started: drags begin only while playing or
// paused, and only when no other drag holds the document.
func (c *Controller) PointerDown(x float64, track Rect) bool {
	started := false
	c.do(func() {
		var resume state
		switch st := c.st.(type) {
		case playingState, pausedState:
			resume = st
		case idleState, startingState, seekingState:
			return
		}

		s := &dragSession{c: c, track: track}
		release, err := c.doc.Capture(s)
		if err != nil {
			c.logger.Debug("player: drag not started", "error", err)
			return
		}
		s.release = release
		c.st = seekingState{resume: resume, drag: s}
		c.seekLocked(x, track)
		started = true
	})
	return started
}

// OnTimeUpdate pulls the media's current time and duration. It is a no-op
// during a drag, where the pointer is the only source of progress.
func (c *Controller) OnTimeUpdate() {
	c.do(func() {
		if _, seeking := c.st.(seekingState); seeking {
			return
		}
		cur, dur := c.media.CurrentTime(), c.media.Duration()
		if validDuration(dur) {
			c.duration = dur
			if p, ok := Progress(cur, dur); ok {
				c.progress = p
			}
		}
		if isFinite(cur) && cur >= 0 {
			c.current = cur
		}
	})
}

// Unmount tears the controller down: any drag capture is released, a pending
// play is cancelled and the media paused. Later events are ignored.
func (c *Controller) Unmount() {
	c.do(func() {
		switch st := c.st.(type) {
		case startingState:
			st.cancel()
		case seekingState:
			st.drag.release()
		case idleState, playingState, pausedState:
		}
		c.closed = true
		c.cancel()
		c.media.Pause()
		c.st = idleState{}
	})
}

func (c *Controller) do(fn func()) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	fn()
	snap := c.snapshotLocked()
	jobs := c.jobs
	c.jobs = nil
	onChange := c.onChange
	c.mu.Unlock()

	if onChange != nil {
		onChange(snap)
	}
	for _, job := range jobs {
		c.spawn(job)
	}
}

func (c *Controller) snapshotLocked() State {
	s := State{
		Phase:       c.st.phase(),
		CurrentTime: c.current,
		Duration:    c.duration,
		Progress:    c.progress,
	}
	switch st := c.st.(type) {
	case playingState:
		s.IsPlaying = true
	case seekingState:
		s.IsDragging = true
		_, s.IsPlaying = st.resume.(playingState)
	case idleState, startingState, pausedState:
	}
	return s
}

// startLocked issues a play request. The request runs outside the lock and
// settles through settlePlay; the generation ties the outcome to this
// request so a late answer cannot resurrect a state the user already left.
func (c *Controller) startLocked() {
	c.gen++
	gen := c.gen
	ctx, cancel := context.WithCancel(c.ctx)
	c.st = startingState{gen: gen, cancel: cancel}

	c.jobs = append(c.jobs, func() {
		err := c.media.Play(ctx)
		c.settlePlay(gen, err)
		cancel()
	})
}

func (c *Controller) settlePlay(gen uint64, err error) {
	c.do(func() {
		st, ok := c.st.(startingState)
		if !ok || st.gen != gen {
			if err == nil && !c.wantsPlaybackLocked() {
				c.media.Pause()
			}
			return
		}
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				c.logger.Warn("player: play request rejected", "error", err)
			}
			c.st = idleState{}
			return
		}
		c.st = playingState{}
	})
}

func (c *Controller) wantsPlaybackLocked() bool {
	switch st := c.st.(type) {
	case playingState, startingState:
		return true
	case seekingState:
		_, playing := st.resume.(playingState)
		return playing
	default:
		return false
	}
}

func (c *Controller) seekLocked(x float64, track Rect) {
	frac, ok := SeekFraction(x, track)
	if !ok {
		return
	}
	c.progress = frac

	dur := c.media.Duration()
	if !validDuration(dur) {
		return
	}
	c.duration = dur
	c.current = frac * dur
	c.media.SetCurrentTime(c.current)
}

func (c *Controller) dragMove(s *dragSession, x float64) {
	c.do(func() {
		if st, ok := c.st.(seekingState); !ok || st.drag != s {
			return
		}
		c.seekLocked(x, s.track)
	})
}

func (c *Controller) dragEnd(s *dragSession, x float64) {
	c.do(func() {
		st, ok := c.st.(seekingState)
		if !ok || st.drag != s {
			return
		}
		c.seekLocked(x, s.track)
		s.release()

		if !c.visible {
			c.media.Pause()
			c.st = idleState{}
			return
		}
		c.st = st.resume
	})
}

// dragSession is the capture a controller holds for one drag. It keeps the
// track geometry from pointer-down so moves never look the track up again.
type dragSession struct {
	c       *Controller
	track   Rect
	release func()
}

func (s *dragSession) PointerMove(x float64) { s.c.dragMove(s, x) }
func (s *dragSession) PointerUp(x float64)   { s.c.dragEnd(s, x) }
