package player

import "context"

// Media is the playback primitive a controller drives.
//
// Play blocks until playback has started or was refused (for example by an
// autoplay policy) and must return promptly once ctx is cancelled.
// OnTimeUpdate registers fn to be called while playing at a rate of the
// implementation's choosing; implementations must not hold internal locks
// while calling fn.
type Media interface {
	Play(ctx context.Context) error
	Pause()
	CurrentTime() float64
	SetCurrentTime(seconds float64)
	Duration() float64
	OnTimeUpdate(fn func()) (remove func())
}

// Viewport reports how much of an observed element is visible. onChange is
// called with the visible ratio whenever it crosses threshold.
type Viewport interface {
	Observe(threshold float64, onChange func(ratio float64)) (stop func())
}
