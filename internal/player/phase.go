package player

// Phase is the coarse playback state of a controller.
type Phase int

const (
	// PhaseIdle: not in view, media paused.
	PhaseIdle Phase = iota

	// PhaseStarting: a play request was issued and has not resolved yet.
	PhaseStarting

	// PhasePlaying: media confirmed playing.
	PhasePlaying

	// PhasePaused: paused by the user while in view.
	PhasePaused

	// PhaseSeeking: a drag on the seek track is in progress.
	PhaseSeeking
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseStarting:
		return "Starting"
	case PhasePlaying:
		return "Playing"
	case PhasePaused:
		return "Paused"
	case PhaseSeeking:
		return "Seeking"
	default:
		return "Unknown"
	}
}

// state is the tagged variant behind Phase. Only the seeking variant
// carries a drag session, so a drag cannot exist outside of it.
type state interface {
	phase() Phase
}

type idleState struct{}

type startingState struct {
	gen    uint64
	cancel func()
}

type playingState struct{}

type pausedState struct{}

// seekingState resumes into playingState or pausedState on release.
type seekingState struct {
	resume state
	drag   *dragSession
}

func (idleState) phase() Phase     { return PhaseIdle }
func (startingState) phase() Phase { return PhaseStarting }
func (playingState) phase() Phase  { return PhasePlaying }
func (pausedState) phase() Phase   { return PhasePaused }
func (seekingState) phase() Phase  { return PhaseSeeking }
