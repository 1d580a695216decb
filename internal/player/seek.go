package player

import "math"

// Rect is the horizontal extent of a seek track in the same coordinate
// space as pointer events.
type Rect struct {
	Left  float64
	Width float64
}

// LaidOut reports whether the track has usable geometry. A track that has
// not been laid out yet has zero width.
func (r Rect) LaidOut() bool {
	return r.Width > 0 && isFinite(r.Width) && isFinite(r.Left)
}

// SeekFraction maps a pointer x coordinate onto the track as a fraction in
// [0,1]. Pointers outside the track clamp to the nearest end. It returns
// false for a track that is not laid out, in which case no seek should be
// performed.
func SeekFraction(pointerX float64, track Rect) (float64, bool) {
	if !track.LaidOut() || math.IsNaN(pointerX) {
		return 0, false
	}
	return clamp01((pointerX - track.Left) / track.Width), true
}

// Progress returns current/duration clamped to [0,1]. It returns false when
// the duration is not known yet (zero, negative, NaN or infinite) so callers
// keep their previous value instead of propagating NaN.
func Progress(current, duration float64) (float64, bool) {
	if !validDuration(duration) || math.IsNaN(current) {
		return 0, false
	}
	return clamp01(current / duration), true
}

// Percent is Progress scaled to [0,100], or 0 when the duration is unknown.
func Percent(current, duration float64) float64 {
	p, ok := Progress(current, duration)
	if !ok {
		return 0
	}
	return p * 100
}

func validDuration(d float64) bool {
	return d > 0 && isFinite(d)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
