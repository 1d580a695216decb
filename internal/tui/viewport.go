package tui

import "sync"

// Viewport reports the visibility of one feed entry. The feed sets the
// ratio as the selection moves.
type Viewport struct {
	mu        sync.Mutex
	ratio     float64
	threshold float64
	onChange  func(float64)
}

func (v *Viewport) Observe(threshold float64, onChange func(ratio float64)) func() {
	v.mu.Lock()
	v.threshold = threshold
	v.onChange = onChange
	ratio := v.ratio
	v.mu.Unlock()

	if ratio >= threshold {
		onChange(ratio)
	}
	return func() {
		v.mu.Lock()
		v.onChange = nil
		v.mu.Unlock()
	}
}

// SetRatio records a new visible ratio and notifies the observer when the
// threshold is crossed in either direction.
func (v *Viewport) SetRatio(ratio float64) {
	v.mu.Lock()
	crossed := (v.ratio >= v.threshold) != (ratio >= v.threshold)
	v.ratio = ratio
	onChange := v.onChange
	v.mu.Unlock()

	if crossed && onChange != nil {
		onChange(ratio)
	}
}
