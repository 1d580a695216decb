package player

import (
	"errors"
	"sync"
)

// ErrPointerCaptured is returned by Document.Capture while another listener
// holds the pointer stream.
var ErrPointerCaptured = errors.New("player: pointer already captured")

// PointerListener receives the pointer stream while it holds a capture.
type PointerListener interface {
	PointerMove(x float64)
	PointerUp(x float64)
}

// Document routes document-level pointer moves and releases to at most one
// listener at a time. A controller captures it for the length of one drag,
// so two players sharing a document can never steer each other's seek.
type Document struct {
	mu         sync.Mutex
	dispatchMu sync.Mutex
	holder     *capture
}

type capture struct {
	listener PointerListener
}

// NewDocument returns an empty document with no capture.
func NewDocument() *Document {
	return &Document{}
}

var defaultDocument = NewDocument()

// DefaultDocument is the process-wide document used by controllers that are
// not given one explicitly.
func DefaultDocument() *Document {
	return defaultDocument
}

// Capture routes subsequent moves and releases to l until the returned
// release func is called. Release is idempotent and never affects a later
// capture.
func (d *Document) Capture(l PointerListener) (func(), error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.holder != nil {
		return nil, ErrPointerCaptured
	}
	c := &capture{listener: l}
	d.holder = c

	return func() {
		d.mu.Lock()
		if d.holder == c {
			d.holder = nil
		}
		d.mu.Unlock()
	}, nil
}

// Captured reports whether a listener currently holds the pointer stream.
func (d *Document) Captured() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.holder != nil
}

// Move dispatches a pointer move. Deliveries are serialized, so a listener
// sees events in dispatch order.
func (d *Document) Move(x float64) {
	d.dispatch(func(l PointerListener) { l.PointerMove(x) })
}

// Up dispatches a pointer release.
func (d *Document) Up(x float64) {
	d.dispatch(func(l PointerListener) { l.PointerUp(x) })
}

func (d *Document) dispatch(deliver func(PointerListener)) {
	d.dispatchMu.Lock()
	defer d.dispatchMu.Unlock()

	d.mu.Lock()
	holder := d.holder
	d.mu.Unlock()

	if holder != nil {
		deliver(holder.listener)
	}
}
