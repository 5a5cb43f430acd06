// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package location

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/taibuivan/farmgate/internal/platform/constants"
)

// DefaultDebounce is the quiet period between the last pick and its lookup.
const DefaultDebounce = 500 * time.Millisecond

// Picker errors.
var (
	ErrNothingPicked = errors.New("location: no point selected")
	ErrLookupPending = errors.New("location: place name still loading")
	ErrPickerClosed  = errors.New("location: picker closed")
)

// State is what the map shows for the current selection.
type State struct {
	Point     *Point `json:"point,omitempty"`
	PlaceName string `json:"place_name,omitempty"`
	Loading   bool   `json:"loading"`
}

// Selection is what a confirmed pick hands back to the caller.
type Selection struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	PlaceName string  `json:"place_name"`
}

/*
Picker tracks one seller's point selection.

Every [Picker.Pick] starts a new generation. The lookup of a generation is
scheduled after the debounce window; a newer pick stops the timer of the
previous generation, and if that lookup has already started its context is
cancelled. A lookup result is applied only while its generation is current,
so earlier picks can never overwrite the place name of a later one.

Picker is safe for concurrent use.
*/
type Picker struct {
	geocoder Geocoder
	debounce time.Duration
	baseCtx  context.Context

	mu         sync.Mutex
	generation uint64
	timer      *time.Timer
	cancel     context.CancelFunc
	state      State
	closed     bool

	updates chan State
}

// NewPicker creates a picker. ctx bounds every lookup it will run.
func NewPicker(ctx context.Context, geocoder Geocoder, debounce time.Duration) *Picker {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Picker{
		geocoder: geocoder,
		debounce: debounce,
		baseCtx:  ctx,
		updates:  make(chan State, 1),
	}
}

// Updates delivers the latest state after every change. Intermediate states
// may be skipped when the reader is slower than the picks; the last one never is.
func (picker *Picker) Updates() <-chan State {
	return picker.updates
}

// Pick selects point and schedules its lookup after the debounce window.
func (picker *Picker) Pick(point Point) error {
	picker.mu.Lock()
	defer picker.mu.Unlock()

	if picker.closed {
		return ErrPickerClosed
	}

	picker.supersede()
	generation := picker.generation

	picker.state = State{Point: &point, Loading: true}
	picker.timer = time.AfterFunc(picker.debounce, func() {
		picker.lookup(generation, point)
	})

	picker.publish()
	return nil
}

// State returns a snapshot of the current selection.
func (picker *Picker) State() State {
	picker.mu.Lock()
	defer picker.mu.Unlock()
	return picker.snapshot()
}

/*
Confirm hands back the selection and clears the picker.

Returns:
  - Selection: Point and resolved place name
  - error: ErrNothingPicked, or ErrLookupPending while the name is loading
*/
func (picker *Picker) Confirm() (Selection, error) {
	picker.mu.Lock()
	defer picker.mu.Unlock()

	if picker.closed {
		return Selection{}, ErrPickerClosed
	}
	if picker.state.Point == nil {
		return Selection{}, ErrNothingPicked
	}
	if picker.state.Loading {
		return Selection{}, ErrLookupPending
	}

	selection := Selection{
		Latitude:  picker.state.Point.Latitude,
		Longitude: picker.state.Point.Longitude,
		PlaceName: picker.state.PlaceName,
	}

	picker.supersede()
	picker.state = State{}
	return selection, nil
}

// Cancel discards the selection and aborts pending work.
func (picker *Picker) Cancel() {
	picker.mu.Lock()
	defer picker.mu.Unlock()

	if picker.closed {
		return
	}

	picker.supersede()
	picker.state = State{}
	picker.publish()
}

// Close cancels pending work and stops accepting picks.
func (picker *Picker) Close() {
	picker.mu.Lock()
	defer picker.mu.Unlock()

	picker.supersede()
	picker.closed = true
}

// # Internals

// supersede ends the current generation. Caller holds mu.
func (picker *Picker) supersede() {
	picker.generation++

	if picker.timer != nil {
		picker.timer.Stop()
		picker.timer = nil
	}
	if picker.cancel != nil {
		picker.cancel()
		picker.cancel = nil
	}
}

// lookup runs the geocoding of one generation once its debounce has elapsed.
func (picker *Picker) lookup(generation uint64, point Point) {
	picker.mu.Lock()
	if generation != picker.generation || picker.closed {
		picker.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(picker.baseCtx)
	picker.cancel = cancel
	picker.mu.Unlock()

	name, err := picker.geocoder.Reverse(ctx, point)

	picker.mu.Lock()
	defer picker.mu.Unlock()
	cancel()

	if generation != picker.generation || picker.closed {
		return
	}
	picker.cancel = nil

	if err != nil || name == "" {
		name = constants.UnknownLocation
	}
	picker.state.PlaceName = name
	picker.state.Loading = false
	picker.publish()
}

// publish replaces any unread state with the current one. Caller holds mu.
func (picker *Picker) publish() {
	select {
	case <-picker.updates:
	default:
	}
	picker.updates <- picker.snapshot()
}

func (picker *Picker) snapshot() State {
	state := picker.state
	if state.Point != nil {
		point := *state.Point
		state.Point = &point
	}
	return state
}
