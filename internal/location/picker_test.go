// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package location_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/farmgate/internal/location"
	"github.com/taibuivan/farmgate/internal/platform/constants"
)

const testDebounce = 30 * time.Millisecond

// scriptedGeocoder names a point after its latitude. Lookups for points listed
// in hold block until their context is cancelled or released.
type scriptedGeocoder struct {
	mu       sync.Mutex
	calls    []location.Point
	aborted  []location.Point
	hold     map[float64]chan struct{}
	failures map[float64]bool
}

func newScriptedGeocoder() *scriptedGeocoder {
	return &scriptedGeocoder{hold: map[float64]chan struct{}{}, failures: map[float64]bool{}}
}

func (g *scriptedGeocoder) Reverse(ctx context.Context, point location.Point) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, point)
	gate := g.hold[point.Latitude]
	fail := g.failures[point.Latitude]
	g.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			g.mu.Lock()
			g.aborted = append(g.aborted, point)
			g.mu.Unlock()
			return "", ctx.Err()
		}
	}

	if fail {
		return "", errors.New("geocoder down")
	}
	return fmt.Sprintf("place-%v", point.Latitude), nil
}

func (g *scriptedGeocoder) snapshot() (calls, aborted []location.Point) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]location.Point(nil), g.calls...), append([]location.Point(nil), g.aborted...)
}

func settled(picker *location.Picker) func() bool {
	return func() bool { return !picker.State().Loading }
}

/*
TestPicker_RapidPicksLookUpOnlyTheLast picks several points inside one debounce window.
*/
func TestPicker_RapidPicksLookUpOnlyTheLast(t *testing.T) {
	geocoder := newScriptedGeocoder()
	picker := location.NewPicker(context.Background(), geocoder, testDebounce)
	defer picker.Close()

	for i := 1; i <= 5; i++ {
		require.NoError(t, picker.Pick(location.Point{Latitude: float64(i), Longitude: 100}))
		assert.True(t, picker.State().Loading)
	}

	require.Eventually(t, settled(picker), time.Second, 5*time.Millisecond)

	calls, _ := geocoder.snapshot()
	assert.Equal(t, []location.Point{{Latitude: 5, Longitude: 100}}, calls)

	state := picker.State()
	assert.Equal(t, "place-5", state.PlaceName)
	assert.Equal(t, 5.0, state.Point.Latitude)
}

/*
TestPicker_SupersededLookupIsAborted starts a lookup, then picks again.
*/
func TestPicker_SupersededLookupIsAborted(t *testing.T) {
	geocoder := newScriptedGeocoder()
	geocoder.hold[1] = make(chan struct{})

	picker := location.NewPicker(context.Background(), geocoder, testDebounce)
	defer picker.Close()

	require.NoError(t, picker.Pick(location.Point{Latitude: 1}))
	require.Eventually(t, func() bool {
		calls, _ := geocoder.snapshot()
		return len(calls) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, picker.Pick(location.Point{Latitude: 2}))
	require.Eventually(t, settled(picker), time.Second, 5*time.Millisecond)

	_, aborted := geocoder.snapshot()
	assert.Equal(t, []location.Point{{Latitude: 1}}, aborted)
	assert.Equal(t, "place-2", picker.State().PlaceName)

	// A late answer for the first point must not surface.
	close(geocoder.hold[1])
	time.Sleep(2 * testDebounce)
	assert.Equal(t, "place-2", picker.State().PlaceName)
}

/*
TestPicker_LastWriteWinsUnderRandomTiming interleaves picks around the debounce boundary.
*/
func TestPicker_LastWriteWinsUnderRandomTiming(t *testing.T) {
	geocoder := newScriptedGeocoder()
	picker := location.NewPicker(context.Background(), geocoder, testDebounce)
	defer picker.Close()

	gaps := []time.Duration{0, 10, 40, 5, 35, 0, 20}
	for i, gap := range gaps {
		time.Sleep(gap * time.Millisecond)
		require.NoError(t, picker.Pick(location.Point{Latitude: float64(i)}))
	}

	require.Eventually(t, settled(picker), time.Second, 5*time.Millisecond)
	last := float64(len(gaps) - 1)
	assert.Equal(t, fmt.Sprintf("place-%v", last), picker.State().PlaceName)
	assert.Equal(t, last, picker.State().Point.Latitude)
}

/*
TestPicker_FailureFallsBackToUnknown shows the fallback name.
*/
func TestPicker_FailureFallsBackToUnknown(t *testing.T) {
	geocoder := newScriptedGeocoder()
	geocoder.failures[7] = true

	picker := location.NewPicker(context.Background(), geocoder, testDebounce)
	defer picker.Close()

	require.NoError(t, picker.Pick(location.Point{Latitude: 7}))
	require.Eventually(t, settled(picker), time.Second, 5*time.Millisecond)
	assert.Equal(t, constants.UnknownLocation, picker.State().PlaceName)
}

/*
TestPicker_ConfirmAndCancel covers the hand-off and the discard path.
*/
func TestPicker_ConfirmAndCancel(t *testing.T) {
	geocoder := newScriptedGeocoder()
	picker := location.NewPicker(context.Background(), geocoder, testDebounce)
	defer picker.Close()

	_, err := picker.Confirm()
	assert.ErrorIs(t, err, location.ErrNothingPicked)

	require.NoError(t, picker.Pick(location.Point{Latitude: 3, Longitude: 4}))
	_, err = picker.Confirm()
	assert.ErrorIs(t, err, location.ErrLookupPending)

	require.Eventually(t, settled(picker), time.Second, 5*time.Millisecond)
	selection, err := picker.Confirm()
	require.NoError(t, err)
	assert.Equal(t, location.Selection{Latitude: 3, Longitude: 4, PlaceName: "place-3"}, selection)
	assert.Nil(t, picker.State().Point)

	require.NoError(t, picker.Pick(location.Point{Latitude: 9}))
	picker.Cancel()
	time.Sleep(2 * testDebounce)

	assert.Equal(t, location.State{}, picker.State())
	calls, _ := geocoder.snapshot()
	assert.Len(t, calls, 1, "cancelled pick is never looked up")

	picker.Close()
	assert.ErrorIs(t, picker.Pick(location.Point{}), location.ErrPickerClosed)
}

/*
TestPicker_Updates delivers the final state to a slow reader.
*/
func TestPicker_Updates(t *testing.T) {
	picker := location.NewPicker(context.Background(), newScriptedGeocoder(), testDebounce)
	defer picker.Close()

	require.NoError(t, picker.Pick(location.Point{Latitude: 1}))
	require.NoError(t, picker.Pick(location.Point{Latitude: 2}))
	require.Eventually(t, settled(picker), time.Second, 5*time.Millisecond)

	select {
	case state := <-picker.Updates():
		assert.False(t, state.Loading)
		assert.Equal(t, "place-2", state.PlaceName)
	case <-time.After(time.Second):
		t.Fatal("no update delivered")
	}
}
