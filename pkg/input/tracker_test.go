package input

import (
	"testing"

	"github.com/veandco/go-sdl2/sdl"
)

func TestKeyPressTrackerFiresOnceWhileHeld(t *testing.T) {
	kpt := NewKeyPressTracker()
	keyState := make([]uint8, 2)
	keyState[1] = 1

	if !kpt.IsPressed(keyState, 1) {
		t.Fatal("expected first IsPressed() to fire on initial press")
	}
	if kpt.IsPressed(keyState, 1) {
		t.Fatal("expected second IsPressed() to stay false while key is held")
	}

	keyState[1] = 0
	kpt.IsPressed(keyState, 1)
	keyState[1] = 1
	if !kpt.IsPressed(keyState, 1) {
		t.Fatal("expected IsPressed() to fire again after a release and re-press")
	}
}

func TestScrubDragTrackerReportsZeroDeltaOnPress(t *testing.T) {
	var s ScrubDragTracker

	dragging, delta := s.Update(sdl.ButtonLMask(), 100)
	if !dragging || delta != 0 {
		t.Fatalf("Update() on press = (%v, %v), want (true, 0)", dragging, delta)
	}
}

func TestScrubDragTrackerAccumulatesDeltaUntilRelease(t *testing.T) {
	var s ScrubDragTracker

	s.Update(sdl.ButtonLMask(), 100)
	dragging, delta := s.Update(sdl.ButtonLMask(), 140)
	if !dragging || delta != 40 {
		t.Fatalf("Update() mid-drag = (%v, %v), want (true, 40)", dragging, delta)
	}

	dragging, delta = s.Update(0, 140)
	if dragging || delta != 0 {
		t.Fatalf("Update() after release = (%v, %v), want (false, 0)", dragging, delta)
	}
}
