// Package input turns raw SDL keyboard/mouse state into the edge-triggered
// events the playback demo's controls need: "was this just pressed" rather
// than "is this held", plus a mouse-drag scrub gesture over the video
// surface.
package input

import "github.com/veandco/go-sdl2/sdl"

// KeyPressTracker reports a key transitioning from up to down, once per
// press, so a held key doesn't repeat an action every frame.
type KeyPressTracker struct {
	pressed map[sdl.Scancode]bool
}

func NewKeyPressTracker() KeyPressTracker {
	return KeyPressTracker{pressed: make(map[sdl.Scancode]bool)}
}

// IsPressed reports whether scancode is down this tick but was not down
// last tick.
func (kpt *KeyPressTracker) IsPressed(keyState []uint8, scancode sdl.Scancode) bool {
	isCurrentlyPressed := keyState[scancode] != 0
	wasPressed := kpt.pressed[scancode]
	kpt.pressed[scancode] = isCurrentlyPressed
	return isCurrentlyPressed && !wasPressed
}

// MousePressTracker reports a mouse button transitioning from up to down,
// keyed by SDL's button mask (e.g. sdl.ButtonLMask()).
type MousePressTracker struct {
	pressed map[uint32]bool
}

func NewMousePressTracker() MousePressTracker {
	return MousePressTracker{pressed: make(map[uint32]bool)}
}

func (mpt *MousePressTracker) IsPressed(mouseState uint32, buttonMask uint32) bool {
	isCurrentlyPressed := (mouseState & buttonMask) != 0
	wasPressed := mpt.pressed[buttonMask]
	mpt.pressed[buttonMask] = isCurrentlyPressed
	return isCurrentlyPressed && !wasPressed
}

// ScrubDragTracker turns a held left-mouse drag into a scrub delta: click
// down anywhere over the video surface, drag horizontally, and the caller
// translates the reported pixel delta into a FramePosition change instead of
// jumping fixed frame increments per keypress.
type ScrubDragTracker struct {
	dragging bool
	originX  int32
}

// Update feeds the current mouse state and x position and reports whether a
// drag is active along with the cumulative pixel delta since the drag
// started (0 on the press that begins it).
func (s *ScrubDragTracker) Update(mouseState uint32, x int32) (dragging bool, deltaX int32) {
	down := mouseState&sdl.ButtonLMask() != 0

	switch {
	case down && !s.dragging:
		s.dragging = true
		s.originX = x
		return true, 0
	case down && s.dragging:
		return true, x - s.originX
	default:
		s.dragging = false
		return false, 0
	}
}
