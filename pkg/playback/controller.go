// Package playback implements the per-entity playback state machine that
// drives a videotexture.VideoTexture each frame. Every bit of per-instance
// state (pause flag, rendering flag, frame position, ...) lives on
// VideoData, one per on-screen instance, rather than as a process-wide
// mutable.
package playback

import (
	"log"
	"time"

	"videocore/pkg/clock"
	"videocore/pkg/performance"
	"videocore/pkg/videotexture"
)

// VideoData holds everything the controller needs to drive one playing (or
// paused, or scrubbing) video instance.
type VideoData struct {
	PlayVideo  bool // advance playback; false + FramePosition==0 means STOP
	PauseVideo bool // hold the current frame without advancing the clock
	Loop       bool
	BounceLoop bool

	// FramePosition selects SCRUB mode when non-zero and PlayVideo is false:
	// the controller seeks to FramePosition*VideoPacketDuration instead of
	// advancing normally. While PlayVideo is true, a non-zero value is taken
	// by PLAY as its starting frame and reset to 0.
	FramePosition int64

	// LastScrubFrame records the frame SCRUB last sought to (0 once STOP or
	// PLAY has moved the decoder elsewhere) so renderCertainFrame can tell
	// whether the scrub target actually changed.
	LastScrubFrame int64

	// Mirrored display counters, copied from the VideoTexture's duration
	// readout on every mode that successfully reads from a decoder so the
	// UI can show them without touching decoder state itself.
	Hours, Minutes, Seconds int
	Micros, NumberOfFrames  int64

	clock                 *clock.Clock
	isRenderingVideo      bool
	restartPointFromPause float64

	// presentationTimestamp stashes, in seconds, the seek target computed
	// when PLAY is entered with a pending scrub position, and is reset to 0
	// on loop wraparound. No render path reads it back.
	presentationTimestamp float64
}

// mirrorCounters copies the asset's duration-derived display counters onto
// vd; called whenever a render path successfully reads from a decoder.
func (vd *VideoData) mirrorCounters(texture *videotexture.VideoTexture) {
	vd.Hours, vd.Minutes, vd.Seconds, vd.Micros, vd.NumberOfFrames = texture.Counters()
}

// NewVideoData returns a VideoData ready for first use in STOP mode.
func NewVideoData() *VideoData {
	return &VideoData{clock: clock.New()}
}

// Controller advances one VideoTexture's decode/seek/audio state according
// to its VideoData, each frame, from DrawVideoSprite.
type Controller struct {
	texture *videotexture.VideoTexture

	monitor  *performance.PerformanceMonitor
	skipper  *performance.FrameSkipper
	lastSkip performance.SkipDecision
}

func NewController(texture *videotexture.VideoTexture) *Controller {
	return &Controller{texture: texture}
}

// EnableAdaptivePacing turns on an optional decode-pacing strategy: instead
// of always decoding and busy-sleeping to the clock, renderVideo consults a
// FrameSkipper fed by a rolling PerformanceMonitor and skips decode calls
// under sustained decode pressure. This never changes STOP/SCRUB behaviour,
// only how PLAY paces its ReadAndUploadVideoFrame calls.
func (c *Controller) EnableAdaptivePacing() {
	c.monitor = performance.NewMonitor(120)
	c.skipper = performance.NewFrameSkipper()
}

// Stats returns the adaptive-pacing performance report, or the zero value
// if EnableAdaptivePacing was never called.
func (c *Controller) Stats() performance.PerformanceReport {
	if c.monitor == nil {
		return performance.PerformanceReport{}
	}
	return c.monitor.GetReport()
}

// DrawVideoSprite dispatches to PLAY, STOP, or SCRUB based on
// (PlayVideo, FramePosition==0).
func (c *Controller) DrawVideoSprite(vd *VideoData) error {
	switch {
	case vd.PlayVideo:
		return c.renderVideo(vd)
	case vd.FramePosition == 0:
		return c.renderFrame(vd)
	default:
		return c.renderCertainFrame(vd)
	}
}

// renderVideo is PLAY mode: continuous playback, driven by the wall clock.
func (c *Controller) renderVideo(vd *VideoData) error {
	if !vd.isRenderingVideo {
		vd.isRenderingVideo = true
		vd.clock.SetTime(0)
	}

	// PLAY moves the decoder off any frame SCRUB parked on, so a later scrub
	// back to that same frame has to seek again.
	vd.LastScrubFrame = 0

	// A pending scrub position means the user sought to a frame before
	// pressing play: carry that frame over as the PLAY session's starting
	// point instead of silently discarding it and playing from the top.
	if vd.FramePosition != 0 {
		targetSeconds := float64(vd.FramePosition) / frameRateOrDefault(c.texture.FrameRate())
		vd.clock.SetTime(targetSeconds)
		if err := c.texture.SeekVideo(targetSeconds); err != nil {
			return err
		}
		vd.presentationTimestamp = targetSeconds
		vd.FramePosition = 0
	}

	if err := c.texture.ReadAndPlayAudio(); err != nil {
		log.Printf("playback: read audio: %v", err)
	}
	c.texture.PauseAudio(vd.PauseVideo)
	if c.monitor != nil {
		c.monitor.RecordAudioUnderruns(c.texture.AudioUnderruns())
	}

	if vd.PauseVideo {
		// Hold on the current frame: remember where resume should measure
		// elapsed time from, but do not decode further.
		if vd.restartPointFromPause == 0 {
			vd.restartPointFromPause = vd.clock.Now()
		}
		return nil
	}

	if c.skipper != nil {
		c.lastSkip = c.skipper.ShouldDecode(c.monitor.GetReport())
		if c.lastSkip.ShouldSkip {
			return nil // hold the last uploaded frame on screen this tick
		}
	}

	elapsed := vd.clock.Now() - vd.restartPointFromPause
	vd.restartPointFromPause = 0

	decodeStart := vd.clock.Now()
	ok, _, err := c.texture.ReadAndUploadVideoFrame(false)
	if c.monitor != nil {
		c.monitor.RecordFrameDecode(time.Duration((vd.clock.Now() - decodeStart) * float64(time.Second)))
	}
	if err != nil {
		return err
	}
	if !ok {
		// End of stream: loop, bounce, or stop.
		if vd.Loop || vd.BounceLoop {
			if err := c.texture.SeekAudio(0); err != nil {
				log.Printf("playback: seek audio to 0: %v", err)
			}
			if err := c.texture.SeekVideo(0); err != nil {
				return err
			}
			vd.clock.SetTime(0)
			vd.restartPointFromPause = 0
			vd.presentationTimestamp = 0
			return nil
		}
		// isRenderingVideo stays set so the next STOP tick rewinds both
		// streams to the start.
		vd.PlayVideo = false
		return nil
	}

	vd.mirrorCounters(c.texture)

	// Busy-sleep the decode rate down to the clock's pace: if we decoded
	// faster than the frame actually needs to be displayed, give the
	// scheduler the remainder back rather than racing ahead of audio.
	if elapsed < 0 {
		time.Sleep(time.Duration(-elapsed * float64(time.Second)))
	}
	return nil
}

// renderFrame is STOP mode (FramePosition == 0, not playing): seek back to
// the start and hold there, audio stopped.
func (c *Controller) renderFrame(vd *VideoData) error {
	if vd.LastScrubFrame == 0 && !vd.isRenderingVideo {
		return nil // already stopped at frame 0; nothing to do
	}

	c.texture.PauseAudio(true)
	if err := c.texture.SeekAudio(0); err != nil {
		log.Printf("playback: seek audio to 0: %v", err)
	}
	if err := c.texture.SeekVideo(0); err != nil {
		return err
	}

	vd.clock.SetTime(0)
	vd.restartPointFromPause = 0
	vd.isRenderingVideo = false
	vd.LastScrubFrame = 0
	vd.mirrorCounters(c.texture)
	return nil
}

// renderCertainFrame is SCRUB mode (FramePosition != 0): stop audio before
// seeking, then seek both decoders to FramePosition*PacketDurationSeconds
// and decode exactly one frame to display.
func (c *Controller) renderCertainFrame(vd *VideoData) error {
	if vd.FramePosition == vd.LastScrubFrame {
		return nil // already parked on this frame; nothing to redo
	}

	c.texture.PauseAudio(true)

	targetSeconds := float64(vd.FramePosition) * c.texture.PacketDurationSeconds()

	if err := c.texture.SeekAudio(targetSeconds); err != nil {
		log.Printf("playback: seek audio to scrub target: %v", err)
	}
	if err := c.texture.SeekVideo(targetSeconds); err != nil {
		return err
	}

	if _, _, err := c.texture.ReadAndUploadVideoFrame(true); err != nil {
		return err
	}

	vd.LastScrubFrame = vd.FramePosition
	vd.mirrorCounters(c.texture)
	return nil
}

// frameRateOrDefault guards against a zero or unreported frame rate when
// converting a scrubbed frame position into seconds.
func frameRateOrDefault(rate float64) float64 {
	if rate <= 0 {
		return 30
	}
	return rate
}

