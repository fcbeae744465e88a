package performance

import (
	"log"
	"sync"
	"time"
)

// SkipMode represents the current frame skipping strategy.
type SkipMode int

const (
	ModeNormal SkipMode = iota // Decode every frame (60fps target)
	ModeSkip2                  // Decode every 2nd frame (30fps effective)
	ModeSkip3                  // Decode every 3rd frame (20fps effective)
)

func (m SkipMode) String() string {
	switch m {
	case ModeNormal:
		return "Normal(60fps)"
	case ModeSkip2:
		return "Skip2(30fps)"
	case ModeSkip3:
		return "Skip3(20fps)"
	default:
		return "Unknown"
	}
}

// FrameSkipper adaptively skips video decoding based on recent decode
// latency. It is an optional pacing strategy the playback controller may
// consult instead of always busy-sleeping to the clock's PTS.
type FrameSkipper struct {
	mode            SkipMode
	frameCounter    uint64
	consecutiveSlow int
	consecutiveGood int

	slowThreshold time.Duration
	goodThreshold time.Duration

	enterSkip2After   int
	enterSkip3After   int
	exitToNormalAfter int
	exitToSkip2After  int

	mu sync.RWMutex
}

// SkipDecision contains the frame skip decision and reasoning.
type SkipDecision struct {
	ShouldDecode bool
	ShouldSkip   bool
	Reason       string
	CurrentMode  SkipMode
}

// NewFrameSkipper creates a new adaptive frame skipper with sensible defaults.
func NewFrameSkipper() *FrameSkipper {
	return &FrameSkipper{
		mode:          ModeNormal,
		slowThreshold: 30 * time.Millisecond,
		goodThreshold: 20 * time.Millisecond,

		enterSkip2After:   3,
		enterSkip3After:   5,
		exitToNormalAfter: 60,
		exitToSkip2After:  30,
	}
}

// ShouldDecode returns a decision on whether to decode the next frame. Call
// this before the controller advances playback for the frame.
func (f *FrameSkipper) ShouldDecode(report PerformanceReport) SkipDecision {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.frameCounter++
	f.updateModeLocked(report)
	return f.makeDecisionLocked()
}

func (f *FrameSkipper) updateModeLocked(report PerformanceReport) {
	avgDecode := time.Duration(report.AvgDecodeMs * float64(time.Millisecond))

	if avgDecode > f.slowThreshold {
		f.consecutiveSlow++
		f.consecutiveGood = 0
	} else if avgDecode < f.goodThreshold {
		f.consecutiveGood++
		f.consecutiveSlow = 0
	} else {
		f.consecutiveSlow = 0
		f.consecutiveGood = 0
	}

	// Critical memory pressure shortcuts the hysteresis entirely: shedding
	// decode work (and the frame buffers that come with it) matters more
	// than smooth mode transitions once the system is this starved.
	if report.MemoryPressure >= MemoryPressureCritical && f.mode != ModeSkip3 {
		f.mode = ModeSkip3
		f.consecutiveSlow = 0
		f.consecutiveGood = 0
		log.Printf("FrameSkipper: memory pressure critical, forcing Skip3 (20fps decode)")
		return
	}

	switch f.mode {
	case ModeNormal:
		if f.consecutiveSlow >= f.enterSkip2After {
			f.mode = ModeSkip2
			f.consecutiveSlow = 0
			log.Printf("FrameSkipper: performance degrading, entering Skip2 (30fps decode)")
		}
	case ModeSkip2:
		if f.consecutiveSlow >= f.enterSkip3After {
			f.mode = ModeSkip3
			f.consecutiveSlow = 0
			log.Printf("FrameSkipper: performance still degrading, entering Skip3 (20fps decode)")
		} else if f.consecutiveGood >= f.exitToNormalAfter {
			f.mode = ModeNormal
			f.consecutiveGood = 0
			log.Printf("FrameSkipper: performance recovered, returning to Normal")
		}
	case ModeSkip3:
		if f.consecutiveGood >= f.exitToSkip2After {
			f.mode = ModeSkip2
			f.consecutiveGood = 0
			log.Printf("FrameSkipper: performance improving, upgrading to Skip2")
		}
	}
}

func (f *FrameSkipper) makeDecisionLocked() SkipDecision {
	switch f.mode {
	case ModeNormal:
		return SkipDecision{ShouldDecode: true, Reason: "normal:decode_all", CurrentMode: ModeNormal}
	case ModeSkip2:
		shouldDecode := f.frameCounter%2 == 0
		reason := "skip2:decode"
		if !shouldDecode {
			reason = "skip2:skip"
		}
		return SkipDecision{ShouldDecode: shouldDecode, ShouldSkip: !shouldDecode, Reason: reason, CurrentMode: ModeSkip2}
	case ModeSkip3:
		shouldDecode := f.frameCounter%3 == 0
		reason := "skip3:decode"
		if !shouldDecode {
			reason = "skip3:skip"
		}
		return SkipDecision{ShouldDecode: shouldDecode, ShouldSkip: !shouldDecode, Reason: reason, CurrentMode: ModeSkip3}
	}
	return SkipDecision{ShouldDecode: true, Reason: "fallback:decode", CurrentMode: f.mode}
}

// Reset returns the frame skipper to Normal mode; call when switching videos.
func (f *FrameSkipper) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	oldMode := f.mode
	f.mode = ModeNormal
	f.frameCounter = 0
	f.consecutiveSlow = 0
	f.consecutiveGood = 0

	if oldMode != ModeNormal {
		log.Printf("FrameSkipper: reset to Normal mode")
	}
}

func (f *FrameSkipper) GetMode() SkipMode {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.mode
}

// FrameSkipperStats contains current state of the frame skipper.
type FrameSkipperStats struct {
	Mode            SkipMode
	FrameCounter    uint64
	ConsecutiveSlow int
	ConsecutiveGood int
}

func (f *FrameSkipper) GetStats() FrameSkipperStats {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return FrameSkipperStats{
		Mode:            f.mode,
		FrameCounter:    f.frameCounter,
		ConsecutiveSlow: f.consecutiveSlow,
		ConsecutiveGood: f.consecutiveGood,
	}
}

// SetThresholds customizes the performance thresholds, useful for tuning on
// different hardware.
func (f *FrameSkipper) SetThresholds(slowMs, goodMs float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.slowThreshold = time.Duration(slowMs * float64(time.Millisecond))
	f.goodThreshold = time.Duration(goodMs * float64(time.Millisecond))
	log.Printf("FrameSkipper: thresholds updated (slow>%.1fms, good<%.1fms)", slowMs, goodMs)
}
