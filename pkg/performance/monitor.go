package performance

import (
	"sync"
	"time"
)

// RollingAverage maintains a rolling average of durations over a fixed window.
type RollingAverage struct {
	samples    []time.Duration
	maxSamples int
	sum        time.Duration
	index      int
	filled     bool
	mu         sync.RWMutex
}

// NewRollingAverage creates a rolling average tracker with the given window size.
func NewRollingAverage(windowSize int) *RollingAverage {
	return &RollingAverage{
		samples:    make([]time.Duration, windowSize),
		maxSamples: windowSize,
	}
}

// Add records a new sample, evicting the oldest once the window is full.
func (r *RollingAverage) Add(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.filled {
		r.sum -= r.samples[r.index]
	}

	r.samples[r.index] = d
	r.sum += d

	r.index++
	if r.index >= r.maxSamples {
		r.index = 0
		r.filled = true
	}
}

// Average returns the current rolling average.
func (r *RollingAverage) Average() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.filled && r.index == 0 {
		return 0
	}

	count := r.index
	if r.filled {
		count = r.maxSamples
	}
	if count == 0 {
		return 0
	}
	return r.sum / time.Duration(count)
}

// Count returns the number of samples currently tracked.
func (r *RollingAverage) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.filled {
		return r.maxSamples
	}
	return r.index
}

// Reset clears all samples.
func (r *RollingAverage) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sum = 0
	r.index = 0
	r.filled = false
	r.samples = make([]time.Duration, r.maxSamples)
}

// PerformanceMonitor tracks the two things that actually threaten smooth
// playback in this pipeline: decode latency (feeds FrameSkipper's pacing
// decisions) and audio fifo underruns (audible glitches the decoder didn't
// keep up with). There is no separate "render" stage to time here — SDL2's
// RenderGeometry/Present cost is negligible next to video decode, so unlike
// a general game-frame profiler this only tracks decode-side health.
type PerformanceMonitor struct {
	frameDecodeTimes *RollingAverage
	droppedFrames    int
	totalFrames      int
	audioUnderruns   int64
	startTime        time.Time
	mu               sync.RWMutex
}

// PerformanceReport contains aggregated performance metrics.
type PerformanceReport struct {
	AvgDecodeMs    float64             // average decode time in milliseconds
	DropRate       float64             // percentage of dropped (skipped) decode calls
	TotalFrames    int                 // total frames processed
	DroppedFrames  int                 // total frames dropped
	AudioUnderruns int64               // cumulative audio fifo underrun ticks
	MemoryPressure MemoryPressureLevel // system memory pressure at report time
	IsHealthy      bool                // true if decode, audio, and memory all look fine
	UptimeSeconds  int64               // seconds since the monitor started
}

// NewMonitor creates a new performance monitor. windowSize determines how
// many frames to average (120 = 2 seconds at 60fps).
func NewMonitor(windowSize int) *PerformanceMonitor {
	return &PerformanceMonitor{
		frameDecodeTimes: NewRollingAverage(windowSize),
		startTime:        time.Now(),
	}
}

// RecordFrameDecode records the time taken to decode a frame.
func (p *PerformanceMonitor) RecordFrameDecode(duration time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameDecodeTimes.Add(duration)
	p.totalFrames++
}

// RecordFrameDropped increments the dropped (skipped-decode) frame counter.
func (p *PerformanceMonitor) RecordFrameDropped() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.droppedFrames++
	p.totalFrames++
}

// RecordAudioUnderruns sets the cumulative audio underrun count observed so
// far; the caller samples AudioOutput.Underruns() and passes the running
// total rather than a delta, since the pump goroutine owns the real counter.
func (p *PerformanceMonitor) RecordAudioUnderruns(total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.audioUnderruns = total
}

// GetReport generates a performance report with current metrics.
func (p *PerformanceMonitor) GetReport() PerformanceReport {
	p.mu.RLock()
	defer p.mu.RUnlock()

	avgDecode := p.frameDecodeTimes.Average()

	dropRate := 0.0
	if p.totalFrames > 0 {
		dropRate = (float64(p.droppedFrames) / float64(p.totalFrames)) * 100.0
	}

	pressure := GetMemoryPressure()
	isHealthy := dropRate < 1.0 && avgDecode.Milliseconds() < 33 &&
		p.audioUnderruns == 0 && pressure < MemoryPressureHigh

	return PerformanceReport{
		AvgDecodeMs:    float64(avgDecode.Microseconds()) / 1000.0,
		DropRate:       dropRate,
		TotalFrames:    p.totalFrames,
		DroppedFrames:  p.droppedFrames,
		AudioUnderruns: p.audioUnderruns,
		MemoryPressure: pressure,
		IsHealthy:      isHealthy,
		UptimeSeconds:  int64(time.Since(p.startTime).Seconds()),
	}
}

// IsPerformanceDegrading returns true if decode latency or the drop rate
// indicate playback is falling behind badly enough to need a more
// aggressive FrameSkipper mode.
func (p *PerformanceMonitor) IsPerformanceDegrading() bool {
	report := p.GetReport()
	return report.DropRate > 5.0 || report.AvgDecodeMs > 30.0 || report.MemoryPressure >= MemoryPressureHigh
}

// Reset clears all performance metrics.
func (p *PerformanceMonitor) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameDecodeTimes.Reset()
	p.droppedFrames = 0
	p.totalFrames = 0
	p.audioUnderruns = 0
	p.startTime = time.Now()
}
