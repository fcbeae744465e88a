package performance

import (
	"testing"
	"time"
)

func TestRollingAverageComputesMean(t *testing.T) {
	r := NewRollingAverage(3)
	r.Add(10 * time.Millisecond)
	r.Add(20 * time.Millisecond)
	r.Add(30 * time.Millisecond)

	if got := r.Average(); got != 20*time.Millisecond {
		t.Fatalf("Average() = %v, want 20ms", got)
	}
}

func TestRollingAverageEvictsOldestSample(t *testing.T) {
	r := NewRollingAverage(2)
	r.Add(10 * time.Millisecond)
	r.Add(20 * time.Millisecond)
	r.Add(30 * time.Millisecond) // evicts the 10ms sample

	if got := r.Average(); got != 25*time.Millisecond {
		t.Fatalf("Average() after eviction = %v, want 25ms", got)
	}
}

func TestMonitorReportsDropRate(t *testing.T) {
	m := NewMonitor(10)
	for i := 0; i < 9; i++ {
		m.RecordFrameDecode(5 * time.Millisecond)
	}
	m.RecordFrameDropped()

	report := m.GetReport()
	if report.TotalFrames != 10 {
		t.Fatalf("TotalFrames = %d, want 10", report.TotalFrames)
	}
	if report.DroppedFrames != 1 {
		t.Fatalf("DroppedFrames = %d, want 1", report.DroppedFrames)
	}
	if report.DropRate != 10.0 {
		t.Fatalf("DropRate = %v, want 10.0", report.DropRate)
	}
}

func TestMonitorTracksAudioUnderruns(t *testing.T) {
	m := NewMonitor(10)
	m.RecordFrameDecode(5 * time.Millisecond)
	m.RecordAudioUnderruns(3)

	report := m.GetReport()
	if report.AudioUnderruns != 3 {
		t.Fatalf("AudioUnderruns = %d, want 3", report.AudioUnderruns)
	}
	if report.IsHealthy {
		t.Fatalf("IsHealthy = true, want false with outstanding underruns")
	}
}

func TestMonitorResetClearsCounters(t *testing.T) {
	m := NewMonitor(10)
	m.RecordFrameDecode(5 * time.Millisecond)
	m.RecordFrameDropped()
	m.Reset()

	report := m.GetReport()
	if report.TotalFrames != 0 || report.DroppedFrames != 0 {
		t.Fatalf("report after Reset() = %+v, want all-zero frame counts", report)
	}
}
