package performance

import (
	"log"
	"runtime"
	"time"
)

// MemorySnapshot is the system-wide memory state at a point in time.
// GetSystemMemory has a platform-specific implementation per build tag
// (memory_linux.go, memory_darwin.go): RGBA8 video frame buffers and
// decoded-thumbnail caches are the biggest per-asset consumers in this
// pipeline, so available memory is what governs how many VideoTexture
// instances can stay resident at once.
type MemorySnapshot struct {
	Timestamp   time.Time
	TotalMB     uint64
	AvailableMB uint64
	UsedMB      uint64
	FreeMB      uint64
}

// GetAvailableMemoryMB returns only the available memory in MB.
func GetAvailableMemoryMB() uint64 {
	return GetSystemMemory().AvailableMB
}

// GoMemoryStats is a snapshot of the Go runtime's own heap accounting,
// useful alongside MemorySnapshot to tell decoder-buffer growth apart from
// GC-retained garbage.
type GoMemoryStats struct {
	AllocMB      uint64
	TotalAllocMB uint64
	SysMB        uint64
	NumGC        uint32
}

// GetGoMemory retrieves Go runtime memory statistics.
func GetGoMemory() GoMemoryStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return GoMemoryStats{
		AllocMB:      m.Alloc / (1024 * 1024),
		TotalAllocMB: m.TotalAlloc / (1024 * 1024),
		SysMB:        m.Sys / (1024 * 1024),
		NumGC:        m.NumGC,
	}
}

// MemoryPressureLevel buckets available memory into the levels
// PerformanceMonitor.GetReport folds into its health check.
type MemoryPressureLevel int

const (
	MemoryPressureNone     MemoryPressureLevel = iota // >800MB available
	MemoryPressureLow                                 // 400-800MB available
	MemoryPressureMedium                              // 200-400MB available
	MemoryPressureHigh                                // 100-200MB available
	MemoryPressureCritical                            // <100MB available
)

// GetMemoryPressure returns the current memory pressure level.
func GetMemoryPressure() MemoryPressureLevel {
	switch available := GetAvailableMemoryMB(); {
	case available < 100:
		return MemoryPressureCritical
	case available < 200:
		return MemoryPressureHigh
	case available < 400:
		return MemoryPressureMedium
	case available < 800:
		return MemoryPressureLow
	default:
		return MemoryPressureNone
	}
}

func (m MemoryPressureLevel) String() string {
	switch m {
	case MemoryPressureNone:
		return "None"
	case MemoryPressureLow:
		return "Low"
	case MemoryPressureMedium:
		return "Medium"
	case MemoryPressureHigh:
		return "High"
	case MemoryPressureCritical:
		return "Critical"
	default:
		return "Unknown"
	}
}

// LogMemorySnapshot logs a combined system/Go-runtime/pressure snapshot;
// called periodically from the render loop rather than every frame.
func LogMemorySnapshot() {
	sys := GetSystemMemory()
	goMem := GetGoMemory()
	pressure := GetMemoryPressure()

	log.Printf("memory: system[total=%dMB avail=%dMB used=%dMB free=%dMB] go[alloc=%dMB sys=%dMB gc=%d] pressure=%s",
		sys.TotalMB, sys.AvailableMB, sys.UsedMB, sys.FreeMB,
		goMem.AllocMB, goMem.SysMB, goMem.NumGC,
		pressure)
}
