package model

import "time"

// PerformanceStatus is a coarse health classification of a snapshot.
type PerformanceStatus int

const (
	StatusHealthy PerformanceStatus = iota
	StatusMemoryHigh
	StatusWarning
	StatusCritical
)

// String returns status name.
func (s PerformanceStatus) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusMemoryHigh:
		return "memory_high"
	case StatusWarning:
		return "warning"
	case StatusCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Status classification thresholds.
const (
	CriticalTickRate = 10.0
	WarningTickRate  = 15.0
	HighMemoryMB     = 2048
)

// PerformanceSnapshot is one immutable sample of server load.
type PerformanceSnapshot struct {
	Timestamp     time.Time
	MemoryUsedMB  int64
	MemoryFreeMB  int64
	Observers     int
	ActiveActors  int
	ActiveRegions int
	TickRate      float64
}

// Status classifies the snapshot, tick rate first.
func (s PerformanceSnapshot) Status() PerformanceStatus {
	switch {
	case s.TickRate < CriticalTickRate:
		return StatusCritical
	case s.TickRate < WarningTickRate:
		return StatusWarning
	case s.MemoryUsedMB > HighMemoryMB:
		return StatusMemoryHigh
	default:
		return StatusHealthy
	}
}
