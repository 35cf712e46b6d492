package monitor

import (
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

const bytesPerMB = 1024 * 1024

// MemoryProbe reports memory in megabytes.
type MemoryProbe interface {
	Memory() (usedMB, freeMB int64)
}

// ProcessProbe reads process RSS and system available memory through gopsutil.
// Falls back to Go runtime statistics when the OS query fails.
type ProcessProbe struct {
	proc *process.Process
}

// NewProcessProbe creates a probe for the current process.
func NewProcessProbe() *ProcessProbe {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		proc = nil
	}
	return &ProcessProbe{proc: proc}
}

// Memory returns used (process RSS) and free (system available) megabytes.
func (p *ProcessProbe) Memory() (usedMB, freeMB int64) {
	rtUsed, rtFree := RuntimeProbe{}.Memory()
	usedMB, freeMB = rtUsed, rtFree

	if p.proc != nil {
		if info, err := p.proc.MemoryInfo(); err == nil {
			usedMB = int64(info.RSS / bytesPerMB)
		}
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		freeMB = int64(vm.Available / bytesPerMB)
	}
	return usedMB, freeMB
}

// RuntimeProbe reports Go heap usage: bytes in use and bytes reserved but idle.
type RuntimeProbe struct{}

// Memory returns heap megabytes in use and idle heap megabytes.
func (RuntimeProbe) Memory() (usedMB, freeMB int64) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return int64(m.Alloc / bytesPerMB), int64((m.HeapIdle - m.HeapReleased) / bytesPerMB)
}
