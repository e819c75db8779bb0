// Package sysmon provides system-wide CPU, memory, and cache-volume usage
// sampling for the TUI dashboard.
package sysmon

import (
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
)

// Stats holds a single snapshot of system-wide resource usage.
type Stats struct {
	CPUPercent  float64 // 0.0 .. 100.0
	MemPercent  float64 // 0.0 .. 100.0
	DiskPercent float64 // 0.0 .. 100.0, usage of the cache volume
	DiskFree    uint64  // free bytes on the cache volume
}

// Sample collects a single snapshot. CPU uses interval=0 (delta since last
// call); disk usage is measured on the volume holding cacheDir. Individual
// probe failures leave the corresponding fields at zero.
func Sample(cacheDir string) Stats {
	var s Stats
	cpuPcts, err := cpu.Percent(0, false)
	if err == nil && len(cpuPcts) > 0 {
		s.CPUPercent = cpuPcts[0]
	}
	vmem, err := mem.VirtualMemory()
	if err == nil && vmem != nil {
		s.MemPercent = vmem.UsedPercent
	}
	if cacheDir != "" {
		du, err := disk.Usage(cacheDir)
		if err == nil && du != nil {
			s.DiskPercent = du.UsedPercent
			s.DiskFree = du.Free
		}
	}
	return s
}
