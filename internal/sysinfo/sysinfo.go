// Package sysinfo reports host memory figures alongside the keyspace
// engine's own accounting estimate (the two are not reconciled), and
// formats the INFO-equivalent status block.
package sysinfo

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shirou/gopsutil/v4/mem"

	"github.com/nyxdb/nyxdb/internal/keyspace"
)

// Snapshot is a point-in-time read of host memory alongside the
// engine's own counters.
type Snapshot struct {
	TotalSystemMemory     uint64
	AvailableSystemMemory uint64
	UsedMemory            int64
	PeakMemory            int64
	MaxMemory             int64
	Policy                string
}

// Read samples the host via gopsutil and pairs it with the engine's
// own used/peak totals.
func Read(srv *keyspace.Server) (Snapshot, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return Snapshot{}, err
	}
	var used, peak int64
	for _, db := range srv.DBs {
		used += db.UsedMemory()
		peak += db.PeakMemory()
	}
	return Snapshot{
		TotalSystemMemory:     vm.Total,
		AvailableSystemMemory: vm.Available,
		UsedMemory:            used,
		PeakMemory:            peak,
		MaxMemory:             srv.MaxMemory,
		Policy:                policyName(srv.Policy),
	}, nil
}

func policyName(p keyspace.EvictionPolicy) string {
	switch p {
	case keyspace.PolicyNoEviction:
		return "noeviction"
	case keyspace.PolicyVolatileLRU:
		return "volatile-lru"
	case keyspace.PolicyVolatileTTL:
		return "volatile-ttl"
	case keyspace.PolicyVolatileRandom:
		return "volatile-random"
	case keyspace.PolicyAllKeysLRU:
		return "allkeys-lru"
	case keyspace.PolicyAllKeysRandom:
		return "allkeys-random"
	default:
		return "unknown"
	}
}

// Report carries the sections the INFO-equivalent command renders, as
// a set of named category maps.
type Report struct {
	server map[string]string
	memory map[string]string
	general map[string]string
}

// Build assembles a Report from a Snapshot plus process/server metadata.
func Build(snap Snapshot, startedAt time.Time, totalKeys int, dirty int64) *Report {
	exePath, err := os.Executable()
	if err != nil {
		exePath = ""
	}
	r := &Report{
		server: map[string]string{
			"process_id":     strconv.Itoa(os.Getpid()),
			"uptime_seconds": fmt.Sprintf("%d", int64(time.Since(startedAt).Seconds())),
			"server_path":    exePath,
		},
		memory: map[string]string{
			"used_memory":         fmt.Sprintf("%d", snap.UsedMemory),
			"used_memory_peak":    fmt.Sprintf("%d", snap.PeakMemory),
			"maxmemory":           fmt.Sprintf("%d", snap.MaxMemory),
			"maxmemory_policy":    snap.Policy,
			"total_system_memory": fmt.Sprintf("%d", snap.TotalSystemMemory),
			"available_memory":    fmt.Sprintf("%d", snap.AvailableSystemMemory),
		},
		general: map[string]string{
			"total_keys":  fmt.Sprintf("%d", totalKeys),
			"dirty_count": fmt.Sprintf("%d", dirty),
		},
	}
	return r
}

func printCategory(header string, m map[string]string) string {
	s := fmt.Sprintf("# %s\n", header)
	for k, v := range m {
		s += fmt.Sprintf("%-22s: %s\n", k, v)
	}
	return s + "\n"
}

// String renders the full report as "# Section" blocks, one per
// category.
func (r *Report) String() string {
	out := "\n"
	out += printCategory("Server", r.server)
	out += printCategory("Memory", r.memory)
	out += printCategory("General", r.general)
	return out
}
