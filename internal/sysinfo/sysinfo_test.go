package sysinfo

import (
	"strings"
	"testing"
	"time"

	"github.com/nyxdb/nyxdb/internal/keyspace"
)

func TestReadReportsEngineAccountingAlongsideHostMemory(t *testing.T) {
	srv := keyspace.NewServer(2, 0, 1024, keyspace.PolicyAllKeysLRU, 5)
	now := time.Now()
	keyspace.Set(srv.DBs[0], srv, keyspace.Request{Argv: []string{"set", "k", "v"}, ExpiretimeIn: -1}, now)

	snap, err := Read(srv)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if snap.TotalSystemMemory == 0 {
		t.Fatalf("expected a non-zero host total memory reading")
	}
	if snap.UsedMemory <= 0 {
		t.Fatalf("expected used memory to reflect the key just set, got %d", snap.UsedMemory)
	}
	if snap.Policy != "allkeys-lru" {
		t.Fatalf("expected policy name allkeys-lru, got %q", snap.Policy)
	}
	if snap.MaxMemory != 1024 {
		t.Fatalf("expected maxmemory 1024, got %d", snap.MaxMemory)
	}
}

func TestBuildAndStringRenderSectionedReport(t *testing.T) {
	snap := Snapshot{
		TotalSystemMemory:     1 << 30,
		AvailableSystemMemory: 1 << 29,
		UsedMemory:            100,
		PeakMemory:            200,
		MaxMemory:             1000,
		Policy:                "noeviction",
	}
	r := Build(snap, time.Now().Add(-time.Minute), 5, 3)
	out := r.String()

	for _, want := range []string{"# Server", "# Memory", "# General", "used_memory", "total_keys", "dirty_count"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected report to contain %q, got:\n%s", want, out)
		}
	}
}
