package keyspace

import (
	"testing"
	"time"
)

func TestEvictPerDBIsNoopWithoutMaxMemory(t *testing.T) {
	db := NewDatabase(0, 0, 5)
	srv := newTestServer()
	now := time.Now()
	Set(db, srv, Request{Argv: []string{"set", "k", "v"}, ExpiretimeIn: -1}, now)
	if got := db.EvictPerDB(now, srv.LRUClock()); got != 0 {
		t.Fatalf("expected no eviction when MaxMemory is unset, got %d", got)
	}
}

func TestEvictPerDBPrefersVolatileOverAllKeys(t *testing.T) {
	db := NewDatabase(0, 0, 5)
	srv := newTestServer()
	now := time.Now()

	Set(db, srv, Request{Argv: []string{"set", "persistent", "v"}, ExpiretimeIn: -1}, now)
	Set(db, srv, Request{Argv: []string{"set", "volatile", "v"}, ExpiretimeIn: -1}, now)
	db.SetXExpire(NewES("volatile"), now.Add(time.Hour))

	db.MaxMemory = db.UsedMemory()
	db.Account(1)

	evicted := db.EvictPerDB(now, srv.LRUClock())
	if evicted != 1 {
		t.Fatalf("expected exactly 1 key evicted, got %d", evicted)
	}
	if db.Exists(NewES("volatile"), now) {
		t.Fatalf("expected the key with a TTL to be the eviction candidate")
	}
	if !db.Exists(NewES("persistent"), now) {
		t.Fatalf("expected the key with no TTL to survive when a volatile candidate exists")
	}
}

func TestEvictPerDBFallsBackToAllKeysLRUWhenNoVolatileKeys(t *testing.T) {
	db := NewDatabase(0, 0, 5)
	srv := newTestServer()
	now := time.Now()
	Set(db, srv, Request{Argv: []string{"set", "a", "v"}, ExpiretimeIn: -1}, now)

	db.MaxMemory = db.UsedMemory()
	db.Account(1)

	evicted := db.EvictPerDB(now, srv.LRUClock())
	if evicted != 1 {
		t.Fatalf("expected 1 eviction via the allkeys fallback, got %d", evicted)
	}
	if db.Exists(NewES("a"), now) {
		t.Fatalf("expected the only key to have been evicted")
	}
}

func TestEvictGlobalNoopWithNoEvictionPolicy(t *testing.T) {
	srv := NewServer(2, 0, 1, PolicyNoEviction, 5)
	now := time.Now()
	Set(srv.DBs[0], srv, Request{Argv: []string{"set", "k", "v"}, ExpiretimeIn: -1}, now)
	if got := srv.EvictGlobal(now); got != 0 {
		t.Fatalf("expected no-eviction policy to never evict, got %d", got)
	}
}

func TestEvictGlobalEvictsUnderAllKeysRandomPolicy(t *testing.T) {
	srv := NewServer(1, 0, 1, PolicyAllKeysRandom, 5)
	now := time.Now()
	db := srv.DBs[0]
	Set(db, srv, Request{Argv: []string{"set", "a", "v"}, ExpiretimeIn: -1}, now)
	Set(db, srv, Request{Argv: []string{"set", "b", "v"}, ExpiretimeIn: -1}, now)

	srv.MaxMemory = db.UsedMemory()
	db.Account(1)

	evicted := srv.EvictGlobal(now)
	if evicted == 0 {
		t.Fatalf("expected at least 1 key to be evicted to satisfy the global cap")
	}
	if db.UsedMemory() > srv.MaxMemory {
		t.Fatalf("expected memory usage to settle back under the cap, got %d > %d", db.UsedMemory(), srv.MaxMemory)
	}
}

func TestIdleTimeWrapsAt22Bits(t *testing.T) {
	if got := IdleTime(5, 10); got == 0 {
		t.Fatalf("expected a non-zero idle time when the clock has wrapped past the stamp")
	}
	if got := IdleTime(10, 5); got != 5 {
		t.Fatalf("expected idle time 5 for a simple forward delta, got %d", got)
	}
}
