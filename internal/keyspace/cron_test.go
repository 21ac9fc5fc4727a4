package keyspace

import (
	"testing"
	"time"
)

func TestActiveExpireCycleReapsWallClockExpiredKeys(t *testing.T) {
	db := NewDatabase(0, 0, 5)
	now := time.Unix(1000, 0)

	live := NewES("live")
	db.Add(live, NewStringValueBytes("v"))

	expired := NewES("expired")
	db.Add(expired, NewStringValueBytes("v"))
	db.SetExpire(expired, now.Add(-time.Second))

	activeExpireCycle(db, now)

	if db.Exists(expired, now) {
		t.Fatalf("expected the cron pass to reap the wall-clock-expired key")
	}
	if !db.Exists(live, now) {
		t.Fatalf("expected the live key to survive the cron pass")
	}
}

func TestActiveExpireCycleReapsLogicalClockExpiredKeys(t *testing.T) {
	db := NewDatabase(0, 0, 5)
	now := time.Unix(1000, 0)

	stale := NewES("stale")
	stale.SetLogicalClock(1)
	db.Add(stale, NewStringValueBytes("v"))

	db.SetLogicalClock(2)
	if db.NeedRemoveKey() == 0 {
		t.Fatalf("expected advancing the logical clock to arm needRemoveKey")
	}

	activeExpireCycle(db, now)

	if db.Exists(stale, now) {
		t.Fatalf("expected the cron pass to reap the logical-clock-expired key")
	}
}

func TestCronTickAdvancesLRUClockAndReapsExpiredKeys(t *testing.T) {
	srv := NewServer(1, 0, 0, PolicyNoEviction, 5)
	db := srv.DBs[0]
	now := time.Now()

	Set(db, srv, Request{Argv: []string{"set", "k", "v"}, ExpiretimeIn: -1}, now)
	db.SetExpire(NewES("k"), now.Add(-time.Second))

	c := NewCron(srv, time.Hour)
	before := srv.LRUClock()
	c.tick()
	if srv.LRUClock() == before {
		t.Fatalf("expected a cron tick to advance the shared LRU clock")
	}
	if db.Exists(NewES("k"), time.Now()) {
		t.Fatalf("expected the cron tick's active-expiry pass to reap the expired key")
	}
}

func TestNewCronWithNonPositiveIntervalDoesNotPanicOnStartStop(t *testing.T) {
	srv := NewServer(1, 0, 0, PolicyNoEviction, 5)
	c := NewCron(srv, 0)
	c.Start()
	c.Stop()
}
