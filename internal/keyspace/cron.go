package keyspace

import (
	"time"
)

// cronTick is the ~10 Hz cadence of the periodic maintenance loop.
const cronTick = 100 * time.Millisecond

// expireLookupsPerCron bounds each active-expiry sampling round.
const expireLookupsPerCron = 10

// rehashBudgetPerTick is the cron's millisecond allowance for
// incremental rehashing.
const rehashBudgetPerTick = 1 * time.Millisecond

// Cron drives the background maintenance loop on a ticker and stop
// channel.
type Cron struct {
	server   *Server
	interval time.Duration
	stopCh   chan struct{}
	tickCount uint64
}

// NewCron constructs a cron driving server at the given tick interval.
// A non-positive interval disables the goroutine entirely, leaving the
// engine to rely on lazy expiry alone.
func NewCron(server *Server, interval time.Duration) *Cron {
	return &Cron{server: server, interval: interval, stopCh: make(chan struct{})}
}

// Start launches the background goroutine. No-op if interval <= 0.
func (c *Cron) Start() {
	if c.interval <= 0 {
		return
	}
	ticker := time.NewTicker(c.interval)
	go func() {
		for {
			select {
			case <-ticker.C:
				c.tick()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop terminates the background goroutine. Safe to call at most once.
func (c *Cron) Stop() { close(c.stopCh) }

// tick runs one maintenance pass: LRU clock, resize scheduling,
// incremental rehash, active expiry — in that order.
func (c *Cron) tick() {
	c.tickCount++
	perUnit := uint64(1)
	if c.interval > 0 && c.interval < lruClockResolution {
		perUnit = uint64(lruClockResolution / c.interval)
	}
	if c.tickCount%perUnit == 0 {
		c.server.TickLRUClock()
	}

	if c.tickCount%10 == 0 {
		c.considerResize()
	}

	c.rehashOneDB()

	now := time.Now()
	for _, db := range c.server.DBs {
		db.Mu.Lock()
		activeExpireCycle(db, now)
		db.Mu.Unlock()
	}
}

func (c *Cron) considerResize() {
	for _, db := range c.server.DBs {
		db.Mu.Lock()
		if db.main.NeedsResize() {
			db.main.Resize(db.main.Len() * 2)
		}
		if db.expires.NeedsResize() {
			db.expires.Resize(db.expires.Len() * 2)
		}
		db.Mu.Unlock()
	}
}

// rehashOneDB spends the per-tick millisecond budget on the first DB
// found mid-rehash, then stops.
func (c *Cron) rehashOneDB() {
	for _, db := range c.server.DBs {
		db.Mu.Lock()
		rehashing := db.main.isRehashing() || db.expires.isRehashing()
		if rehashing {
			db.main.RehashMilliseconds(rehashBudgetPerTick)
			db.expires.RehashMilliseconds(rehashBudgetPerTick)
		}
		db.Mu.Unlock()
		if rehashing {
			return
		}
	}
}

// activeExpireCycle is the two-phase active-expiry pass: first drain
// logical-clock-expired keys from main (bounded, looping while >25%
// of the sample round expired), then wall-clock-expired keys from
// expires the same way. Caller must hold db.Mu.
func activeExpireCycle(db *Database, now time.Time) {
	if db.needRemoveKey > 0 {
		for {
			expired := 0
			sampled := 0
			for sampled < expireLookupsPerCron {
				key, _, ok := db.main.RandomEntry()
				if !ok {
					break
				}
				sampled++
				if db.logicallyExpired(key) {
					db.needRemoveKey--
					db.Stats.Expired++
					db.deleteKey(key)
					expired++
				}
			}
			if sampled == 0 || expired*4 <= sampled {
				break
			}
		}
	}

	if db.expires.Len() == 0 {
		return
	}
	for {
		expired := 0
		sampled := 0
		for sampled < expireLookupsPerCron {
			key, when, ok := db.expires.RandomEntry()
			if !ok {
				break
			}
			sampled++
			if now.Unix() > when {
				db.Stats.Expired++
				db.deleteKey(key)
				expired++
			}
		}
		if sampled == 0 || expired*4 <= sampled {
			break
		}
	}
}
