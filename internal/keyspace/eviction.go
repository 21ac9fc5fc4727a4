package keyspace

import "time"

// EvictPerDB enforces the fixed per-DB eviction policy: volatile-LRU
// first, falling back to allkeys-LRU. Runs before serving a mutation
// once db.MaxMemory is exceeded. Returns the number of keys evicted.
func (db *Database) EvictPerDB(now time.Time, lruClock uint32) int {
	if db.MaxMemory <= 0 {
		return 0
	}
	evicted := 0
	for db.usedMemory > db.MaxMemory {
		victim, ok := db.sampleVolatileLRU(now, lruClock)
		if !ok {
			victim, ok = db.sampleAllKeysLRU(lruClock)
		}
		if !ok {
			break // full pass made no progress
		}
		db.deleteKey(victim)
		db.Stats.Evicted++
		evicted++
	}
	return evicted
}

// sampleVolatileLRU draws MaxSamples candidates from expires, scoring
// by idle time computed from the value stored in main. A
// logically-expired sample short-circuits as the pick.
func (db *Database) sampleVolatileLRU(now time.Time, lruClock uint32) (ES, bool) {
	if db.expires.Len() == 0 {
		return ES{}, false
	}
	var best ES
	var bestIdle uint32
	found := false
	for i := 0; i < db.MaxSamples; i++ {
		key, _, ok := db.expires.RandomEntry()
		if !ok {
			break
		}
		if db.logicallyExpired(key) {
			return key, true
		}
		v, ok := db.main.Get(key)
		if !ok {
			continue
		}
		idle := IdleTime(lruClock, v.LRUStamp)
		if !found || idle > bestIdle {
			best, bestIdle, found = key, idle, true
		}
	}
	return best, found
}

// sampleAllKeysLRU is the fallback: sample from main directly.
func (db *Database) sampleAllKeysLRU(lruClock uint32) (ES, bool) {
	if db.main.Len() == 0 {
		return ES{}, false
	}
	var best ES
	var bestIdle uint32
	found := false
	for i := 0; i < db.MaxSamples; i++ {
		key, v, ok := db.main.RandomEntry()
		if !ok {
			break
		}
		if db.logicallyExpired(key) {
			return key, true
		}
		idle := IdleTime(lruClock, v.LRUStamp)
		if !found || idle > bestIdle {
			best, bestIdle, found = key, idle, true
		}
	}
	return best, found
}

func (db *Database) logicallyExpired(key ES) bool {
	storedKey, ok := db.main.GetKey(key)
	if !ok {
		return false
	}
	return storedKey.LogicalClock() != 0 && db.logicalClock > storedKey.LogicalClock()
}

// EvictGlobal runs the server-wide policy across every database, one
// sampled victim per database per round, looping until usage is back
// under the global cap or a round makes no progress. Callers are expected to have already checked
// DENY_OOM gating.
func (s *Server) EvictGlobal(now time.Time) int {
	if s.MaxMemory <= 0 || s.Policy == PolicyNoEviction {
		return 0
	}
	evicted := 0
	for s.usedMemoryTotal() > s.MaxMemory {
		progressed := false
		for _, db := range s.DBs {
			victim, ok := db.sampleForPolicy(s.Policy, now, s.LRUClock())
			if !ok {
				continue
			}
			db.deleteKey(victim)
			db.Stats.Evicted++
			evicted++
			progressed = true
			if s.usedMemoryTotal() <= s.MaxMemory {
				break
			}
		}
		if !progressed {
			break
		}
	}
	return evicted
}

func (s *Server) usedMemoryTotal() int64 {
	var total int64
	for _, db := range s.DBs {
		total += db.usedMemory
	}
	return total
}

// sampleForPolicy draws one victim per the server's global eviction
// policy, scoring from either main or expires as the policy dictates.
func (db *Database) sampleForPolicy(policy EvictionPolicy, now time.Time, lruClock uint32) (ES, bool) {
	switch policy {
	case PolicyVolatileLRU:
		return db.sampleVolatileLRU(now, lruClock)
	case PolicyVolatileTTL:
		return db.sampleVolatileTTL(now)
	case PolicyVolatileRandom:
		return db.sampleVolatileRandom()
	case PolicyAllKeysLRU:
		return db.sampleAllKeysLRU(lruClock)
	case PolicyAllKeysRandom:
		return db.sampleAllKeysRandom()
	default:
		return ES{}, false
	}
}

func (db *Database) sampleVolatileTTL(now time.Time) (ES, bool) {
	if db.expires.Len() == 0 {
		return ES{}, false
	}
	var best ES
	var bestWhen int64
	found := false
	for i := 0; i < db.MaxSamples; i++ {
		key, when, ok := db.expires.RandomEntry()
		if !ok {
			break
		}
		if db.logicallyExpired(key) {
			return key, true
		}
		if !found || when < bestWhen {
			best, bestWhen, found = key, when, true
		}
	}
	return best, found
}

func (db *Database) sampleVolatileRandom() (ES, bool) {
	if db.expires.Len() == 0 {
		return ES{}, false
	}
	key, _, ok := db.expires.RandomEntry()
	if ok && db.logicallyExpired(key) {
		return key, true
	}
	return key, ok
}

func (db *Database) sampleAllKeysRandom() (ES, bool) {
	key, _, ok := db.main.RandomEntry()
	if ok && db.logicallyExpired(key) {
		return key, true
	}
	return key, ok
}
