package keyspace

import (
	"sync"
	"time"
)

// DBStats tracks per-DB hit/miss/eviction/expiry counters.
type DBStats struct {
	Hits    uint64
	Misses  uint64
	Evicted uint64
	Expired uint64
}

// Database is one numbered logical database: a main dict, a sparse
// expires dict, a logical clock, and per-DB memory accounting. Mutating
// access is serialized by Mu.
type Database struct {
	Mu sync.RWMutex

	ID types_dbIndex

	main    *Dict[*Value]
	expires *Dict[int64] // wall-clock unix seconds

	logicalClock  uint16
	needRemoveKey int64

	Stats DBStats

	usedMemory int64
	peakMemory int64
	MaxMemory  int64 // 0 = unlimited
	MaxSamples int   // max_memory_samples, >= 1
}

type types_dbIndex = int

// NewDatabase constructs an empty database with the given id and
// per-DB memory budget (0 disables the per-DB cap).
func NewDatabase(id int, maxMemory int64, maxSamples int) *Database {
	if maxSamples < 1 {
		maxSamples = 1
	}
	return &Database{
		ID:         id,
		main:       NewDict[*Value](),
		expires:    NewDict[int64](),
		MaxMemory:  maxMemory,
		MaxSamples: maxSamples,
	}
}

// Account applies delta (positive on allocation, negative on free) to
// both this DB's used-memory counter and its peak-memory high-water
// mark.
func (db *Database) Account(delta int64) {
	db.usedMemory += delta
	if db.usedMemory > db.peakMemory {
		db.peakMemory = db.usedMemory
	}
	if db.usedMemory < 0 {
		db.usedMemory = 0
	}
}

func (db *Database) UsedMemory() int64 { return db.usedMemory }
func (db *Database) PeakMemory() int64 { return db.peakMemory }

// SetLogicalClock advances the DB's logical clock; this alone
// invalidates every key whose stamp is smaller. Does not eagerly
// delete anything, but arms needRemoveKey (bounded by the DB's current
// size) so the active-expiry cron knows there is reclaim work pending.
func (db *Database) SetLogicalClock(c uint16) {
	db.logicalClock = c
	if n := int64(db.main.Len()); n > db.needRemoveKey {
		db.needRemoveKey = n
	}
}
func (db *Database) LogicalClock() uint16 { return db.logicalClock }
func (db *Database) NeedRemoveKey() int64 { return db.needRemoveKey }

// touchLRU stamps v with the shared server LRU clock on access.
func touchLRU(v *Value, lruClock uint32) {
	v.LRUStamp = lruClock & 0x3FFFFF // 22-bit wrap
}

// lookupWithVersion is the internal primitive shared by read/write
// lookups.
func (db *Database) lookupWithVersion(key ES, lruClock uint32) (*Value, uint16, bool) {
	storedKey, ok := db.main.GetKey(key)
	if !ok {
		db.Stats.Misses++
		return nil, 0, false
	}
	v, _ := db.main.Get(key)
	touchLRU(v, lruClock)
	db.Stats.Hits++
	return v, storedKey.Version(), true
}

// ExpireIfNeeded runs the two-phase check: logical-clock expiry
// first, then wall-clock TTL. Returns true iff the key was deleted as
// a result.
func (db *Database) ExpireIfNeeded(key ES, now time.Time) bool {
	storedKey, ok := db.main.GetKey(key)
	if !ok {
		return false
	}
	if storedKey.LogicalClock() != 0 && db.logicalClock > storedKey.LogicalClock() {
		db.needRemoveKey--
		db.Stats.Expired++
		db.deleteKey(key)
		return true
	}
	when, hasTTL := db.expires.Get(key)
	if !hasTTL {
		return false
	}
	if now.Unix() <= when {
		return false
	}
	db.Stats.Expired++
	db.deleteKey(key)
	return true
}

// deleteKey removes key from both main and expires.
func (db *Database) deleteKey(key ES) bool {
	if db.expires.Len() > 0 {
		db.expires.Delete(key)
	}
	if v, ok := db.main.Get(key); ok {
		db.Account(-approxValueMemory(key, v))
		releaseValue(v)
	}
	return db.main.Delete(key)
}

// Delete is the public form of deleteKey, used by the generic DEL
// command and by eviction.
func (db *Database) Delete(key ES) bool { return db.deleteKey(key) }

// LookupRead performs a read-intent lookup: expire first, then find.
func (db *Database) LookupRead(key ES, now time.Time, lruClock uint32) (*Value, uint16, bool) {
	db.ExpireIfNeeded(key, now)
	return db.lookupWithVersion(key, lruClock)
}

// LookupWrite is symmetric with LookupRead; it exists as a distinct
// call so the optimistic-concurrency protocol documents write intent
// at the call site.
func (db *Database) LookupWrite(key ES, now time.Time, lruClock uint32) (*Value, uint16, bool) {
	db.ExpireIfNeeded(key, now)
	return db.lookupWithVersion(key, lruClock)
}

// Exists reports key's presence after a lazy-expiry check, without
// bumping hit/miss stats.
func (db *Database) Exists(key ES, now time.Time) bool {
	db.ExpireIfNeeded(key, now)
	_, ok := db.main.Get(key)
	return ok
}

// Add inserts key/val, failing (returning false) if key is already
// present.
func (db *Database) Add(key ES, v *Value) bool {
	ok := db.main.Add(key, v)
	if ok {
		db.Account(approxValueMemory(key, v))
	}
	return ok
}

// Replace upserts key/val: true if newly inserted.
func (db *Database) Replace(key ES, v *Value) bool {
	if old, existed := db.main.Get(key); existed {
		db.Account(approxValueMemory(key, v) - approxValueMemory(key, old))
		releaseValue(old)
	} else {
		db.Account(approxValueMemory(key, v))
	}
	return db.main.Replace(key, v)
}

// SuperReplace upserts key/val and bumps the key's version side
// channel on update — used by commands that must always win the
// optimistic-concurrency race on their own write (e.g. incr/decr,
// which lay down a brand-new string object).
func (db *Database) SuperReplace(key ES, v *Value) bool {
	if old, existed := db.main.Get(key); existed {
		db.Account(approxValueMemory(key, v) - approxValueMemory(key, old))
		releaseValue(old)
	} else {
		db.Account(approxValueMemory(key, v))
	}
	return db.main.SuperReplace(key, v)
}

// UpdateKey commits key's version/logical-clock into the stored entry
// without touching the value — used for in-place mutations
// (list/set/hash commands) that don't replace the *Value.
func (db *Database) UpdateKey(key ES) bool { return db.main.UpdateKey(key) }

// StoredKey returns the authoritative stored key (with its live
// version/logical-clock), or false if absent.
func (db *Database) StoredKey(key ES) (ES, bool) { return db.main.GetKey(key) }

// Keys returns a snapshot of every live key, unordered. Used by AOF
// rewrite to dump a minimal recreation of the database.
func (db *Database) Keys() []ES { return db.main.Keys() }

// GetValue returns key's stored Value without lazy-expiry or LRU
// bookkeeping, for callers (AOF rewrite) that already established
// liveness from a consistent key snapshot.
func (db *Database) GetValue(key ES) (*Value, bool) { return db.main.Get(key) }

// PauseRehash suspends incremental rehashing of both dictionaries.
// Used by AOF rewrite, which walks a key snapshot across several
// separate lock acquisitions (to avoid blocking other commands for the
// whole dump) and needs the bucket layout to hold still in between.
func (db *Database) PauseRehash() {
	db.main.PauseRehash()
	db.expires.PauseRehash()
}

// ResumeRehash reverses PauseRehash.
func (db *Database) ResumeRehash() {
	db.main.ResumeRehash()
	db.expires.ResumeRehash()
}

// RemoveExpire deletes key's TTL entry unconditionally.
func (db *Database) RemoveExpire(key ES) bool { return db.expires.Delete(key) }

// RemoveXExpire is the defensive form used by the X-expire protocol:
// a no-op (not a panic) if key itself doesn't exist.
func (db *Database) RemoveXExpire(key ES) bool {
	if _, ok := db.main.Get(key); !ok {
		return false
	}
	return db.expires.Delete(key)
}

// SetExpire installs a TTL on an existing key. A key absent from main
// is a programming error and panics, since it would leave an expires
// entry with no main counterpart.
func (db *Database) SetExpire(key ES, when time.Time) {
	if _, ok := db.main.Get(key); !ok {
		panic("keyspace: SetExpire on a key absent from main")
	}
	db.expires.Replace(key, when.Unix())
}

// SetXExpire is the defensive form: silently does nothing if key is
// absent from main.
func (db *Database) SetXExpire(key ES, when time.Time) {
	if _, ok := db.main.Get(key); !ok {
		return
	}
	db.expires.Replace(key, when.Unix())
}

// GetExpire returns the TTL unix time and whether one exists.
func (db *Database) GetExpire(key ES) (int64, bool) {
	if db.expires.Len() == 0 {
		return -1, false
	}
	when, ok := db.expires.Get(key)
	return when, ok
}

// GetLogicalClockOf returns the stamp of the stored key, or 0 if the
// key doesn't exist.
func (db *Database) GetLogicalClockOf(key ES) uint16 {
	storedKey, ok := db.main.GetKey(key)
	if !ok {
		return 0
	}
	return storedKey.LogicalClock()
}

// RandomKey samples until it draws a non-(logical-clock-)expired key
// or the DB is empty.
func (db *Database) RandomKey(now time.Time) (ES, bool) {
	for {
		key, _, ok := db.main.RandomEntry()
		if !ok {
			return ES{}, false
		}
		if db.ExpireIfNeeded(key, now) {
			continue
		}
		return key, true
	}
}

// Clear empties both dictionaries for this DB. Returns the number of
// keys removed.
func (db *Database) Clear() int {
	n := db.main.Len()
	for _, key := range db.main.Keys() {
		if v, ok := db.main.Get(key); ok {
			releaseValue(v)
		}
	}
	db.main.Empty()
	db.expires.Empty()
	db.usedMemory = 0
	db.needRemoveKey = 0
	return n
}

func (db *Database) Size() int { return db.main.Len() }

// approxValueMemory is a coarse accounting estimate, not exact;
// internal/sysinfo reports the summed estimate next to host memory
// figures but does not reconcile the two.
func approxValueMemory(key ES, v *Value) int64 {
	size := int64(len(key.bytes)) + 48
	if v == nil {
		return size
	}
	switch v.Type {
	case TypeString:
		size += int64(len(v.AsBytes())) + 16
	case TypeList:
		size += int64(v.List.Len() * 32)
	case TypeSet:
		size += int64(v.Set.Len() * 24)
	case TypeHash:
		size += int64(v.Hash.Len() * 40)
	case TypeZSet:
		size += int64(v.ZSet.Len() * 48)
	}
	return size
}
