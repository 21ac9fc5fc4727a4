package keyspace

import (
	"sync/atomic"
	"time"
)

// EvictionPolicy is the server-wide maxmemory policy.
type EvictionPolicy int

const (
	PolicyNoEviction EvictionPolicy = iota
	PolicyVolatileLRU
	PolicyVolatileTTL
	PolicyVolatileRandom
	PolicyAllKeysLRU
	PolicyAllKeysRandom
)

func ParseEvictionPolicy(s string) (EvictionPolicy, bool) {
	switch s {
	case "noeviction", "no-eviction":
		return PolicyNoEviction, true
	case "volatile-lru":
		return PolicyVolatileLRU, true
	case "volatile-ttl":
		return PolicyVolatileTTL, true
	case "volatile-random":
		return PolicyVolatileRandom, true
	case "allkeys-lru":
		return PolicyAllKeysLRU, true
	case "allkeys-random":
		return PolicyAllKeysRandom, true
	default:
		return PolicyNoEviction, false
	}
}

// lruClockResolution is the tick period of the shared LRU clock: 10
// seconds.
const lruClockResolution = 10 * time.Second

// lruClockBits bounds the wraparound width to a 22-bit clock.
const lruClockBits = 22
const lruClockMask = (1 << lruClockBits) - 1

// Server owns the array of databases, the global memory budget and
// policy, the shared LRU clock, and the dirty counter.
type Server struct {
	DBs []*Database

	MaxMemory     int64 // 0 = unlimited
	Policy        EvictionPolicy
	MaxSamples    int
	Limits        Limits
	lruClock      uint32 // atomic: 22-bit wrapping clock, 10s resolution
	dirty         int64  // atomic: monotonic mutation counter
	startedAt     time.Time
}

// Limits holds the packed-encoding thresholds and hard per-collection
// caps configured at init. Hard caps gate ERR_DATA_LEN_LIMITED on list
// pushes; the encoding thresholds gate the packed->general
// conversions.
type Limits struct {
	ListMaxLen        int // hard cap enforced by rpush/lpush
	ListPackedMaxLen  int // packed-encoding entry-count threshold
	HashPackedMaxLen  int // hash-max-ziplist-entries
	HashPackedMaxVal  int // hash-max-ziplist-value
	SetIntMaxLen      int // set-max-intset-entries
	ZSetPackedMaxLen  int // zset-max-ziplist-entries (reserved; zset has one general encoding)
}

// DefaultLimits returns the compiled-in encoding-conversion thresholds.
func DefaultLimits() Limits {
	return Limits{
		ListMaxLen:       4294967295, // effectively unbounded unless configured
		ListPackedMaxLen: 128,
		HashPackedMaxLen: 128,
		HashPackedMaxVal: 64,
		SetIntMaxLen:     512,
		ZSetPackedMaxLen: 128,
	}
}

// NewServer builds a server with dbnum databases, each given perDBMemory
// and maxSamples, plus the global budget/policy.
func NewServer(dbnum int, perDBMemory int64, globalMaxMemory int64, policy EvictionPolicy, maxSamples int) *Server {
	if maxSamples < 1 {
		maxSamples = 1
	}
	s := &Server{
		DBs:        make([]*Database, dbnum),
		MaxMemory:  globalMaxMemory,
		Policy:     policy,
		MaxSamples: maxSamples,
		Limits:     DefaultLimits(),
		startedAt:  time.Now(),
	}
	for i := range s.DBs {
		s.DBs[i] = NewDatabase(i, perDBMemory, maxSamples)
	}
	return s
}

// SelectDB validates a DB index and returns it, or ErrNamespaceError
// (selectDb).
func (s *Server) SelectDB(id int) (*Database, ReturnCode) {
	if id < 0 || id >= len(s.DBs) {
		return nil, ErrNamespaceError
	}
	return s.DBs[id], OK
}

func (s *Server) LRUClock() uint32 { return atomic.LoadUint32(&s.lruClock) & lruClockMask }

// TickLRUClock advances the shared clock by one resolution unit,
// wrapping at 22 bits.
func (s *Server) TickLRUClock() {
	atomic.AddUint32(&s.lruClock, 1)
	for {
		old := atomic.LoadUint32(&s.lruClock)
		if old <= lruClockMask {
			return
		}
		if atomic.CompareAndSwapUint32(&s.lruClock, old, old&lruClockMask) {
			return
		}
	}
}

func (s *Server) IncrDirty(n int64) { atomic.AddInt64(&s.dirty, n) }
func (s *Server) Dirty() int64      { return atomic.LoadInt64(&s.dirty) }

// IdleTime computes (current - stamp) mod 2^22 in LRU-resolution
// units via unsigned modular subtraction.
func IdleTime(current, stamp uint32) uint32 {
	return (current - stamp) & lruClockMask
}

// TotalKeys sums dbsize across every database.
func (s *Server) TotalKeys() int {
	n := 0
	for _, db := range s.DBs {
		n += db.Size()
	}
	return n
}

// EmptyAll clears every database, returning the total number of keys
// removed — flushall's primitive.
func (s *Server) EmptyAll() int64 {
	var total int64
	for _, db := range s.DBs {
		db.Mu.Lock()
		total += int64(db.Clear())
		db.Mu.Unlock()
	}
	return total
}
