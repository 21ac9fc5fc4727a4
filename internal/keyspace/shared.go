package keyspace

import "sync/atomic"

// sharedIntegerCount mirrors REDIS_SHARED_INTEGERS: small integer
// string values are common enough (counters, list lengths rendered
// back as strings, sequence IDs) that keeping one object per value
// and sharing it across every key that holds it avoids an allocation
// per SET/INCR on the hot path.
const sharedIntegerCount = 10000

var sharedIntegers = buildSharedIntegers()

func buildSharedIntegers() [sharedIntegerCount]*Value {
	var pool [sharedIntegerCount]*Value
	for n := range pool {
		pool[n] = &Value{
			Type:     TypeString,
			Encoding: EncInt,
			Refcount: 1,
			Shared:   true,
			Str:      &StringValue{Int: int64(n)},
		}
	}
	return pool
}

// sharedInteger returns the pool object for n with its refcount
// incremented, or nil if n falls outside the shared range and the
// caller must allocate its own object.
func sharedInteger(n int64) *Value {
	if n < 0 || n >= sharedIntegerCount {
		return nil
	}
	v := sharedIntegers[n]
	atomic.AddInt32(&v.Refcount, 1)
	return v
}

// releaseValue drops a reference a key held on v, called whenever a
// key's value is overwritten or deleted. Only shared pool objects are
// tracked this way; every other Value is reclaimed by the garbage
// collector once its last reference is gone, matching SPEC_FULL.md's
// ownership-by-container model. A shared object's refcount reaching
// zero would mean some caller released a reference it never held — a
// bug in this package, not a recoverable runtime condition.
func releaseValue(v *Value) {
	if v == nil || !v.Shared {
		return
	}
	if atomic.AddInt32(&v.Refcount, -1) < 1 {
		panic("keyspace: shared integer object refcount dropped below 1")
	}
}
