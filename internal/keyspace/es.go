// Package keyspace implements the core in-memory keyspace engine: the
// encoded-string key type, the incrementally-rehashing dictionary, the
// tagged value-object model, per-database expiry and eviction, and the
// command procedures that mutate them.
package keyspace

// ES (encoded string) is the key type used throughout the keyspace. It
// carries two side channels alongside its byte content: a monotonic
// version counter used for optimistic concurrency, and a logical-clock
// stamp used for generation-based mass expiry. Neither side channel
// participates in equality or hashing — two ES values are equal iff
// their bytes are equal.
type ES struct {
	bytes        string
	version      uint16
	logicalClock uint16
}

// NewES wraps raw bytes as a fresh encoded string with version 0 and no
// logical-clock stamp.
func NewES(b string) ES {
	return ES{bytes: b}
}

func (e ES) Bytes() string { return e.bytes }
func (e ES) Len() int      { return len(e.bytes) }

func (e ES) Version() uint16      { return e.version }
func (e ES) LogicalClock() uint16 { return e.logicalClock }

// SetVersion overwrites the version side channel in place.
func (e *ES) SetVersion(v uint16) { e.version = v }

// AddVersion bumps the version side channel by n, wrapping modulo 2^16.
func (e *ES) AddVersion(n uint16) { e.version += n }

// SetLogicalClock overwrites the logical-clock stamp in place.
func (e *ES) SetLogicalClock(c uint16) { e.logicalClock = c }

// equalKey compares only the byte content.
func (e ES) equalKey(o ES) bool { return e.bytes == o.bytes }
