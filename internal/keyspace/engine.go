package keyspace

import (
	"strconv"
	"time"
)

// Request bundles the parameters every command procedure receives:
// the already-tokenized argument vector (argv[0] is the command
// name), the client's optimistic-concurrency inputs, and the
// deferred-TTL instruction.
type Request struct {
	Argv         []string
	VersionIn    uint16
	VersionCare  bool
	ExpiretimeIn int64 // >0 install TTL; 0 remove TTL; <0 no-op
}

// CommandFunc is the shape of every command procedure.
type CommandFunc func(db *Database, srv *Server, req Request, now time.Time) Result

// applyDeferredTTL is called on success, after the key is known to
// exist, by the commands that add or overwrite data: the set and
// incr/decr families, list pushes, lset, linsert, sadd, hset, hsetnx,
// hmset, hincrby, zadd and zincrby. getset, sinterstore and the
// commands that only remove data (del, pops, ltrim, lrem, srem, spop,
// smove, hdel, zrem, zremrangeby*) do not apply it.
func applyDeferredTTL(db *Database, key ES, expiretimeIn int64, now time.Time) {
	switch {
	case expiretimeIn > 0:
		db.SetXExpire(key, time.Unix(expiretimeIn, 0))
	case expiretimeIn == 0:
		db.RemoveXExpire(key)
	default:
		// < 0: no-op
	}
}

// parseInteger parses a base-10 signed integer.
func parseInteger(s string) (int64, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil
}

// saturate32 casts a 64-bit arithmetic result down to signed 32 bits
// before storage: wraparound, not an overflow error.
func saturate32(v int64) int64 {
	return int64(int32(v))
}

func wrongType() Result   { return errResult(ErrWrongType) }
func wrongArgs() Result   { return errResult(ErrWrongNumArguments) }
func notInteger() Result  { return errResult(ErrIsNotInteger) }
func syntaxError() Result { return errResult(ErrSyntaxError) }
func outOfRange() Result  { return errResult(ErrOutOfRange) }

// Dispatch resolves argv[0] against CommandTable and runs it against
// dbIndex, enforcing both eviction triggers before the procedure body
// executes: a per-DB check (volatile-LRU first, allkeys-LRU fallback)
// whenever that DB is over its own budget, and a global DENY_OOM
// rejection when the server-wide budget is exceeded and no sampling
// run brings it back under.
func Dispatch(srv *Server, dbIndex int, req Request, now time.Time) Result {
	entry, ok := Lookup(req.Argv[0])
	if !ok {
		return errResult(ErrSyntaxError)
	}
	db, code := srv.SelectDB(dbIndex)
	if code.IsError() {
		return errResult(code)
	}

	db.Mu.Lock()
	defer db.Mu.Unlock()

	if db.MaxMemory > 0 && db.UsedMemory() > db.MaxMemory {
		db.EvictPerDB(now, srv.LRUClock())
	}
	if entry.Flags.DenyOOM && srv.MaxMemory > 0 {
		if srv.usedMemoryTotal() > srv.MaxMemory {
			srv.EvictGlobal(now)
		}
		if srv.usedMemoryTotal() > srv.MaxMemory {
			return errResult(ErrReachMaxmemory)
		}
	}

	return entry.Fn(db, srv, req, now)
}
