package keyspace

import "time"

// Get implements GET key: returns the string value, applying lazy
// expiry on the way.
func Get(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 2 {
		return wrongArgs()
	}
	key := NewES(req.Argv[1])
	v, _, ok := db.LookupRead(key, now, srv.LRUClock())
	if !ok {
		return Result{Code: OkNotExist}
	}
	if v.Type != TypeString {
		return wrongType()
	}
	return okBulk(v.AsBytes())
}

// setStringGeneric is the shared body of SET/SETNX/SETEX/SETNXEX: runs
// the optimistic-concurrency protocol, then either refuses (nx, key
// present), updates in place, or inserts, then applies the expire
// argument (distinct from the deferred-TTL mechanism — SETEX's own
// explicit TTL argument).
func setStringGeneric(db *Database, srv *Server, key ES, val string, nx bool, expireSeconds int64, hasExpire bool, req Request, now time.Time) Result {
	existingKey, existed := db.StoredKey(key)
	if existed {
		existingVal, _ := db.main.Get(key)
		if existingVal.Type != TypeString {
			return wrongType()
		}
	}
	newKey, code := applyVersionProtocol(key, existingKey, existed, req.VersionIn, req.VersionCare)
	if code.IsError() {
		return errResult(code)
	}

	sv := NewStringValueBytes(val)
	if existed {
		if nx {
			return Result{Code: OkButAlreadyExist}
		}
		db.SuperReplace(newKey, sv)
	} else {
		db.Add(newKey, sv)
	}
	srv.IncrDirty(1)

	if hasExpire {
		db.SetExpire(newKey, now.Add(time.Duration(expireSeconds)*time.Second))
	} else if req.ExpiretimeIn == 0 {
		db.RemoveXExpire(newKey)
	}
	applyDeferredTTL(db, newKey, req.ExpiretimeIn, now)
	return Result{Code: OK}
}

// Set implements SET key value.
func Set(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 3 {
		return wrongArgs()
	}
	return setStringGeneric(db, srv, NewES(req.Argv[1]), req.Argv[2], false, 0, false, req, now)
}

// Setnx implements SETNX key value.
func Setnx(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 3 {
		return wrongArgs()
	}
	return setStringGeneric(db, srv, NewES(req.Argv[1]), req.Argv[2], true, 0, false, req, now)
}

// Setex implements SETEX key seconds value.
func Setex(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 4 {
		return wrongArgs()
	}
	seconds, ok := parseInteger(req.Argv[2])
	if !ok {
		return notInteger()
	}
	return setStringGeneric(db, srv, NewES(req.Argv[1]), req.Argv[3], false, seconds, true, req, now)
}

// Setnxex implements SETNXEX key seconds value.
func Setnxex(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 4 {
		return wrongArgs()
	}
	seconds, ok := parseInteger(req.Argv[2])
	if !ok {
		return notInteger()
	}
	return setStringGeneric(db, srv, NewES(req.Argv[1]), req.Argv[3], true, seconds, true, req, now)
}

// Getset implements GETSET key value: returns the old value (or
// not-exist) and unconditionally installs the new one, removing any
// TTL. Does not run the optimistic-concurrency protocol.
func Getset(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 3 {
		return wrongArgs()
	}
	key := NewES(req.Argv[1])
	old, _, existed := db.LookupRead(key, now, srv.LRUClock())
	if existed && old.Type != TypeString {
		return wrongType()
	}
	db.Replace(key, NewStringValueBytes(req.Argv[2]))
	srv.IncrDirty(1)
	db.RemoveExpireIfPresent(key)
	if !existed {
		return Result{Code: OkNotExist}
	}
	return okBulk(old.AsBytes())
}

// RemoveExpireIfPresent removes key's TTL if the key exists, ignoring
// the "no TTL set" case (used by GETSET's unconditional removeExpire).
func (db *Database) RemoveExpireIfPresent(key ES) {
	if _, ok := db.main.Get(key); ok {
		db.expires.Delete(key)
	}
}

// incrDecrGeneric is shared by INCR/DECR/INCRBY/DECRBY: runs the
// version protocol, reads the current integer value (or initValue if
// absent), adds incr, saturates to 32 bits, and always SuperReplaces
// with a brand new string object.
func incrDecrGeneric(db *Database, srv *Server, key ES, initValue, incr int64, req Request, now time.Time) Result {
	existing, _, existed := db.LookupWrite(key, now, srv.LRUClock())
	if existed && existing.Type != TypeString {
		return wrongType()
	}

	existingKey, _ := db.StoredKey(key)
	newKey, code := applyVersionProtocol(key, existingKey, existed, req.VersionIn, req.VersionCare)
	if code.IsError() {
		return errResult(code)
	}

	var value int64
	if !existed {
		value = initValue
	} else {
		n, ok := parseInteger(existing.AsBytes())
		if !ok {
			return notInteger()
		}
		value = n
	}
	value = saturate32(value + incr)

	db.SuperReplace(newKey, NewStringValueInt(value))
	srv.IncrDirty(1)
	applyDeferredTTL(db, newKey, req.ExpiretimeIn, now)
	return okScalar(value)
}

// Incr implements INCR key.
func Incr(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 2 {
		return wrongArgs()
	}
	return incrDecrGeneric(db, srv, NewES(req.Argv[1]), 0, 1, req, now)
}

// Decr implements DECR key.
func Decr(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 2 {
		return wrongArgs()
	}
	return incrDecrGeneric(db, srv, NewES(req.Argv[1]), 0, -1, req, now)
}

// Incrby implements INCRBY key init incr: an initial value and an
// increment, both parsed from argv[2]/argv[3].
func Incrby(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 4 {
		return wrongArgs()
	}
	initValue, ok := parseInteger(req.Argv[2])
	if !ok {
		return notInteger()
	}
	incr, ok := parseInteger(req.Argv[3])
	if !ok {
		return notInteger()
	}
	return incrDecrGeneric(db, srv, NewES(req.Argv[1]), initValue, incr, req, now)
}

// Decrby implements DECRBY key decrement.
func Decrby(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 3 {
		return wrongArgs()
	}
	incr, ok := parseInteger(req.Argv[2])
	if !ok {
		return notInteger()
	}
	return incrDecrGeneric(db, srv, NewES(req.Argv[1]), 0, -incr, req, now)
}
