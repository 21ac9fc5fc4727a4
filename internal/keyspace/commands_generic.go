package keyspace

import "time"

// Del implements DEL key [key ...].
func Del(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) < 2 {
		return wrongArgs()
	}
	removed := int64(0)
	for _, k := range req.Argv[1:] {
		key := NewES(k)
		if db.Exists(key, now) {
			db.deleteKey(key)
			removed++
		}
	}
	srv.IncrDirty(removed)
	if removed == 0 {
		return Result{Code: OkNotExist}
	}
	return okScalar(removed)
}

// Exists implements EXISTS key.
func Exists(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 2 {
		return wrongArgs()
	}
	key := NewES(req.Argv[1])
	if db.Exists(key, now) {
		return Result{Code: OkButCOne}
	}
	return Result{Code: OkButCZero}
}

// Type implements TYPE key.
func Type(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 2 {
		return wrongArgs()
	}
	key := NewES(req.Argv[1])
	v, _, exists := db.LookupRead(key, now, srv.LRUClock())
	if !exists {
		return Result{Code: OkNotExist}
	}
	var name string
	switch v.Type {
	case TypeString:
		name = "string"
	case TypeList:
		name = "list"
	case TypeSet:
		name = "set"
	case TypeHash:
		name = "hash"
	case TypeZSet:
		name = "zset"
	default:
		name = "none"
	}
	return okBulk(name)
}

// Expire implements the X-expire condensed protocol: seconds < 0 is a
// no-op; seconds == 0 removes any TTL; 0 < seconds <= now is treated
// as a duration; seconds > now is treated as an absolute unix time.
func Expire(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 3 {
		return wrongArgs()
	}
	seconds, ok := parseInteger(req.Argv[2])
	if !ok {
		return notInteger()
	}
	key := NewES(req.Argv[1])
	if !db.Exists(key, now) {
		return Result{Code: OkNotExist}
	}

	switch {
	case seconds < 0:
		return Result{Code: OK}
	case seconds == 0:
		if db.RemoveExpire(key) {
			srv.IncrDirty(1)
		}
		return Result{Code: OK}
	case seconds <= now.Unix():
		db.SetXExpire(key, now.Add(time.Duration(seconds)*time.Second))
	default:
		db.SetXExpire(key, time.Unix(seconds, 0))
	}
	srv.IncrDirty(1)
	return Result{Code: OK}
}

// Ttl implements TTL key.
func Ttl(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 2 {
		return wrongArgs()
	}
	key := NewES(req.Argv[1])
	if !db.Exists(key, now) {
		return Result{Code: OkNotExist}
	}
	when, hasTTL := db.GetExpire(key)
	if !hasTTL {
		return okScalar(0)
	}
	remaining := when - now.Unix()
	if remaining < 0 {
		remaining = 0
	}
	return okScalar(remaining)
}

// Persist implements PERSIST key: removes any TTL unconditionally.
func Persist(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 2 {
		return wrongArgs()
	}
	key := NewES(req.Argv[1])
	if !db.Exists(key, now) {
		return Result{Code: OkNotExist}
	}
	if db.RemoveExpire(key) {
		srv.IncrDirty(1)
		return Result{Code: OkButCOne}
	}
	return Result{Code: OkButCZero}
}
