package keyspace

import (
	"strconv"
	"time"
)

func fetchOrCreateHash(existing *Value, existed bool) (*Value, Result) {
	if existed {
		if existing.Type != TypeHash {
			return nil, wrongType()
		}
		return existing, Result{}
	}
	return NewHashValue(), Result{}
}

func maybeConvertHash(hv *HashValue, limits Limits, fieldLen, valLen int) {
	if hv.General != nil {
		return
	}
	if hv.Len() > limits.HashPackedMaxLen || fieldLen > limits.HashPackedMaxVal || valLen > limits.HashPackedMaxVal {
		hv.ConvertToGeneral()
	}
}

// Hset implements HSET key field value (DENYOOM).
func Hset(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 4 {
		return wrongArgs()
	}
	key := NewES(req.Argv[1])
	field, val := req.Argv[2], req.Argv[3]

	existing, _, existed := db.LookupWrite(key, now, srv.LRUClock())
	hv, errRes := fetchOrCreateHash(existing, existed)
	if hv == nil {
		return errRes
	}

	existingKey, _ := db.StoredKey(key)
	newKey, code := applyVersionProtocol(key, existingKey, existed, req.VersionIn, req.VersionCare)
	if code.IsError() {
		return errResult(code)
	}

	isNew := hv.Hash.Set(field, val)
	maybeConvertHash(hv.Hash, srv.Limits, len(field), len(val))
	if existed {
		db.UpdateKey(newKey)
	} else {
		db.Add(newKey, hv)
	}
	srv.IncrDirty(1)
	applyDeferredTTL(db, newKey, req.ExpiretimeIn, now)
	if isNew {
		return Result{Code: OkButCOne}
	}
	return Result{Code: OkButCZero}
}

// Hsetnx implements HSETNX key field value: no-op if field exists.
func Hsetnx(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 4 {
		return wrongArgs()
	}
	key := NewES(req.Argv[1])
	field, val := req.Argv[2], req.Argv[3]

	existing, _, existed := db.LookupWrite(key, now, srv.LRUClock())
	hv, errRes := fetchOrCreateHash(existing, existed)
	if hv == nil {
		return errRes
	}
	if existed {
		if _, has := hv.Hash.Get(field); has {
			return Result{Code: OkButCZero}
		}
	}

	existingKey, _ := db.StoredKey(key)
	newKey, code := applyVersionProtocol(key, existingKey, existed, req.VersionIn, req.VersionCare)
	if code.IsError() {
		return errResult(code)
	}

	hv.Hash.Set(field, val)
	maybeConvertHash(hv.Hash, srv.Limits, len(field), len(val))
	if existed {
		db.UpdateKey(newKey)
	} else {
		db.Add(newKey, hv)
	}
	srv.IncrDirty(1)
	applyDeferredTTL(db, newKey, req.ExpiretimeIn, now)
	return Result{Code: OkButCOne}
}

// Hget implements HGET key field.
func Hget(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 3 {
		return wrongArgs()
	}
	key := NewES(req.Argv[1])
	v, _, exists := db.LookupRead(key, now, srv.LRUClock())
	if !exists {
		return Result{Code: OkNotExist}
	}
	if v.Type != TypeHash {
		return wrongType()
	}
	val, has := v.Hash.Get(req.Argv[2])
	if !has {
		return Result{Code: OkNotExist}
	}
	return okBulk(val)
}

// Hmset implements HMSET key field value [field value ...].
func Hmset(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) < 4 || len(req.Argv)%2 != 0 {
		return wrongArgs()
	}
	key := NewES(req.Argv[1])
	pairs := req.Argv[2:]

	existing, _, existed := db.LookupWrite(key, now, srv.LRUClock())
	hv, errRes := fetchOrCreateHash(existing, existed)
	if hv == nil {
		return errRes
	}

	existingKey, _ := db.StoredKey(key)
	newKey, code := applyVersionProtocol(key, existingKey, existed, req.VersionIn, req.VersionCare)
	if code.IsError() {
		return errResult(code)
	}

	for i := 0; i < len(pairs); i += 2 {
		hv.Hash.Set(pairs[i], pairs[i+1])
		maybeConvertHash(hv.Hash, srv.Limits, len(pairs[i]), len(pairs[i+1]))
	}
	if existed {
		db.UpdateKey(newKey)
	} else {
		db.Add(newKey, hv)
	}
	srv.IncrDirty(int64(len(pairs) / 2))
	applyDeferredTTL(db, newKey, req.ExpiretimeIn, now)
	return Result{Code: OK}
}

// Hmget implements HMGET key field [field ...].
func Hmget(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) < 3 {
		return wrongArgs()
	}
	key := NewES(req.Argv[1])
	v, _, exists := db.LookupRead(key, now, srv.LRUClock())
	if !exists {
		out := make([]string, len(req.Argv)-2)
		return okList(out)
	}
	if v.Type != TypeHash {
		return wrongType()
	}
	out := make([]string, 0, len(req.Argv)-2)
	for _, f := range req.Argv[2:] {
		val, has := v.Hash.Get(f)
		if !has {
			out = append(out, "")
			continue
		}
		out = append(out, val)
	}
	return okList(out)
}

// Hdel implements HDEL key field.
func Hdel(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 3 {
		return wrongArgs()
	}
	key := NewES(req.Argv[1])
	v, _, exists := db.LookupWrite(key, now, srv.LRUClock())
	if !exists {
		return okScalar(0)
	}
	if v.Type != TypeHash {
		return wrongType()
	}

	existingKey, _ := db.StoredKey(key)
	newKey, code := applyVersionProtocol(key, existingKey, true, req.VersionIn, req.VersionCare)
	if code.IsError() {
		return errResult(code)
	}

	removed := 0
	if v.Hash.Delete(req.Argv[2]) {
		removed = 1
	}
	if v.Hash.Len() == 0 {
		db.deleteKey(newKey)
	} else {
		db.UpdateKey(newKey)
	}
	srv.IncrDirty(int64(removed))
	return okScalar(int64(removed))
}

// Hlen implements HLEN key.
func Hlen(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 2 {
		return wrongArgs()
	}
	key := NewES(req.Argv[1])
	v, _, exists := db.LookupRead(key, now, srv.LRUClock())
	if !exists {
		return okScalar(0)
	}
	if v.Type != TypeHash {
		return wrongType()
	}
	return okScalar(int64(v.Hash.Len()))
}

// Hkeys implements HKEYS key.
func Hkeys(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 2 {
		return wrongArgs()
	}
	key := NewES(req.Argv[1])
	v, _, exists := db.LookupRead(key, now, srv.LRUClock())
	if !exists {
		return Result{Code: OkRangeHaveNone}
	}
	if v.Type != TypeHash {
		return wrongType()
	}
	return okList(v.Hash.Fields())
}

// Hvals implements HVALS key.
func Hvals(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 2 {
		return wrongArgs()
	}
	key := NewES(req.Argv[1])
	v, _, exists := db.LookupRead(key, now, srv.LRUClock())
	if !exists {
		return Result{Code: OkRangeHaveNone}
	}
	if v.Type != TypeHash {
		return wrongType()
	}
	out := make([]string, 0, v.Hash.Len())
	for _, f := range v.Hash.Fields() {
		val, _ := v.Hash.Get(f)
		out = append(out, val)
	}
	return okList(out)
}

// Hgetall implements HGETALL key.
func Hgetall(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 2 {
		return wrongArgs()
	}
	key := NewES(req.Argv[1])
	v, _, exists := db.LookupRead(key, now, srv.LRUClock())
	if !exists {
		return Result{Code: OkRangeHaveNone}
	}
	if v.Type != TypeHash {
		return wrongType()
	}
	out := make([]string, 0, v.Hash.Len()*2)
	for _, f := range v.Hash.Fields() {
		val, _ := v.Hash.Get(f)
		out = append(out, f, val)
	}
	return okList(out)
}

// Hexists implements HEXISTS key field.
func Hexists(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 3 {
		return wrongArgs()
	}
	key := NewES(req.Argv[1])
	v, _, exists := db.LookupRead(key, now, srv.LRUClock())
	if !exists {
		return Result{Code: OkButCZero}
	}
	if v.Type != TypeHash {
		return wrongType()
	}
	if _, has := v.Hash.Get(req.Argv[2]); has {
		return Result{Code: OkButCOne}
	}
	return Result{Code: OkButCZero}
}

// Hincrby implements HINCRBY key field increment, applying the same
// 32-bit saturation as the string counters.
func Hincrby(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 4 {
		return wrongArgs()
	}
	incr, ok := parseInteger(req.Argv[3])
	if !ok {
		return notInteger()
	}
	key := NewES(req.Argv[1])
	field := req.Argv[2]

	existing, _, existed := db.LookupWrite(key, now, srv.LRUClock())
	hv, errRes := fetchOrCreateHash(existing, existed)
	if hv == nil {
		return errRes
	}

	existingKey, _ := db.StoredKey(key)
	newKey, code := applyVersionProtocol(key, existingKey, existed, req.VersionIn, req.VersionCare)
	if code.IsError() {
		return errResult(code)
	}

	var value int64
	if cur, has := hv.Hash.Get(field); has {
		n, ok := parseInteger(cur)
		if !ok {
			return notInteger()
		}
		value = n
	}
	value = saturate32(value + incr)
	hv.Hash.Set(field, strconv.FormatInt(value, 10))
	maybeConvertHash(hv.Hash, srv.Limits, len(field), 20)

	if existed {
		db.UpdateKey(newKey)
	} else {
		db.Add(newKey, hv)
	}
	srv.IncrDirty(1)
	applyDeferredTTL(db, newKey, req.ExpiretimeIn, now)
	return okScalar(value)
}
