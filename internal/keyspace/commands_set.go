package keyspace

import "time"

// Sadd implements SADD key member (DENYOOM): adds the member,
// converting to the general encoding once the intset threshold is
// crossed. Limits has no hard cap for sets, so Sadd never rejects or
// rolls back an add on size.
func Sadd(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 3 {
		return wrongArgs()
	}
	key := NewES(req.Argv[1])
	member := req.Argv[2]

	existing, _, existed := db.LookupWrite(key, now, srv.LRUClock())
	var sv *Value
	if existed {
		if existing.Type != TypeSet {
			return wrongType()
		}
		sv = existing
	} else {
		sv = NewSetValue()
	}

	existingKey, _ := db.StoredKey(key)
	newKey, code := applyVersionProtocol(key, existingKey, existed, req.VersionIn, req.VersionCare)
	if code.IsError() {
		return errResult(code)
	}

	added := 0
	if sv.Set.Add(member) {
		added = 1
	}
	if sv.Set.General == nil && sv.Set.Len() > srv.Limits.SetIntMaxLen {
		sv.Set.ConvertToGeneral()
	}

	if existed {
		db.UpdateKey(newKey)
	} else {
		db.Add(newKey, sv)
	}
	srv.IncrDirty(int64(added))
	applyDeferredTTL(db, newKey, req.ExpiretimeIn, now)
	return okScalar(int64(added))
}

// Srem implements SREM key member.
func Srem(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 3 {
		return wrongArgs()
	}
	key := NewES(req.Argv[1])
	v, _, exists := db.LookupWrite(key, now, srv.LRUClock())
	if !exists {
		return okScalar(0)
	}
	if v.Type != TypeSet {
		return wrongType()
	}

	existingKey, _ := db.StoredKey(key)
	newKey, code := applyVersionProtocol(key, existingKey, true, req.VersionIn, req.VersionCare)
	if code.IsError() {
		return errResult(code)
	}

	removed := 0
	if v.Set.Remove(req.Argv[2]) {
		removed = 1
	}
	if v.Set.Len() == 0 {
		db.deleteKey(newKey)
	} else {
		db.UpdateKey(newKey)
	}
	srv.IncrDirty(int64(removed))
	return okScalar(int64(removed))
}

// Sismember implements SISMEMBER key member.
func Sismember(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 3 {
		return wrongArgs()
	}
	key := NewES(req.Argv[1])
	v, _, exists := db.LookupRead(key, now, srv.LRUClock())
	if !exists {
		return Result{Code: OkButCZero}
	}
	if v.Type != TypeSet {
		return wrongType()
	}
	if v.Set.Contains(req.Argv[2]) {
		return Result{Code: OkButCOne}
	}
	return Result{Code: OkButCZero}
}

// Scard implements SCARD key.
func Scard(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 2 {
		return wrongArgs()
	}
	key := NewES(req.Argv[1])
	v, _, exists := db.LookupRead(key, now, srv.LRUClock())
	if !exists {
		return okScalar(0)
	}
	if v.Type != TypeSet {
		return wrongType()
	}
	return okScalar(int64(v.Set.Len()))
}

// Spop implements SPOP key: removes and returns one random member.
func Spop(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 2 {
		return wrongArgs()
	}
	key := NewES(req.Argv[1])
	v, _, exists := db.LookupWrite(key, now, srv.LRUClock())
	if !exists {
		return Result{Code: OkNotExist}
	}
	if v.Type != TypeSet {
		return wrongType()
	}

	existingKey, _ := db.StoredKey(key)
	newKey, code := applyVersionProtocol(key, existingKey, true, req.VersionIn, req.VersionCare)
	if code.IsError() {
		return errResult(code)
	}

	members := v.Set.Members()
	if len(members) == 0 {
		db.deleteKey(newKey)
		return Result{Code: OkNotExist}
	}
	picked := members[now.UnixNano()%int64(len(members))]
	v.Set.Remove(picked)
	if v.Set.Len() == 0 {
		db.deleteKey(newKey)
	} else {
		db.UpdateKey(newKey)
	}
	srv.IncrDirty(1)
	return okBulk(picked)
}

// Smove implements SMOVE source destination member, reporting
// OK_BUT_CZERO/OK_BUT_CONE depending on whether the member was found.
func Smove(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 4 {
		return wrongArgs()
	}
	srcKey := NewES(req.Argv[1])
	dstKey := NewES(req.Argv[2])
	member := req.Argv[3]

	srcVal, _, srcExists := db.LookupWrite(srcKey, now, srv.LRUClock())
	if !srcExists {
		return Result{Code: OkButCZero}
	}
	if srcVal.Type != TypeSet {
		return wrongType()
	}
	if !srcVal.Set.Contains(member) {
		return Result{Code: OkButCZero}
	}

	dstVal, _, dstExists := db.LookupWrite(dstKey, now, srv.LRUClock())
	if dstExists && dstVal.Type != TypeSet {
		return wrongType()
	}

	srcVal.Set.Remove(member)
	srcKeyStored, _ := db.StoredKey(srcKey)
	if srcVal.Set.Len() == 0 {
		db.deleteKey(srcKeyStored)
	} else {
		db.UpdateKey(srcKeyStored)
	}

	if !dstExists {
		dstVal = NewSetValue()
		dstVal.Set.Add(member)
		db.Add(dstKey, dstVal)
	} else {
		dstVal.Set.Add(member)
		dstKeyStored, _ := db.StoredKey(dstKey)
		db.UpdateKey(dstKeyStored)
	}
	srv.IncrDirty(1)
	return Result{Code: OkButCOne}
}

// sinterGeneric computes the intersection of one or more sets,
// shared by SINTER/SINTERSTORE/SMEMBERS (SMEMBERS is an alias of
// SINTER with one argument). A missing key contributes an empty set
// rather than erroring, so the intersection of an empty set with
// anything is empty.
func sinterGeneric(db *Database, srv *Server, keys []string, now time.Time) ([]string, ReturnCode) {
	var sets []*SetValue
	for _, k := range keys {
		v, _, exists := db.LookupRead(NewES(k), now, srv.LRUClock())
		if !exists {
			return nil, OK // empty intersection, not an error
		}
		if v.Type != TypeSet {
			return nil, ErrWrongType
		}
		sets = append(sets, v.Set)
	}
	if len(sets) == 0 {
		return nil, OK
	}
	smallest := sets[0]
	for _, s := range sets[1:] {
		if s.Len() < smallest.Len() {
			smallest = s
		}
	}
	var out []string
	for _, m := range smallest.Members() {
		inAll := true
		for _, s := range sets {
			if s == smallest {
				continue
			}
			if !s.Contains(m) {
				inAll = false
				break
			}
		}
		if inAll {
			out = append(out, m)
		}
	}
	return out, OK
}

// Sinter implements SINTER key [key ...].
func Sinter(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) < 2 {
		return wrongArgs()
	}
	members, code := sinterGeneric(db, srv, req.Argv[1:], now)
	if code.IsError() {
		return errResult(code)
	}
	if len(members) == 0 {
		return Result{Code: OkRangeHaveNone}
	}
	return okList(members)
}

// Smembers implements SMEMBERS key (sinter with one argument).
func Smembers(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 2 {
		return wrongArgs()
	}
	return Sinter(db, srv, req, now)
}

// Sinterstore implements SINTERSTORE destination key [key ...].
func Sinterstore(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) < 3 {
		return wrongArgs()
	}
	members, code := sinterGeneric(db, srv, req.Argv[2:], now)
	if code.IsError() {
		return errResult(code)
	}
	destKey := NewES(req.Argv[1])
	if len(members) == 0 {
		db.deleteKey(destKey)
		return okScalar(0)
	}
	sv := NewSetValue()
	for _, m := range members {
		sv.Set.Add(m)
		if sv.Set.General == nil && sv.Set.Len() > srv.Limits.SetIntMaxLen {
			sv.Set.ConvertToGeneral()
		}
	}
	db.Replace(destKey, sv)
	srv.IncrDirty(1)
	return okScalar(int64(len(members)))
}
