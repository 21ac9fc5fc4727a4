package keyspace

import "time"

// fetchOrCreateList looks up key as a list, creating a fresh packed
// list on first write. Returns an error result if the key holds
// a different type.
func fetchOrCreateList(db *Database, key ES, existed bool, existing *Value) (*Value, Result, bool) {
	if existed {
		if existing.Type != TypeList {
			return nil, wrongType(), false
		}
		return existing, Result{}, false
	}
	v := NewListValue()
	return v, Result{}, true
}

func maybeConvertList(lv *ListValue, limits Limits, addedMaxLen int) {
	if lv.General != nil {
		return
	}
	if len(lv.Packed)+addedMaxLen > limits.ListPackedMaxLen {
		lv.ConvertToGeneral()
	}
}

// rebuildList replaces a list's contents with elems, keeping whichever
// encoding it already has: General, once non-nil, never reverts to
// Packed, so a rewrite in place only repopulates the linked list.
func rebuildList(lv *ListValue, elems []string) {
	if lv.General != nil {
		lv.General.Init()
		for _, e := range elems {
			lv.General.PushBack(e)
		}
		return
	}
	lv.Packed = elems
}

// pushGeneric is shared by LPUSH/RPUSH (variadic, DENYOOM) and
// LPUSHX/RPUSHX (conditional): pushes as many values as fit under the
// hard cap, then reports DATA_LEN_LIMITED if the push was truncated.
func pushGeneric(db *Database, srv *Server, req Request, now time.Time, left bool, conditional bool) Result {
	if len(req.Argv) < 3 {
		return wrongArgs()
	}
	key := NewES(req.Argv[1])
	values := req.Argv[2:]

	existing, _, existed := db.LookupWrite(key, now, srv.LRUClock())
	if conditional && !existed {
		return okScalar(0)
	}
	lv, errRes, isNew := fetchOrCreateList(db, key, existed, existing)
	if lv == nil {
		return errRes
	}

	existingKey, _ := db.StoredKey(key)
	newKey, code := applyVersionProtocol(key, existingKey, existed, req.VersionIn, req.VersionCare)
	if code.IsError() {
		return errResult(code)
	}

	room := srv.Limits.ListMaxLen - lv.List.Len()
	if room < 0 {
		room = 0
	}
	n := len(values)
	truncated := false
	if n > room {
		n = room
		truncated = true
	}

	for i := 0; i < n; i++ {
		val := values[i]
		if lv.List.General != nil {
			if left {
				lv.List.General.PushFront(val)
			} else {
				lv.List.General.PushBack(val)
			}
		} else {
			if left {
				lv.List.Packed = append([]string{val}, lv.List.Packed...)
			} else {
				lv.List.Packed = append(lv.List.Packed, val)
			}
		}
		maybeConvertList(lv.List, srv.Limits, 0)
	}

	if isNew {
		db.Add(newKey, lv)
	} else {
		db.UpdateKey(newKey)
	}
	srv.IncrDirty(int64(n))
	applyDeferredTTL(db, newKey, req.ExpiretimeIn, now)

	if truncated {
		return Result{Code: ErrDataLenLimited, Scalar: int64(n)}
	}
	return okScalar(int64(lv.List.Len()))
}

func Rpush(db *Database, srv *Server, req Request, now time.Time) Result {
	return pushGeneric(db, srv, req, now, false, false)
}
func Lpush(db *Database, srv *Server, req Request, now time.Time) Result {
	return pushGeneric(db, srv, req, now, true, false)
}
func Rpushx(db *Database, srv *Server, req Request, now time.Time) Result {
	return pushGeneric(db, srv, req, now, false, true)
}
func Lpushx(db *Database, srv *Server, req Request, now time.Time) Result {
	return pushGeneric(db, srv, req, now, true, true)
}

// listElements returns the list's elements as a slice regardless of
// encoding, for read-path commands.
func listElements(lv *ListValue) []string {
	return lv.Elements()
}

// Llen implements LLEN key.
func Llen(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 2 {
		return wrongArgs()
	}
	key := NewES(req.Argv[1])
	v, _, ok := db.LookupRead(key, now, srv.LRUClock())
	if !ok {
		return Result{Code: OkNotExist}
	}
	if v.Type != TypeList {
		return wrongType()
	}
	return okScalar(int64(v.List.Len()))
}

func normalizeIndex(idx, length int) int {
	if idx < 0 {
		idx += length
	}
	return idx
}

// Lindex implements LINDEX key index.
func Lindex(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 3 {
		return wrongArgs()
	}
	key := NewES(req.Argv[1])
	idx64, ok := parseInteger(req.Argv[2])
	if !ok {
		return notInteger()
	}
	v, _, exists := db.LookupRead(key, now, srv.LRUClock())
	if !exists {
		return Result{Code: OkNotExist}
	}
	if v.Type != TypeList {
		return wrongType()
	}
	elems := listElements(v.List)
	idx := normalizeIndex(int(idx64), len(elems))
	if idx < 0 || idx >= len(elems) {
		return Result{Code: OkNotExist}
	}
	return okBulk(elems[idx])
}

// Lset implements LSET key index value.
func Lset(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 4 {
		return wrongArgs()
	}
	key := NewES(req.Argv[1])
	idx64, ok := parseInteger(req.Argv[2])
	if !ok {
		return notInteger()
	}
	v, _, existed := db.LookupWrite(key, now, srv.LRUClock())
	if !existed {
		return Result{Code: OkNotExist}
	}
	if v.Type != TypeList {
		return wrongType()
	}

	existingKey, _ := db.StoredKey(key)
	newKey, code := applyVersionProtocol(key, existingKey, true, req.VersionIn, req.VersionCare)
	if code.IsError() {
		return errResult(code)
	}

	length := v.List.Len()
	idx := normalizeIndex(int(idx64), length)
	if idx < 0 || idx >= length {
		return outOfRange()
	}
	if v.List.General != nil {
		e := v.List.General.Front()
		for i := 0; i < idx; i++ {
			e = e.Next()
		}
		e.Value = req.Argv[3]
	} else {
		v.List.Packed[idx] = req.Argv[3]
	}
	db.UpdateKey(newKey)
	srv.IncrDirty(1)
	applyDeferredTTL(db, newKey, req.ExpiretimeIn, now)
	return Result{Code: OK}
}

// Lrange implements LRANGE key start stop.
func Lrange(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 4 {
		return wrongArgs()
	}
	key := NewES(req.Argv[1])
	start64, ok1 := parseInteger(req.Argv[2])
	stop64, ok2 := parseInteger(req.Argv[3])
	if !ok1 || !ok2 {
		return notInteger()
	}
	v, _, exists := db.LookupRead(key, now, srv.LRUClock())
	if !exists {
		return Result{Code: OkRangeHaveNone}
	}
	if v.Type != TypeList {
		return wrongType()
	}
	elems := listElements(v.List)
	start, stop := clampRange(int(start64), int(stop64), len(elems))
	if start > stop {
		return Result{Code: OkRangeHaveNone}
	}
	return okList(append([]string(nil), elems[start:stop+1]...))
}

// clampRange normalizes Redis-style start/stop indices (negative =
// from end) and clamps them to [0, length).
func clampRange(start, stop, length int) (int, int) {
	start = normalizeIndex(start, length)
	stop = normalizeIndex(stop, length)
	if start < 0 {
		start = 0
	}
	if stop >= length {
		stop = length - 1
	}
	return start, stop
}

// Ltrim implements LTRIM key start stop.
func Ltrim(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 4 {
		return wrongArgs()
	}
	key := NewES(req.Argv[1])
	start64, ok1 := parseInteger(req.Argv[2])
	stop64, ok2 := parseInteger(req.Argv[3])
	if !ok1 || !ok2 {
		return notInteger()
	}
	v, _, exists := db.LookupWrite(key, now, srv.LRUClock())
	if !exists {
		return Result{Code: OkNotExist}
	}
	if v.Type != TypeList {
		return wrongType()
	}

	existingKey, _ := db.StoredKey(key)
	newKey, code := applyVersionProtocol(key, existingKey, true, req.VersionIn, req.VersionCare)
	if code.IsError() {
		return errResult(code)
	}

	elems := listElements(v.List)
	start, stop := clampRange(int(start64), int(stop64), len(elems))
	var kept []string
	if start <= stop {
		kept = append([]string(nil), elems[start:stop+1]...)
	}
	rebuildList(v.List, kept)
	if len(kept) == 0 {
		db.deleteKey(newKey)
	} else {
		db.UpdateKey(newKey)
	}
	srv.IncrDirty(1)
	return Result{Code: OK}
}

// Lrem implements LREM key count value: removes up to |count|
// occurrences, from head to tail if count >= 0, tail to head if count
// < 0; count == 0 removes all occurrences.
func Lrem(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 4 {
		return wrongArgs()
	}
	key := NewES(req.Argv[1])
	count64, ok := parseInteger(req.Argv[2])
	if !ok {
		return notInteger()
	}
	value := req.Argv[3]

	v, _, exists := db.LookupWrite(key, now, srv.LRUClock())
	if !exists {
		return okScalar(0)
	}
	if v.Type != TypeList {
		return wrongType()
	}

	existingKey, _ := db.StoredKey(key)
	newKey, code := applyVersionProtocol(key, existingKey, true, req.VersionIn, req.VersionCare)
	if code.IsError() {
		return errResult(code)
	}

	elems := listElements(v.List)
	removed := 0
	var kept []string
	count := int(count64)
	if count >= 0 {
		limit := count
		if limit == 0 {
			limit = len(elems)
		}
		for _, e := range elems {
			if e == value && removed < limit {
				removed++
				continue
			}
			kept = append(kept, e)
		}
	} else {
		limit := -count
		matchIdx := map[int]bool{}
		cnt := 0
		for i := len(elems) - 1; i >= 0 && cnt < limit; i-- {
			if elems[i] == value {
				matchIdx[i] = true
				cnt++
			}
		}
		removed = cnt
		for i, e := range elems {
			if !matchIdx[i] {
				kept = append(kept, e)
			}
		}
	}

	rebuildList(v.List, kept)
	if len(kept) == 0 {
		db.deleteKey(newKey)
	} else {
		db.UpdateKey(newKey)
	}
	srv.IncrDirty(int64(removed))
	return okScalar(int64(removed))
}

// popGeneric is shared by LPOP/RPOP, supporting the multi-pop-N form.
func popGeneric(db *Database, srv *Server, req Request, now time.Time, left bool) Result {
	if len(req.Argv) != 3 {
		return wrongArgs()
	}
	key := NewES(req.Argv[1])
	count64, ok := parseInteger(req.Argv[2])
	if !ok {
		return notInteger()
	}
	if count64 < 0 {
		return outOfRange()
	}

	v, _, exists := db.LookupWrite(key, now, srv.LRUClock())
	if !exists {
		return Result{Code: OkNotExist}
	}
	if v.Type != TypeList {
		return wrongType()
	}

	existingKey, _ := db.StoredKey(key)
	newKey, code := applyVersionProtocol(key, existingKey, true, req.VersionIn, req.VersionCare)
	if code.IsError() {
		return errResult(code)
	}

	elems := listElements(v.List)
	n := int(count64)
	if n > len(elems) {
		n = len(elems)
	}
	var popped []string
	var remaining []string
	if left {
		popped = append([]string(nil), elems[:n]...)
		remaining = elems[n:]
	} else {
		popped = append([]string(nil), elems[len(elems)-n:]...)
		remaining = elems[:len(elems)-n]
	}

	rebuildList(v.List, remaining)
	if len(remaining) == 0 {
		db.deleteKey(newKey)
	} else {
		db.UpdateKey(newKey)
	}
	srv.IncrDirty(int64(n))
	if n == 0 {
		return Result{Code: OkRangeHaveNone}
	}
	return okList(popped)
}

func Lpop(db *Database, srv *Server, req Request, now time.Time) Result {
	return popGeneric(db, srv, req, now, true)
}
func Rpop(db *Database, srv *Server, req Request, now time.Time) Result {
	return popGeneric(db, srv, req, now, false)
}

// Linsert implements LINSERT key BEFORE|AFTER pivot value.
func Linsert(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 5 {
		return wrongArgs()
	}
	where := req.Argv[2]
	if where != "BEFORE" && where != "AFTER" {
		return syntaxError()
	}
	key := NewES(req.Argv[1])
	pivot := req.Argv[3]
	value := req.Argv[4]

	v, _, exists := db.LookupWrite(key, now, srv.LRUClock())
	if !exists {
		return Result{Code: OkNotExist}
	}
	if v.Type != TypeList {
		return wrongType()
	}

	existingKey, _ := db.StoredKey(key)
	newKey, code := applyVersionProtocol(key, existingKey, true, req.VersionIn, req.VersionCare)
	if code.IsError() {
		return errResult(code)
	}

	elems := listElements(v.List)
	pos := -1
	for i, e := range elems {
		if e == pivot {
			pos = i
			break
		}
	}
	if pos < 0 {
		return outOfRange()
	}
	insertAt := pos
	if where == "AFTER" {
		insertAt = pos + 1
	}
	out := make([]string, 0, len(elems)+1)
	out = append(out, elems[:insertAt]...)
	out = append(out, value)
	out = append(out, elems[insertAt:]...)

	rebuildList(v.List, out)
	maybeConvertList(v.List, srv.Limits, 0)
	db.UpdateKey(newKey)
	srv.IncrDirty(1)
	applyDeferredTTL(db, newKey, req.ExpiretimeIn, now)
	return okScalar(int64(len(out)))
}
