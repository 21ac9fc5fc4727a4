package keyspace

import (
	"strconv"
	"time"
)

func fetchOrCreateZSet(existing *Value, existed bool) (*Value, Result) {
	if existed {
		if existing.Type != TypeZSet {
			return nil, wrongType()
		}
		return existing, Result{}
	}
	return NewZSetValue(), Result{}
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Zadd implements ZADD key score member (DENYOOM).
func Zadd(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 4 {
		return wrongArgs()
	}
	score, err := strconv.ParseFloat(req.Argv[2], 64)
	if err != nil {
		return notInteger()
	}
	member := req.Argv[3]
	key := NewES(req.Argv[1])

	existing, _, existed := db.LookupWrite(key, now, srv.LRUClock())
	zv, errRes := fetchOrCreateZSet(existing, existed)
	if zv == nil {
		return errRes
	}

	existingKey, _ := db.StoredKey(key)
	newKey, code := applyVersionProtocol(key, existingKey, existed, req.VersionIn, req.VersionCare)
	if code.IsError() {
		return errResult(code)
	}

	added := 0
	if zv.ZSet.Set(member, score) {
		added = 1
	}
	if existed {
		db.UpdateKey(newKey)
	} else {
		db.Add(newKey, zv)
	}
	srv.IncrDirty(int64(added))
	applyDeferredTTL(db, newKey, req.ExpiretimeIn, now)
	return okScalar(int64(added))
}

// Zincrby implements ZINCRBY key increment member (DENYOOM).
func Zincrby(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 4 {
		return wrongArgs()
	}
	incr, err := strconv.ParseFloat(req.Argv[2], 64)
	if err != nil {
		return notInteger()
	}
	key := NewES(req.Argv[1])
	member := req.Argv[3]

	existing, _, existed := db.LookupWrite(key, now, srv.LRUClock())
	zv, errRes := fetchOrCreateZSet(existing, existed)
	if zv == nil {
		return errRes
	}

	existingKey, _ := db.StoredKey(key)
	newKey, code := applyVersionProtocol(key, existingKey, existed, req.VersionIn, req.VersionCare)
	if code.IsError() {
		return errResult(code)
	}

	newScore := incr
	if cur, ok := zv.ZSet.Scores[member]; ok {
		newScore = cur + incr
	}
	zv.ZSet.Set(member, newScore)
	if existed {
		db.UpdateKey(newKey)
	} else {
		db.Add(newKey, zv)
	}
	srv.IncrDirty(1)
	applyDeferredTTL(db, newKey, req.ExpiretimeIn, now)
	return okBulk(formatScore(newScore))
}

// Zrem implements ZREM key member.
func Zrem(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 3 {
		return wrongArgs()
	}
	key := NewES(req.Argv[1])
	v, _, exists := db.LookupWrite(key, now, srv.LRUClock())
	if !exists {
		return okScalar(0)
	}
	if v.Type != TypeZSet {
		return wrongType()
	}

	existingKey, _ := db.StoredKey(key)
	newKey, code := applyVersionProtocol(key, existingKey, true, req.VersionIn, req.VersionCare)
	if code.IsError() {
		return errResult(code)
	}

	removed := 0
	if v.ZSet.Remove(req.Argv[2]) {
		removed = 1
	}
	if v.ZSet.Len() == 0 {
		db.deleteKey(newKey)
	} else {
		db.UpdateKey(newKey)
	}
	srv.IncrDirty(int64(removed))
	return okScalar(int64(removed))
}

// Zcard implements ZCARD key.
func Zcard(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 2 {
		return wrongArgs()
	}
	key := NewES(req.Argv[1])
	v, _, exists := db.LookupRead(key, now, srv.LRUClock())
	if !exists {
		return okScalar(0)
	}
	if v.Type != TypeZSet {
		return wrongType()
	}
	return okScalar(int64(v.ZSet.Len()))
}

// Zscore implements ZSCORE key member.
func Zscore(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 3 {
		return wrongArgs()
	}
	key := NewES(req.Argv[1])
	v, _, exists := db.LookupRead(key, now, srv.LRUClock())
	if !exists {
		return Result{Code: OkNotExist}
	}
	if v.Type != TypeZSet {
		return wrongType()
	}
	score, ok := v.ZSet.Scores[req.Argv[2]]
	if !ok {
		return Result{Code: OkNotExist}
	}
	return okBulk(formatScore(score))
}

// Zrank implements ZRANK key member (ascending rank).
func Zrank(db *Database, srv *Server, req Request, now time.Time) Result {
	return zrankGeneric(db, srv, req, now, false)
}

// Zrevrank implements ZREVRANK key member (descending rank).
func Zrevrank(db *Database, srv *Server, req Request, now time.Time) Result {
	return zrankGeneric(db, srv, req, now, true)
}

func zrankGeneric(db *Database, srv *Server, req Request, now time.Time, reverse bool) Result {
	if len(req.Argv) != 3 {
		return wrongArgs()
	}
	key := NewES(req.Argv[1])
	v, _, exists := db.LookupRead(key, now, srv.LRUClock())
	if !exists {
		return Result{Code: OkNotExist}
	}
	if v.Type != TypeZSet {
		return wrongType()
	}
	score, ok := v.ZSet.Scores[req.Argv[2]]
	if !ok {
		return Result{Code: OkNotExist}
	}
	rank := v.ZSet.SL.rank(req.Argv[2], score)
	if rank < 0 {
		return Result{Code: OkNotExist}
	}
	if reverse {
		rank = v.ZSet.Len() - 1 - rank
	}
	return okScalar(int64(rank))
}

func zrangeSlice(v *Value, start, stop int64) []skipListNode {
	all := v.ZSet.SL.byRankAscending()
	n := int64(len(all))
	if start < 0 {
		start = n + start
	}
	if stop < 0 {
		stop = n + stop
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || n == 0 {
		return nil
	}
	return all[start : stop+1]
}

// Zrange implements ZRANGE key start stop (members only).
func Zrange(db *Database, srv *Server, req Request, now time.Time) Result {
	return zrangeGeneric(db, srv, req, now, false, false)
}

// Zrevrange implements ZREVRANGE key start stop (members only).
func Zrevrange(db *Database, srv *Server, req Request, now time.Time) Result {
	return zrangeGeneric(db, srv, req, now, true, false)
}

// Zrangewithscore implements ZRANGEWITHSCORE key start stop.
func Zrangewithscore(db *Database, srv *Server, req Request, now time.Time) Result {
	return zrangeGeneric(db, srv, req, now, false, true)
}

// Zrevrangewithscore implements ZREVRANGEWITHSCORE key start stop.
func Zrevrangewithscore(db *Database, srv *Server, req Request, now time.Time) Result {
	return zrangeGeneric(db, srv, req, now, true, true)
}

func zrangeGeneric(db *Database, srv *Server, req Request, now time.Time, reverse, withScores bool) Result {
	if len(req.Argv) != 4 {
		return wrongArgs()
	}
	start, ok := parseInteger(req.Argv[2])
	if !ok {
		return notInteger()
	}
	stop, ok := parseInteger(req.Argv[3])
	if !ok {
		return notInteger()
	}
	key := NewES(req.Argv[1])
	v, _, exists := db.LookupRead(key, now, srv.LRUClock())
	if !exists {
		return Result{Code: OkRangeHaveNone}
	}
	if v.Type != TypeZSet {
		return wrongType()
	}
	nodes := zrangeSlice(v, start, stop)
	if reverse {
		for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
			nodes[i], nodes[j] = nodes[j], nodes[i]
		}
	}
	if len(nodes) == 0 {
		return Result{Code: OkRangeHaveNone}
	}
	out := make([]string, 0, len(nodes)*2)
	for _, nd := range nodes {
		out = append(out, nd.member)
		if withScores {
			out = append(out, formatScore(nd.score))
		}
	}
	return okList(out)
}

// Zcount implements ZCOUNT key min max.
func Zcount(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 4 {
		return wrongArgs()
	}
	min, err1 := strconv.ParseFloat(req.Argv[2], 64)
	max, err2 := strconv.ParseFloat(req.Argv[3], 64)
	if err1 != nil || err2 != nil {
		return notInteger()
	}
	key := NewES(req.Argv[1])
	v, _, exists := db.LookupRead(key, now, srv.LRUClock())
	if !exists {
		return okScalar(0)
	}
	if v.Type != TypeZSet {
		return wrongType()
	}
	count := int64(0)
	for _, nd := range v.ZSet.SL.byRankAscending() {
		if nd.score >= min && nd.score <= max {
			count++
		}
	}
	return okScalar(count)
}

// Zrangebyscore implements ZRANGEBYSCORE key min max offset count,
// a fixed-arity score-range query paginated by offset/count rather
// than the flag-based WITHSCORES/LIMIT syntax of a full RESP client.
func Zrangebyscore(db *Database, srv *Server, req Request, now time.Time) Result {
	return zrangebyscoreGeneric(db, srv, req, now, false)
}

// Zrevrangebyscore implements ZREVRANGEBYSCORE key max min offset count.
func Zrevrangebyscore(db *Database, srv *Server, req Request, now time.Time) Result {
	return zrangebyscoreGeneric(db, srv, req, now, true)
}

func zrangebyscoreGeneric(db *Database, srv *Server, req Request, now time.Time, reverse bool) Result {
	if len(req.Argv) != 6 {
		return wrongArgs()
	}
	a, errA := strconv.ParseFloat(req.Argv[2], 64)
	b, errB := strconv.ParseFloat(req.Argv[3], 64)
	offset, okOff := parseInteger(req.Argv[4])
	count, okCnt := parseInteger(req.Argv[5])
	if errA != nil || errB != nil || !okOff || !okCnt {
		return notInteger()
	}
	min, max := a, b
	if reverse {
		min, max = b, a
	}
	key := NewES(req.Argv[1])
	v, _, exists := db.LookupRead(key, now, srv.LRUClock())
	if !exists {
		return Result{Code: OkRangeHaveNone}
	}
	if v.Type != TypeZSet {
		return wrongType()
	}
	var nodes []skipListNode
	for _, nd := range v.ZSet.SL.byRankAscending() {
		if nd.score >= min && nd.score <= max {
			nodes = append(nodes, nd)
		}
	}
	if reverse {
		for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
			nodes[i], nodes[j] = nodes[j], nodes[i]
		}
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= int64(len(nodes)) {
		return Result{Code: OkRangeHaveNone}
	}
	end := offset + count
	if count < 0 || end > int64(len(nodes)) {
		end = int64(len(nodes))
	}
	nodes = nodes[offset:end]
	if len(nodes) == 0 {
		return Result{Code: OkRangeHaveNone}
	}
	out := make([]string, 0, len(nodes))
	for _, nd := range nodes {
		out = append(out, nd.member)
	}
	return okList(out)
}

// Zremrangebyrank implements ZREMRANGEBYRANK key start stop.
func Zremrangebyrank(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 4 {
		return wrongArgs()
	}
	start, ok := parseInteger(req.Argv[2])
	if !ok {
		return notInteger()
	}
	stop, ok := parseInteger(req.Argv[3])
	if !ok {
		return notInteger()
	}
	key := NewES(req.Argv[1])
	v, _, exists := db.LookupWrite(key, now, srv.LRUClock())
	if !exists {
		return okScalar(0)
	}
	if v.Type != TypeZSet {
		return wrongType()
	}

	existingKey, _ := db.StoredKey(key)
	newKey, code := applyVersionProtocol(key, existingKey, true, req.VersionIn, req.VersionCare)
	if code.IsError() {
		return errResult(code)
	}

	nodes := zrangeSlice(v, start, stop)
	for _, nd := range nodes {
		v.ZSet.Remove(nd.member)
	}
	if v.ZSet.Len() == 0 {
		db.deleteKey(newKey)
	} else {
		db.UpdateKey(newKey)
	}
	srv.IncrDirty(int64(len(nodes)))
	return okScalar(int64(len(nodes)))
}

// Zremrangebyscore implements ZREMRANGEBYSCORE key min max.
func Zremrangebyscore(db *Database, srv *Server, req Request, now time.Time) Result {
	if len(req.Argv) != 4 {
		return wrongArgs()
	}
	min, errA := strconv.ParseFloat(req.Argv[2], 64)
	max, errB := strconv.ParseFloat(req.Argv[3], 64)
	if errA != nil || errB != nil {
		return notInteger()
	}
	key := NewES(req.Argv[1])
	v, _, exists := db.LookupWrite(key, now, srv.LRUClock())
	if !exists {
		return okScalar(0)
	}
	if v.Type != TypeZSet {
		return wrongType()
	}

	existingKey, _ := db.StoredKey(key)
	newKey, code := applyVersionProtocol(key, existingKey, true, req.VersionIn, req.VersionCare)
	if code.IsError() {
		return errResult(code)
	}

	var toRemove []string
	for _, nd := range v.ZSet.SL.byRankAscending() {
		if nd.score >= min && nd.score <= max {
			toRemove = append(toRemove, nd.member)
		}
	}
	for _, m := range toRemove {
		v.ZSet.Remove(m)
	}
	if v.ZSet.Len() == 0 {
		db.deleteKey(newKey)
	} else {
		db.UpdateKey(newKey)
	}
	srv.IncrDirty(int64(len(toRemove)))
	return okScalar(int64(len(toRemove)))
}
