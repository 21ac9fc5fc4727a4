package keyspace

import (
	"testing"
	"time"
)

func TestPushAndRange(t *testing.T) {
	db := NewDatabase(0, 0, 5)
	srv := newTestServer()
	now := time.Now()

	Rpush(db, srv, Request{Argv: []string{"rpush", "l", "a", "b", "c"}, ExpiretimeIn: -1}, now)
	res := Lrange(db, srv, Request{Argv: []string{"lrange", "l", "0", "-1"}}, now)
	want := []string{"a", "b", "c"}
	if !stringSliceEqual(res.List, want) {
		t.Fatalf("expected %v, got %v", want, res.List)
	}
}

func TestLpushPrepends(t *testing.T) {
	db := NewDatabase(0, 0, 5)
	srv := newTestServer()
	now := time.Now()

	Lpush(db, srv, Request{Argv: []string{"lpush", "l", "a"}, ExpiretimeIn: -1}, now)
	Lpush(db, srv, Request{Argv: []string{"lpush", "l", "b"}}, now)
	res := Lrange(db, srv, Request{Argv: []string{"lrange", "l", "0", "-1"}}, now)
	want := []string{"b", "a"}
	if !stringSliceEqual(res.List, want) {
		t.Fatalf("expected %v, got %v", want, res.List)
	}
}

func TestPushxOnMissingKeyIsNoop(t *testing.T) {
	db := NewDatabase(0, 0, 5)
	srv := newTestServer()
	now := time.Now()
	res := Rpushx(db, srv, Request{Argv: []string{"rpushx", "l", "a"}}, now)
	if res.Scalar != 0 {
		t.Fatalf("expected RPUSHX on a missing key to report 0, got %d", res.Scalar)
	}
	if db.Exists(NewES("l"), now) {
		t.Fatalf("expected RPUSHX on a missing key to not create one")
	}
}

func TestLpopRpop(t *testing.T) {
	db := NewDatabase(0, 0, 5)
	srv := newTestServer()
	now := time.Now()
	Rpush(db, srv, Request{Argv: []string{"rpush", "l", "a", "b", "c"}, ExpiretimeIn: -1}, now)

	res := Lpop(db, srv, Request{Argv: []string{"lpop", "l", "2"}}, now)
	if !stringSliceEqual(res.List, []string{"a", "b"}) {
		t.Fatalf("expected [a b], got %v", res.List)
	}
	res = Rpop(db, srv, Request{Argv: []string{"rpop", "l", "1"}}, now)
	if !stringSliceEqual(res.List, []string{"c"}) {
		t.Fatalf("expected [c], got %v", res.List)
	}
	if db.Exists(NewES("l"), now) {
		t.Fatalf("expected the list to be deleted once fully popped")
	}
}

func TestLremPositiveAndNegativeCounts(t *testing.T) {
	db := NewDatabase(0, 0, 5)
	srv := newTestServer()
	now := time.Now()
	Rpush(db, srv, Request{Argv: []string{"rpush", "l", "a", "b", "a", "c", "a"}, ExpiretimeIn: -1}, now)

	res := Lrem(db, srv, Request{Argv: []string{"lrem", "l", "1", "a"}}, now)
	if res.Scalar != 1 {
		t.Fatalf("expected 1 removal, got %d", res.Scalar)
	}
	got := Lrange(db, srv, Request{Argv: []string{"lrange", "l", "0", "-1"}}, now)
	if !stringSliceEqual(got.List, []string{"b", "a", "c", "a"}) {
		t.Fatalf("expected head-to-tail removal to keep the first match out, got %v", got.List)
	}

	res = Lrem(db, srv, Request{Argv: []string{"lrem", "l", "-1", "a"}}, now)
	if res.Scalar != 1 {
		t.Fatalf("expected 1 removal, got %d", res.Scalar)
	}
	got = Lrange(db, srv, Request{Argv: []string{"lrange", "l", "0", "-1"}}, now)
	if !stringSliceEqual(got.List, []string{"b", "a", "c"}) {
		t.Fatalf("expected tail-to-head removal to drop the last match, got %v", got.List)
	}
}

func TestLsetOutOfRange(t *testing.T) {
	db := NewDatabase(0, 0, 5)
	srv := newTestServer()
	now := time.Now()
	Rpush(db, srv, Request{Argv: []string{"rpush", "l", "a"}, ExpiretimeIn: -1}, now)
	res := Lset(db, srv, Request{Argv: []string{"lset", "l", "5", "x"}}, now)
	if res.Code != ErrOutOfRange {
		t.Fatalf("expected ErrOutOfRange, got %v", res.Code)
	}
}

func TestLinsertBeforeAfter(t *testing.T) {
	db := NewDatabase(0, 0, 5)
	srv := newTestServer()
	now := time.Now()
	Rpush(db, srv, Request{Argv: []string{"rpush", "l", "a", "c"}, ExpiretimeIn: -1}, now)

	Linsert(db, srv, Request{Argv: []string{"linsert", "l", "BEFORE", "c", "b"}, ExpiretimeIn: -1}, now)
	got := Lrange(db, srv, Request{Argv: []string{"lrange", "l", "0", "-1"}}, now)
	if !stringSliceEqual(got.List, []string{"a", "b", "c"}) {
		t.Fatalf("expected [a b c], got %v", got.List)
	}

	res := Linsert(db, srv, Request{Argv: []string{"linsert", "l", "sideways", "c", "d"}}, now)
	if res.Code != ErrSyntaxError {
		t.Fatalf("expected ErrSyntaxError for an invalid BEFORE|AFTER token, got %v", res.Code)
	}
}

func TestListHardCapTruncatesPush(t *testing.T) {
	db := NewDatabase(0, 0, 5)
	srv := newTestServer()
	srv.Limits.ListMaxLen = 2
	now := time.Now()
	res := Rpush(db, srv, Request{Argv: []string{"rpush", "l", "a", "b", "c"}, ExpiretimeIn: -1}, now)
	if res.Code != ErrDataLenLimited {
		t.Fatalf("expected ErrDataLenLimited once the hard cap is exceeded, got %v", res.Code)
	}
	if db.Size() == 0 {
		t.Fatalf("expected the list to still hold the values that fit")
	}
}

func fetchList(t *testing.T, db *Database, now time.Time) *ListValue {
	t.Helper()
	v, _, ok := db.LookupRead(NewES("l"), now, 0)
	if !ok {
		t.Fatalf("expected key l to exist")
	}
	return v.List
}

func TestGeneralEncodingSurvivesLtrim(t *testing.T) {
	db := NewDatabase(0, 0, 5)
	srv := newTestServer()
	srv.Limits.ListPackedMaxLen = 2
	now := time.Now()
	Rpush(db, srv, Request{Argv: []string{"rpush", "l", "a", "b", "c"}, ExpiretimeIn: -1}, now)
	if fetchList(t, db, now).General == nil {
		t.Fatalf("expected the push past the packed threshold to promote the list to general encoding")
	}

	Ltrim(db, srv, Request{Argv: []string{"ltrim", "l", "0", "1"}}, now)
	if fetchList(t, db, now).General == nil {
		t.Fatalf("expected LTRIM to preserve general encoding once promoted")
	}
	got := Lrange(db, srv, Request{Argv: []string{"lrange", "l", "0", "-1"}}, now)
	if !stringSliceEqual(got.List, []string{"a", "b"}) {
		t.Fatalf("expected [a b] after trimming, got %v", got.List)
	}
}

func TestGeneralEncodingSurvivesLremAndPop(t *testing.T) {
	db := NewDatabase(0, 0, 5)
	srv := newTestServer()
	srv.Limits.ListPackedMaxLen = 2
	now := time.Now()
	Rpush(db, srv, Request{Argv: []string{"rpush", "l", "a", "b", "c"}, ExpiretimeIn: -1}, now)
	if fetchList(t, db, now).General == nil {
		t.Fatalf("expected the list to already be promoted before LREM")
	}

	Lrem(db, srv, Request{Argv: []string{"lrem", "l", "1", "b"}}, now)
	if fetchList(t, db, now).General == nil {
		t.Fatalf("expected LREM to preserve general encoding once promoted")
	}

	Lpop(db, srv, Request{Argv: []string{"lpop", "l", "1"}}, now)
	if fetchList(t, db, now).General == nil {
		t.Fatalf("expected LPOP to preserve general encoding once promoted")
	}
}

func TestGeneralEncodingSurvivesLinsert(t *testing.T) {
	db := NewDatabase(0, 0, 5)
	srv := newTestServer()
	srv.Limits.ListPackedMaxLen = 2
	now := time.Now()
	Rpush(db, srv, Request{Argv: []string{"rpush", "l", "a", "b", "c"}, ExpiretimeIn: -1}, now)
	if fetchList(t, db, now).General == nil {
		t.Fatalf("expected the list to already be promoted before LINSERT")
	}

	Linsert(db, srv, Request{Argv: []string{"linsert", "l", "BEFORE", "b", "x"}}, now)
	if fetchList(t, db, now).General == nil {
		t.Fatalf("expected LINSERT to preserve general encoding once promoted")
	}
	got := Lrange(db, srv, Request{Argv: []string{"lrange", "l", "0", "-1"}}, now)
	if !stringSliceEqual(got.List, []string{"a", "x", "b", "c"}) {
		t.Fatalf("expected [a x b c] after LINSERT, got %v", got.List)
	}
}

func stringSliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
