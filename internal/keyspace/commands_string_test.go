package keyspace

import (
	"testing"
	"time"
)

func TestSetAndGet(t *testing.T) {
	db := NewDatabase(0, 0, 5)
	srv := newTestServer()
	now := time.Now()

	res := Set(db, srv, Request{Argv: []string{"set", "k", "v"}, ExpiretimeIn: -1}, now)
	if res.Code != OK {
		t.Fatalf("expected SET to succeed, got %v", res.Code)
	}
	res = Get(db, srv, Request{Argv: []string{"get", "k"}}, now)
	if !res.HasBulk || res.Bulk != "v" {
		t.Fatalf("expected GET to return %q, got %+v", "v", res)
	}
}

func TestGetOnMissingKey(t *testing.T) {
	db := NewDatabase(0, 0, 5)
	srv := newTestServer()
	res := Get(db, srv, Request{Argv: []string{"get", "nope"}}, time.Now())
	if res.Code != OkNotExist {
		t.Fatalf("expected OkNotExist, got %v", res.Code)
	}
}

func TestGetWrongType(t *testing.T) {
	db := NewDatabase(0, 0, 5)
	srv := newTestServer()
	now := time.Now()
	Rpush(db, srv, Request{Argv: []string{"rpush", "k", "a"}, ExpiretimeIn: -1}, now)
	res := Get(db, srv, Request{Argv: []string{"get", "k"}}, now)
	if res.Code != ErrWrongType {
		t.Fatalf("expected ErrWrongType, got %v", res.Code)
	}
}

func TestSetnxRefusesExisting(t *testing.T) {
	db := NewDatabase(0, 0, 5)
	srv := newTestServer()
	now := time.Now()
	Set(db, srv, Request{Argv: []string{"set", "k", "v1"}, ExpiretimeIn: -1}, now)
	res := Setnx(db, srv, Request{Argv: []string{"setnx", "k", "v2"}, ExpiretimeIn: -1}, now)
	if res.Code != OkButAlreadyExist {
		t.Fatalf("expected OkButAlreadyExist, got %v", res.Code)
	}
	got := Get(db, srv, Request{Argv: []string{"get", "k"}}, now)
	if got.Bulk != "v1" {
		t.Fatalf("expected SETNX to leave the original value in place, got %q", got.Bulk)
	}
}

func TestSetexInstallsTTL(t *testing.T) {
	db := NewDatabase(0, 0, 5)
	srv := newTestServer()
	now := time.Unix(1000, 0)
	res := Setex(db, srv, Request{Argv: []string{"setex", "k", "10", "v"}, ExpiretimeIn: -1}, now)
	if res.Code != OK {
		t.Fatalf("expected SETEX to succeed, got %v", res.Code)
	}
	if db.Exists(NewES("k"), now.Add(11*time.Second)) {
		t.Fatalf("expected key to expire after its SETEX TTL")
	}
}

func TestGetsetReturnsOldValueAndClearsTTL(t *testing.T) {
	db := NewDatabase(0, 0, 5)
	srv := newTestServer()
	now := time.Unix(1000, 0)
	Setex(db, srv, Request{Argv: []string{"setex", "k", "10", "v1"}, ExpiretimeIn: -1}, now)
	res := Getset(db, srv, Request{Argv: []string{"getset", "k", "v2"}, ExpiretimeIn: -1}, now)
	if !res.HasBulk || res.Bulk != "v1" {
		t.Fatalf("expected GETSET to return the old value v1, got %+v", res)
	}
	if _, has := db.GetExpire(NewES("k")); has {
		t.Fatalf("expected GETSET to clear any existing TTL")
	}
}

func TestIncrDecr(t *testing.T) {
	db := NewDatabase(0, 0, 5)
	srv := newTestServer()
	now := time.Now()

	res := Incr(db, srv, Request{Argv: []string{"incr", "counter"}, ExpiretimeIn: -1}, now)
	if res.Code != OK || res.Scalar != 1 {
		t.Fatalf("expected INCR on a fresh key to yield 1, got %+v", res)
	}
	res = Incr(db, srv, Request{Argv: []string{"incr", "counter"}, ExpiretimeIn: -1}, now)
	if res.Scalar != 2 {
		t.Fatalf("expected second INCR to yield 2, got %d", res.Scalar)
	}
	res = Decr(db, srv, Request{Argv: []string{"decr", "counter"}, ExpiretimeIn: -1}, now)
	if res.Scalar != 1 {
		t.Fatalf("expected DECR to yield 1, got %d", res.Scalar)
	}
}

func TestIncrbySaturatesAt32Bits(t *testing.T) {
	db := NewDatabase(0, 0, 5)
	srv := newTestServer()
	now := time.Now()
	res := Incrby(db, srv, Request{Argv: []string{"incrby", "k", "2147483647", "1"}, ExpiretimeIn: -1}, now)
	if res.Scalar != -2147483648 {
		t.Fatalf("expected the 32-bit counter to wrap to the minimum int32, got %d", res.Scalar)
	}
}

func TestIncrOnNonIntegerFails(t *testing.T) {
	db := NewDatabase(0, 0, 5)
	srv := newTestServer()
	now := time.Now()
	Set(db, srv, Request{Argv: []string{"set", "k", "notanumber"}, ExpiretimeIn: -1}, now)
	res := Incr(db, srv, Request{Argv: []string{"incr", "k"}, ExpiretimeIn: -1}, now)
	if res.Code != ErrIsNotInteger {
		t.Fatalf("expected ErrIsNotInteger, got %v", res.Code)
	}
}

func TestVersionProtocolRejectsStaleVersion(t *testing.T) {
	db := NewDatabase(0, 0, 5)
	srv := newTestServer()
	now := time.Now()

	Set(db, srv, Request{Argv: []string{"set", "k", "v1"}, VersionCare: true, ExpiretimeIn: -1}, now)
	stored, _ := db.StoredKey(NewES("k"))
	firstVersion := stored.Version()

	res := Set(db, srv, Request{Argv: []string{"set", "k", "v2"}, VersionCare: true, VersionIn: firstVersion + 1, ExpiretimeIn: -1}, now)
	if res.Code != ErrVersionError {
		t.Fatalf("expected ErrVersionError on a mismatched version, got %v", res.Code)
	}

	res = Set(db, srv, Request{Argv: []string{"set", "k", "v2"}, VersionCare: true, VersionIn: firstVersion, ExpiretimeIn: -1}, now)
	if res.Code != OK {
		t.Fatalf("expected matching version to succeed, got %v", res.Code)
	}
}

func TestWrongArity(t *testing.T) {
	db := NewDatabase(0, 0, 5)
	srv := newTestServer()
	now := time.Now()
	if res := Set(db, srv, Request{Argv: []string{"set", "k"}}, now); res.Code != ErrWrongNumArguments {
		t.Fatalf("expected ErrWrongNumArguments, got %v", res.Code)
	}
}
