package keyspace

import (
	"testing"
	"time"
)

func newTestServer() *Server {
	return NewServer(4, 0, 0, PolicyNoEviction, 5)
}

func TestDispatchUnknownCommand(t *testing.T) {
	srv := newTestServer()
	res := Dispatch(srv, 0, Request{Argv: []string{"bogus"}}, time.Now())
	if !res.Code.IsError() {
		t.Fatalf("expected an error for an unknown command")
	}
}

func TestDispatchNamespaceError(t *testing.T) {
	srv := newTestServer()
	res := Dispatch(srv, 99, Request{Argv: []string{"get", "k"}}, time.Now())
	if res.Code != ErrNamespaceError {
		t.Fatalf("expected ErrNamespaceError for an out-of-range DB index, got %v", res.Code)
	}
}

func TestDispatchSetThenGet(t *testing.T) {
	srv := newTestServer()
	now := time.Now()
	setReq := Request{Argv: []string{"set", "k", "v"}, ExpiretimeIn: -1}
	if res := Dispatch(srv, 0, setReq, now); res.Code != OK {
		t.Fatalf("expected SET to succeed, got %v", res.Code)
	}
	getReq := Request{Argv: []string{"get", "k"}}
	res := Dispatch(srv, 0, getReq, now)
	if !res.HasBulk || res.Bulk != "v" {
		t.Fatalf("expected GET to return %q, got %+v", "v", res)
	}
}

func TestDispatchWrongArity(t *testing.T) {
	srv := newTestServer()
	res := Dispatch(srv, 0, Request{Argv: []string{"get"}}, time.Now())
	if res.Code != ErrWrongNumArguments {
		t.Fatalf("expected ErrWrongNumArguments, got %v", res.Code)
	}
}

func TestSaturate32Wraps(t *testing.T) {
	if got := saturate32(1 << 32); got != 0 {
		t.Fatalf("expected 2^32 to saturate to 0, got %d", got)
	}
	if got := saturate32(int64(1<<31) - 1 + 1); got != -(1 << 31) {
		t.Fatalf("expected 2^31 to wrap to the minimum int32, got %d", got)
	}
}

func TestApplyDeferredTTL(t *testing.T) {
	db := NewDatabase(0, 0, 5)
	now := time.Unix(1000, 0)
	key := NewES("k")
	db.Add(key, NewStringValueBytes("v"))

	applyDeferredTTL(db, key, now.Add(10*time.Second).Unix(), now)
	when, ok := db.GetExpire(key)
	if !ok || when != now.Add(10*time.Second).Unix() {
		t.Fatalf("expected a TTL to be installed, got %d, %v", when, ok)
	}

	applyDeferredTTL(db, key, 0, now)
	if _, ok := db.GetExpire(key); ok {
		t.Fatalf("expected TTL to be removed by a 0 expiretimeIn")
	}
}
