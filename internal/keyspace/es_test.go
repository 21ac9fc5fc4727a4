package keyspace

import "testing"

func TestESEqualityIgnoresSideChannels(t *testing.T) {
	a := NewES("foo")
	b := NewES("foo")
	b.SetVersion(7)
	b.SetLogicalClock(3)
	if !a.equalKey(b) {
		t.Fatalf("keys with identical bytes but different side channels should compare equal")
	}
	c := NewES("bar")
	if a.equalKey(c) {
		t.Fatalf("keys with different bytes should not compare equal")
	}
}

func TestESVersionWrapsModulo2to16(t *testing.T) {
	e := NewES("k")
	e.SetVersion(65535)
	e.AddVersion(1)
	if e.Version() != 0 {
		t.Fatalf("expected version to wrap to 0, got %d", e.Version())
	}
}

func TestESBytesAndLen(t *testing.T) {
	e := NewES("hello")
	if e.Bytes() != "hello" || e.Len() != 5 {
		t.Fatalf("unexpected bytes/len: %q/%d", e.Bytes(), e.Len())
	}
}
