package keyspace

import "testing"

func TestSharedIntegerPoolDedupesInRangeValues(t *testing.T) {
	a := NewStringValueBytes("42")
	b := NewStringValueInt(42)
	if a != b {
		t.Fatalf("expected both constructors to return the same shared object for 42")
	}
	if !a.Shared {
		t.Fatalf("expected the pooled value to be marked Shared")
	}
}

func TestSharedIntegerPoolRejectsOutOfRangeValues(t *testing.T) {
	a := NewStringValueInt(sharedIntegerCount)
	b := NewStringValueInt(sharedIntegerCount)
	if a == b {
		t.Fatalf("expected values outside the shared range to allocate independently")
	}
	if a.Shared || b.Shared {
		t.Fatalf("expected out-of-range values to not be marked Shared")
	}
}

func TestSharedIntegerRefcountTracksLiveReferences(t *testing.T) {
	db := NewDatabase(0, 0, 5)
	key := NewES("k")

	db.Add(key, NewStringValueInt(7))
	v := sharedIntegers[7]
	afterAdd := v.Refcount
	if afterAdd < 2 {
		t.Fatalf("expected storing a shared integer under a key to bump its refcount above the pool baseline, got %d", afterAdd)
	}

	db.Delete(key)
	if v.Refcount != afterAdd-1 {
		t.Fatalf("expected deleting the key to release its reference, got refcount %d (was %d)", v.Refcount, afterAdd)
	}
	if v.Refcount < 1 {
		t.Fatalf("expected the shared object's refcount to never drop below 1, got %d", v.Refcount)
	}
}

func TestSharedIntegerSurvivesReplace(t *testing.T) {
	db := NewDatabase(0, 0, 5)
	key := NewES("k")

	db.Add(key, NewStringValueInt(3))
	before := sharedIntegers[3].Refcount

	db.Replace(key, NewStringValueBytes("hello"))
	if sharedIntegers[3].Refcount != before-1 {
		t.Fatalf("expected replacing a shared-integer value to release its reference, got %d (was %d)", sharedIntegers[3].Refcount, before)
	}
}
