package keyspace

import "testing"

func TestDictAddGetDelete(t *testing.T) {
	d := NewDict[string]()
	if !d.Add(NewES("a"), "1") {
		t.Fatalf("expected Add to succeed on a fresh key")
	}
	if d.Add(NewES("a"), "2") {
		t.Fatalf("expected Add to fail on an existing key")
	}
	v, ok := d.Get(NewES("a"))
	if !ok || v != "1" {
		t.Fatalf("expected to read back the original value, got %q, %v", v, ok)
	}
	if !d.Delete(NewES("a")) {
		t.Fatalf("expected Delete to report the key was present")
	}
	if _, ok := d.Get(NewES("a")); ok {
		t.Fatalf("expected key to be gone after Delete")
	}
}

func TestDictReplaceAndSuperReplace(t *testing.T) {
	d := NewDict[string]()
	d.Add(NewES("k"), "v1")

	if d.Replace(NewES("k"), "v2") {
		t.Fatalf("Replace on an existing key should report false (update, not insert)")
	}
	v, _ := d.Get(NewES("k"))
	if v != "v2" {
		t.Fatalf("expected updated value v2, got %q", v)
	}

	key := NewES("k")
	key.SetVersion(5)
	key.SetLogicalClock(9)
	d.SuperReplace(key, "v3")
	stored, ok := d.GetKey(NewES("k"))
	if !ok || stored.Version() != 5 || stored.LogicalClock() != 9 {
		t.Fatalf("expected SuperReplace to overwrite stored key's side channels, got %+v", stored)
	}
}

func TestDictUpdateKeyLeavesValueAlone(t *testing.T) {
	d := NewDict[string]()
	d.Add(NewES("k"), "v1")
	key := NewES("k")
	key.SetVersion(42)
	if !d.UpdateKey(key) {
		t.Fatalf("expected UpdateKey to find the existing key")
	}
	stored, _ := d.GetKey(NewES("k"))
	if stored.Version() != 42 {
		t.Fatalf("expected version to be committed, got %d", stored.Version())
	}
	v, _ := d.Get(NewES("k"))
	if v != "v1" {
		t.Fatalf("expected value to be untouched, got %q", v)
	}
}

func TestDictIncrementalRehashMigratesAllEntries(t *testing.T) {
	d := NewDict[int]()
	const n = 200
	for i := 0; i < n; i++ {
		d.Add(NewES(keyName(i)), i)
	}
	if d.Len() != n {
		t.Fatalf("expected %d entries, got %d", n, d.Len())
	}
	for !d.rehashStep(1000) {
		break
	}
	for i := 0; i < n; i++ {
		v, ok := d.Get(NewES(keyName(i)))
		if !ok || v != i {
			t.Fatalf("entry %d missing or wrong after rehash: %v %v", i, v, ok)
		}
	}
}

func TestDictRandomEntryOnEmpty(t *testing.T) {
	d := NewDict[int]()
	if _, _, ok := d.RandomEntry(); ok {
		t.Fatalf("expected RandomEntry on an empty dict to report false")
	}
}

func keyName(i int) string {
	digits := "0123456789"
	if i == 0 {
		return "k0"
	}
	out := []byte("k")
	var buf []byte
	for i > 0 {
		buf = append(buf, digits[i%10])
		i /= 10
	}
	for j := len(buf) - 1; j >= 0; j-- {
		out = append(out, buf[j])
	}
	return string(out)
}
