package keyspace

import (
	"container/list"
	"sort"
	"strconv"
)

// ValueType tags the kind of collection a Value Object holds.
type ValueType uint8

const (
	TypeNone ValueType = iota
	TypeString
	TypeList
	TypeSet
	TypeHash
	TypeZSet
)

// Encoding tags the representation a Value Object was created with.
// A collection may only move from a packed encoding to its general
// encoding, never back. String values keep the tag current (EncRaw or
// EncInt); for lists, sets and hashes the tag is not updated when the
// payload converts, and a non-nil General field marks the general
// encoding.
type Encoding uint8

const (
	EncRaw        Encoding = iota // string: byte buffer
	EncInt                        // string: boxed int64
	EncPackedList                 // list: flat slice, order-preserving
	EncLinkedList                 // list: general doubly-linked list
	EncIntSet                     // set: sorted packed int64 array
	EncHashSet                    // set: general string set
	EncPackedHash                 // hash: flat key/value pair slice
	EncHashTable                  // hash: general string->string map
	EncSkipList                   // zset: skip list + score map
)

// Value is the tagged container every keyspace entry holds. Refcount
// and LRUStamp exist for every value; exactly one of the payload
// pointers below is non-nil, selected by Type. Refcount is only ever
// mutated for Shared values (the small-integer pool in shared.go);
// every other Value is created with Refcount 1 and owned outright by
// whichever dictionary slot holds it, per the ownership-by-container
// model — no further increment/decrement.
type Value struct {
	Type     ValueType
	Encoding Encoding
	Refcount int32
	Shared   bool
	LRUStamp uint32 // low 22 bits significant

	Str  *StringValue
	List *ListValue
	Set  *SetValue
	Hash *HashValue
	ZSet *ZSetValue
}

// StringValue backs TypeString, either as a raw byte buffer (EncRaw)
// or, opportunistically, as a boxed signed integer (EncInt) when the
// buffer parses as one in range.
type StringValue struct {
	Bytes string
	Int   int64
}

func NewStringValueBytes(b string) *Value {
	if n, ok := parseExactInt(b); ok {
		if shared := sharedInteger(n); shared != nil {
			return shared
		}
		return &Value{Type: TypeString, Encoding: EncInt, Refcount: 1, Str: &StringValue{Int: n}}
	}
	return &Value{Type: TypeString, Encoding: EncRaw, Refcount: 1, Str: &StringValue{Bytes: b}}
}

// NewStringValueInt builds a string value from an already-parsed
// int64 (INCR/DECR and friends, which never round-trip through text).
// Values within the shared pool's range reuse the pool object instead
// of allocating.
func NewStringValueInt(n int64) *Value {
	if shared := sharedInteger(n); shared != nil {
		return shared
	}
	return &Value{Type: TypeString, Encoding: EncInt, Refcount: 1, Str: &StringValue{Int: n}}
}

// parseExactInt reports whether s parses cleanly as an int64 that
// round-trips back to the same text (no leading zeros, no
// whitespace) — the condition original Redis checks before boxing a
// string as its integer encoding.
func parseExactInt(s string) (int64, bool) {
	if len(s) == 0 || len(s) > 20 {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	if strconv.FormatInt(n, 10) != s {
		return 0, false
	}
	return n, true
}

// TryIntEncoding opportunistically converts a raw-byte string value to
// the packed integer encoding in place. It never redirects into the
// shared pool (the value's identity can't change once it's already
// someone's *Value pointer), so it only applies to values outside the
// shared range or built before the pool existed.
func (v *Value) TryIntEncoding() {
	if v.Type != TypeString || v.Encoding != EncRaw {
		return
	}
	n, ok := parseExactInt(v.Str.Bytes)
	if !ok {
		return
	}
	v.Str.Int = n
	v.Str.Bytes = ""
	v.Encoding = EncInt
}

// AsBytes renders the string value's logical byte content regardless
// of encoding.
func (v *Value) AsBytes() string {
	if v.Encoding == EncInt {
		return strconv.FormatInt(v.Str.Int, 10)
	}
	return v.Str.Bytes
}

// ListValue backs TypeList. Packed is used below the configured
// thresholds; General backs it once either threshold is exceeded, and
// the conversion never reverses.
type ListValue struct {
	Packed  []string
	General *list.List // element type: string
}

func NewListValue() *Value {
	return &Value{Type: TypeList, Encoding: EncPackedList, Refcount: 1, List: &ListValue{}}
}

func (v *ListValue) Len() int {
	if v.General != nil {
		return v.General.Len()
	}
	return len(v.Packed)
}

// Elements returns the list's contents as a slice regardless of
// encoding, for read-path commands and AOF dumping.
func (lv *ListValue) Elements() []string {
	if lv.General != nil {
		out := make([]string, 0, lv.General.Len())
		for e := lv.General.Front(); e != nil; e = e.Next() {
			out = append(out, e.Value.(string))
		}
		return out
	}
	return lv.Packed
}

// ConvertToGeneral promotes a packed list to the linked-list encoding,
// preserving order, and is a one-way operation.
func (lv *ListValue) ConvertToGeneral() {
	if lv.General != nil {
		return
	}
	lv.General = list.New()
	for _, e := range lv.Packed {
		lv.General.PushBack(e)
	}
	lv.Packed = nil
}

// SetValue backs TypeSet: a sorted packed int64 array below threshold,
// else a general string hash set.
type SetValue struct {
	IntSet  []int64 // sorted ascending, unique
	General map[string]struct{}
}

func NewSetValue() *Value {
	return &Value{Type: TypeSet, Encoding: EncIntSet, Refcount: 1, Set: &SetValue{}}
}

func (sv *SetValue) Len() int {
	if sv.General != nil {
		return len(sv.General)
	}
	return len(sv.IntSet)
}

func (sv *SetValue) ConvertToGeneral() {
	if sv.General != nil {
		return
	}
	sv.General = make(map[string]struct{}, len(sv.IntSet))
	for _, n := range sv.IntSet {
		sv.General[strconv.FormatInt(n, 10)] = struct{}{}
	}
	sv.IntSet = nil
}

func (sv *SetValue) Contains(member string) bool {
	if sv.General != nil {
		_, ok := sv.General[member]
		return ok
	}
	n, err := strconv.ParseInt(member, 10, 64)
	if err != nil {
		return false
	}
	idx := sort.Search(len(sv.IntSet), func(i int) bool { return sv.IntSet[i] >= n })
	return idx < len(sv.IntSet) && sv.IntSet[idx] == n
}

// Add returns true iff the member was newly inserted.
func (sv *SetValue) Add(member string) bool {
	if sv.General != nil {
		if _, ok := sv.General[member]; ok {
			return false
		}
		sv.General[member] = struct{}{}
		return true
	}
	n, err := strconv.ParseInt(member, 10, 64)
	if err != nil {
		sv.ConvertToGeneral()
		return sv.Add(member)
	}
	idx := sort.Search(len(sv.IntSet), func(i int) bool { return sv.IntSet[i] >= n })
	if idx < len(sv.IntSet) && sv.IntSet[idx] == n {
		return false
	}
	sv.IntSet = append(sv.IntSet, 0)
	copy(sv.IntSet[idx+1:], sv.IntSet[idx:])
	sv.IntSet[idx] = n
	return true
}

func (sv *SetValue) Remove(member string) bool {
	if sv.General != nil {
		if _, ok := sv.General[member]; !ok {
			return false
		}
		delete(sv.General, member)
		return true
	}
	n, err := strconv.ParseInt(member, 10, 64)
	if err != nil {
		return false
	}
	idx := sort.Search(len(sv.IntSet), func(i int) bool { return sv.IntSet[i] >= n })
	if idx >= len(sv.IntSet) || sv.IntSet[idx] != n {
		return false
	}
	sv.IntSet = append(sv.IntSet[:idx], sv.IntSet[idx+1:]...)
	return true
}

func (sv *SetValue) Members() []string {
	out := make([]string, 0, sv.Len())
	if sv.General != nil {
		for m := range sv.General {
			out = append(out, m)
		}
		return out
	}
	for _, n := range sv.IntSet {
		out = append(out, strconv.FormatInt(n, 10))
	}
	return out
}

// HashValue backs TypeHash: a flat pair slice below threshold, else a
// general string->string map.
type HashValue struct {
	Packed  [][2]string
	General map[string]string
}

func NewHashValue() *Value {
	return &Value{Type: TypeHash, Encoding: EncPackedHash, Refcount: 1, Hash: &HashValue{}}
}

func (hv *HashValue) Len() int {
	if hv.General != nil {
		return len(hv.General)
	}
	return len(hv.Packed)
}

func (hv *HashValue) ConvertToGeneral() {
	if hv.General != nil {
		return
	}
	hv.General = make(map[string]string, len(hv.Packed))
	for _, kv := range hv.Packed {
		hv.General[kv[0]] = kv[1]
	}
	hv.Packed = nil
}

func (hv *HashValue) Get(field string) (string, bool) {
	if hv.General != nil {
		v, ok := hv.General[field]
		return v, ok
	}
	for _, kv := range hv.Packed {
		if kv[0] == field {
			return kv[1], true
		}
	}
	return "", false
}

// Set returns true iff field was newly created.
func (hv *HashValue) Set(field, val string) bool {
	if hv.General != nil {
		_, existed := hv.General[field]
		hv.General[field] = val
		return !existed
	}
	for i, kv := range hv.Packed {
		if kv[0] == field {
			hv.Packed[i][1] = val
			return false
		}
	}
	hv.Packed = append(hv.Packed, [2]string{field, val})
	return true
}

func (hv *HashValue) Delete(field string) bool {
	if hv.General != nil {
		if _, ok := hv.General[field]; !ok {
			return false
		}
		delete(hv.General, field)
		return true
	}
	for i, kv := range hv.Packed {
		if kv[0] == field {
			hv.Packed = append(hv.Packed[:i], hv.Packed[i+1:]...)
			return true
		}
	}
	return false
}

func (hv *HashValue) Fields() []string {
	out := make([]string, 0, hv.Len())
	if hv.General != nil {
		for k := range hv.General {
			out = append(out, k)
		}
		return out
	}
	for _, kv := range hv.Packed {
		out = append(out, kv[0])
	}
	return out
}

// ZSetValue backs TypeZSet: a score map for O(1) lookups paired with a
// skip list for ordered rank queries.
type ZSetValue struct {
	Scores map[string]float64
	SL     *skipList
}

func NewZSetValue() *Value {
	return &Value{Type: TypeZSet, Encoding: EncSkipList, Refcount: 1, ZSet: &ZSetValue{
		Scores: make(map[string]float64),
		SL:     newSkipList(),
	}}
}

func (zv *ZSetValue) Len() int { return len(zv.Scores) }

// Set inserts or updates member's score. Returns true iff newly added.
func (zv *ZSetValue) Set(member string, score float64) bool {
	old, existed := zv.Scores[member]
	if existed {
		zv.SL.delete(member, old)
	}
	zv.Scores[member] = score
	zv.SL.insert(member, score)
	return !existed
}

func (zv *ZSetValue) Remove(member string) bool {
	score, ok := zv.Scores[member]
	if !ok {
		return false
	}
	zv.SL.delete(member, score)
	delete(zv.Scores, member)
	return true
}
