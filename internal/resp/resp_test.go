package resp

import (
	"bufio"
	"bytes"
	"testing"
)

func TestWriteCommandThenReadCommandRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	argv := []string{"set", "key", "value with spaces"}
	if err := w.WriteCommand(argv); err != nil {
		t.Fatalf("WriteCommand failed: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	got, err := ReadCommand(bufio.NewReader(&buf))
	if err != nil {
		t.Fatalf("ReadCommand failed: %v", err)
	}
	if len(got) != len(argv) {
		t.Fatalf("expected %d elements, got %d: %v", len(argv), len(got), got)
	}
	for i := range argv {
		if got[i] != argv[i] {
			t.Fatalf("element %d: expected %q, got %q", i, argv[i], got[i])
		}
	}
}

func TestReadCommandRejectsBadArrayHeader(t *testing.T) {
	r := bufio.NewReader(bytes.NewBufferString("not-an-array\r\n"))
	if _, err := ReadCommand(r); err == nil {
		t.Fatalf("expected an error for a malformed array header")
	}
}

func TestWriteBulkAndWriteNull(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteBulk("hi"); err != nil {
		t.Fatalf("WriteBulk failed: %v", err)
	}
	if err := w.WriteNull(); err != nil {
		t.Fatalf("WriteNull failed: %v", err)
	}
	w.Flush()
	want := "$2\r\nhi\r\n$-1\r\n"
	if buf.String() != want {
		t.Fatalf("expected %q, got %q", want, buf.String())
	}
}

func TestWriteArray(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteArray([]string{"a", "bb"}); err != nil {
		t.Fatalf("WriteArray failed: %v", err)
	}
	w.Flush()
	want := "*2\r\n$1\r\na\r\n$2\r\nbb\r\n"
	if buf.String() != want {
		t.Fatalf("expected %q, got %q", want, buf.String())
	}
}
