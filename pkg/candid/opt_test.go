package candid

import (
	"encoding/json"
	"testing"
)

func TestUnwrapPresent(t *testing.T) {
	v, ok := Unwrap(Some("hello"))
	if !ok {
		t.Fatal("expected present value")
	}
	if v != "hello" {
		t.Fatalf("expected hello, got %q", v)
	}
}

func TestUnwrapAbsent(t *testing.T) {
	if _, ok := Unwrap(None[int]()); ok {
		t.Fatal("expected absent value")
	}
	var nilOpt Opt[int]
	if _, ok := Unwrap(nilOpt); ok {
		t.Fatal("nil sequence must behave as absent")
	}
}

func TestUnwrapIgnoresTail(t *testing.T) {
	v, ok := Unwrap(Opt[int]{7, 8, 9})
	if !ok || v != 7 {
		t.Fatalf("expected first value 7, got %d (ok=%v)", v, ok)
	}
}

func TestUnwrapRemovesExactlyOneLevel(t *testing.T) {
	nested := Some(Some(42))
	inner, ok := Unwrap(nested)
	if !ok {
		t.Fatal("outer level should be present")
	}
	v, ok := Unwrap(inner)
	if !ok || v != 42 {
		t.Fatalf("inner level should hold 42, got %d (ok=%v)", v, ok)
	}

	absentInner := Some(None[int]())
	inner, ok = Unwrap(absentInner)
	if !ok {
		t.Fatal("outer level should be present even when inner is absent")
	}
	if inner.IsSome() {
		t.Fatal("inner level should stay absent")
	}
}

func TestWrapRoundTrip(t *testing.T) {
	n := 5
	if v, ok := Unwrap(Wrap(&n)); !ok || v != 5 {
		t.Fatalf("wrap/unwrap lost value: %d (ok=%v)", v, ok)
	}
	if Wrap[int](nil).IsSome() {
		t.Fatal("wrapping nil must be absent")
	}
}

func TestPtrCopies(t *testing.T) {
	o := Some(10)
	p := Ptr(o)
	*p = 99
	if o[0] != 10 {
		t.Fatalf("Ptr must not alias the wire value, got %d", o[0])
	}
	if Ptr(None[int]()) != nil {
		t.Fatal("absent value must map to nil pointer")
	}
}

func TestUnwrapOr(t *testing.T) {
	if got := UnwrapOr(None[string](), "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	if got := UnwrapOr(Some("real"), "fallback"); got != "real" {
		t.Fatalf("expected real, got %q", got)
	}
}

func TestUnwrapArray(t *testing.T) {
	got := UnwrapArray(Some([]int{1, 2, 3}))
	if len(got) != 3 || got[0] != 1 {
		t.Fatalf("expected [1 2 3], got %v", got)
	}

	got = UnwrapArray(None[[]int]())
	if got == nil || len(got) != 0 {
		t.Fatalf("absent collection must flatten to an empty slice, got %v", got)
	}

	got = UnwrapArray(Some[[]int](nil))
	if got == nil {
		t.Fatal("a present nil slice must still flatten to an empty slice")
	}
}

func TestOptJSONRoundTrip(t *testing.T) {
	type record struct {
		Name Opt[string] `json:"name"`
	}

	out, err := json.Marshal(record{})
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"name":[]}` {
		t.Fatalf("absent must serialize as empty sequence, got %s", out)
	}

	out, err = json.Marshal(record{Name: Some("alice")})
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"name":["alice"]}` {
		t.Fatalf("present must serialize as one-element sequence, got %s", out)
	}

	var decoded record
	if err := json.Unmarshal([]byte(`{"name":null}`), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Name.IsSome() {
		t.Fatal("null must decode as absent")
	}
	if err := json.Unmarshal([]byte(`{"name":["bob"]}`), &decoded); err != nil {
		t.Fatal(err)
	}
	if v, _ := Unwrap(decoded.Name); v != "bob" {
		t.Fatalf("expected bob, got %q", v)
	}
}
