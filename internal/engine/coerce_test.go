package engine

import (
	"encoding/json"
	"testing"
)

func TestCoerceValueBoolean(t *testing.T) {
	cases := []struct {
		in   any
		want any
	}{
		{true, true},
		{false, false},
		{"t", true},
		{"TRUE", true},
		{"yes", true},
		{"on", true},
		{"1", true},
		{"f", false},
		{"no", false},
		{"off", false},
		{"0", false},
		{"maybe", nil},
		{"", nil},
		{nil, nil},
	}
	for _, c := range cases {
		if got := CoerceValue(c.in, "boolean"); got != c.want {
			t.Errorf("CoerceValue(%v, boolean) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestCoerceValueInteger(t *testing.T) {
	if got := CoerceValue("42", "integer"); got != int64(42) {
		t.Errorf("string int = %v (%T)", got, got)
	}
	if got := CoerceValue(float64(7), "bigint"); got != int64(7) {
		t.Errorf("float64 int = %v (%T)", got, got)
	}
	if got := CoerceValue(json.Number("9"), "smallint"); got != int64(9) {
		t.Errorf("json.Number int = %v (%T)", got, got)
	}
	// Unparseable values pass through so the database reports the real error.
	if got := CoerceValue("not a number", "integer"); got != "not a number" {
		t.Errorf("bad int = %v", got)
	}
	if got := CoerceValue(nil, "integer"); got != nil {
		t.Errorf("nil int = %v", got)
	}
}

func TestCoerceValueFloat(t *testing.T) {
	if got := CoerceValue("3.14", "double precision"); got != 3.14 {
		t.Errorf("string float = %v", got)
	}
	if got := CoerceValue(2, "real"); got != float64(2) {
		t.Errorf("int float = %v", got)
	}
}

func TestCoerceValueDecimalKeepsScale(t *testing.T) {
	got := CoerceValue("12.50", "numeric")
	n, ok := got.(json.Number)
	if !ok {
		t.Fatalf("numeric = %T, want json.Number", got)
	}
	if n.String() != "12.50" {
		t.Fatalf("numeric = %s, want trailing zero preserved", n)
	}

	if got := CoerceValue("1e5", "numeric"); got != "1e5" {
		// Scientific notation is not grid input; pass through untouched.
		t.Errorf("scientific numeric = %v", got)
	}
}

func TestCoerceValueDateTime(t *testing.T) {
	if got := CoerceValue("", "date"); got != nil {
		t.Errorf("empty date = %v, want nil", got)
	}
	if got := CoerceValue("   ", "timestamp with time zone"); got != nil {
		t.Errorf("blank timestamp = %v, want nil", got)
	}
	if got := CoerceValue("2024-01-01", "date"); got != "2024-01-01" {
		t.Errorf("date = %v", got)
	}
}

func TestCoerceValueUnknownTypePassesThrough(t *testing.T) {
	if got := CoerceValue("hello", "text"); got != "hello" {
		t.Errorf("text = %v", got)
	}
	if got := CoerceValue("anything", "jsonb"); got != "anything" {
		t.Errorf("jsonb = %v", got)
	}
}

// Feeding a coerced value back through must yield the same value for every
// type family. Batch saves re-coerce rows the grid already round-tripped.
func TestCoerceValueIdempotent(t *testing.T) {
	cases := []struct {
		val      any
		dataType string
	}{
		{"true", "boolean"},
		{"42", "integer"},
		{"3.14", "double precision"},
		{"12.50", "numeric"},
		{"2024-01-01", "date"},
		{"", "date"},
		{nil, "integer"},
		{"free text", "text"},
	}
	for _, c := range cases {
		once := CoerceValue(c.val, c.dataType)
		twice := CoerceValue(once, c.dataType)
		if once != twice {
			t.Errorf("CoerceValue(%v, %s) not idempotent: %v != %v", c.val, c.dataType, once, twice)
		}
	}
}
