package cache

import (
	"testing"
	"time"
)

func TestKeyScoping(t *testing.T) {
	a := Key("columns", "db1", "public", "users")
	b := Key("columns", "db2", "public", "users")
	c := Key("columns", "db1", "sales", "users")
	if a == b || a == c || b == c {
		t.Fatalf("keys collide: %s %s %s", a, b, c)
	}
	if a != "columns:db1:public:users" {
		t.Fatalf("key = %s", a)
	}
}

// Object names in target databases can contain the separator; the key
// encoding must keep part boundaries unambiguous.
func TestKeySeparatorInParts(t *testing.T) {
	a := Key("columns", "conn1", "s:t", "u")
	b := Key("columns", "conn1", "s", "t:u")
	if a == b {
		t.Fatalf("scope keys collide: %q == %q", a, b)
	}

	c := Key("tables", "conn1", `s\`)
	d := Key("tables", "conn1", `s\:x`)
	e := Key("tables", "conn1", `s`, "x")
	if c == d || c == e || d == e {
		t.Fatalf("escaped keys collide: %q %q %q", c, d, e)
	}
}

func TestKeyIsolationWithSeparatorNames(t *testing.T) {
	c := New(time.Minute)
	c.Set(Key("columns", "conn1", "s:t", "u"), "first")
	c.Set(Key("columns", "conn1", "s", "t:u"), "second")

	v, ok := c.Get(Key("columns", "conn1", "s:t", "u"))
	if !ok || v != "first" {
		t.Fatalf("value = %v, %v", v, ok)
	}
	v, ok = c.Get(Key("columns", "conn1", "s", "t:u"))
	if !ok || v != "second" {
		t.Fatalf("value = %v, %v", v, ok)
	}
}

func TestSetGetDelete(t *testing.T) {
	c := New(time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("unexpected hit")
	}

	c.Set("k", []string{"a", "b"})
	v, ok := c.Get("k")
	if !ok {
		t.Fatal("expected hit")
	}
	if names := v.([]string); len(names) != 2 || names[0] != "a" {
		t.Fatalf("value = %v", v)
	}

	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Fatal("entry survived delete")
	}
}

func TestEntriesExpire(t *testing.T) {
	c := New(20 * time.Millisecond)
	c.Set("k", "v")
	if _, ok := c.Get("k"); !ok {
		t.Fatal("expected hit before TTL")
	}
	time.Sleep(50 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatal("entry survived its TTL")
	}
}

func TestSetReplaces(t *testing.T) {
	c := New(time.Minute)
	c.Set("k", "old")
	c.Set("k", "new")
	v, _ := c.Get("k")
	if v != "new" {
		t.Fatalf("value = %v", v)
	}
}
