package store

import "testing"

func TestQuoteIdent(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"users", `"users"`},
		{"Order Details", `"Order Details"`},
		{"select", `"select"`},
		{`weird"name`, `"weird""name"`},
		{`"; DROP TABLE x; --`, `"""; DROP TABLE x; --"`},
		{"", `""`},
	}
	for _, c := range cases {
		if got := QuoteIdent(c.in); got != c.want {
			t.Errorf("QuoteIdent(%q) = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestQualifiedTable(t *testing.T) {
	got := QualifiedTable("public", "order items")
	want := `"public"."order items"`
	if got != want {
		t.Fatalf("QualifiedTable = %s, want %s", got, want)
	}
}

// Embedded quotes must stay balanced after quoting, otherwise a crafted
// table name could terminate the identifier early.
func TestQuoteIdentBalancedQuotes(t *testing.T) {
	in := `a"b"c`
	got := QuoteIdent(in)
	count := 0
	for _, r := range got {
		if r == '"' {
			count++
		}
	}
	if count%2 != 0 {
		t.Fatalf("unbalanced quotes in %s", got)
	}
}
