package store

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
)

func num(i int64, exp int32) pgtype.Numeric {
	return pgtype.Numeric{Int: big.NewInt(i), Exp: exp, Valid: true}
}

func TestNumericString(t *testing.T) {
	cases := []struct {
		n    pgtype.Numeric
		want string
	}{
		{num(1250, -2), "12.50"},
		{num(-1250, -2), "-12.50"},
		{num(5, -3), "0.005"},
		{num(-5, -3), "-0.005"},
		{num(42, 0), "42"},
		{num(5, 3), "5000"},
		{num(0, 0), "0"},
	}
	for _, c := range cases {
		if got := numericString(c.n); got != c.want {
			t.Errorf("numericString(%v e%d) = %s, want %s", c.n.Int, c.n.Exp, got, c.want)
		}
	}
}

func TestNormalizeValueNumeric(t *testing.T) {
	got := normalizeValue(num(999, -2))
	n, ok := got.(json.Number)
	if !ok {
		t.Fatalf("numeric = %T, want json.Number", got)
	}
	if n.String() != "9.99" {
		t.Fatalf("numeric = %s", n)
	}

	if got := normalizeValue(pgtype.Numeric{}); got != nil {
		t.Fatalf("invalid numeric = %v, want nil", got)
	}
	if got := normalizeValue(pgtype.Numeric{NaN: true, Valid: true}); got != "NaN" {
		t.Fatalf("NaN numeric = %v", got)
	}
}

func TestNormalizeValueUUID(t *testing.T) {
	u := pgtype.UUID{
		Bytes: [16]byte{0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0, 0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0},
		Valid: true,
	}
	want := "12345678-9abc-def0-1234-56789abcdef0"
	if got := normalizeValue(u); got != want {
		t.Fatalf("uuid = %v, want %s", got, want)
	}
	if got := normalizeValue(pgtype.UUID{}); got != nil {
		t.Fatalf("invalid uuid = %v, want nil", got)
	}
}

func TestNormalizeValuePassthrough(t *testing.T) {
	if got := normalizeValue("text"); got != "text" {
		t.Fatalf("string = %v", got)
	}
	if got := normalizeValue(int64(7)); got != int64(7) {
		t.Fatalf("int = %v", got)
	}
	if got := normalizeValue(nil); got != nil {
		t.Fatalf("nil = %v", got)
	}
}
