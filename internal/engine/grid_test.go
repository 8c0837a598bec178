package engine

import (
	"strings"
	"testing"

	"gridbase/internal/introspect"
)

func testMeta() *introspect.TableMeta {
	return &introspect.TableMeta{
		Columns: []introspect.Column{
			{Name: "id", DataType: "integer"},
			{Name: "name", DataType: "text", Nullable: true},
			{Name: "price", DataType: "numeric", Nullable: true},
		},
		PKColumns: []string{"id"},
	}
}

func TestResolveGridDefaults(t *testing.T) {
	req := ResolveGrid(testMeta(), GridRequest{}, Limits{})
	if req.Sort != "id" {
		t.Errorf("sort = %s, want first PK column", req.Sort)
	}
	if req.Order != "asc" {
		t.Errorf("order = %s", req.Order)
	}
	if req.Page != 1 || req.PerPage != DefaultPageSize {
		t.Errorf("page = %d per_page = %d", req.Page, req.PerPage)
	}
}

func TestResolveGridClampsPagination(t *testing.T) {
	cases := []struct {
		page, perPage int
		wantPage      int
		wantPerPage   int
	}{
		{0, 0, 1, DefaultPageSize},
		{-5, -10, 1, DefaultPageSize},
		{3, 10000, 3, MaxPageSize},
		{1, 25, 1, 25},
	}
	for _, c := range cases {
		req := ResolveGrid(testMeta(), GridRequest{Page: c.page, PerPage: c.perPage}, Limits{})
		if req.Page != c.wantPage || req.PerPage != c.wantPerPage {
			t.Errorf("ResolveGrid(page=%d, per_page=%d) = (%d, %d), want (%d, %d)",
				c.page, c.perPage, req.Page, req.PerPage, c.wantPage, c.wantPerPage)
		}
	}
}

func TestResolveGridConfiguredLimits(t *testing.T) {
	lim := Limits{DefaultPageSize: 20, MaxPageSize: 500}
	req := ResolveGrid(testMeta(), GridRequest{PerPage: 0}, lim)
	if req.PerPage != 20 {
		t.Errorf("per_page = %d, want configured default", req.PerPage)
	}
	req = ResolveGrid(testMeta(), GridRequest{PerPage: 400}, lim)
	if req.PerPage != 400 {
		t.Errorf("per_page = %d, want under configured max", req.PerPage)
	}
}

func TestResolveGridSortFallback(t *testing.T) {
	// Unknown sort column falls back to the first PK column.
	req := ResolveGrid(testMeta(), GridRequest{Sort: "nope; DROP TABLE x"}, Limits{})
	if req.Sort != "id" {
		t.Errorf("sort = %s, want id", req.Sort)
	}

	// No PK: fall back to the first declared column.
	meta := &introspect.TableMeta{
		Columns: []introspect.Column{{Name: "a"}, {Name: "b"}},
	}
	req = ResolveGrid(meta, GridRequest{Sort: "zzz"}, Limits{})
	if req.Sort != "a" {
		t.Errorf("sort = %s, want a", req.Sort)
	}

	// A real column survives.
	req = ResolveGrid(testMeta(), GridRequest{Sort: "name", Order: "DESC"}, Limits{})
	if req.Sort != "name" || req.Order != "desc" {
		t.Errorf("sort = %s order = %s", req.Sort, req.Order)
	}
}

func TestBuildGridSelectSQL(t *testing.T) {
	req := ResolveGrid(testMeta(), GridRequest{
		Filters: map[string]string{"name": "wid"},
		Sort:    "price",
		Order:   "desc",
		Page:    2,
		PerPage: 25,
	}, Limits{})
	qr := BuildGridSelectSQL("public", "products", testMeta(), req)

	want := `SELECT * FROM "public"."products" WHERE "name"::text ILIKE $1 ORDER BY "price" DESC LIMIT $2 OFFSET $3`
	if qr.SQL != want {
		t.Fatalf("sql = %s\nwant %s", qr.SQL, want)
	}
	if len(qr.Params) != 3 {
		t.Fatalf("params = %v", qr.Params)
	}
	if qr.Params[0] != "%wid%" {
		t.Errorf("filter param = %v", qr.Params[0])
	}
	if qr.Params[1] != 25 || qr.Params[2] != 25 {
		t.Errorf("limit/offset = %v/%v", qr.Params[1], qr.Params[2])
	}
}

func TestBuildGridCountSQLSharesFilters(t *testing.T) {
	req := ResolveGrid(testMeta(), GridRequest{
		Filters: map[string]string{"name": "a", "price": "9"},
	}, Limits{})
	qr := BuildGridCountSQL("public", "products", testMeta(), req)

	if !strings.HasPrefix(qr.SQL, `SELECT COUNT(*) FROM "public"."products" WHERE `) {
		t.Fatalf("sql = %s", qr.SQL)
	}
	if len(qr.Params) != 2 {
		t.Fatalf("params = %v", qr.Params)
	}
	if strings.Contains(qr.SQL, "LIMIT") || strings.Contains(qr.SQL, "OFFSET") {
		t.Fatalf("count query must not paginate: %s", qr.SQL)
	}
}

// Filter keys that are not real columns never reach the SQL text.
func TestFilterAllowlist(t *testing.T) {
	req := ResolveGrid(testMeta(), GridRequest{
		Filters: map[string]string{
			"name":                "ok",
			"evil; DROP TABLE x":  "boom",
			`"quoted"`:            "boom",
			"missing":             "boom",
			"price":               "  ", // blank after trim: dropped
		},
	}, Limits{})
	qr := BuildGridSelectSQL("public", "products", testMeta(), req)

	if strings.Contains(qr.SQL, "DROP") || strings.Contains(qr.SQL, "evil") {
		t.Fatalf("unsafe filter key reached SQL: %s", qr.SQL)
	}
	if strings.Contains(qr.SQL, `"price"::text`) {
		t.Fatalf("blank filter built a predicate: %s", qr.SQL)
	}
	if !strings.Contains(qr.SQL, `"name"::text ILIKE $1`) {
		t.Fatalf("valid filter missing: %s", qr.SQL)
	}
}

func TestBuildFilterWhereEmpty(t *testing.T) {
	pb := &paramBuilder{}
	where := buildFilterWhere(testMeta(), nil, pb)
	if where != "1=1" {
		t.Fatalf("where = %s", where)
	}
	if len(pb.params) != 0 {
		t.Fatalf("params = %v", pb.params)
	}
}
