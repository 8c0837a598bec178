package introspect

import "testing"

func sampleMeta() *TableMeta {
	return &TableMeta{
		Columns: []Column{
			{Name: "id", DataType: "integer", Default: "nextval('t_id_seq'::regclass)"},
			{Name: "code", DataType: "text"},
			{Name: "qty", DataType: "integer", Nullable: true},
		},
		PKColumns: []string{"id"},
	}
}

func TestTableMetaHasColumn(t *testing.T) {
	meta := sampleMeta()
	if !meta.HasColumn("qty") {
		t.Error("qty should exist")
	}
	if meta.HasColumn("QTY") {
		t.Error("column names are case sensitive")
	}
	if meta.HasColumn("nope") {
		t.Error("nope should not exist")
	}
}

func TestTableMetaColumn(t *testing.T) {
	meta := sampleMeta()
	c := meta.Column("code")
	if c == nil || c.DataType != "text" {
		t.Fatalf("column = %+v", c)
	}
	if meta.Column("nope") != nil {
		t.Fatal("expected nil for unknown column")
	}
}

func TestSequenceBackedPKs(t *testing.T) {
	meta := sampleMeta()
	seq := SequenceBackedPKs(meta)
	if len(seq) != 1 || seq[0] != "id" {
		t.Fatalf("seq = %v", seq)
	}

	// A PK without a sequence default is not sequence-backed.
	meta.Columns[0].Default = ""
	if seq := SequenceBackedPKs(meta); len(seq) != 0 {
		t.Fatalf("seq = %v", seq)
	}

	// A sequence default on a non-PK column does not count.
	meta = sampleMeta()
	meta.PKColumns = []string{"code"}
	if seq := SequenceBackedPKs(meta); len(seq) != 0 {
		t.Fatalf("seq = %v", seq)
	}
}
