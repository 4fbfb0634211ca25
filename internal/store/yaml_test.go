package store

import (
	"bytes"
	"strings"
	"testing"
)

func TestExportImportYAML(t *testing.T) {
	src, _ := newJSONStore(t)
	if _, err := src.AddCategory("Food"); err != nil {
		t.Fatal(err)
	}
	if _, err := src.AddCategory("Rent"); err != nil {
		t.Fatal(err)
	}
	if _, err := src.AddKeyword("Food", "coffee shop"); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := src.ExportYAML(&buf); err != nil {
		t.Fatalf("ExportYAML: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Food:\n  - coffee shop") {
		t.Errorf("export missing Food keywords:\n%s", out)
	}
	if !strings.Contains(out, "Rent: []") {
		t.Errorf("export missing empty Rent:\n%s", out)
	}

	dst, _ := newJSONStore(t)
	stats, err := dst.ImportYAML(strings.NewReader(out))
	if err != nil {
		t.Fatalf("ImportYAML: %v", err)
	}
	if stats.Categories != 2 || stats.Keywords != 1 {
		t.Errorf("stats = %+v, want 2 categories 1 keyword", stats)
	}
	if got := strings.Join(dst.Names(), ","); got != "Uncategorized,Food,Rent" {
		t.Errorf("Names = %s", got)
	}

	// Importing again changes nothing.
	stats, err = dst.ImportYAML(strings.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	if stats.Categories != 0 || stats.Keywords != 0 || stats.Skipped != 1 {
		t.Errorf("second import stats = %+v, want only 1 skipped", stats)
	}
}

func TestImportYAML_Rejects(t *testing.T) {
	s, _ := newJSONStore(t)
	for _, in := range []string{"- a\n- b\n", "Food:\n  nested: true\n"} {
		if _, err := s.ImportYAML(strings.NewReader(in)); err == nil {
			t.Errorf("ImportYAML(%q) = nil error, want error", in)
		}
	}
	if stats, err := s.ImportYAML(strings.NewReader("")); err != nil || stats != (ImportStats{}) {
		t.Errorf("empty import = %+v, %v", stats, err)
	}
}
