package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"naver-trends/models"
)

func TestCSVWriterWritesHeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "rows.csv")

	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("NewCSVWriter: %v", err)
	}
	rows := []*models.Row{
		{CorporateID: "c1", BrandID: "b1", Date: "2021-01-02", Keyword: "SHOES", DeviceType: models.DevicePC, Queries: 12},
		{CorporateID: "c1", BrandID: "b1", Date: "2021-01-02", Keyword: "SHOES", DeviceType: models.DeviceMobile, Queries: 30},
	}
	if err := w.WriteRows("Acme", rows); err != nil {
		t.Fatalf("WriteRows: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d; want 3", len(records))
	}
	if records[0][0] != "client" || records[0][len(records[0])-1] != "queries" {
		t.Errorf("unexpected header %v", records[0])
	}
	if records[2][0] != "Acme" || records[2][11] != string(models.DeviceMobile) || records[2][12] != "30" {
		t.Errorf("unexpected row %v", records[2])
	}
}

func TestTableRefID(t *testing.T) {
	if got := (TableRef{Project: "p", Dataset: "Acme", Table: "naver_trends"}).ID(); got != "p.Acme.naver_trends" {
		t.Errorf("ID = %q", got)
	}
	if got := (TableRef{Dataset: "Acme", Table: "naver_trends"}).ID(); got != "Acme.naver_trends" {
		t.Errorf("ID without project = %q", got)
	}
}

func TestRowValuesMatchColumns(t *testing.T) {
	r := &models.Row{Keyword: "SHOES", DeviceType: models.DevicePC, Queries: 7}
	vals := rowValues(r)
	if len(vals) != len(Columns) {
		t.Fatalf("values = %d; columns = %d", len(vals), len(Columns))
	}
	if vals[3] != "SHOES" || vals[10] != "PC" || vals[11] != int64(7) {
		t.Errorf("values out of column order: %v", vals)
	}
}
