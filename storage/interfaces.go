package storage

import (
	"context"
	"errors"

	"naver-trends/models"
)

// ErrTableNotFound is returned by InsertRows when the destination table is
// not visible to the load API, e.g. right after creation.
var ErrTableNotFound = errors.New("destination table not found")

// TableStatus is the outcome of a table lookup that did not fail.
type TableStatus int

const (
	TableNotFound TableStatus = iota
	TableFound
)

func (s TableStatus) String() string {
	if s == TableFound {
		return "found"
	}
	return "not found"
}

// TableRef identifies one client's destination table.
type TableRef struct {
	Project string
	Dataset string
	Table   string
}

// ID returns the fully qualified table id.
func (r TableRef) ID() string {
	if r.Project == "" {
		return r.Dataset + "." + r.Table
	}
	return r.Project + "." + r.Dataset + "." + r.Table
}

// Warehouse is the interface any destination store must satisfy.
type Warehouse interface {
	// Ref returns the destination table for a client dataset.
	Ref(dataset string) TableRef
	LookupTable(ctx context.Context, ref TableRef) (TableStatus, error)
	CreateTable(ctx context.Context, ref TableRef) error
	// LatestDates returns the maximum stored date per (device, keyword).
	LatestDates(ctx context.Context, ref TableRef) (models.LatestDates, error)
	InsertRows(ctx context.Context, ref TableRef, rows []*models.Row) error
	Close() error
}

// RowWriter is the interface for exporting loaded rows outside the warehouse.
type RowWriter interface {
	WriteRows(client string, rows []*models.Row) error
	Close() error
}

// Columns is the fixed destination schema, in load order. Every column is
// text except queries, which is an integer.
var Columns = []string{
	"corporate_id", "brand_id", "date", "keyword", "keyword_type",
	"category_1", "category_2", "category_3", "category_4", "category_5",
	"device_type", "queries",
}

// rowValues returns r's values in Columns order.
func rowValues(r *models.Row) []any {
	return []any{
		r.CorporateID, r.BrandID, r.Date, r.Keyword, r.KeywordType,
		r.Category1, r.Category2, r.Category3, r.Category4, r.Category5,
		string(r.DeviceType), r.Queries,
	}
}
