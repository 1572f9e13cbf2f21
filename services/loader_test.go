package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"naver-trends/metrics"
	"naver-trends/models"
	"naver-trends/storage"
)

func testRows(n int) []*models.Row {
	rows := make([]*models.Row, n)
	for i := range rows {
		rows[i] = &models.Row{Keyword: "SHOES", DeviceType: models.DevicePC, Date: "2021-01-02", Queries: int64(i)}
	}
	return rows
}

func TestLoaderRetryBound(t *testing.T) {
	tests := []struct {
		name       string
		maxRetries int
	}{
		{"default bound", 50},
		{"small bound", 3},
		{"no retries", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wh := newFakeWarehouse()
			wh.insertErr = func(int) error { return storage.ErrTableNotFound }
			l := NewLoader(wh, tt.maxRetries, 0, newTestLogger(), nil)

			plan := &Plan{Table: wh.Ref("Acme"), Created: true}
			err := l.Load(context.Background(), plan, testRows(3))

			if !errors.Is(err, ErrTableNotVisible) {
				t.Fatalf("err = %v; want ErrTableNotVisible", err)
			}
			if !errors.Is(err, storage.ErrTableNotFound) {
				t.Errorf("cause should stay visible, got %v", err)
			}
			if got := wh.insertCalls["Acme"]; got != tt.maxRetries+1 {
				t.Errorf("insert calls = %d; want %d", got, tt.maxRetries+1)
			}
		})
	}
}

func TestLoaderSucceedsOncePropagated(t *testing.T) {
	wh := newFakeWarehouse()
	wh.insertErr = func(call int) error {
		if call < 3 {
			return storage.ErrTableNotFound
		}
		return nil
	}
	l := NewLoader(wh, 50, time.Millisecond, newTestLogger(), metrics.New())

	plan := &Plan{Table: wh.Ref("Acme"), Created: true}
	if err := l.Load(context.Background(), plan, testRows(4)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if wh.insertCalls["Acme"] != 3 {
		t.Errorf("insert calls = %d; want 3", wh.insertCalls["Acme"])
	}
	if len(wh.inserted["Acme"]) != 4 {
		t.Errorf("inserted %d rows; want 4", len(wh.inserted["Acme"]))
	}
}

func TestLoaderExistingTableDoesNotRetry(t *testing.T) {
	wh := newFakeWarehouse()
	wh.insertErr = func(int) error { return storage.ErrTableNotFound }
	l := NewLoader(wh, 50, 0, newTestLogger(), nil)

	err := l.Load(context.Background(), &Plan{Table: wh.Ref("Acme")}, testRows(1))
	if !errors.Is(err, ErrLoadFailed) {
		t.Fatalf("err = %v; want ErrLoadFailed", err)
	}
	if errors.Is(err, ErrTableNotVisible) {
		t.Error("an existing table must not abort the run")
	}
	if wh.insertCalls["Acme"] != 1 {
		t.Errorf("insert calls = %d; want 1", wh.insertCalls["Acme"])
	}
}

func TestLoaderOtherErrorIsNotRetried(t *testing.T) {
	wh := newFakeWarehouse()
	wh.insertErr = func(int) error { return errBoom }
	l := NewLoader(wh, 50, 0, newTestLogger(), nil)

	err := l.Load(context.Background(), &Plan{Table: wh.Ref("Acme"), Created: true}, testRows(1))
	if !errors.Is(err, ErrLoadFailed) || !errors.Is(err, errBoom) {
		t.Fatalf("err = %v; want ErrLoadFailed wrapping errBoom", err)
	}
	if wh.insertCalls["Acme"] != 1 {
		t.Errorf("insert calls = %d; want 1", wh.insertCalls["Acme"])
	}
}

func TestLoaderZeroRows(t *testing.T) {
	wh := newFakeWarehouse()
	l := NewLoader(wh, 50, 0, newTestLogger(), nil)

	if err := l.Load(context.Background(), &Plan{Table: wh.Ref("Acme"), Created: true}, nil); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if wh.insertCalls["Acme"] != 0 {
		t.Errorf("insert calls = %d; want 0", wh.insertCalls["Acme"])
	}
}

func TestLoaderContextCancelled(t *testing.T) {
	wh := newFakeWarehouse()
	wh.insertErr = func(int) error { return storage.ErrTableNotFound }
	l := NewLoader(wh, 50, time.Hour, newTestLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.Load(ctx, &Plan{Table: wh.Ref("Acme"), Created: true}, testRows(1))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v; want context.Canceled", err)
	}
}
