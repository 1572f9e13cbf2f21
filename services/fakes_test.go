package services

import (
	"context"
	"errors"
	"fmt"

	"naver-trends/models"
	"naver-trends/storage"
)

const testTable = "keyword_trends"

type fakeWarehouse struct {
	tables      map[string]bool
	latest      map[string]models.LatestDates
	lookupErr   error
	createErr   error
	insertErr   func(call int) error
	created     []string
	inserted    map[string][]*models.Row
	insertCalls map[string]int
}

func newFakeWarehouse() *fakeWarehouse {
	return &fakeWarehouse{
		tables:      map[string]bool{},
		latest:      map[string]models.LatestDates{},
		inserted:    map[string][]*models.Row{},
		insertCalls: map[string]int{},
	}
}

func (w *fakeWarehouse) Ref(dataset string) storage.TableRef {
	return storage.TableRef{Project: "proj", Dataset: dataset, Table: testTable}
}

func (w *fakeWarehouse) LookupTable(_ context.Context, ref storage.TableRef) (storage.TableStatus, error) {
	if w.lookupErr != nil {
		return storage.TableNotFound, w.lookupErr
	}
	if w.tables[ref.Dataset] {
		return storage.TableFound, nil
	}
	return storage.TableNotFound, nil
}

func (w *fakeWarehouse) CreateTable(_ context.Context, ref storage.TableRef) error {
	if w.createErr != nil {
		return w.createErr
	}
	w.tables[ref.Dataset] = true
	w.created = append(w.created, ref.ID())
	return nil
}

func (w *fakeWarehouse) LatestDates(_ context.Context, ref storage.TableRef) (models.LatestDates, error) {
	return w.latest[ref.Dataset], nil
}

func (w *fakeWarehouse) InsertRows(_ context.Context, ref storage.TableRef, rows []*models.Row) error {
	w.insertCalls[ref.Dataset]++
	if w.insertErr != nil {
		if err := w.insertErr(w.insertCalls[ref.Dataset]); err != nil {
			return err
		}
	}
	w.inserted[ref.Dataset] = append(w.inserted[ref.Dataset], rows...)
	return nil
}

func (w *fakeWarehouse) Close() error { return nil }

type fakeSource struct {
	clients []models.Client
	sheets  map[string][]*models.RawKeywordRow
	readErr map[string]error
	listErr error
	reads   []string
}

func (s *fakeSource) ListClients(context.Context) ([]models.Client, error) {
	return s.clients, s.listErr
}

func (s *fakeSource) ReadKeywordRows(_ context.Context, id string) ([]*models.RawKeywordRow, error) {
	s.reads = append(s.reads, id)
	if err := s.readErr[id]; err != nil {
		return nil, err
	}
	rows, ok := s.sheets[id]
	if !ok {
		return nil, fmt.Errorf("sheet %s not found", id)
	}
	return rows, nil
}

// fakeAnalyzer serves the same five days for every keyword and device and
// honours the latest-date map the way the Naver analyzer does.
type fakeAnalyzer struct {
	dates   []string
	calls   [][]string
	latests []models.LatestDates
	err     error
}

func newFakeAnalyzer() *fakeAnalyzer {
	return &fakeAnalyzer{dates: []string{"2020-12-30", "2020-12-31", "2021-01-01", "2021-01-02", "2021-01-03"}}
}

func (a *fakeAnalyzer) Analyze(_ context.Context, keywords []string, latest models.LatestDates) (map[string]*models.KeywordTrend, error) {
	a.calls = append(a.calls, append([]string(nil), keywords...))
	a.latests = append(a.latests, latest)
	if a.err != nil {
		return nil, a.err
	}

	out := make(map[string]*models.KeywordTrend, len(keywords))
	for _, kw := range keywords {
		trend := &models.KeywordTrend{}
		for i, device := range models.Devices {
			var series models.Series
			for j, d := range a.dates {
				series = append(series, models.DailyCount{Date: d, Count: int64((i+1)*100 + j)})
			}
			since := latest.Get(device, kw)
			if since == "" {
				since = "2015-12-31"
			}
			series = series.After(since)
			if device == models.DeviceMobile {
				trend.Mobile = series
			} else {
				trend.Desktop = series
			}
		}
		out[kw] = trend
	}
	return out, nil
}

type fakeRowWriter struct {
	written map[string]int
	err     error
}

func (w *fakeRowWriter) WriteRows(client string, rows []*models.Row) error {
	if w.written == nil {
		w.written = map[string]int{}
	}
	w.written[client] += len(rows)
	return w.err
}

func (w *fakeRowWriter) Close() error { return nil }

var errBoom = errors.New("boom")
