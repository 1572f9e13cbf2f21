package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCounts(t *testing.T) {
	r := New()

	r.RowsInserted("Acme", "PC", 10)
	r.RowsInserted("Acme", "PC", 5)
	r.RowsInserted("Acme", "모바일", 0)
	r.ClientResult("done")
	r.ClientResult("failed")
	r.ClientResult("done")
	r.InsertRetry()

	if got := testutil.ToFloat64(r.rowsInserted.WithLabelValues("Acme", "PC")); got != 15 {
		t.Errorf("rows inserted = %v; want 15", got)
	}
	if got := testutil.ToFloat64(r.clientResults.WithLabelValues("done")); got != 2 {
		t.Errorf("done = %v; want 2", got)
	}
	if got := testutil.ToFloat64(r.insertRetries); got != 1 {
		t.Errorf("retries = %v; want 1", got)
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	r.RowsInserted("Acme", "PC", 1)
	r.ClientResult("done")
	r.InsertRetry()
	if err := r.Push("http://unused"); err != nil {
		t.Errorf("nil Push: %v", err)
	}
}

func TestPush(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		atomic.AddInt32(&hits, 1)
		if !strings.Contains(req.URL.Path, "/job/"+jobName) {
			t.Errorf("unexpected push path %s", req.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := New()
	r.ClientResult("done")
	if err := r.Push(srv.URL); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Errorf("gateway hits = %d; want 1", hits)
	}
}
