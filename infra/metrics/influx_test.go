package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/fleetrollout/core/metrics"
)

type lineServer struct {
	mu     sync.Mutex
	bodies []string
	*httptest.Server
}

func newLineServer(t *testing.T) *lineServer {
	t.Helper()
	ls := &lineServer{}
	ls.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		ls.mu.Lock()
		ls.bodies = append(ls.bodies, strings.TrimSpace(string(data)))
		ls.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(ls.Close)
	return ls
}

func (ls *lineServer) got() []string {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return append([]string(nil), ls.bodies...)
}

func line(p *write.Point) string {
	return strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
}

func TestInfluxSink_RecordMutation(t *testing.T) {
	srv := newLineServer(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	ev := coremetrics.MutationEvent{Key: "vehicles", Operation: "update_status", EntityID: "V001", Outcome: "confirmed", Latency: 40 * time.Millisecond, Time: now}
	if err := sink.RecordMutation(ev); err != nil {
		t.Fatalf("record: %v", err)
	}
	exp := line(write.NewPointWithMeasurement("optimistic_mutation").
		AddTag("key", "vehicles").
		AddTag("operation", "update_status").
		AddTag("outcome", "confirmed").
		AddTag("entity_id", "V001").
		AddField("latency_ms", int64(40)).
		SetTime(now))
	if b := srv.got(); len(b) != 1 || b[0] != exp {
		t.Errorf("unexpected bodies: %#v", b)
	}
}

func TestInfluxSink_RecordCache(t *testing.T) {
	srv := newLineServer(t)
	sink := NewInfluxSink(srv.URL+"/api/v2/write", "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	if err := sink.RecordCache(coremetrics.CacheEvent{Key: "tasks", Kind: coremetrics.CacheFetchOK, Duration: 3 * time.Millisecond, Time: now}); err != nil {
		t.Fatalf("record: %v", err)
	}
	exp := line(write.NewPointWithMeasurement("cache_event").
		AddTag("key", "tasks").
		AddTag("kind", "fetch_ok").
		AddField("duration_ms", int64(3)).
		SetTime(now))
	if b := srv.got(); len(b) != 1 || b[0] != exp {
		t.Errorf("unexpected bodies: %#v", b)
	}
}

func TestInfluxSink_RecordLocationProgress(t *testing.T) {
	srv := newLineServer(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	if err := sink.RecordLocationProgress(nil); err != nil {
		t.Fatalf("empty: %v", err)
	}
	if err := sink.RecordLocationProgress([]coremetrics.LocationProgress{
		{Location: "Hawassa", Total: 2, Percent: 50, Drift: 1, Time: now},
		{Location: "Bahir Dar", Total: 3, Percent: 67, Time: now},
	}); err != nil {
		t.Fatalf("record: %v", err)
	}
	b := srv.got()
	if len(b) != 1 {
		t.Fatalf("expected a single batched write, got %d", len(b))
	}
	if strings.Count(b[0], "location_progress,location=") != 2 {
		t.Errorf("unexpected body: %s", b[0])
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
