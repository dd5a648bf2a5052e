package monitoring

import (
	"errors"
	"testing"
)

func TestRecorderCaptures(t *testing.T) {
	r := &Recorder{}
	r.CaptureException(nil, nil)
	r.CaptureException(errors.New("write failed"), map[string]string{"key": "vehicles"})
	got := r.Captures()
	if len(got) != 1 {
		t.Fatalf("expected 1 capture got %d", len(got))
	}
	if got[0].Tags["key"] != "vehicles" {
		t.Fatalf("missing tag: %v", got[0].Tags)
	}
}

func TestOrNop(t *testing.T) {
	if _, ok := OrNop(nil).(NopMonitor); !ok {
		t.Fatal("expected NopMonitor")
	}
	r := &Recorder{}
	if OrNop(r) != Monitor(r) {
		t.Fatal("expected monitor passthrough")
	}
}
