package metrics

import (
	"context"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/fleetrollout/core/metrics"
	"github.com/kilianp07/fleetrollout/infra/logger"
)

const writeTimeout = 5 * time.Second

// InfluxSink writes rollout events to InfluxDB with the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

var (
	_ coremetrics.Sink             = (*InfluxSink)(nil)
	_ coremetrics.MutationRecorder = (*InfluxSink)(nil)
	_ coremetrics.ProgressRecorder = (*InfluxSink)(nil)
)

// NewInfluxSink creates a sink for the given endpoint. A URL ending in the
// write path is accepted.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: writeTimeout}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the instance and returns a NopSink when
// the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.Sink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

func (s *InfluxSink) write(points ...*write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, points...)
}

func (s *InfluxSink) RecordCache(ev coremetrics.CacheEvent) error {
	return s.write(write.NewPointWithMeasurement("cache_event").
		AddTag("key", ev.Key).
		AddTag("kind", string(ev.Kind)).
		AddField("duration_ms", ev.Duration.Milliseconds()).
		SetTime(ev.Time))
}

func (s *InfluxSink) RecordMutation(ev coremetrics.MutationEvent) error {
	p := write.NewPointWithMeasurement("optimistic_mutation").
		AddTag("key", ev.Key).
		AddTag("operation", ev.Operation).
		AddTag("outcome", ev.Outcome)
	if ev.EntityID != "" {
		p = p.AddTag("entity_id", ev.EntityID)
	}
	return s.write(p.AddField("latency_ms", ev.Latency.Milliseconds()).SetTime(ev.Time))
}

func (s *InfluxSink) RecordFleetProgress(fp coremetrics.FleetProgress) error {
	return s.write(write.NewPointWithMeasurement("fleet_progress").
		AddField("total", fp.Total).
		AddField("completed", fp.Completed).
		AddField("in_progress", fp.InProgress).
		AddField("pending", fp.Pending).
		AddField("percent", fp.Percent).
		SetTime(fp.Time))
}

func (s *InfluxSink) RecordLocationProgress(ps []coremetrics.LocationProgress) error {
	if len(ps) == 0 {
		return nil
	}
	points := make([]*write.Point, 0, len(ps))
	for _, p := range ps {
		points = append(points, write.NewPointWithMeasurement("location_progress").
			AddTag("location", p.Location).
			AddField("total", p.Total).
			AddField("percent", p.Percent).
			AddField("drift", p.Drift).
			SetTime(p.Time))
	}
	return s.write(points...)
}

// Close flushes and releases the client.
func (s *InfluxSink) Close() {
	s.client.Close()
}
