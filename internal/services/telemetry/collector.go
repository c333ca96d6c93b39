// Package telemetry records one event per model invocation and aggregates
// the event log for reporting.
package telemetry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/pmservice/assistant-service/internal/domain/models"
	"github.com/pmservice/assistant-service/internal/metrics"
)

// DefaultExportTimeout bounds one trace export.
const DefaultExportTimeout = 10 * time.Second

// Sink stores telemetry events. Both the relational telemetry table and the
// document collection satisfy it.
type Sink interface {
	Insert(ctx context.Context, event *models.TelemetryEvent) error
	ListRecent(ctx context.Context, limit int) ([]models.TelemetryEvent, error)
	ListSince(ctx context.Context, since time.Time) ([]models.TelemetryEvent, error)
}

// Exporter ships events to an external tracing backend.
type Exporter interface {
	Export(ctx context.Context, event *models.TelemetryEvent) error
}

// Config holds the collector dependencies. Sink and Exporter are optional.
type Config struct {
	Sink          Sink
	Exporter      Exporter
	ExportTimeout time.Duration
	Logger        zerolog.Logger
	// Location is used to format activity times. Defaults to time.Local.
	Location *time.Location
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Collector buffers the events of this process and persists each one.
type Collector struct {
	mu     sync.RWMutex
	buffer []models.TelemetryEvent

	sink          Sink
	exporter      Exporter
	exportTimeout time.Duration
	exports       sync.WaitGroup

	logger   zerolog.Logger
	location *time.Location
	now      func() time.Time
}

// NewCollector creates a collector.
func NewCollector(cfg *Config) (*Collector, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	c := &Collector{
		sink:          cfg.Sink,
		exporter:      cfg.Exporter,
		exportTimeout: cfg.ExportTimeout,
		logger:        cfg.Logger,
		location:      cfg.Location,
		now:           cfg.Now,
	}
	if c.exportTimeout <= 0 {
		c.exportTimeout = DefaultExportTimeout
	}
	if c.location == nil {
		c.location = time.Local
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c, nil
}

// TrackInput describes one finished model invocation.
type TrackInput struct {
	ThreadID   string
	Category   string
	Mode       string
	Latency    time.Duration
	InputText  string
	OutputText string
	Model      string
	// Err is the model failure, nil on success.
	Err error
}

// TrackResult is the recorded event. PersistError is set when the sink
// rejected the event; the event is still in the session buffer.
type TrackResult struct {
	Event        *models.TelemetryEvent
	PersistError error
}

// Track records an event. It never fails the caller: storage problems are
// logged, counted and reported in the result.
func (c *Collector) Track(ctx context.Context, in TrackInput) *TrackResult {
	inputTokens := EstimateTokens(in.InputText)
	outputTokens := 0
	if in.OutputText != "" {
		outputTokens = EstimateTokens(in.OutputText)
	}
	total := inputTokens + outputTokens
	at := c.now().UTC()

	// ULIDs sort by creation time, which keeps sink listings in event order.
	event := &models.TelemetryEvent{
		ID:               ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy()).String(),
		ThreadID:         in.ThreadID,
		Category:         in.Category,
		Mode:             in.Mode,
		LatencyMs:        float64(in.Latency) / float64(time.Millisecond),
		InputTokens:      inputTokens,
		OutputTokens:     outputTokens,
		TokensUsed:       total,
		EstimatedCostUSD: EstimateCost(total, in.Model),
		ModelName:        in.Model,
		Status:           models.StatusSuccess,
		Timestamp:        at,
	}
	if in.Err != nil {
		event.Status = models.StatusError
		event.ErrorMessage = in.Err.Error()
	}

	c.mu.Lock()
	c.buffer = append(c.buffer, *event)
	c.mu.Unlock()

	observe(event, in.Latency)

	result := &TrackResult{Event: event}
	if c.sink != nil {
		if err := c.sink.Insert(ctx, event); err != nil {
			metrics.TelemetryPersistFailures.Inc()
			c.logger.Warn().Err(err).Str("event_id", event.ID).Msg("failed to persist telemetry event")
			result.PersistError = err
		}
	}

	if c.exporter != nil {
		c.exports.Add(1)
		go c.export(context.WithoutCancel(ctx), *event)
	}

	return result
}

func (c *Collector) export(ctx context.Context, event models.TelemetryEvent) {
	defer c.exports.Done()

	ctx, cancel := context.WithTimeout(ctx, c.exportTimeout)
	defer cancel()

	if err := c.exporter.Export(ctx, &event); err != nil {
		metrics.TelemetryExportFailures.Inc()
		c.logger.Warn().Err(err).Str("event_id", event.ID).Msg("failed to export telemetry event")
	}
}

func observe(event *models.TelemetryEvent, latency time.Duration) {
	metrics.AssistantInvocations.WithLabelValues(event.Mode, string(event.Status)).Inc()
	metrics.AssistantLatency.WithLabelValues(event.ModelName).Observe(latency.Seconds())
	metrics.TokensTotal.WithLabelValues("input").Add(float64(event.InputTokens))
	metrics.TokensTotal.WithLabelValues("output").Add(float64(event.OutputTokens))
	metrics.CostUSDTotal.Add(event.EstimatedCostUSD)
}

// Wait blocks until pending exports finish or ctx is done.
func (c *Collector) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.exports.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events returns a copy of the session buffer in insertion order.
func (c *Collector) Events() []models.TelemetryEvent {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.TelemetryEvent(nil), c.buffer...)
}

// Reset clears the session buffer.
func (c *Collector) Reset() {
	c.mu.Lock()
	c.buffer = nil
	c.mu.Unlock()
}

// SessionMetrics aggregates the events tracked by this process.
func (c *Collector) SessionMetrics() Metrics {
	return Aggregate(c.Events())
}

// Summary aggregates the persisted history together with the session
// buffer. It falls back to the buffer alone when the sink cannot be read.
func (c *Collector) Summary(ctx context.Context) Metrics {
	buffered := c.Events()
	if c.sink == nil {
		return Aggregate(buffered)
	}

	stored, err := c.sink.ListSince(ctx, time.Time{})
	if err != nil {
		c.logger.Warn().Err(err).Msg("telemetry history unavailable, using session events")
		return Aggregate(buffered)
	}
	return Aggregate(mergeEvents(stored, buffered))
}

// mergeEvents appends the buffered events the sink does not hold, such as
// those whose persist failed.
func mergeEvents(stored, buffered []models.TelemetryEvent) []models.TelemetryEvent {
	seen := make(map[string]struct{}, len(stored))
	for _, e := range stored {
		seen[e.ID] = struct{}{}
	}
	for _, e := range buffered {
		if _, ok := seen[e.ID]; !ok {
			stored = append(stored, e)
		}
	}
	return stored
}

// Activity is one line of the recent activity list.
type Activity struct {
	Time    string `json:"time"`
	Action  string `json:"action"`
	Details string `json:"details"`
	Status  string `json:"status"`
}

// DefaultActivityLimit is the number of activity lines returned by default.
const DefaultActivityLimit = 10

// RecentActivity lists the newest events first.
func (c *Collector) RecentActivity(ctx context.Context, limit int) []Activity {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}

	events := c.Events()
	if c.sink != nil {
		stored, err := c.sink.ListRecent(ctx, limit)
		if err != nil {
			c.logger.Warn().Err(err).Msg("recent telemetry unavailable, using session events")
		} else {
			events = mergeEvents(stored, events)
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})
	if len(events) > limit {
		events = events[:limit]
	}

	out := make([]Activity, 0, len(events))
	for _, e := range events {
		out = append(out, Activity{
			Time:    e.Timestamp.In(c.location).Format("03:04 PM"),
			Action:  e.Mode + " Message",
			Details: fmt.Sprintf("%s - %.1fms", e.Category, e.LatencyMs),
			Status:  string(e.Status),
		})
	}
	return out
}

// PerformancePoint is one hourly bucket.
type PerformancePoint struct {
	HourStart    time.Time `json:"hourStart"`
	Hour         int       `json:"hour"`
	Messages     int       `json:"messages"`
	AvgLatencyMs float64   `json:"avgLatencyMs"`
	Tokens       int       `json:"tokens"`
}

// DefaultPerformanceHours is the default look-back window.
const DefaultPerformanceHours = 3

// PerformanceSeries buckets the last hours of persisted events by hour,
// oldest first. Without readable history it returns one bucket for the
// current hour built from the session buffer.
func (c *Collector) PerformanceSeries(ctx context.Context, hours int) []PerformancePoint {
	if hours <= 0 {
		hours = DefaultPerformanceHours
	}
	now := c.now()

	if c.sink != nil {
		since := now.Add(-time.Duration(hours) * time.Hour)
		stored, err := c.sink.ListSince(ctx, since.UTC())
		if err == nil {
			var events []models.TelemetryEvent
			for _, e := range mergeEvents(stored, c.Events()) {
				if !e.Timestamp.Before(since) {
					events = append(events, e)
				}
			}
			return bucketByHour(events, c.location)
		}
		c.logger.Warn().Err(err).Msg("telemetry history unavailable, using session events")
	}

	session := c.SessionMetrics()
	start := hourStart(now, c.location)
	return []PerformancePoint{{
		HourStart:    start,
		Hour:         start.Hour(),
		Messages:     session.TotalMessages,
		AvgLatencyMs: session.AvgLatencyMs,
		Tokens:       session.TotalTokens,
	}}
}

// hourStart is the top of t's wall-clock hour in loc. It must not use
// Truncate, which ignores fractional zone offsets.
func hourStart(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), 0, 0, 0, loc)
}

func bucketByHour(events []models.TelemetryEvent, loc *time.Location) []PerformancePoint {
	type acc struct {
		point   PerformancePoint
		latency float64
	}
	buckets := map[int64]*acc{}

	for _, e := range events {
		start := hourStart(e.Timestamp, loc)
		b, ok := buckets[start.Unix()]
		if !ok {
			b = &acc{point: PerformancePoint{HourStart: start, Hour: start.Hour()}}
			buckets[start.Unix()] = b
		}
		b.point.Messages++
		b.point.Tokens += e.TokensUsed
		b.latency += e.LatencyMs
	}

	out := make([]PerformancePoint, 0, len(buckets))
	for _, b := range buckets {
		b.point.AvgLatencyMs = round(b.latency/float64(b.point.Messages), 1)
		out = append(out, b.point)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HourStart.Before(out[j].HourStart) })
	return out
}
