package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/epicenter-locator/internal/domain"
	"github.com/couchcryptid/epicenter-locator/internal/observability"
	"github.com/couchcryptid/epicenter-locator/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockExtractor struct {
	mu      sync.Mutex
	batches [][]domain.RawEvent
	err     error
	// batchErr is returned alongside the first batch, as when a fetch fails
	// partway through filling it.
	batchErr error
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawEvent, error) {
	m.mu.Lock()
	if m.err != nil {
		err := m.err
		m.mu.Unlock()
		return nil, err
	}
	if len(m.batches) > 0 {
		batch := m.batches[0]
		m.batches = m.batches[1:]
		err := m.batchErr
		m.batchErr = nil
		m.mu.Unlock()
		return batch, err
	}
	m.mu.Unlock()

	// Block until cancelled to simulate waiting for messages.
	<-ctx.Done()
	return nil, ctx.Err()
}

type mockTransformer struct {
	failKeys map[string]bool
	// outages counts how many more times a key fails on an unavailable geocoder.
	outages map[string]int
	calls   int
}

func (m *mockTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	m.calls++
	if m.failKeys[string(raw.Key)] {
		return domain.OutputEvent{}, errors.New("bad request")
	}
	if m.outages[string(raw.Key)] > 0 {
		m.outages[string(raw.Key)]--
		return domain.OutputEvent{}, &domain.StationError{
			Index: 0,
			Err:   fmt.Errorf("%w: %w: %w", domain.ErrUnresolvedStation, domain.ErrGeocoderUnavailable, errors.New("status 503")),
		}
	}
	return domain.OutputEvent{Key: raw.Key, Value: raw.Value}, nil
}

type mockLoader struct {
	mu       sync.Mutex
	loaded   []domain.OutputEvent
	failures int
	calls    int
}

func (m *mockLoader) LoadBatch(_ context.Context, events []domain.OutputEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failures > 0 {
		m.failures--
		return errors.New("broker unavailable")
	}
	m.loaded = append(m.loaded, events...)
	return nil
}

func (m *mockLoader) snapshot() []domain.OutputEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.OutputEvent(nil), m.loaded...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func rawEvent(key string, commits *[]string, mu *sync.Mutex) domain.RawEvent {
	return domain.RawEvent{
		Key:   []byte(key),
		Value: []byte(`{"id":"` + key + `"}`),
		Topic: "seismic-readings",
		Commit: func(_ context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			*commits = append(*commits, key)
			return nil
		},
	}
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	var mu sync.Mutex
	var commits []string
	ext := &mockExtractor{batches: [][]domain.RawEvent{{
		rawEvent("quake-1", &commits, &mu),
		rawEvent("quake-2", &commits, &mu),
	}}}
	ldr := &mockLoader{}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), metrics, 10)
	require.Error(t, p.CheckReadiness(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	require.NoError(t, p.Run(ctx))

	loaded := ldr.snapshot()
	require.Len(t, loaded, 2)
	assert.Equal(t, []byte("quake-1"), loaded[0].Key)
	assert.ElementsMatch(t, []string{"quake-1", "quake-2"}, commits)
	assert.NoError(t, p.CheckReadiness(context.Background()))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.MessagesConsumed))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.MessagesProduced))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.PipelineRunning))
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ldr := &mockLoader{}
	p := pipeline.New(&mockExtractor{}, &mockTransformer{}, ldr, discardLogger(), observability.NewMetricsForTesting(), 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.snapshot())
}

func TestPipeline_Run_TransformErrorSkipsAndCommits(t *testing.T) {
	var mu sync.Mutex
	var commits []string
	ext := &mockExtractor{batches: [][]domain.RawEvent{{
		rawEvent("bad", &commits, &mu),
		rawEvent("good", &commits, &mu),
	}}}
	ldr := &mockLoader{}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(ext, &mockTransformer{failKeys: map[string]bool{"bad": true}}, ldr, discardLogger(), metrics, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	require.NoError(t, p.Run(ctx))

	loaded := ldr.snapshot()
	require.Len(t, loaded, 1)
	assert.Equal(t, []byte("good"), loaded[0].Key)
	assert.ElementsMatch(t, []string{"bad", "good"}, commits)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.TransformErrors))
}

func TestPipeline_Run_AllFailedNotReady(t *testing.T) {
	var mu sync.Mutex
	var commits []string
	ext := &mockExtractor{batches: [][]domain.RawEvent{{rawEvent("bad", &commits, &mu)}}}

	p := pipeline.New(ext, &mockTransformer{failKeys: map[string]bool{"bad": true}}, &mockLoader{}, discardLogger(), observability.NewMetricsForTesting(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	require.NoError(t, p.Run(ctx))

	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_RetriesLoadBeforeCommit(t *testing.T) {
	var mu sync.Mutex
	var commits []string
	ext := &mockExtractor{batches: [][]domain.RawEvent{{rawEvent("quake-1", &commits, &mu)}}}
	ldr := &mockLoader{failures: 1}

	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), observability.NewMetricsForTesting(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, p.Run(ctx))

	assert.Equal(t, 2, ldr.calls)
	assert.Len(t, ldr.snapshot(), 1)
	assert.Equal(t, []string{"quake-1"}, commits)
}

func TestPipeline_Run_LoadFailureStopsWithoutCommit(t *testing.T) {
	var mu sync.Mutex
	var commits []string
	ext := &mockExtractor{batches: [][]domain.RawEvent{{rawEvent("quake-1", &commits, &mu)}}}
	ldr := &mockLoader{failures: 1000}

	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), observability.NewMetricsForTesting(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	require.NoError(t, p.Run(ctx))

	assert.Empty(t, ldr.snapshot())
	assert.Empty(t, commits)
}

func TestPipeline_Run_ExtractErrorBacksOff(t *testing.T) {
	ext := &mockExtractor{err: errors.New("broker down")}
	p := pipeline.New(ext, &mockTransformer{}, &mockLoader{}, discardLogger(), observability.NewMetricsForTesting(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	require.NoError(t, p.Run(ctx))
	assert.Less(t, time.Since(start), time.Second)
}

func TestPipeline_Run_ProcessesBatchReturnedWithExtractError(t *testing.T) {
	var mu sync.Mutex
	var commits []string
	ext := &mockExtractor{
		batches: [][]domain.RawEvent{{
			rawEvent("quake-1", &commits, &mu),
			rawEvent("quake-2", &commits, &mu),
		}},
		batchErr: errors.New("fetch message: broker reset"),
	}
	ldr := &mockLoader{}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), metrics, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	require.NoError(t, p.Run(ctx))

	loaded := ldr.snapshot()
	require.Len(t, loaded, 2)
	assert.Equal(t, []byte("quake-1"), loaded[0].Key)
	assert.Equal(t, []byte("quake-2"), loaded[1].Key)
	assert.ElementsMatch(t, []string{"quake-1", "quake-2"}, commits)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.MessagesConsumed))
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_RetriesGeocoderOutage(t *testing.T) {
	var mu sync.Mutex
	var commits []string
	ext := &mockExtractor{batches: [][]domain.RawEvent{{rawEvent("quake-1", &commits, &mu)}}}
	tr := &mockTransformer{outages: map[string]int{"quake-1": 1}}
	ldr := &mockLoader{}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(ext, tr, ldr, discardLogger(), metrics, 10)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, p.Run(ctx))

	assert.Equal(t, 2, tr.calls)
	assert.Len(t, ldr.snapshot(), 1)
	assert.Equal(t, []string{"quake-1"}, commits)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.TransformErrors))
}

func TestPipeline_Run_GeocoderOutageStopsWithoutCommit(t *testing.T) {
	var mu sync.Mutex
	var commits []string
	ext := &mockExtractor{batches: [][]domain.RawEvent{{
		rawEvent("quake-1", &commits, &mu),
		rawEvent("quake-2", &commits, &mu),
	}}}
	tr := &mockTransformer{outages: map[string]int{"quake-1": 1000}}
	ldr := &mockLoader{}

	p := pipeline.New(ext, tr, ldr, discardLogger(), observability.NewMetricsForTesting(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	require.NoError(t, p.Run(ctx))

	assert.Empty(t, ldr.snapshot())
	assert.Empty(t, commits, "a later offset must not be committed past the stalled request")
}
