package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpu-monitoring/internal/domain"
	"cpu-monitoring/internal/observability"
	"cpu-monitoring/internal/repository"
)

// recordingStore wraps a MemoryStore and remembers the last scan bounds.
type recordingStore struct {
	*repository.MemoryStore
	scans      int
	start, end time.Time
	err        error
}

func (r *recordingStore) RangeBetween(ctx context.Context, start, end time.Time) ([]domain.Sample, error) {
	r.scans++
	r.start, r.end = start, end
	if r.err != nil {
		return nil, r.err
	}
	return r.MemoryStore.RangeBetween(ctx, start, end)
}

func newTestService(t *testing.T, now time.Time, samples ...domain.Sample) (*Service, *recordingStore) {
	t.Helper()

	store := &recordingStore{MemoryStore: repository.NewMemoryStore()}
	for _, s := range samples {
		require.NoError(t, store.Append(context.Background(), s))
	}

	metrics := observability.NewPromMetrics(prometheus.NewRegistry())
	svc := NewService(store, func() time.Time { return now }, time.UTC, metrics, nil)
	return svc, store
}

func TestService_QueryByDay(t *testing.T) {
	loc := time.UTC
	now := time.Date(2024, 5, 27, 18, 0, 0, 0, loc)
	svc, _ := newTestService(t, now,
		domain.Sample{Timestamp: at(loc, 2024, 5, 25, 23, 59, 59), Usage: 99}, // outside range
		domain.Sample{Timestamp: at(loc, 2024, 5, 26, 0, 0, 0), Usage: 2.99},
		domain.Sample{Timestamp: at(loc, 2024, 5, 26, 11, 0, 0), Usage: 10.0},
		domain.Sample{Timestamp: at(loc, 2024, 5, 26, 23, 59, 59), Usage: 27.69},
		domain.Sample{Timestamp: at(loc, 2024, 5, 27, 3, 0, 0), Usage: 4.02},
		domain.Sample{Timestamp: at(loc, 2024, 5, 27, 17, 0, 0), Usage: 77.34},
	)

	got, err := svc.QueryByDay(context.Background(), at(loc, 2024, 5, 26, 0, 0, 0), at(loc, 2024, 5, 27, 0, 0, 0))
	require.NoError(t, err)

	assert.Equal(t, []DailyStats{
		{Date: Date{at(loc, 2024, 5, 26, 0, 0, 0)}, Stats: domain.Stats{MinUsage: 2.99, MaxUsage: 27.69, AverageUsage: 13.56}},
		{Date: Date{at(loc, 2024, 5, 27, 0, 0, 0)}, Stats: domain.Stats{MinUsage: 4.02, MaxUsage: 77.34, AverageUsage: 40.68}},
	}, got.Buckets)
	assert.Equal(t, "2024-05-26", got.StartDate.String())
	assert.Equal(t, "2024-05-27", got.EndDate.String())
}

func TestService_QueryByHour(t *testing.T) {
	loc := time.UTC
	now := time.Date(2024, 5, 27, 18, 0, 0, 0, loc)
	svc, store := newTestService(t, now,
		domain.Sample{Timestamp: at(loc, 2024, 5, 27, 0, 10, 0), Usage: 10},
		domain.Sample{Timestamp: at(loc, 2024, 5, 27, 0, 50, 0), Usage: 20},
		domain.Sample{Timestamp: at(loc, 2024, 5, 27, 2, 0, 0), Usage: 40},
	)

	got, err := svc.QueryByHour(context.Background(), at(loc, 2024, 5, 27, 0, 0, 0), at(loc, 2024, 5, 27, 0, 0, 0))
	require.NoError(t, err)

	require.Len(t, got.Buckets, 2)
	assert.Equal(t, at(loc, 2024, 5, 27, 0, 0, 0), got.Buckets[0].Hour)
	assert.Equal(t, domain.Stats{MinUsage: 10, MaxUsage: 20, AverageUsage: 15}, got.Buckets[0].Stats)
	assert.Equal(t, at(loc, 2024, 5, 27, 2, 0, 0), got.Buckets[1].Hour)

	// scan covers the whole end date
	assert.Equal(t, at(loc, 2024, 5, 27, 0, 0, 0), store.start)
	assert.Equal(t, at(loc, 2024, 5, 27, 23, 59, 59), store.end)
}

func TestService_QueryByMinute_ClampsToRetention(t *testing.T) {
	now := time.Date(2024, 5, 27, 18, 0, 0, 0, time.UTC)
	svc, store := newTestService(t, now,
		domain.Sample{Timestamp: now.AddDate(0, 0, -10), Usage: 1},
		domain.Sample{Timestamp: now.AddDate(0, 0, -7), Usage: 2},
		domain.Sample{Timestamp: now.Add(-time.Hour), Usage: 3},
	)

	got, err := svc.QueryByMinute(context.Background(), now.AddDate(0, 0, -30), now)
	require.NoError(t, err)

	assert.Equal(t, now.AddDate(0, 0, -7), got.StartTime)
	assert.Equal(t, now, got.EndTime)
	assert.Equal(t, now.AddDate(0, 0, -7), store.start)
	require.Len(t, got.Samples, 2)
	assert.Equal(t, 2.0, got.Samples[0].Usage)
	assert.Equal(t, 3.0, got.Samples[1].Usage)
}

func TestService_QueryByMinute_Empty(t *testing.T) {
	now := time.Date(2024, 5, 27, 18, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t, now)

	got, err := svc.QueryByMinute(context.Background(), now.Add(-time.Hour), now)
	require.NoError(t, err)
	assert.NotNil(t, got.Samples)
	assert.Empty(t, got.Samples)
}

func TestService_ValidationPrecedesClamp(t *testing.T) {
	now := time.Date(2024, 5, 27, 18, 0, 0, 0, time.UTC)
	svc, store := newTestService(t, now)
	ctx := context.Background()

	// start far outside retention but after end: rejected, not clamped
	_, err := svc.QueryByMinute(ctx, now.AddDate(0, 0, -1), now.AddDate(-2, 0, 0))
	assert.ErrorIs(t, err, domain.ErrInvalidRange)

	_, err = svc.QueryByHour(ctx, now, now.AddDate(-1, 0, 0))
	assert.ErrorIs(t, err, domain.ErrInvalidRange)

	_, err = svc.QueryByDay(ctx, now.AddDate(0, 0, -1), now.AddDate(0, 0, 1))
	assert.ErrorIs(t, err, domain.ErrInvalidRange)

	_, err = svc.QueryByMinute(ctx, now.Add(-time.Hour), now.Add(time.Second))
	assert.ErrorIs(t, err, domain.ErrInvalidRange)

	assert.Equal(t, 0, store.scans, "invalid ranges must fail before touching the store")
}

func TestService_OldStartIsClampedNotRejected(t *testing.T) {
	now := time.Date(2024, 5, 27, 18, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t, now)

	got, err := svc.QueryByDay(context.Background(), time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC), now)
	require.NoError(t, err)
	assert.Equal(t, "2023-05-27", got.StartDate.String())

	hourly, err := svc.QueryByHour(context.Background(), time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC), now)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-27", hourly.StartDate.String())
}

func TestService_StoreErrorPropagates(t *testing.T) {
	now := time.Date(2024, 5, 27, 18, 0, 0, 0, time.UTC)
	svc, store := newTestService(t, now)
	store.err = errors.New("database is locked")

	_, err := svc.QueryByDay(context.Background(), now, now)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInvalidRange)
}

func TestDailyUsage_JSON(t *testing.T) {
	loc := time.UTC
	usage := DailyUsage{
		Buckets: []DailyStats{
			{Date: Date{at(loc, 2024, 5, 26, 0, 0, 0)}, Stats: domain.Stats{MinUsage: 2.99, MaxUsage: 27.69, AverageUsage: 13.56}},
		},
		StartDate: Date{at(loc, 2024, 5, 26, 0, 0, 0)},
		EndDate:   Date{at(loc, 2024, 5, 27, 0, 0, 0)},
	}

	raw, err := json.Marshal(usage)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"cpu_usage": [{"date": "2024-05-26", "min_usage": 2.99, "max_usage": 27.69, "average_usage": 13.56}],
		"start_date": "2024-05-26",
		"end_date": "2024-05-27"
	}`, string(raw))
}
