package monitoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cpu-monitoring/internal/domain"
	"cpu-monitoring/internal/observability"
	"cpu-monitoring/internal/util"
)

// Date is a calendar date. It marshals as 2006-01-02.
type Date struct {
	time.Time
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

type MinuteUsage struct {
	Samples   []domain.Sample `json:"cpu_usage"`
	StartTime time.Time       `json:"start_time"`
	EndTime   time.Time       `json:"end_time"`
}

type HourlyStats struct {
	Hour time.Time `json:"hour"`
	domain.Stats
}

type HourlyUsage struct {
	Buckets   []HourlyStats `json:"cpu_usage"`
	StartDate Date          `json:"start_date"`
	EndDate   Date          `json:"end_date"`
}

type DailyStats struct {
	Date Date `json:"date"`
	domain.Stats
}

type DailyUsage struct {
	Buckets   []DailyStats `json:"cpu_usage"`
	StartDate Date         `json:"start_date"`
	EndDate   Date         `json:"end_date"`
}

// Service answers the three range queries. Each one validates the requested
// range, clamps its lower bound to the retention window, scans the store and,
// for hour and day, summarizes the samples per bucket. The effective bounds
// are echoed in the response.
type Service struct {
	store   domain.SampleStore
	clock   domain.Clock
	loc     *time.Location
	metrics *observability.PromMetrics
	logger  *util.MonitorLogger
}

func NewService(store domain.SampleStore, clock domain.Clock, loc *time.Location,
	metrics *observability.PromMetrics, logger *util.MonitorLogger) *Service {
	if clock == nil {
		clock = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		store:   store,
		clock:   clock,
		loc:     loc,
		metrics: metrics,
		logger:  logger,
	}
}

func (s *Service) Location() *time.Location {
	return s.loc
}

func (s *Service) QueryByMinute(ctx context.Context, startTime, endTime time.Time) (*MinuteUsage, error) {
	defer s.observe(domain.GranularityMinute, time.Now())

	now := s.clock()
	if err := ValidateTimeRange(startTime, endTime, now); err != nil {
		return nil, s.rejected(domain.GranularityMinute, err)
	}

	startTime = ClampLowerBound(startTime, domain.GranularityMinute, now)

	samples, err := s.store.RangeBetween(ctx, startTime, endTime)
	if err != nil {
		return nil, fmt.Errorf("minute query: %w", err)
	}

	for i := range samples {
		samples[i].Timestamp = samples[i].Timestamp.In(s.loc)
	}

	return &MinuteUsage{
		Samples:   samples,
		StartTime: startTime.In(s.loc),
		EndTime:   endTime.In(s.loc),
	}, nil
}

func (s *Service) QueryByHour(ctx context.Context, startDate, endDate time.Time) (*HourlyUsage, error) {
	defer s.observe(domain.GranularityHour, time.Now())

	start, end, buckets, err := s.summarizeDates(ctx, domain.GranularityHour, startDate, endDate)
	if err != nil {
		return nil, err
	}

	out := make([]HourlyStats, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, HourlyStats{Hour: b.Key, Stats: b.Stats})
	}
	return &HourlyUsage{Buckets: out, StartDate: Date{start}, EndDate: Date{end}}, nil
}

func (s *Service) QueryByDay(ctx context.Context, startDate, endDate time.Time) (*DailyUsage, error) {
	defer s.observe(domain.GranularityDay, time.Now())

	start, end, buckets, err := s.summarizeDates(ctx, domain.GranularityDay, startDate, endDate)
	if err != nil {
		return nil, err
	}

	out := make([]DailyStats, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, DailyStats{Date: Date{b.Key}, Stats: b.Stats})
	}
	return &DailyUsage{Buckets: out, StartDate: Date{start}, EndDate: Date{end}}, nil
}

// summarizeDates is the shared date-range path for hour and day queries.
// It returns the effective start and end dates with the buckets.
func (s *Service) summarizeDates(ctx context.Context, g domain.Granularity, startDate, endDate time.Time) (time.Time, time.Time, []Bucket, error) {
	now := s.clock()
	startDate = StartOfDay(startDate, s.loc)
	endDate = StartOfDay(endDate, s.loc)

	if err := ValidateDateRange(startDate, endDate, StartOfDay(now, s.loc)); err != nil {
		return time.Time{}, time.Time{}, nil, s.rejected(g, err)
	}

	startDate = ClampStartDate(startDate, g, now, s.loc)

	samples, err := s.store.RangeBetween(ctx, startDate, EndOfDay(endDate, s.loc))
	if err != nil {
		return time.Time{}, time.Time{}, nil, fmt.Errorf("%s query: %w", g, err)
	}

	return startDate, endDate, GroupAndSummarize(samples, g, s.loc), nil
}

func (s *Service) rejected(g domain.Granularity, err error) error {
	if errors.Is(err, domain.ErrInvalidRange) {
		s.metrics.InvalidRange(g.String())
		s.logger.LogEvent(util.LOG_LEVEL_WARN, "Rejected ", g.String(), " query - ", err)
	}
	return err
}

func (s *Service) observe(g domain.Granularity, began time.Time) {
	s.metrics.ObserveQuery(g.String(), time.Since(began).Seconds())
}
