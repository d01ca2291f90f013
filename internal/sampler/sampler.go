package sampler

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"cpu-monitoring/internal/domain"
	"cpu-monitoring/internal/monitoring"
	"cpu-monitoring/internal/observability"
	"cpu-monitoring/internal/util"
)

var ErrAlreadyRunning = errors.New("sampler is already running")

type Options struct {
	Interval       time.Duration
	WarmupCount    int
	WarmupInterval time.Duration
}

// Sampler records one CPU usage sample per interval. Start runs the warm-up
// burst and then the schedule on a single goroutine, so ticks never overlap.
type Sampler struct {
	reader  domain.LoadReader
	store   domain.SampleStore
	clock   domain.Clock
	opts    Options
	logger  *util.MonitorLogger
	metrics *observability.PromMetrics

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(reader domain.LoadReader, store domain.SampleStore, clock domain.Clock, opts Options,
	logger *util.MonitorLogger, metrics *observability.PromMetrics) *Sampler {
	if clock == nil {
		clock = time.Now
	}
	return &Sampler{
		reader:  reader,
		store:   store,
		clock:   clock,
		opts:    opts,
		logger:  logger,
		metrics: metrics,
	}
}

// Collect reads the load once. Any reader failure, panic or value outside
// [0, 100] is reported as domain.ErrUnavailable.
func (s *Sampler) Collect(ctx context.Context) (usage float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			usage, err = 0, fmt.Errorf("%w: reader panicked: %v", domain.ErrUnavailable, r)
		}
	}()

	usage, err = s.reader.ReadCPUUtilization(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	if math.IsNaN(usage) || math.IsInf(usage, 0) || usage < 0 || usage > 100 {
		return 0, fmt.Errorf("%w: implausible reading %v", domain.ErrUnavailable, usage)
	}
	return usage, nil
}

// Tick records a single sample. Failures are logged and counted and never
// returned, so the schedule keeps running.
func (s *Sampler) Tick(ctx context.Context) {
	usage, err := s.Collect(ctx)
	if err != nil {
		s.metrics.TickSkipped(observability.SkipReasonUnavailable)
		s.logger.LogEvent(util.LOG_LEVEL_WARN, "Skipping sampler tick - ", err)
		return
	}

	sample := domain.Sample{
		Timestamp: s.clock().Truncate(time.Second),
		Usage:     FormatUsage(usage),
	}

	if err := s.store.Append(ctx, sample); err != nil {
		s.metrics.TickSkipped(observability.SkipReasonStore)
		s.logger.LogEvent(util.LOG_LEVEL_ERROR, "Failed to store cpu usage sample - ", err)
		return
	}

	s.metrics.SampleRecorded(sample.Usage)
	s.logger.LogEvent(util.LOG_LEVEL_DEBUG, "Recorded cpu usage ", sample.Usage, "% at ", sample.Timestamp.Format(time.RFC3339))
}

// Warmup calls Collect n times, interval apart, and discards the readings.
// It returns early with ctx.Err() if ctx is cancelled.
func (s *Sampler) Warmup(ctx context.Context, n int, interval time.Duration) error {
	for i := 0; i < n; i++ {
		if _, err := s.Collect(ctx); err != nil {
			s.logger.LogEvent(util.LOG_LEVEL_DEBUG, "Warm-up read failed - ", err)
		}
		if i == n-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	return ctx.Err()
}

// Start launches the warm-up and schedule in the background and returns
// immediately.
func (s *Sampler) Start(ctx context.Context) error {
	if s.opts.Interval <= 0 {
		return fmt.Errorf("sampler interval must be positive, got %s", s.opts.Interval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return ErrAlreadyRunning
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx, s.done)
	return nil
}

func (s *Sampler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	if err := s.Warmup(ctx, s.opts.WarmupCount, s.opts.WarmupInterval); err != nil {
		return
	}
	s.logger.LogEvent(util.LOG_LEVEL_INFO, "Sampler warm-up complete, recording every ", s.opts.Interval)

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Stop cancels the schedule and waits for an in-flight tick to finish.
func (s *Sampler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// FormatUsage rounds a reading to two decimals, half up.
func FormatUsage(usage float64) float64 {
	return monitoring.RoundHalfUp(usage, 2)
}
