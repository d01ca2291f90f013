package domain

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnavailable is returned when the host CPU load cannot be read. A
	// sampler tick that hits it is skipped.
	ErrUnavailable = errors.New("cpu usage unavailable")

	// ErrInvalidRange is returned for query ranges that are structurally wrong:
	// start after end, or end in the future.
	ErrInvalidRange = errors.New("invalid time range")
)

// Sample is one CPU utilization reading. Timestamp has second precision and
// Usage is a percentage in [0, 100] rounded to two decimals.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	Usage     float64   `json:"usage"`
}

type Stats struct {
	MinUsage     float64 `json:"min_usage"`
	MaxUsage     float64 `json:"max_usage"`
	AverageUsage float64 `json:"average_usage"`
}

type Granularity int

const (
	GranularityMinute Granularity = iota
	GranularityHour
	GranularityDay
)

func (g Granularity) String() string {
	switch g {
	case GranularityMinute:
		return "minute"
	case GranularityHour:
		return "hour"
	case GranularityDay:
		return "day"
	default:
		return "unknown"
	}
}

// SampleStore owns the time series. Append must be atomic with respect to
// RangeBetween, and RangeBetween returns samples with start <= ts <= end in
// ascending timestamp order.
type SampleStore interface {
	Init() error
	Append(ctx context.Context, sample Sample) error
	RangeBetween(ctx context.Context, start, end time.Time) ([]Sample, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// LoadReader returns the current host CPU utilization as a percentage.
type LoadReader interface {
	ReadCPUUtilization(ctx context.Context) (float64, error)
}

// Clock returns the current instant. Injected so that sampling and retention
// can be tested against a fixed time.
type Clock func() time.Time
