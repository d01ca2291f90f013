package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"cpu-monitoring/internal/domain"
)

// MemoryStore keeps samples in a slice sorted by timestamp.
type MemoryStore struct {
	samples []domain.Sample
	mutex   sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (ms *MemoryStore) Init() error {
	return nil
}

// Append inserts after any sample with the same timestamp, so late arrivals
// from a clock adjustment still land in order.
func (ms *MemoryStore) Append(ctx context.Context, sample domain.Sample) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sample.Timestamp = time.Unix(sample.Timestamp.Unix(), 0)

	ms.mutex.Lock()
	defer ms.mutex.Unlock()

	i := sort.Search(len(ms.samples), func(i int) bool {
		return ms.samples[i].Timestamp.After(sample.Timestamp)
	})
	ms.samples = append(ms.samples, domain.Sample{})
	copy(ms.samples[i+1:], ms.samples[i:])
	ms.samples[i] = sample
	return nil
}

func (ms *MemoryStore) RangeBetween(ctx context.Context, start, end time.Time) ([]domain.Sample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ms.mutex.RLock()
	defer ms.mutex.RUnlock()

	lo := sort.Search(len(ms.samples), func(i int) bool {
		return !ms.samples[i].Timestamp.Before(start)
	})
	hi := sort.Search(len(ms.samples), func(i int) bool {
		return ms.samples[i].Timestamp.After(end)
	})

	out := make([]domain.Sample, 0, max(hi-lo, 0))
	if lo < hi {
		out = append(out, ms.samples[lo:hi]...)
	}
	return out, nil
}

func (ms *MemoryStore) Count(ctx context.Context) (int, error) {
	ms.mutex.RLock()
	defer ms.mutex.RUnlock()
	return len(ms.samples), nil
}

func (ms *MemoryStore) Close() error {
	return nil
}
