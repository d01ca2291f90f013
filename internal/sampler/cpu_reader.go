package sampler

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
)

// CPUReader reads system-wide CPU utilization through gopsutil.
//
// With a zero window each call reports usage since the previous call, which
// is why the sampler warms it up before recording. A positive window blocks
// for that long and measures across it.
type CPUReader struct {
	window time.Duration
}

func NewCPUReader(window time.Duration) *CPUReader {
	return &CPUReader{window: window}
}

func (r *CPUReader) ReadCPUUtilization(ctx context.Context) (float64, error) {
	percents, err := cpu.PercentWithContext(ctx, r.window, false)
	if err != nil {
		return 0, err
	}
	if len(percents) == 0 {
		return 0, fmt.Errorf("no cpu totals reported")
	}
	return percents[0], nil
}
