package metrics

import (
	"context"
	"time"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
)

// Float64Timer records durations in milliseconds.
type Float64Timer struct {
	measureMs *stats.Float64Measure
	view      *view.View
}

// NewTimerMs creates a Float64Timer with a millisecond distribution view.
func NewTimerMs(name, desc string) *Float64Timer {
	log.Debugf("registering timer: %s - %s", name, desc)
	fMeasure := stats.Float64(name, desc, stats.UnitMilliseconds)
	fView := &view.View{
		Name:        name,
		Measure:     fMeasure,
		Description: desc,
		Aggregation: view.Distribution(0, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000),
	}
	if err := view.Register(fView); err != nil {
		panic(err)
	}
	return &Float64Timer{
		measureMs: fMeasure,
		view:      fView,
	}
}

// Start returns a running Stopwatch.
func (t *Float64Timer) Start(ctx context.Context) *Stopwatch {
	return &Stopwatch{
		ctx:      ctx,
		start:    time.Now(),
		recorder: t.measureMs.M,
	}
}

// Stopwatch measures one duration for a Float64Timer.
type Stopwatch struct {
	ctx      context.Context
	start    time.Time
	recorder func(v float64) stats.Measurement
}

// Stop records the time elapsed since Start and returns it.
func (sw *Stopwatch) Stop(ctx context.Context) time.Duration {
	d := time.Since(sw.start)
	stats.Record(ctx, sw.recorder(float64(d)/float64(time.Millisecond)))
	return d
}
