package debug

import (
	"time"

	"github.com/Faultbox/xviewer/internal/engine/plugin"
)

// FPS is a plugin that measures the colour frame rate and reports it once
// per Interval.
type FPS struct {
	plugin.Base

	Interval time.Duration
	Report   func(fps float64)

	frames int
	since  time.Time
	last   float64
	now    func() time.Time
}

// NewFPS creates a counter calling report about once a second.
func NewFPS(report func(fps float64)) *FPS {
	return &FPS{Interval: time.Second, Report: report, now: time.Now}
}

// Init starts the first measuring interval.
func (f *FPS) Init(plugin.Viewer) error {
	f.since = f.now()
	return nil
}

// OnAfterDraw counts a frame.
func (f *FPS) OnAfterDraw(int, int) error {
	f.frames++
	now := f.now()
	elapsed := now.Sub(f.since)
	if elapsed < f.Interval {
		return nil
	}
	f.last = float64(f.frames) / elapsed.Seconds()
	f.frames = 0
	f.since = now
	if f.Report != nil {
		f.Report(f.last)
	}
	return nil
}

// Last returns the most recent measurement.
func (f *FPS) Last() float64 { return f.last }
