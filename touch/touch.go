// Package touch turns raw resistive touch panel readings into stable,
// calibrated display coordinates.
//
// A Panel runs in one of two modes. In synchronous mode, Touch blocks
// until a stable touch is available. In asynchronous mode, a scheduler
// drives the panel one sample per tick, and Poll returns each stable
// touch once.
package touch

import (
	"image"
	"sync"
	"time"
)

// Sampler reads the raw position of the panel, reporting false if the
// panel is not touched.
type Sampler interface {
	RawTouch() (image.Point, bool)
}

// Scheduler runs registered step functions cooperatively, one call per
// tick.
type Scheduler interface {
	Schedule(step func())
}

// Valid parameter ranges.
const (
	MinConfidence = 5
	MaxConfidence = 25
	MinMargin     = 1
	MaxMargin     = 100
	MinDelay      = 5 * time.Millisecond
	MaxDelay      = 100 * time.Millisecond
)

// forever is the timeout used when none is specified.
const forever = time.Hour

// Params tune touch acquisition. Out of range values are clamped.
type Params struct {
	// Confidence is the number of consecutive consistent samples
	// required for a touch.
	Confidence int
	// Margin is the tolerated deviation of the samples, in raw
	// units.
	Margin int
	// Delay is the time between samples in synchronous mode.
	Delay time.Duration
	// Calibration maps raw coordinates to the display. The zero
	// value keeps the current calibration.
	Calibration Calibration
}

// DefaultParams match the reference 4.3" panel.
var DefaultParams = Params{
	Confidence:  5,
	Margin:      10,
	Delay:       10 * time.Millisecond,
	Calibration: Calibration{-3917, -0.127, -3923, -0.1267, -3799, -0.07572, -3738, -0.07814},
}

// Query controls a synchronous touch read.
type Query struct {
	// Release waits for the panel to be released before sampling.
	Release bool
	// Wait waits for a touch. Otherwise, the query gives up at the
	// first sample without a touch.
	Wait bool
	// Raw skips calibration.
	Raw bool
	// Timeout bounds the query. Zero means an hour.
	Timeout time.Duration
}

// DefaultQuery waits for a fresh, calibrated touch.
var DefaultQuery = Query{Release: true, Wait: true}

// Panel acquires touches from a Sampler. A synchronous Panel must not
// be used concurrently.
type Panel struct {
	s     Sampler
	async bool

	mu     sync.Mutex
	filter Filter
	delay  time.Duration
	cal    Calibration
	// stable tracks the filter result of the previous step.
	stable bool
	ready  bool
	value  image.Point
}

// New creates a panel. If sch is not nil, the panel registers itself
// with it and runs in asynchronous mode.
func New(s Sampler, sch Scheduler, p Params) *Panel {
	t := &Panel{
		s:     s,
		async: sch != nil,
		cal:   DefaultParams.Calibration,
	}
	t.apply(p)
	if t.async {
		sch.Schedule(t.step)
	}
	return t
}

// SetParams re-tunes the panel. In asynchronous mode only the
// calibration is replaced.
func (t *Panel) SetParams(p Params) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.async {
		if p.Calibration != (Calibration{}) {
			t.cal = p.Calibration
		}
		return
	}
	t.apply(p)
}

func (t *Panel) apply(p Params) {
	t.filter.configure(p.Confidence, p.Margin)
	t.delay = clamp(p.Delay, MinDelay, MaxDelay)
	if p.Calibration != (Calibration{}) {
		t.cal = p.Calibration
	}
}

// Params returns the current, clamped, parameters.
func (t *Panel) Params() Params {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Params{
		Confidence:  t.filter.size,
		Margin:      t.filter.margin,
		Delay:       t.delay,
		Calibration: t.cal,
	}
}

// Async reports whether the panel runs in asynchronous mode.
func (t *Panel) Async() bool {
	return t.async
}

// Touch blocks until a stable touch is read according to q, or
// returns false. It returns false immediately for an asynchronous
// panel.
func (t *Panel) Touch(q Query) (image.Point, bool) {
	if t.async {
		return image.Point{}, false
	}
	timeout := q.Timeout
	if timeout <= 0 {
		timeout = forever
	}
	deadline := time.Now().Add(timeout)
	if q.Release {
		for {
			if _, touched := t.s.RawTouch(); !touched {
				break
			}
			if !t.pause(deadline) {
				return image.Point{}, false
			}
		}
	}
	t.filter.Reset()
	for {
		p, touched := t.s.RawTouch()
		if !touched && !q.Wait {
			return image.Point{}, false
		}
		if m, ok := t.filter.Add(p, touched); ok {
			if q.Raw {
				return m, true
			}
			return t.cal.Apply(m), true
		}
		if !t.pause(deadline) {
			return image.Point{}, false
		}
	}
}

// pause sleeps until the next sample and reports whether the deadline
// allows it.
func (t *Panel) pause(deadline time.Time) bool {
	left := time.Until(deadline)
	if left <= 0 {
		return false
	}
	time.Sleep(min(t.delay, left))
	return time.Now().Before(deadline)
}

func (t *Panel) step() {
	p, touched := t.s.RawTouch()
	t.mu.Lock()
	defer t.mu.Unlock()
	m, stable := t.filter.Add(p, touched)
	if stable && !t.stable {
		t.value = t.cal.Apply(m)
		t.ready = true
	}
	t.stable = stable
}

// Poll returns the calibrated touch that became stable since the last
// call, if any. It never blocks.
func (t *Panel) Poll() (image.Point, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.ready {
		return image.Point{}, false
	}
	t.ready = false
	return t.value, true
}
