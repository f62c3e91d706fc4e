package touch

import "image"

// Filter accepts a touch once a window of consecutive samples is
// stable: the mean squared distance of the samples from their mean is
// within the margin squared.
//
// The window slides for every sample once full, so a single noisy
// sample delays, but does not restart, acceptance. Only a lifted stylus
// restarts it.
//
// The zero Filter is not usable; use NewFilter.
type Filter struct {
	window [MaxConfidence]image.Point
	size   int
	pos    int
	// count is the number of trusted samples in the window.
	count int

	margin  int
	margin2 int
}

// NewFilter returns a filter requiring confidence consecutive samples
// within margin raw units. Both are clamped to their valid range.
func NewFilter(confidence, margin int) *Filter {
	f := new(Filter)
	f.configure(confidence, margin)
	return f
}

func (f *Filter) configure(confidence, margin int) {
	f.size = clamp(confidence, MinConfidence, MaxConfidence)
	f.margin = clamp(margin, MinMargin, MaxMargin)
	f.margin2 = f.margin * f.margin
	f.pos = 0
	f.Reset()
}

// Reset distrusts every sample in the window.
func (f *Filter) Reset() {
	f.count = 0
}

// Add adds a sample, or a lifted stylus if touched is false, and
// returns the mean of the window if it is stable.
func (f *Filter) Add(p image.Point, touched bool) (image.Point, bool) {
	if !touched {
		f.Reset()
		return image.Point{}, false
	}
	f.window[f.pos] = p
	f.pos = (f.pos + 1) % f.size
	if f.count < f.size {
		f.count++
	}
	if f.count < f.size {
		return image.Point{}, false
	}
	return f.stable()
}

func (f *Filter) stable() (image.Point, bool) {
	w := f.window[:f.size]
	var sum image.Point
	for _, p := range w {
		sum = sum.Add(p)
	}
	mean := sum.Div(f.size)
	dev := 0
	for _, p := range w {
		d := p.Sub(mean)
		dev += d.X*d.X + d.Y*d.Y
	}
	// Compare the variance dev/size without the truncating division.
	if dev > f.margin2*f.size {
		return image.Point{}, false
	}
	return mean, true
}

func clamp[T ~int | ~int64](v, lo, hi T) T {
	return min(max(v, lo), hi)
}
