package touch

import (
	"errors"
	"fmt"
	"image"
	"time"
)

var (
	ErrAsync   = errors.New("touch: panel is asynchronous")
	ErrNoTouch = errors.New("touch: no touch")
)

// Calibrate calibrates the panel for a display of the given size. For
// each of the Targets, it calls prompt and waits at most timeout for a
// touch. The resulting calibration is installed in the panel.
func Calibrate(t *Panel, size image.Point, timeout time.Duration, prompt func(corner int, target image.Point)) (Calibration, error) {
	if t.async {
		return Calibration{}, ErrAsync
	}
	prev := t.Params()
	defer func() {
		t.SetParams(prev)
	}()
	// Slow and precise.
	precise := prev
	precise.Confidence = 20
	precise.Margin = 15
	t.SetParams(precise)

	var raw [4]image.Point
	q := Query{Release: true, Wait: true, Raw: true, Timeout: timeout}
	for i, target := range Targets(size) {
		prompt(i, target)
		p, ok := t.Touch(q)
		if !ok {
			return Calibration{}, fmt.Errorf("%w at corner %d %v", ErrNoTouch, i, target)
		}
		raw[i] = p
	}
	cal, err := Solve(raw, size)
	if err != nil {
		return Calibration{}, err
	}
	prev.Calibration = cal
	return cal, nil
}
