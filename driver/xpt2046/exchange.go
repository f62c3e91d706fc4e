package xpt2046

import (
	"runtime"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// minPhase is the minimum clock phase duration from the datasheet.
const minPhase = 200 * time.Nanosecond

// Exchange sends a command byte and returns the response of the given
// width, 8 or 12 bits. Both are transferred most significant bit
// first. There is no error: a disturbed exchange is indistinguishable
// from a low reading.
func (d *Device) Exchange(cmd byte, bits int) uint16 {
	if bits != 8 {
		bits = 12
	}
	unlock := lockTiming()
	defer unlock()

	clk, out, in := d.pins.Clock, d.pins.DataOut, d.pins.DataIn
	// Transition errors are ignored, see above.
	clk.Out(gpio.Low)
	spin(2 * d.loops)
	// The controller samples the command on the rising edge.
	for mask := byte(0x80); mask != 0; mask >>= 1 {
		clk.Out(gpio.Low)
		out.Out(gpio.Level(cmd&mask != 0))
		spin(d.loops)
		clk.Out(gpio.High)
		spin(d.loops)
	}
	// Busy cycle.
	clk.Out(gpio.Low)
	out.Out(gpio.Low)
	spin(d.loops)
	clk.Out(gpio.High)
	spin(d.loops)
	// The controller shifts out a bit on every falling edge.
	var v uint16
	for range bits {
		clk.Out(gpio.Low)
		spin(d.loops)
		v <<= 1
		if in.Read() == gpio.High {
			v |= 1
		}
		clk.Out(gpio.High)
		spin(d.loops)
	}
	// Flush the remaining conversion bits.
	clk.Out(gpio.Low)
	spin(d.loops)
	clk.Out(gpio.High)
	spin(d.loops)
	clk.Out(gpio.Low)
	return v
}

// lockTiming keeps the exchange on a single thread running at raised
// priority until the returned function is called.
func lockTiming() func() {
	runtime.LockOSThread()
	restore := raisePriority()
	return func() {
		restore()
		runtime.UnlockOSThread()
	}
}

var spinSink uint32

// spin busy loops n iterations.
//
//go:noinline
func spin(n int) {
	s := spinSink
	for range n {
		s = s*1664525 + 1013904223
	}
	spinSink = s
}

// minPulseLoops is the number of spin iterations lasting at least
// minPhase.
var minPulseLoops = sync.OnceValue(func() int {
	const n = 1 << 16
	// Use the fastest of a few runs; a preempted run would
	// underestimate the loop speed.
	fastest := time.Duration(1<<63 - 1)
	for range 3 {
		start := time.Now()
		spin(n)
		fastest = min(fastest, time.Since(start))
	}
	if fastest <= 0 {
		return 1
	}
	loops := (int64(minPhase)*n + int64(fastest) - 1) / int64(fastest)
	return max(int(loops), 1)
})
