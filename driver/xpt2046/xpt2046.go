// Package xpt2046 implements a driver for the XPT2046 resistive touch
// screen controller, bit-banged over four GPIO lines.
//
// Datasheet: https://grobotronics.com/images/datasheets/xpt2046-datasheet.pdf
package xpt2046

import (
	"errors"
	"fmt"
	"image"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

var (
	ErrUnsupported = errors.New("xpt2046: unsupported controller")
	ErrClaimed     = errors.New("xpt2046: line already claimed")
)

// Controller is the only supported controller identity.
const Controller = "XPT2046"

// Command bytes. Bit 7 is the start bit, bits 6-4 select the channel
// and bit 3 selects 8 bit conversion.
const (
	cmdX  = 0xd0
	cmdY  = 0x90
	cmdZ1 = 0xb8
	cmdZ2 = 0xc8
)

// Readings outside (xLow, yHigh) are what the panel reports
// with the stylus lifted.
const (
	xLow  = 10
	yHigh = 4090
)

// Pins are the lines connecting the controller. The chip select
// line is not driven and must be tied low.
type Pins struct {
	Clock   gpio.PinOut
	DataOut gpio.PinOut
	DataIn  gpio.PinIn
	IRQ     gpio.PinIn
}

// Config describes a controller and how it is wired.
type Config struct {
	// Controller must be empty or Controller.
	Controller string
	Pins       PinMap
	// PulseLoops is the number of busy loop iterations for each
	// clock phase. Values below the benchmarked minimum for a 200ns
	// phase are raised to the minimum.
	PulseLoops int
}

type Device struct {
	pins    Pins
	loops   int
	claimed []string
}

// Open initializes the host and opens the controller on the lines
// named by cfg.Pins.
func Open(cfg Config) (*Device, error) {
	if err := checkController(cfg.Controller); err != nil {
		return nil, err
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("xpt2046: %w", err)
	}
	names := cfg.Pins.names()
	ios := make([]gpio.PinIO, len(names))
	for i, n := range names {
		p := gpioreg.ByName(n)
		if p == nil {
			return nil, fmt.Errorf("xpt2046: no such line: %s", n)
		}
		ios[i] = p
	}
	if err := claim(names); err != nil {
		return nil, err
	}
	pins := Pins{
		Clock:   ios[0],
		DataOut: ios[1],
		DataIn:  ios[2],
		IRQ:     ios[3],
	}
	d, err := newDevice(pins, cfg.PulseLoops)
	if err != nil {
		release(names)
		return nil, err
	}
	d.claimed = names
	return d, nil
}

// New creates a device on caller provided lines.
func New(controller string, pins Pins, pulseLoops int) (*Device, error) {
	if err := checkController(controller); err != nil {
		return nil, err
	}
	return newDevice(pins, pulseLoops)
}

func checkController(c string) error {
	switch c {
	case "", Controller:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnsupported, c)
}

func newDevice(pins Pins, pulseLoops int) (*Device, error) {
	d := &Device{
		pins:  pins,
		loops: max(pulseLoops, minPulseLoops()),
	}
	if err := d.setup(); err != nil {
		return nil, fmt.Errorf("xpt2046: %w", err)
	}
	return d, nil
}

func (d *Device) setup() error {
	for _, p := range []gpio.PinOut{d.pins.Clock, d.pins.DataOut} {
		if err := p.Out(gpio.Low); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	if err := d.pins.DataIn.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		return fmt.Errorf("%s: %w", d.pins.DataIn, err)
	}
	// The IRQ output is open drain, pulled low while the panel is
	// touched.
	if err := d.pins.IRQ.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		return fmt.Errorf("%s: %w", d.pins.IRQ, err)
	}
	return nil
}

// Close releases the lines claimed by Open.
func (d *Device) Close() {
	release(d.claimed)
	d.claimed = nil
}

// RawTouch reads the X and Y positions in 12 bit resolution. It
// reports false if the readings indicate a lifted stylus.
func (d *Device) RawTouch() (image.Point, bool) {
	x := d.Exchange(cmdX, 12)
	y := d.Exchange(cmdY, 12)
	if x > xLow && y < yHigh {
		return image.Pt(int(x), int(y)), true
	}
	return image.Point{}, false
}

// Pressure reads the Z1 and Z2 pressure channels in 8 bit
// resolution.
func (d *Device) Pressure() (z1, z2 uint8) {
	return uint8(d.Exchange(cmdZ1, 8)), uint8(d.Exchange(cmdZ2, 8))
}

// PenDown reports whether the pen interrupt line is asserted.
func (d *Device) PenDown() bool {
	return d.pins.IRQ.Read() == gpio.Low
}

// WaitPenDown waits for the pen interrupt line to become asserted.
// A negative timeout waits forever.
func (d *Device) WaitPenDown(timeout time.Duration) bool {
	if d.PenDown() {
		return true
	}
	if !d.pins.IRQ.WaitForEdge(timeout) {
		return false
	}
	return d.PenDown()
}
