package xpt2046

import (
	"errors"
	"image"
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func TestExchange(t *testing.T) {
	d, chip := newTestDevice(t)
	chip.values[chanX] = 0x5a3
	chip.values[chanY] = 0xfff
	if got := d.Exchange(cmdX, 12); got != 0x5a3 {
		t.Errorf("X exchange got %#x, want %#x", got, 0x5a3)
	}
	if got := d.Exchange(cmdY, 12); got != 0xfff {
		t.Errorf("Y exchange got %#x, want %#x", got, 0xfff)
	}
	want := []byte{cmdX, cmdY}
	if len(chip.cmds) != len(want) {
		t.Fatalf("controller received %#x, want %#x", chip.cmds, want)
	}
	for i := range want {
		if chip.cmds[i] != want[i] {
			t.Errorf("command %d: got %#x, want %#x", i, chip.cmds[i], want[i])
		}
	}
}

func TestPressure(t *testing.T) {
	d, chip := newTestDevice(t)
	chip.values[chanZ1] = 0x7f0
	chip.values[chanZ2] = 0x0a0
	z1, z2 := d.Pressure()
	if z1 != 0x7f || z2 != 0x0a {
		t.Errorf("got pressure (%#x, %#x), want (%#x, %#x)", z1, z2, 0x7f, 0x0a)
	}
}

func TestRawTouch(t *testing.T) {
	tests := []struct {
		x, y  uint16
		touch bool
	}{
		{2000, 1500, true},
		{xLow + 1, yHigh - 1, true},
		{xLow, 1500, false},
		{0, 1500, false},
		{2000, yHigh, false},
		{0, 4095, false},
	}
	for _, test := range tests {
		d, chip := newTestDevice(t)
		chip.values[chanX] = test.x
		chip.values[chanY] = test.y
		p, ok := d.RawTouch()
		if ok != test.touch {
			t.Errorf("(%d,%d): got touched %v, want %v", test.x, test.y, ok, test.touch)
			continue
		}
		if want := image.Pt(int(test.x), int(test.y)); ok && p != want {
			t.Errorf("got %v, want %v", p, want)
		}
	}
}

func TestUnsupported(t *testing.T) {
	pins, _ := newTestPins()
	if _, err := New("ADS7843", pins, 0); !errors.Is(err, ErrUnsupported) {
		t.Errorf("got error %v, want %v", err, ErrUnsupported)
	}
	if _, err := Open(Config{Controller: "TSC2046"}); !errors.Is(err, ErrUnsupported) {
		t.Errorf("got error %v, want %v", err, ErrUnsupported)
	}
}

func TestClaim(t *testing.T) {
	a := PinMap{"TA1", "TA2", "TA3", "TA4"}
	b := PinMap{"TB1", "TB2", "TA3", "TB4"}
	if err := claim(a.names()); err != nil {
		t.Fatal(err)
	}
	if err := claim(b.names()); !errors.Is(err, ErrClaimed) {
		t.Errorf("claiming a shared line: got %v, want %v", err, ErrClaimed)
	}
	// A failed claim must not leave lines claimed.
	if err := claim([]string{"TB1"}); err != nil {
		t.Errorf("line claimed by failed claim: %v", err)
	}
	release([]string{"TB1"})
	release(a.names())
	if err := claim(b.names()); err != nil {
		t.Errorf("claim after release: %v", err)
	}
	release(b.names())
	if err := claim([]string{"TC1", "TC1"}); !errors.Is(err, ErrClaimed) {
		t.Errorf("claiming a line twice: got %v, want %v", err, ErrClaimed)
	}
}

func TestPenDown(t *testing.T) {
	d, _ := newTestDevice(t)
	irq := d.pins.IRQ.(*gpiotest.Pin)
	irq.Out(gpio.High)
	if d.PenDown() {
		t.Error("pen down with IRQ line high")
	}
	if d.WaitPenDown(10 * time.Millisecond) {
		t.Error("pen down without an edge")
	}
	go func() {
		irq.Out(gpio.Low)
		irq.EdgesChan <- gpio.Low
	}()
	if !d.WaitPenDown(time.Second) {
		t.Error("pen not down after a falling edge")
	}
}

func TestMinPulseLoops(t *testing.T) {
	n := minPulseLoops()
	if n < 1 {
		t.Fatalf("got %d spin loops per phase", n)
	}
	start := time.Now()
	const phases = 1000
	spin(n * phases)
	if d := time.Since(start); d < phases*minPhase {
		t.Errorf("%d phases lasted %v, want at least %v", phases, d, phases*minPhase)
	}
}

// Channel selection of the command bytes.
const (
	chanY  = 1
	chanZ1 = 3
	chanZ2 = 4
	chanX  = 5
)

func newTestPins() (Pins, *simChip) {
	chip := &simChip{
		dout:   &gpiotest.Pin{N: "DOUT"},
		din:    &gpiotest.Pin{N: "DIN"},
		values: make(map[byte]uint16),
	}
	pins := Pins{
		Clock:   &simClock{Pin: &gpiotest.Pin{N: "CLK"}, chip: chip},
		DataOut: chip.dout,
		DataIn:  chip.din,
		IRQ:     &gpiotest.Pin{N: "IRQ", EdgesChan: make(chan gpio.Level, 1)},
	}
	return pins, chip
}

func newTestDevice(t *testing.T) (*Device, *simChip) {
	t.Helper()
	pins, chip := newTestPins()
	d, err := New(Controller, pins, 0)
	if err != nil {
		t.Fatal(err)
	}
	return d, chip
}

// simClock forwards clock transitions to a simulated controller.
type simClock struct {
	*gpiotest.Pin
	chip *simChip
}

func (c *simClock) Out(l gpio.Level) error {
	c.Pin.Lock()
	prev := c.Pin.L
	c.Pin.L = l
	c.Pin.Unlock()
	if prev != l {
		c.chip.edge(l)
	}
	return nil
}

type simState int

const (
	simIdle simState = iota
	simCommand
	simBusy
	simRespond
)

// simChip simulates the serial interface of an XPT2046 with its chip
// select tied low.
type simChip struct {
	dout   *gpiotest.Pin
	din    *gpiotest.Pin
	values map[byte]uint16

	state simState
	cmd   byte
	nbits int
	resp  uint16
	width int
	sent  int
	cmds  []byte
}

func (s *simChip) edge(l gpio.Level) {
	if l == gpio.High {
		bit := s.dout.Read() == gpio.High
		switch s.state {
		case simIdle:
			// Wait for the start bit.
			if bit {
				s.state = simCommand
				s.cmd, s.nbits = 1, 1
			}
		case simCommand:
			s.cmd <<= 1
			if bit {
				s.cmd |= 1
			}
			s.nbits++
			if s.nbits == 8 {
				s.cmds = append(s.cmds, s.cmd)
				s.convert()
				s.state = simBusy
			}
		case simBusy:
			s.state = simRespond
			s.sent = 0
		}
		return
	}
	if s.state != simRespond {
		return
	}
	if s.sent == s.width {
		s.state = simIdle
		s.din.Out(gpio.Low)
		return
	}
	b := s.resp>>(s.width-1-s.sent)&1
	s.din.Out(gpio.Level(b == 1))
	s.sent++
}

func (s *simChip) convert() {
	v := s.values[s.cmd>>4&0b111]
	s.width, s.resp = 12, v&0xfff
	if s.cmd&0b1000 != 0 {
		s.width, s.resp = 8, v>>4&0xff
	}
}
