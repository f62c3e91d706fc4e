// command touchtest reads touches from an XPT2046 resistive touch panel.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resistouch.org/driver/xpt2046"
	"resistouch.org/keypad"
	"resistouch.org/sched"
	"resistouch.org/touch"
)

var (
	rev        = flag.Int("rev", 2, "board revision, 1 or 2")
	calibrate  = flag.Bool("calibrate", false, "calibrate the panel before reading touches")
	size       = flag.String("size", "480x272", "display size in pixels")
	calFile    = flag.String("cal", "", "calibration file, written after -calibrate")
	async      = flag.Bool("async", false, "read touches from a cooperative scheduler")
	serialDev  = flag.String("serial", "", "forward touches to serial device")
	keys       = flag.Bool("keypad", false, "report presses of the demo keypad")
	pulse      = flag.Int("pulse", 0, "busy loops per clock phase")
	confidence = flag.Int("confidence", touch.DefaultParams.Confidence, "consecutive consistent samples per touch")
	margin     = flag.Int("margin", touch.DefaultParams.Margin, "tolerated sample deviation in raw units")
	delay      = flag.Duration("delay", touch.DefaultParams.Delay, "time between samples")
)

// demoKeys is the layout of the demo keypad.
var demoKeys = []keypad.Key{
	keypad.Circle("A", image.Pt(50, 50), 25),
	keypad.Circle("B", image.Pt(120, 50), 25),
	keypad.Circle("C", image.Pt(190, 50), 25),
	keypad.Rect("Q", image.Pt(260, 30), image.Pt(320, 70)),
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "touchtest: %v\n", err)
		os.Exit(2)
	}
}

func run() error {
	log.SetFlags(log.Flags() &^ (log.Ldate | log.Ltime))
	dims, err := parseSize(*size)
	if err != nil {
		return err
	}
	var pins xpt2046.PinMap
	switch *rev {
	case 1:
		pins = xpt2046.Rev1
	case 2:
		pins = xpt2046.Rev2
	default:
		return errors.New("-rev must be 1 or 2")
	}
	dev, err := xpt2046.Open(xpt2046.Config{Pins: pins, PulseLoops: *pulse})
	if err != nil {
		return err
	}
	defer dev.Close()

	params := touch.Params{
		Confidence: *confidence,
		Margin:     *margin,
		Delay:      *delay,
	}
	if *calFile != "" && !*calibrate {
		cal, err := loadCalibration(*calFile)
		switch {
		case err == nil:
			params.Calibration = cal
		case errors.Is(err, fs.ErrNotExist):
			log.Printf("touchtest: no calibration file, using defaults")
		default:
			return err
		}
	}
	var out io.Writer = io.Discard
	if *serialDev != "" {
		s, err := openSerial(*serialDev)
		if err != nil {
			return err
		}
		defer s.Close()
		out = s
	}
	if *calibrate {
		cal, err := runCalibration(dev, params, dims)
		if err != nil {
			return err
		}
		params.Calibration = cal
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	report := func(p image.Point) {
		z1, z2 := dev.Pressure()
		log.Printf("touch %d,%d (z1 %d, z2 %d)", p.X, p.Y, z1, z2)
		if *keys {
			if k, ok := keypad.Hit(demoKeys, p); ok {
				log.Printf("key %s", k)
			}
		}
		if _, err := fmt.Fprintf(out, "%d %d\n", p.X, p.Y); err != nil {
			log.Printf("touchtest: serial: %v", err)
		}
	}
	if *async {
		return runAsync(ctx, dev, params, report)
	}
	p := touch.New(dev, nil, params)
	for ctx.Err() == nil {
		// Wait for the pen interrupt rather than sampling an
		// idle panel.
		if !dev.WaitPenDown(time.Second) {
			continue
		}
		// Retry with a short timeout to notice cancellation.
		q := touch.DefaultQuery
		q.Release = false
		q.Timeout = time.Second
		if pt, ok := p.Touch(q); ok {
			report(pt)
			// Wait for the release.
			p.Touch(touch.Query{Release: true, Timeout: time.Second})
		}
	}
	return nil
}

func runAsync(ctx context.Context, dev *xpt2046.Device, params touch.Params, report func(image.Point)) error {
	s := new(sched.RoundRobin)
	p := touch.New(dev, s, params)
	s.Schedule(func() {
		if pt, ok := p.Poll(); ok {
			report(pt)
		}
	})
	err := s.Run(ctx, p.Params().Delay)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return err
}

func runCalibration(dev *xpt2046.Device, params touch.Params, dims image.Point) (touch.Calibration, error) {
	p := touch.New(dev, nil, params)
	cal, err := touch.Calibrate(p, dims, 0, func(corner int, target image.Point) {
		log.Printf("touch the crosshair at %d,%d", target.X, target.Y)
	})
	if err != nil {
		return touch.Calibration{}, err
	}
	log.Printf("calibration = %v", cal)
	if *calFile != "" {
		if err := saveCalibration(*calFile, cal); err != nil {
			return touch.Calibration{}, err
		}
	}
	return cal, nil
}

func parseSize(s string) (image.Point, error) {
	var p image.Point
	if _, err := fmt.Sscanf(s, "%dx%d", &p.X, &p.Y); err != nil {
		return image.Point{}, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if p.X <= 2*touch.Inset || p.Y <= 2*touch.Inset {
		return image.Point{}, fmt.Errorf("invalid size %q", s)
	}
	return p, nil
}
