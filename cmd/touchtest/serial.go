package main

import (
	"fmt"
	"io"

	"github.com/tarm/serial"
)

func openSerial(dev string) (io.WriteCloser, error) {
	const baudRate = 115200
	c := &serial.Config{Name: dev, Baud: baudRate}
	s, err := serial.OpenPort(c)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", dev, err)
	}
	return s, nil
}
