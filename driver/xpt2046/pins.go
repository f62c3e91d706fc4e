package xpt2046

import (
	"fmt"
	"sync"
)

// PinMap names the controller lines by their gpioreg names.
type PinMap struct {
	Clock   string
	DataOut string
	DataIn  string
	IRQ     string
}

// Pin assignments of the two board revisions, in Raspberry Pi
// BCM numbering.
var (
	// Rev1 shares the SPI0 header pins with the display.
	Rev1 = PinMap{
		Clock:   "GPIO11",
		DataOut: "GPIO10",
		DataIn:  "GPIO9",
		IRQ:     "GPIO17",
	}
	// Rev2 moved the touch controller to the SPI1 header pins.
	Rev2 = PinMap{
		Clock:   "GPIO21",
		DataOut: "GPIO20",
		DataIn:  "GPIO19",
		IRQ:     "GPIO26",
	}
)

func (m PinMap) names() []string {
	return []string{m.Clock, m.DataOut, m.DataIn, m.IRQ}
}

var lines = struct {
	sync.Mutex
	claimed map[string]bool
}{claimed: make(map[string]bool)}

// claim marks every named line as in use, or none of them.
func claim(names []string) error {
	lines.Lock()
	defer lines.Unlock()
	seen := make(map[string]bool)
	for _, n := range names {
		if lines.claimed[n] || seen[n] {
			return fmt.Errorf("%w: %s", ErrClaimed, n)
		}
		seen[n] = true
	}
	for _, n := range names {
		lines.claimed[n] = true
	}
	return nil
}

func release(names []string) {
	lines.Lock()
	defer lines.Unlock()
	for _, n := range names {
		delete(lines.claimed, n)
	}
}
