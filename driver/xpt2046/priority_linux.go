package xpt2046

import (
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// unprivileged is set once raising the priority has been denied.
var unprivileged atomic.Bool

// raisePriority raises the nice value of the calling thread to the
// maximum and returns a function restoring it.
func raisePriority() func() {
	if unprivileged.Load() {
		return func() {}
	}
	tid := unix.Gettid()
	// The raw system call returns 20 - nice.
	prio, err := unix.Getpriority(unix.PRIO_PROCESS, tid)
	if err != nil {
		unprivileged.Store(true)
		return func() {}
	}
	if err := unix.Setpriority(unix.PRIO_PROCESS, tid, -20); err != nil {
		unprivileged.Store(true)
		return func() {}
	}
	return func() {
		unix.Setpriority(unix.PRIO_PROCESS, tid, 20-prio)
	}
}
