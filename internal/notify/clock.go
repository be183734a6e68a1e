package notify

import "time"

// Timer is a cancellable deferred task.
type Timer interface {
	Stop() bool
}

// Clock schedules deferred tasks. Tests swap in a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }
