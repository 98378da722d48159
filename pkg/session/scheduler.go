package session

import "time"

// Timer is a pending scheduled call.
type Timer interface {
	// Stop prevents the call from running. It reports false if the call
	// already ran or was stopped.
	Stop() bool
}

// Scheduler runs a function after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// RealScheduler schedules on the runtime timer.
type RealScheduler struct{}

// AfterFunc implements Scheduler.
func (RealScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
