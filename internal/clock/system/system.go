// Package system provides a real clock implementation.
package system

import "time"

// Clock implements f1.Clock using time.Now.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}

// Fixed is a clock frozen at T.
type Fixed struct {
	T time.Time
}

// Now returns T.
func (f Fixed) Now() time.Time {
	return f.T
}
