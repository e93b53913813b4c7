package diary

import "time"

type systemClock struct{}

// NewSystemClock returns a Clock implementation backed by time.Now.
func NewSystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

func cloneLog(l Log) Log {
	l.Photos = append([]string{}, l.Photos...)
	return l
}
