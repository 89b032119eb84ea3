package service

import "time"

// Clock supplies the current instant. Services read it once per operation.
type Clock func() time.Time

func (c Clock) orDefault() Clock {
	if c == nil {
		return time.Now
	}
	return c
}
