package adblock

import "sync/atomic"

// Counter is the monotonic blocked-request count. It lives for the process
// and is never persisted.
type Counter struct {
	n atomic.Int64
}

// Inc records one blocked request and returns the new total
func (c *Counter) Inc() int64 {
	return c.n.Add(1)
}

// Load returns the current total
func (c *Counter) Load() int64 {
	return c.n.Load()
}
