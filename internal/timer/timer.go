// Package timer provides a clock that is refreshed explicitly by its owner instead of
// being queried on every use. The dispatcher refreshes it once per tick, right after
// the readiness wait, so all the responses of a tick share a single rendered Date.
package timer

import "time"

// HTTPDate is the layout of the Date and Last-Modified headers (RFC 1123, always GMT).
const HTTPDate = "Mon, 02 Jan 2006 15:04:05 GMT"

type Clock struct {
	now    func() time.Time
	time   time.Time
	date   string
	second int64
}

// New returns a clock reading the time from now. If now is nil, time.Now is used.
func New(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}

	c := &Clock{now: now, second: -1}
	c.Refresh()

	return c
}

// Refresh updates the cached time. Date is rendered again only if the second changed.
func (c *Clock) Refresh() time.Time {
	c.time = c.now()
	if sec := c.time.Unix(); sec != c.second {
		c.second = sec
		c.date = Format(c.time)
	}

	return c.time
}

// Now returns the time of the last refresh.
func (c *Clock) Now() time.Time {
	return c.time
}

// Date returns the time of the last refresh, formatted for the Date header.
func (c *Clock) Date() string {
	return c.date
}

// Format renders t in the HTTP date format.
func Format(t time.Time) string {
	return t.UTC().Format(HTTPDate)
}
