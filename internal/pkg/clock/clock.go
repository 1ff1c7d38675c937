// Package clock defines calendar days in the fixed reference timezone used for
// daily play limits.
package clock

import (
	"fmt"
	"time"
)

const (
	// ReferenceOffsetHours is the UTC offset of the reference timezone (US Eastern
	// standard time). It is never adjusted for daylight saving.
	ReferenceOffsetHours = -5

	// DateLayout is the layout of reference dates (YYYY-MM-DD).
	DateLayout = "2006-01-02"
)

// Clock reports the current calendar day in the reference timezone.
type Clock interface {
	Today() string
}

// FixedOffset is a Clock pinned to a fixed UTC offset.
type FixedOffset struct {
	loc *time.Location
	now func() time.Time
}

// NewFixedOffset creates a Clock for the given UTC offset in hours.
// A nil now uses time.Now.
func NewFixedOffset(offsetHours int, now func() time.Time) *FixedOffset {
	if now == nil {
		now = time.Now
	}
	return &FixedOffset{
		loc: Zone(offsetHours),
		now: now,
	}
}

// NewReference returns the default UTC-5 clock backed by time.Now.
func NewReference() *FixedOffset {
	return NewFixedOffset(ReferenceOffsetHours, nil)
}

// Today returns the current date in the clock's zone as YYYY-MM-DD.
func (c *FixedOffset) Today() string {
	return c.now().In(c.loc).Format(DateLayout)
}

// Zone returns a fixed zone named after its offset, e.g. "UTC-5".
func Zone(offsetHours int) *time.Location {
	name := "UTC"
	if offsetHours != 0 {
		name = fmt.Sprintf("UTC%+d", offsetHours)
	}
	return time.FixedZone(name, offsetHours*60*60)
}
