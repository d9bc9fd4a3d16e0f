package domain

import "time"

// WorkSession is a timed interval during which a user works a ticket.
// A session is open while EndedAt is nil.
type WorkSession struct {
	ID              string
	TicketID        string
	UserID          string
	StartedAt       time.Time
	EndedAt         *time.Time
	DurationMinutes int
	Notes           string
	CreatedAt       time.Time
}

// IsOpen reports whether the session has not been closed yet.
func (s *WorkSession) IsOpen() bool {
	return s.EndedAt == nil
}

// Ref returns the audit entity reference for the session.
func (s *WorkSession) Ref() EntityRef {
	return EntityRef{Kind: EntityWorkSession, ID: s.ID}
}

// ElapsedMinutes returns whole minutes elapsed between start and end,
// rounded down. Negative spans count as zero.
func ElapsedMinutes(start, end time.Time) int {
	d := end.Sub(start)
	if d <= 0 {
		return 0
	}
	return int(d / time.Minute)
}
