package backup

import (
	"time"

	"github.com/juju/clock"
)

// Retention decides which backups have outlived the retention window.
type Retention struct {
	clock clock.Clock
	days  int
}

func NewRetention(clk clock.Clock, days int) (*Retention, error) {
	if days < 0 {
		return nil, ErrInvalidRetention
	}
	return &Retention{clock: clk, days: days}, nil
}

func (r *Retention) Days() int {
	return r.days
}

// Cutoff returns the instant before which backups are expired.
func (r *Retention) Cutoff() time.Time {
	return r.clock.Now().UTC().Truncate(time.Second).AddDate(0, 0, -r.days)
}

// Expired reports whether n was taken strictly before the cutoff.
func (r *Retention) Expired(n Name, cutoff time.Time) bool {
	return n.Timestamp.Before(cutoff)
}
