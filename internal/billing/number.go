package billing

import (
	"fmt"
	"time"
)

// NumberGenerator derives invoice numbers from the clock.
//
// Two calls in the same millisecond yield the same number. The store's unique
// index rejects the second insert and the caller sees the error.
type NumberGenerator struct {
	now func() time.Time
}

// NewNumberGenerator returns a generator reading the given clock, or
// time.Now when clock is nil.
func NewNumberGenerator(clock func() time.Time) *NumberGenerator {
	if clock == nil {
		clock = time.Now
	}
	return &NumberGenerator{now: clock}
}

// Generate returns INV-YYYYMMDD-NNNNNNNN where the suffix is the millisecond of the day.
func (g *NumberGenerator) Generate() string {
	t := g.now()
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	ms := t.Sub(midnight).Milliseconds()
	return fmt.Sprintf("INV-%s-%08d", t.Format("20060102"), ms)
}
