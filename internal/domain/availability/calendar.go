// Package availability holds the read model of a property's booked ranges.
package availability

import (
	"sort"
	"time"

	"staybook/internal/domain/property"
	"staybook/internal/domain/reservation"
	"staybook/internal/domain/shared/daterange"
)

// Block is one confirmed stay occupying the calendar.
type Block struct {
	Range         daterange.DateRange
	ReservationID reservation.ID
}

// Calendar lists the confirmed stays of a property inside a window.
type Calendar struct {
	PropertyID property.ID
	Window     daterange.DateRange
	Blocks     []Block
}

// Build keeps the confirmed and finished reservations overlapping window,
// ordered by start date.
func Build(id property.ID, window daterange.DateRange, reservations []*reservation.Reservation) Calendar {
	cal := Calendar{PropertyID: id, Window: window}
	for _, r := range reservations {
		if r.PropertyID != id {
			continue
		}
		if r.Status != reservation.StatusConfirmed && r.Status != reservation.StatusFinished {
			continue
		}
		if !r.Range.Overlaps(window) {
			continue
		}
		cal.Blocks = append(cal.Blocks, Block{Range: r.Range, ReservationID: r.ID})
	}
	sort.Slice(cal.Blocks, func(i, j int) bool {
		return cal.Blocks[i].Range.Start.Before(cal.Blocks[j].Range.Start)
	})
	return cal
}

// Free reports whether dr overlaps none of the blocks.
func (c Calendar) Free(dr daterange.DateRange) bool {
	for _, b := range c.Blocks {
		if b.Range.Overlaps(dr) {
			return false
		}
	}
	return true
}

// BookedDays counts the days of the window covered by blocks.
func (c Calendar) BookedDays() int64 {
	var total int64
	for _, b := range c.Blocks {
		start, end := b.Range.Start, b.Range.End
		if start.Before(c.Window.Start) {
			start = c.Window.Start
		}
		if end.After(c.Window.End) {
			end = c.Window.End
		}
		if end.After(start) {
			total += int64(end.Sub(start) / (24 * time.Hour))
		}
	}
	return total
}
