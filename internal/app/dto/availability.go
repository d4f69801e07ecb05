package dto

import (
	"time"

	"staybook/internal/domain/availability"
)

type BookedRange struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

type Availability struct {
	PropertyID string        `json:"property_id"`
	StartDate  time.Time     `json:"start_date"`
	EndDate    time.Time     `json:"end_date"`
	Available  bool          `json:"available"`
	Booked     []BookedRange `json:"booked"`
}

func MapAvailability(cal availability.Calendar, available bool) Availability {
	out := Availability{
		PropertyID: string(cal.PropertyID),
		StartDate:  cal.Window.Start,
		EndDate:    cal.Window.End,
		Available:  available,
		Booked:     make([]BookedRange, 0, len(cal.Blocks)),
	}
	for _, b := range cal.Blocks {
		out.Booked = append(out.Booked, BookedRange{StartDate: b.Range.Start, EndDate: b.Range.End})
	}
	return out
}
