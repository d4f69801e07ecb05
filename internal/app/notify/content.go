package notify

import (
	"fmt"

	"staybook/internal/domain/property"
	"staybook/internal/domain/reservation"
)

const dateLayout = "2006-01-02"

func stayDates(r *reservation.Reservation) string {
	return r.Range.Start.Format(dateLayout) + " - " + r.Range.End.Format(dateLayout)
}

func PaymentSucceeded(r *reservation.Reservation, p *property.Property) Message {
	return Message{
		UserID: r.CustomerID,
		Title:  "Payment succeeded",
		Body:   fmt.Sprintf("Your reservation at %s for %s is confirmed.", p.Title, stayDates(r)),
	}
}

func NewReservation(r *reservation.Reservation, p *property.Property) Message {
	return Message{
		UserID: p.OwnerID,
		Title:  "New reservation",
		Body:   fmt.Sprintf("%s was booked for %s.", p.Title, stayDates(r)),
	}
}

func PropertyUnavailable(r *reservation.Reservation, p *property.Property) Message {
	return Message{
		UserID: r.CustomerID,
		Title:  "Property unavailable",
		Body:   fmt.Sprintf("%s is no longer available for %s. Your payment will be refunded.", p.Title, stayDates(r)),
	}
}

func ProcessingFailed(r *reservation.Reservation) Message {
	return Message{
		UserID: r.CustomerID,
		Title:  "Payment could not be processed",
		Body:   "Something went wrong while confirming your reservation. Your payment will be refunded.",
	}
}
