package reservations

import "staybook/internal/domain/shared/failure"

var (
	ErrPropertyUnavailable = failure.New(failure.KindUnavailable, "reservations: property is not open for booking")
	ErrDatesUnavailable    = failure.New(failure.KindUnavailable, "reservations: dates are already booked")
	ErrOwnerSelfBooking    = failure.New(failure.KindValidation, "reservations: owners cannot book their own property")
	ErrAccountSuspended    = failure.New(failure.KindAuthorization, "reservations: account is suspended")
	ErrForbidden           = failure.New(failure.KindAuthorization, "reservations: not allowed to act on this reservation")
)
