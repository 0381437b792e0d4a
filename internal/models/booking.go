package models

import "time"

// Booking is one committed reservation. Records are immutable once stored;
// Timestamp is epoch milliseconds to match the persisted format.
type Booking struct {
	SeatNumbers []int  `json:"seatNumbers"`
	UserID      string `json:"userId"`
	Timestamp   int64  `json:"timestamp"`
}

func NewBooking(seatNumbers []int, userID string, at time.Time) Booking {
	seats := make([]int, len(seatNumbers))
	copy(seats, seatNumbers)
	return Booking{
		SeatNumbers: seats,
		UserID:      userID,
		Timestamp:   at.UnixMilli(),
	}
}

func (b Booking) Time() time.Time {
	return time.UnixMilli(b.Timestamp)
}
