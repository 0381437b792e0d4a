package store

import "errors"

var (
	// ErrSeatConflict значит что место уже занято другой бронью
	ErrSeatConflict = errors.New("seat already booked")
)
