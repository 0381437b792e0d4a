package service

import "errors"

var (
	// ErrSeatUnavailable попытка выбрать уже занятое место
	ErrSeatUnavailable = errors.New("seat is already booked")

	// ErrCapacityExceeded превышен лимит мест в одной брони
	ErrCapacityExceeded = errors.New("maximum seats per booking exceeded")

	// ErrEmptySelection попытка брони без выбранных мест
	ErrEmptySelection = errors.New("no seats selected")
)
