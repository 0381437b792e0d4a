package seatmap

import (
	"errors"
	"fmt"
)

var ErrInvalidSeat = errors.New("seat number out of range")

// SeatMap describes the fixed row geometry of the carriage. Seat numbers are
// 1-based and assigned row-major; the last row holds only LastRowSeats valid
// seats even though row arithmetic would allot SeatsPerRow slots to it.
type SeatMap struct {
	TotalSeats   int
	SeatsPerRow  int
	LastRowSeats int
}

func New(totalSeats, seatsPerRow, lastRowSeats int) (SeatMap, error) {
	if totalSeats <= 0 {
		return SeatMap{}, fmt.Errorf("total_seats must be positive, got %d", totalSeats)
	}
	if seatsPerRow <= 0 {
		return SeatMap{}, fmt.Errorf("seats_per_row must be positive, got %d", seatsPerRow)
	}
	if lastRowSeats <= 0 || lastRowSeats > seatsPerRow {
		return SeatMap{}, fmt.Errorf("last_row_seats must be in [1, %d], got %d", seatsPerRow, lastRowSeats)
	}
	return SeatMap{
		TotalSeats:   totalSeats,
		SeatsPerRow:  seatsPerRow,
		LastRowSeats: lastRowSeats,
	}, nil
}

// RowCount is the number of rows, the last one possibly partial.
func (m SeatMap) RowCount() int {
	return (m.TotalSeats + m.SeatsPerRow - 1) / m.SeatsPerRow
}

// RowOf returns the 1-based row containing the seat.
func (m SeatMap) RowOf(seat int) (int, error) {
	if seat < 1 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidSeat, seat)
	}
	return (seat + m.SeatsPerRow - 1) / m.SeatsPerRow, nil
}

func (m SeatMap) IsLastRow(row int) bool {
	return row == m.RowCount()
}

// RowCapacity returns how many valid seats the row holds.
func (m SeatMap) RowCapacity(row int) int {
	if m.IsLastRow(row) {
		return m.LastRowSeats
	}
	return m.SeatsPerRow
}

// RowStartSeat returns the first seat number of the row.
func (m SeatMap) RowStartSeat(row int) int {
	return (row-1)*m.SeatsPerRow + 1
}

// IsValidSeat reports whether the seat number exists on this map. Seats in
// the nominal last-row span beyond TotalSeats are invalid and must never be
// offered, selected, or booked.
func (m SeatMap) IsValidSeat(seat int) bool {
	return seat >= 1 && seat <= m.TotalSeats
}

// IsAvailable reports whether the seat exists and is absent from the
// caller-supplied booked set.
func (m SeatMap) IsAvailable(seat int, booked map[int]bool) bool {
	return m.IsValidSeat(seat) && !booked[seat]
}
