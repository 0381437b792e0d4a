package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"trainbook/internal/models"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
)

// SQLiteStore keeps the booking sequence in a local SQLite database. Unlike
// FileStore it re-checks seat disjointness inside the append transaction, so
// two sessions sharing the database cannot double-book a seat.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS bookings (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            seat_numbers TEXT NOT NULL,
            user_id TEXT NOT NULL,
            timestamp INTEGER NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_user_id ON bookings(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_timestamp ON bookings(timestamp)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) ([]models.Booking, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seat_numbers, user_id, timestamp FROM bookings ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	bookings := []models.Booking{}
	for rows.Next() {
		var (
			rawSeats string
			booking  models.Booking
		)
		if err := rows.Scan(&rawSeats, &booking.UserID, &booking.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		if err := json.Unmarshal([]byte(rawSeats), &booking.SeatNumbers); err != nil {
			return nil, fmt.Errorf("failed to decode seat numbers: %w", err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return bookings, nil
}

// Append inserts the booking inside a transaction that first re-reads all
// stored seat numbers, so a stale caller loses with ErrSeatConflict instead
// of breaking the disjointness invariant.
func (s *SQLiteStore) Append(ctx context.Context, booking models.Booking) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	rows, err := tx.QueryContext(ctx, `SELECT seat_numbers FROM bookings`)
	if err != nil {
		return fmt.Errorf("failed to check booked seats in tx: %w", err)
	}

	taken := make(map[int]bool)
	for rows.Next() {
		var rawSeats string
		if err := rows.Scan(&rawSeats); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan seat numbers: %w", err)
		}
		var seats []int
		if err := json.Unmarshal([]byte(rawSeats), &seats); err != nil {
			rows.Close()
			return fmt.Errorf("failed to decode seat numbers: %w", err)
		}
		for _, seat := range seats {
			taken[seat] = true
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("failed to iterate seat numbers: %w", err)
	}
	rows.Close()

	for _, seat := range booking.SeatNumbers {
		if taken[seat] {
			return fmt.Errorf("%w: %d", ErrSeatConflict, seat)
		}
	}

	rawSeats, err := json.Marshal(booking.SeatNumbers)
	if err != nil {
		return fmt.Errorf("failed to encode seat numbers: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO bookings (seat_numbers, user_id, timestamp) VALUES (?, ?, ?)`,
		string(rawSeats), booking.UserID, booking.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
