package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"trainbook/internal/config"
	"trainbook/internal/domain"
	"trainbook/internal/models"
	"trainbook/internal/seatmap"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// Exporter writes committed bookings to an Excel workbook: one sheet listing
// the bookings, one drawing the seating chart with booked seats marked.
type Exporter struct {
	store  domain.BookingStore
	seats  seatmap.SeatMap
	config config.ExportConfig
	logger *zerolog.Logger
}

func NewExporter(store domain.BookingStore, seats seatmap.SeatMap, cfg config.ExportConfig, logger *zerolog.Logger) *Exporter {
	return &Exporter{
		store:  store,
		seats:  seats,
		config: cfg,
		logger: logger,
	}
}

func (e *Exporter) Export(ctx context.Context) (string, error) {
	if err := os.MkdirAll(e.config.Path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	bookings, err := e.store.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("error loading bookings: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := e.writeBookingsSheet(f, bookings); err != nil {
		return "", err
	}
	if err := e.writeSeatingChartSheet(f, bookings); err != nil {
		return "", err
	}

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("bookings_%s.xlsx", time.Now().Format("2006-01-02_150405"))
	filePath := filepath.Join(e.config.Path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}

	e.logger.Info().Str("file_path", filePath).Int("bookings", len(bookings)).Msg("Excel file created")
	return filePath, nil
}

func (e *Exporter) writeBookingsSheet(f *excelize.File, bookings []models.Booking) error {
	const sheetName = "Bookings"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headers := []string{"#", "Seats", "User", "Booked At"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, header)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "D1", headerStyle)

	for i, booking := range bookings {
		row := i + 2
		seats := make([]string, len(booking.SeatNumbers))
		for j, seat := range booking.SeatNumbers {
			seats[j] = fmt.Sprintf("%d", seat)
		}

		_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), i+1)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), strings.Join(seats, ", "))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), booking.UserID)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), booking.Time().Format("2006-01-02 15:04:05"))
	}

	_ = f.SetColWidth(sheetName, "B", "B", 25)
	_ = f.SetColWidth(sheetName, "C", "C", 20)
	_ = f.SetColWidth(sheetName, "D", "D", 20)

	return nil
}

func (e *Exporter) writeSeatingChartSheet(f *excelize.File, bookings []models.Booking) error {
	const sheetName = "Seating Chart"
	if _, err := f.NewSheet(sheetName); err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}

	booked := make(map[int]bool)
	for _, booking := range bookings {
		for _, seat := range booking.SeatNumbers {
			booked[seat] = true
		}
	}

	bookedStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"CC0000"}},
	})

	for row := 1; row <= e.seats.RowCount(); row++ {
		start := e.seats.RowStartSeat(row)
		for i := 0; i < e.seats.RowCapacity(row); i++ {
			seat := start + i
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			_ = f.SetCellValue(sheetName, cell, seat)
			if booked[seat] {
				_ = f.SetCellStyle(sheetName, cell, cell, bookedStyle)
			}
		}
	}

	return nil
}
