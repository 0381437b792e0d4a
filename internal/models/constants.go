package models

const (
	// DefaultTotalSeats количество мест в вагоне по умолчанию
	DefaultTotalSeats = 80

	// DefaultSeatsPerRow мест в полном ряду
	DefaultSeatsPerRow = 7

	// DefaultLastRowSeats мест в последнем (неполном) ряду
	DefaultLastRowSeats = 3

	// MaxSeatsPerBooking максимум мест в одной брони
	MaxSeatsPerBooking = 7
)

const (
	// StoreFileName имя файла-хранилища броней
	StoreFileName = "trainBookings.json"

	// DefaultSessionTTL время жизни состояния сессии в Redis
	DefaultSessionTTL = 24 * 60 * 60 // 24 часа в секундах
)
