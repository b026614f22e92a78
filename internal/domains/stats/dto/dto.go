package dto

// StatsResponse is the dashboard snapshot over the reservation book and the
// floor. Counts cover the whole history; the today block covers the current
// venue-local date.
type StatsResponse struct {
	TotalReservations int            `json:"total_reservations"`
	ByStatus          map[string]int `json:"by_status"`
	TodayTotal        int            `json:"today_total"`
	TodayPending      int            `json:"today_pending"`
	TotalTables       int            `json:"total_tables"`
	OccupiedTables    int            `json:"occupied_tables"`
	OccupancyRate     float64        `json:"occupancy_rate"`
	AveragePartySize  float64        `json:"average_party_size"`
}
