package models

// DailyStats is one day of a dashboard time series, for example
// commissions created or clicks recorded per day.
type DailyStats struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}
