package models

// DashboardStats is what the admin dashboard shows. Zero values are shown
// when the stats call fails.
type DashboardStats struct {
	TodayDonation float64 `json:"todayDonation"`
	TotalDonation float64 `json:"totalDonation"`
	TotalUsers    int     `json:"totalUsers"`
	TodayUsers    int     `json:"todayUsers"`
}
