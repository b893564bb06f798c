package models

type PortalStats struct {
	TotalMatches    int     `json:"total_matches"`
	FinishedMatches int     `json:"finished_matches"`
	LiveMatches     int     `json:"live_matches"`
	UpcomingMatches int     `json:"upcoming_matches"`
	TotalGoals      int     `json:"total_goals"`
	GoalsPerMatch   float64 `json:"goals_per_match"`
	Faculties       int     `json:"faculties"`
}
