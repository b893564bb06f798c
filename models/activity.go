package models

import "time"

const (
	EntityMatch   = "match"
	EntityFaculty = "faculty"
	EntitySeason  = "season"
)

type ActivityLog struct {
	ID         int            `json:"id"`
	UserID     int            `json:"user_id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   int            `json:"entity_id"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
