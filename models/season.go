package models

import "time"

type SeasonStatus string

const (
	SeasonStatusActive    SeasonStatus = "ACTIVE"
	SeasonStatusCompleted SeasonStatus = "COMPLETED"
)

type Season struct {
	ID        int          `json:"id" db:"id"`
	Name      string       `json:"name" db:"name"`
	Status    SeasonStatus `json:"status" db:"status"`
	StartedAt time.Time    `json:"started_at" db:"started_at"`
	EndedAt   *time.Time   `json:"ended_at,omitempty" db:"ended_at"`
}

// SeasonStanding is a frozen standings row written when a season ends.
type SeasonStanding struct {
	ID        int           `json:"id" db:"id"`
	SeasonID  int           `json:"season_id" db:"season_id"`
	FacultyID int           `json:"faculty_id" db:"faculty_id"`
	Category  MatchCategory `json:"category" db:"category"`
	Position  int           `json:"position" db:"position"`

	FacultyStats

	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Faculty *Faculty `json:"faculty,omitempty" db:"-"`
}
