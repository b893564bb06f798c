package schedule

import (
	"errors"
	"time"
)

var (
	ErrNotEnoughFaculties = errors.New("schedule: at least two faculties are required")
	ErrDuplicateFaculty   = errors.New("schedule: faculty listed twice")
	ErrInvalidLegs        = errors.New("schedule: legs must be 1 or 2")
)

// Fixture is one generated pairing. Round is 1-based.
type Fixture struct {
	Round         int       `json:"round"`
	HomeFacultyID int       `json:"home_faculty_id"`
	AwayFacultyID int       `json:"away_faculty_id"`
	MatchDate     time.Time `json:"match_date"`
}

type Params struct {
	FacultyIDs []int
	// Legs is 1 for a single round robin, 2 for home and away.
	Legs     int
	Start    time.Time
	Interval time.Duration
}

type Generator interface {
	Generate(params Params) ([]Fixture, error)
	GetName() string
}
