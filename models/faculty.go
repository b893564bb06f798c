package models

import (
	"fmt"
	"time"
)

// FacultyStats хранит накопительную статистику факультета за текущий сезон.
// Изменяется только через standings.ApplyResult / standings.ReverseResult.
type FacultyStats struct {
	Played         int `json:"played" db:"played"`
	Won            int `json:"won" db:"won"`
	Drawn          int `json:"drawn" db:"drawn"`
	Lost           int `json:"lost" db:"lost"`
	GoalsFor       int `json:"goals_for" db:"goals_for"`
	GoalsAgainst   int `json:"goals_against" db:"goals_against"`
	GoalDifference int `json:"goal_difference" db:"goal_difference"`
	Points         int `json:"points" db:"points"`
	CurrentStreak  int `json:"current_streak" db:"current_streak"`
}

// CheckInvariants reports the first broken relation between the counters.
func (s FacultyStats) CheckInvariants() error {
	if s.GoalDifference != s.GoalsFor-s.GoalsAgainst {
		return fmt.Errorf("goal difference %d != goals for %d - goals against %d", s.GoalDifference, s.GoalsFor, s.GoalsAgainst)
	}
	if s.Points != 3*s.Won+s.Drawn {
		return fmt.Errorf("points %d != 3*%d + %d", s.Points, s.Won, s.Drawn)
	}
	if s.Played != s.Won+s.Drawn+s.Lost {
		return fmt.Errorf("played %d != %d + %d + %d", s.Played, s.Won, s.Drawn, s.Lost)
	}
	return nil
}

// Faculty представляет команду факультета.
type Faculty struct {
	ID             int    `json:"id" db:"id"`
	Name           string `json:"name" db:"name"`
	Abbreviation   string `json:"abbreviation" db:"abbreviation"`
	ColorPrimary   string `json:"color_primary" db:"color_primary"`
	ColorSecondary string `json:"color_secondary" db:"color_secondary"`

	FacultyStats

	ChampionshipsWon int `json:"championships_won" db:"championships_won"`
	RunnerUpCount    int `json:"runner_up_count" db:"runner_up_count"`
	ThirdPlaceCount  int `json:"third_place_count" db:"third_place_count"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	CrestKey *string `json:"-" db:"crest_key"`
	CrestURL *string `json:"crest_url,omitempty" db:"-"`
}

// FacultyDetails is the public faculty card: persisted counters plus the streak
// recomputed from the faculty's competitive history in Category during SeasonID.
type FacultyDetails struct {
	Faculty
	Category        MatchCategory `json:"category"`
	SeasonID        *int          `json:"season_id,omitempty"`
	ExactStreak     int           `json:"exact_streak"`
	ExactStreakKind string        `json:"exact_streak_kind"`
	RecentForm      string        `json:"recent_form"`
}
