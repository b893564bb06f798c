package models

import "time"

type MatchStatus string

const (
	MatchStatusPending  MatchStatus = "PENDING"
	MatchStatusLive     MatchStatus = "LIVE"
	MatchStatusFinished MatchStatus = "FINISHED"
)

func (s MatchStatus) Valid() bool {
	switch s {
	case MatchStatusPending, MatchStatusLive, MatchStatusFinished:
		return true
	}
	return false
}

type MatchCategory string

const (
	CategoryMen   MatchCategory = "men"
	CategoryWomen MatchCategory = "women"
)

// Categories lists every category in display order.
var Categories = []MatchCategory{CategoryMen, CategoryWomen}

func (c MatchCategory) Valid() bool {
	return c == CategoryMen || c == CategoryWomen
}

type MatchImportance string

const (
	ImportanceFriendly MatchImportance = "Friendly"
	ImportanceLeague   MatchImportance = "League"
	ImportanceCup      MatchImportance = "Cup"
	ImportanceFinals   MatchImportance = "Finals"
)

func (i MatchImportance) Valid() bool {
	switch i {
	case ImportanceFriendly, ImportanceLeague, ImportanceCup, ImportanceFinals:
		return true
	}
	return false
}

// Match описывает один матч расписания.
type Match struct {
	ID            int              `json:"id" db:"id"`
	HomeFacultyID int              `json:"home_faculty_id" db:"home_faculty_id"`
	AwayFacultyID int              `json:"away_faculty_id" db:"away_faculty_id"`
	Category      MatchCategory    `json:"category" db:"category"`
	Importance    *MatchImportance `json:"importance,omitempty" db:"importance"`
	SeasonID      *int             `json:"season_id,omitempty" db:"season_id"`
	Venue         *string          `json:"venue,omitempty" db:"venue"`
	MatchDate     time.Time        `json:"match_date" db:"match_date"`
	StartedAt     *time.Time       `json:"started_at,omitempty" db:"started_at"`
	FinishedAt    *time.Time       `json:"finished_at,omitempty" db:"finished_at"`
	Status        MatchStatus      `json:"status" db:"status"`
	ScoreHome     int              `json:"score_home" db:"score_home"`
	ScoreAway     int              `json:"score_away" db:"score_away"`
	MatchMinute   int              `json:"match_minute" db:"match_minute"`
	IsArchived    bool             `json:"is_archived" db:"is_archived"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at" db:"updated_at"`

	HomeFaculty *Faculty `json:"home_faculty,omitempty" db:"-"`
	AwayFaculty *Faculty `json:"away_faculty,omitempty" db:"-"`
}

// AffectsStandings reports whether the importance counts towards the table.
// A nil importance is treated like a friendly.
func (m Match) AffectsStandings() bool {
	if m.Importance == nil {
		return false
	}
	switch *m.Importance {
	case ImportanceLeague, ImportanceCup, ImportanceFinals:
		return true
	}
	return false
}

// IsCompetitive is a finished match that affects standings.
func (m Match) IsCompetitive() bool {
	return m.Status == MatchStatusFinished && m.AffectsStandings()
}

// Involves reports whether the faculty played in the match.
func (m Match) Involves(facultyID int) bool {
	return m.HomeFacultyID == facultyID || m.AwayFacultyID == facultyID
}

type MatchOrder string

const (
	OrderDateAsc  MatchOrder = "date_asc"
	OrderDateDesc MatchOrder = "date_desc"
)

// MatchFilter задаёт выборку матчей. Nil-поля не фильтруют.
type MatchFilter struct {
	Status     *MatchStatus
	Category   *MatchCategory
	SeasonID   *int
	FacultyID  *int
	Importance *MatchImportance
	Archived   *bool
	From       *time.Time
	To         *time.Time
	Order      MatchOrder
	Limit      int
}
