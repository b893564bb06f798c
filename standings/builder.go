package standings

import (
	"sort"

	"github.com/Dosada05/faculty-league/models"
)

const formLength = 5

// Scope narrows the matches folded into a table. Nil fields do not filter.
type Scope struct {
	SeasonID *int
	Category *models.MatchCategory
}

func (s Scope) includes(m models.Match) bool {
	if s.SeasonID != nil && (m.SeasonID == nil || *m.SeasonID != *s.SeasonID) {
		return false
	}
	if s.Category != nil && m.Category != *s.Category {
		return false
	}
	return true
}

// Row is one line of a standings table. CurrentStreak carries the exact
// streak length recomputed from the scoped history.
type Row struct {
	Position       int     `json:"position"`
	FacultyID      int     `json:"faculty_id"`
	Name           string  `json:"name"`
	Abbreviation   string  `json:"abbreviation"`
	ColorPrimary   string  `json:"color_primary"`
	ColorSecondary string  `json:"color_secondary"`
	CrestURL       *string `json:"crest_url,omitempty"`

	models.FacultyStats

	Streak Streak `json:"streak"`
	Form   string `json:"form"`
}

// Build derives a ranked table from match history alone; persisted faculty
// counters are ignored. Faculties without a competitive match in scope are
// left out.
func Build(faculties []models.Faculty, matches []models.Match, scope Scope) []Row {
	rows := make([]*Row, 0, len(faculties))
	index := make(map[int]*Row, len(faculties))
	for _, f := range faculties {
		if _, dup := index[f.ID]; dup {
			continue
		}
		row := &Row{
			FacultyID:      f.ID,
			Name:           f.Name,
			Abbreviation:   f.Abbreviation,
			ColorPrimary:   f.ColorPrimary,
			ColorSecondary: f.ColorSecondary,
			CrestURL:       f.CrestURL,
		}
		rows = append(rows, row)
		index[f.ID] = row
	}

	history := make(map[int][]models.Match)
	for _, m := range matches {
		if !m.IsCompetitive() || !scope.includes(m) || m.HomeFacultyID == m.AwayFacultyID {
			continue
		}
		home, away := index[m.HomeFacultyID], index[m.AwayFacultyID]
		if home == nil || away == nil {
			continue
		}
		home.FacultyStats, away.FacultyStats = ApplyResult(home.FacultyStats, away.FacultyStats, m.ScoreHome, m.ScoreAway)
		history[home.FacultyID] = append(history[home.FacultyID], m)
		history[away.FacultyID] = append(history[away.FacultyID], m)
	}

	table := make([]Row, 0, len(rows))
	for _, row := range rows {
		if row.Played == 0 {
			continue
		}
		played := history[row.FacultyID]
		SortMostRecentFirst(played)
		row.Streak = ExactStreak(row.FacultyID, played)
		row.CurrentStreak = row.Streak.Length
		row.Form = Form(row.FacultyID, played, formLength)
		table = append(table, *row)
	}

	SortRows(table)
	return table
}

// SortRows ranks rows by points, then goal difference, then goals scored.
// Rows equal on all three keep their relative order. Positions are rewritten.
func SortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.GoalDifference != b.GoalDifference {
			return a.GoalDifference > b.GoalDifference
		}
		return a.GoalsFor > b.GoalsFor
	})
	for i := range rows {
		rows[i].Position = i + 1
	}
}
