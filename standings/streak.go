package standings

import (
	"sort"
	"strings"

	"github.com/Dosada05/faculty-league/models"
)

type StreakKind string

const (
	StreakNone StreakKind = "none"
	StreakWin  StreakKind = "win"
	StreakDraw StreakKind = "draw"
)

type Streak struct {
	Length int        `json:"length"`
	Kind   StreakKind `json:"kind"`
}

// SortMostRecentFirst orders matches by match date descending, newer ids first
// on equal dates.
func SortMostRecentFirst(matches []models.Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		if !matches[i].MatchDate.Equal(matches[j].MatchDate) {
			return matches[i].MatchDate.After(matches[j].MatchDate)
		}
		return matches[i].ID > matches[j].ID
	})
}

// ExactStreak walks the faculty's history (most recent first) and counts the
// leading run of wins or of draws. A loss, or a change between win and draw,
// ends the run. Matches that are not competitive or do not involve the
// faculty are skipped.
func ExactStreak(facultyID int, matches []models.Match) Streak {
	streak := Streak{Kind: StreakNone}
	for _, m := range matches {
		if !m.IsCompetitive() || !m.Involves(facultyID) {
			continue
		}
		var kind StreakKind
		switch ResultFor(facultyID, m) {
		case Win:
			kind = StreakWin
		case Draw:
			kind = StreakDraw
		default:
			return streak
		}
		if streak.Kind == StreakNone {
			streak.Kind = kind
		} else if streak.Kind != kind {
			return streak
		}
		streak.Length++
	}
	return streak
}

// Form renders the last n competitive outcomes, most recent first ("WDL").
func Form(facultyID int, matches []models.Match, n int) string {
	var b strings.Builder
	for _, m := range matches {
		if b.Len() >= n {
			break
		}
		if !m.IsCompetitive() || !m.Involves(facultyID) {
			continue
		}
		b.WriteString(ResultFor(facultyID, m).String())
	}
	return b.String()
}
