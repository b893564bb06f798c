package standings_test

import (
	"time"

	"github.com/Dosada05/faculty-league/models"
)

var (
	league   = models.ImportanceLeague
	friendly = models.ImportanceFriendly
	men      = models.CategoryMen
	women    = models.CategoryWomen
	baseDate = time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC)
)

// finished builds a finished league match played `day` days after baseDate.
func finished(id, home, away, scoreHome, scoreAway, day int) models.Match {
	return models.Match{
		ID:            id,
		HomeFacultyID: home,
		AwayFacultyID: away,
		Category:      men,
		Importance:    &league,
		Status:        models.MatchStatusFinished,
		ScoreHome:     scoreHome,
		ScoreAway:     scoreAway,
		MatchDate:     baseDate.AddDate(0, 0, day),
	}
}

// history turns outcome letters (most recent first) into matches of faculty 1
// against faculty 2.
func history(outcomes ...string) []models.Match {
	matches := make([]models.Match, 0, len(outcomes))
	for i, o := range outcomes {
		day := len(outcomes) - i
		switch o {
		case "W":
			matches = append(matches, finished(i+1, 1, 2, 2, 0, day))
		case "D":
			matches = append(matches, finished(i+1, 1, 2, 1, 1, day))
		default:
			matches = append(matches, finished(i+1, 2, 1, 3, 1, day))
		}
	}
	return matches
}
