// Package standings holds the league arithmetic: applying and reversing a
// match result on faculty counters, streaks and the ranked table. Everything
// here is pure; persistence is the caller's job.
package standings

import "github.com/Dosada05/faculty-league/models"

// Outcome is a match result seen from one faculty's side.
type Outcome int

const (
	Loss Outcome = iota
	Draw
	Win
)

func (o Outcome) String() string {
	switch o {
	case Win:
		return "W"
	case Draw:
		return "D"
	default:
		return "L"
	}
}

func classify(own, opponent int) Outcome {
	switch {
	case own > opponent:
		return Win
	case own == opponent:
		return Draw
	default:
		return Loss
	}
}

// ResultFor classifies m from facultyID's side. The caller must make sure
// the faculty took part in the match.
func ResultFor(facultyID int, m models.Match) Outcome {
	if m.HomeFacultyID == facultyID {
		return classify(m.ScoreHome, m.ScoreAway)
	}
	return classify(m.ScoreAway, m.ScoreHome)
}
