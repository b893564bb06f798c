package standings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/faculty-league/models"
)

const (
	pointsForWin  = 3
	pointsForDraw = 1
)

var (
	ErrNegativeScore     = errors.New("score must not be negative")
	ErrReversalUnderflow = errors.New("reversal would drive faculty counters below zero")
)

// ReversalMode decides what ReverseResult does when a counter would go negative.
type ReversalMode string

const (
	// ReversalClamp floors counters at zero and reports what was clamped.
	// Goal difference and points still move by the full delta.
	ReversalClamp ReversalMode = "clamp"
	// ReversalStrict refuses the reversal and leaves the stats untouched.
	ReversalStrict ReversalMode = "strict"
)

func ParseReversalMode(s string) (ReversalMode, error) {
	switch ReversalMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ReversalClamp:
		return ReversalClamp, nil
	case ReversalStrict:
		return ReversalStrict, nil
	}
	return "", fmt.Errorf("unknown reversal mode %q (want %q or %q)", s, ReversalClamp, ReversalStrict)
}

// ReversalReport lists the counters that were floored at zero on each side.
type ReversalReport struct {
	HomeClamped []string
	AwayClamped []string
}

func (r ReversalReport) Clamped() bool {
	return len(r.HomeClamped) > 0 || len(r.AwayClamped) > 0
}

type delta struct {
	played, won, drawn, lost int
	goalsFor, goalsAgainst   int
	points                   int
	outcome                  Outcome
}

func deltaFor(goalsFor, goalsAgainst int) delta {
	d := delta{
		played:       1,
		goalsFor:     goalsFor,
		goalsAgainst: goalsAgainst,
		outcome:      classify(goalsFor, goalsAgainst),
	}
	switch d.outcome {
	case Win:
		d.won = 1
		d.points = pointsForWin
	case Draw:
		d.drawn = 1
		d.points = pointsForDraw
	default:
		d.lost = 1
	}
	return d
}

// ApplyResult folds one finished match into both faculties' counters.
// It is not idempotent: a given result must be applied exactly once.
func ApplyResult(home, away models.FacultyStats, homeScore, awayScore int) (models.FacultyStats, models.FacultyStats) {
	return applySide(home, deltaFor(homeScore, awayScore)), applySide(away, deltaFor(awayScore, homeScore))
}

func applySide(s models.FacultyStats, d delta) models.FacultyStats {
	s.Played += d.played
	s.Won += d.won
	s.Drawn += d.drawn
	s.Lost += d.lost
	s.GoalsFor += d.goalsFor
	s.GoalsAgainst += d.goalsAgainst
	s.GoalDifference = s.GoalsFor - s.GoalsAgainst
	s.Points += d.points
	s.CurrentStreak = ApproximateStreak(s.CurrentStreak, d.outcome)
	return s
}

// ReverseResult undoes a result previously passed to ApplyResult. The
// persisted streak cannot be rebuilt from counters and is reset to zero.
func ReverseResult(home, away models.FacultyStats, oldHomeScore, oldAwayScore int, mode ReversalMode) (models.FacultyStats, models.FacultyStats, ReversalReport, error) {
	newHome, homeClamped := reverseSide(home, deltaFor(oldHomeScore, oldAwayScore))
	newAway, awayClamped := reverseSide(away, deltaFor(oldAwayScore, oldHomeScore))
	report := ReversalReport{HomeClamped: homeClamped, AwayClamped: awayClamped}

	if mode == ReversalStrict && report.Clamped() {
		return home, away, report, fmt.Errorf("%w: home %v, away %v", ErrReversalUnderflow, homeClamped, awayClamped)
	}
	return newHome, newAway, report, nil
}

func reverseSide(s models.FacultyStats, d delta) (models.FacultyStats, []string) {
	var clamped []string
	sub := func(field *int, by int, name string) {
		if *field-by < 0 {
			clamped = append(clamped, name)
			*field = 0
			return
		}
		*field -= by
	}
	sub(&s.Played, d.played, "played")
	sub(&s.Won, d.won, "won")
	sub(&s.Drawn, d.drawn, "drawn")
	sub(&s.Lost, d.lost, "lost")
	sub(&s.GoalsFor, d.goalsFor, "goals_for")
	sub(&s.GoalsAgainst, d.goalsAgainst, "goals_against")

	// not recomputed: may drift from the floored counters in clamp mode
	s.GoalDifference -= d.goalsFor - d.goalsAgainst
	s.Points -= d.points
	s.CurrentStreak = 0
	return s, clamped
}

// ApproximateStreak is the O(1) streak kept on the faculty row: a win extends
// whatever is stored, anything else resets it. It assumes the stored value is
// a win streak and may disagree with ExactStreak.
func ApproximateStreak(current int, o Outcome) int {
	if o == Win {
		return current + 1
	}
	return 0
}
