package standings_test

import (
	"testing"

	"github.com/Dosada05/faculty-league/models"
	"github.com/Dosada05/faculty-league/standings"
	. "github.com/smartystreets/goconvey/convey"
)

func TestExactStreak(t *testing.T) {
	Convey("Given a faculty's competitive history, most recent first", t, func() {
		cases := []struct {
			outcomes []string
			length   int
			kind     standings.StreakKind
		}{
			{[]string{"W", "W", "D", "L", "W"}, 2, standings.StreakWin},
			{[]string{"D", "D", "W"}, 2, standings.StreakDraw},
			{[]string{"L", "W", "W"}, 0, standings.StreakNone},
			{[]string{"W", "D", "D"}, 1, standings.StreakWin},
			{[]string{"D"}, 1, standings.StreakDraw},
			{nil, 0, standings.StreakNone},
		}
		for _, c := range cases {
			got := standings.ExactStreak(1, history(c.outcomes...))
			So(got.Length, ShouldEqual, c.length)
			So(got.Kind, ShouldEqual, c.kind)
		}
	})

	Convey("Given a history containing friendlies and other faculties' games", t, func() {
		matches := history("W", "W")
		fr := finished(10, 1, 2, 0, 4, 5)
		fr.Importance = &friendly
		unrelated := finished(11, 3, 4, 0, 0, 4)
		matches = append([]models.Match{fr, unrelated}, matches...)

		Convey("Then only the faculty's competitive matches count", func() {
			So(standings.ExactStreak(1, matches).Length, ShouldEqual, 2)
		})
	})

	Convey("Given matches in arbitrary order", t, func() {
		matches := []models.Match{
			finished(1, 1, 2, 0, 1, 1),
			finished(3, 1, 2, 2, 1, 3),
			finished(2, 1, 2, 1, 0, 2),
		}
		standings.SortMostRecentFirst(matches)

		Convey("Then sorting most recent first makes the streak deterministic", func() {
			So(matches[0].ID, ShouldEqual, 3)
			So(matches[2].ID, ShouldEqual, 1)
			So(standings.ExactStreak(1, matches), ShouldResemble, standings.Streak{Length: 2, Kind: standings.StreakWin})
		})

		Convey("Then equal dates fall back to the newer id", func() {
			same := []models.Match{finished(4, 1, 2, 0, 0, 9), finished(7, 1, 2, 0, 0, 9)}
			standings.SortMostRecentFirst(same)
			So(same[0].ID, ShouldEqual, 7)
		})
	})
}

func TestApproximateStreakDiverges(t *testing.T) {
	Convey("The approximate streak treats a win after draws as a continuation", t, func() {
		s := 0
		s = standings.ApproximateStreak(s, standings.Draw)
		s = standings.ApproximateStreak(s, standings.Win)
		So(s, ShouldEqual, 1)

		exact := standings.ExactStreak(1, history("W", "D"))
		So(exact.Length, ShouldEqual, 1)

		So(standings.ApproximateStreak(4, standings.Loss), ShouldEqual, 0)
	})
}

func TestForm(t *testing.T) {
	Convey("Form lists at most n outcomes, newest first", t, func() {
		So(standings.Form(1, history("W", "D", "L", "W", "W", "D"), 5), ShouldEqual, "WDLWW")
		So(standings.Form(2, history("W", "D"), 5), ShouldEqual, "LD")
		So(standings.Form(1, nil, 5), ShouldEqual, "")
	})
}
