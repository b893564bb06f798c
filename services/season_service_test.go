package services_test

import (
	"errors"
	"testing"
	"time"

	"github.com/Dosada05/faculty-league/livescore"
	"github.com/Dosada05/faculty-league/models"
	"github.com/Dosada05/faculty-league/services"
	"github.com/Dosada05/faculty-league/standings"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSeasonService_Lifecycle(t *testing.T) {
	Convey("Given an active season with finished League matches", t, func() {
		env := newTestEnv(t, standings.ReversalClamp)
		sci := env.faculty(t, "Faculty of Science", "SCI")
		law := env.faculty(t, "Faculty of Law", "LAW")
		eng := env.faculty(t, "Faculty of Engineering", "ENG")
		art := env.faculty(t, "Faculty of Arts", "ART")

		season, err := env.seasons.StartSeason(env.ctx, admin, "  Season 2026 ")
		So(err, ShouldBeNil)
		So(season.Name, ShouldEqual, "Season 2026")
		So(season.Status, ShouldEqual, models.SeasonStatusActive)

		base := time.Now().Add(-72 * time.Hour)
		league := importance(models.ImportanceLeague)
		m1 := env.fixture(t, sci.ID, law.ID, league, base)
		m2 := env.fixture(t, eng.ID, sci.ID, league, base.Add(time.Hour))
		m3 := env.fixture(t, law.ID, eng.ID, league, base.Add(2*time.Hour))
		env.finish(t, m1.ID, 2, 0)
		env.finish(t, m2.ID, 1, 1)
		env.finish(t, m3.ID, 3, 0)

		Convey("A second season cannot start", func() {
			_, err := env.seasons.StartSeason(env.ctx, admin, "Another")
			So(err, ShouldEqual, services.ErrSeasonAlreadyActive)
		})

		Convey("Only admins can end it", func() {
			_, err := env.seasons.EndSeason(env.ctx, viewer, season.ID)
			So(err, ShouldEqual, services.ErrForbiddenOperation)
		})

		Convey("Ending it freezes the table, awards honours and resets counters", func() {
			summary, err := env.seasons.EndSeason(env.ctx, admin, season.ID)
			So(err, ShouldBeNil)
			So(summary.Season.Status, ShouldEqual, models.SeasonStatusCompleted)
			So(summary.Season.EndedAt, ShouldNotBeNil)
			So(summary.Standings, ShouldHaveLength, 3)

			// SCI 4 pts GD +2, LAW 3 pts GD +1, ENG 1 pt GD -3
			rows, err := env.seasons.GetSeasonStandings(env.ctx, season.ID, nil)
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 3)
			So(rows[0].FacultyID, ShouldEqual, sci.ID)
			So(rows[0].Points, ShouldEqual, 4)
			So(rows[1].FacultyID, ShouldEqual, law.ID)
			So(rows[2].FacultyID, ShouldEqual, eng.ID)

			first, _ := env.repos.Faculties.GetByID(env.ctx, sci.ID)
			second, _ := env.repos.Faculties.GetByID(env.ctx, law.ID)
			third, _ := env.repos.Faculties.GetByID(env.ctx, eng.ID)
			idle, _ := env.repos.Faculties.GetByID(env.ctx, art.ID)
			So(first.ChampionshipsWon, ShouldEqual, 1)
			So(second.RunnerUpCount, ShouldEqual, 1)
			So(third.ThirdPlaceCount, ShouldEqual, 1)
			So(idle.ChampionshipsWon+idle.RunnerUpCount+idle.ThirdPlaceCount, ShouldEqual, 0)

			for _, id := range []int{sci.ID, law.ID, eng.ID} {
				So(env.stored(t, id), ShouldResemble, models.FacultyStats{})
			}
			So(env.live.types(), ShouldContain, livescore.EventSeasonChanged)

			_, err = env.seasons.GetActiveSeason(env.ctx)
			So(err, ShouldEqual, services.ErrSeasonNotFound)

			Convey("It cannot be ended twice", func() {
				_, err := env.seasons.EndSeason(env.ctx, admin, season.ID)
				So(err, ShouldEqual, services.ErrSeasonNotActive)
			})

			Convey("A new season can start", func() {
				next, err := env.seasons.StartSeason(env.ctx, admin, "Season 2027")
				So(err, ShouldBeNil)
				seasons, err := env.seasons.ListSeasons(env.ctx)
				So(err, ShouldBeNil)
				So(seasons, ShouldHaveLength, 2)
				So(next.ID, ShouldNotEqual, season.ID)
			})
		})

		Convey("Matches of a completed season no longer move the counters", func() {
			pending := env.fixture(t, art.ID, sci.ID, league, base.Add(3*time.Hour))
			_, err := env.seasons.EndSeason(env.ctx, admin, season.ID)
			So(err, ShouldBeNil)
			next, err := env.seasons.StartSeason(env.ctx, admin, "Season 2027")
			So(err, ShouldBeNil)

			_, err = env.matches.UpdateScore(env.ctx, admin, m1.ID, services.UpdateScoreInput{
				Status: models.MatchStatusFinished, ScoreHome: 2, ScoreAway: 2,
			})
			So(errors.Is(err, services.ErrSeasonNotActive), ShouldBeTrue)

			_, err = env.matches.UpdateScore(env.ctx, admin, pending.ID, services.UpdateScoreInput{
				Status: models.MatchStatusFinished, ScoreHome: 1, ScoreAway: 0,
			})
			So(errors.Is(err, services.ErrSeasonNotActive), ShouldBeTrue)

			for _, id := range []int{sci.ID, law.ID, art.ID} {
				stats := env.stored(t, id)
				So(stats, ShouldResemble, models.FacultyStats{})
				So(stats.CheckInvariants(), ShouldBeNil)
			}
			kept, err := env.matches.GetMatch(env.ctx, m1.ID)
			So(err, ShouldBeNil)
			So(kept.ScoreHome, ShouldEqual, 2)
			So(kept.ScoreAway, ShouldEqual, 0)

			Convey("Re-saving the recorded score is still accepted", func() {
				res := env.finish(t, m1.ID, 2, 0)
				So(res.StatsEdit, ShouldBeEmpty)
			})

			Convey("New fixtures cannot be filed under it", func() {
				_, err := env.matches.CreateMatch(env.ctx, admin, services.CreateMatchInput{
					HomeFacultyID: sci.ID, AwayFacultyID: law.ID, Category: models.CategoryMen,
					Importance: league, SeasonID: &season.ID, MatchDate: time.Now(),
				})
				So(errors.Is(err, services.ErrSeasonNotActive), ShouldBeTrue)

				current := env.fixture(t, sci.ID, law.ID, league, time.Now())
				So(*current.SeasonID, ShouldEqual, next.ID)
				_, err = env.matches.UpdateMatchDetails(env.ctx, admin, current.ID, services.UpdateMatchInput{SeasonID: &season.ID})
				So(errors.Is(err, services.ErrSeasonNotActive), ShouldBeTrue)
			})
		})

		Convey("Snapshots can be filtered by category", func() {
			_, err := env.seasons.EndSeason(env.ctx, admin, season.ID)
			So(err, ShouldBeNil)
			women := models.CategoryWomen
			rows, err := env.seasons.GetSeasonStandings(env.ctx, season.ID, &women)
			So(err, ShouldBeNil)
			So(rows, ShouldBeEmpty)

			bogus := models.MatchCategory("mixed")
			_, err = env.seasons.GetSeasonStandings(env.ctx, season.ID, &bogus)
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Unknown seasons are reported", t, func() {
		env := newTestEnv(t, standings.ReversalClamp)
		_, err := env.seasons.EndSeason(env.ctx, admin, 42)
		So(err, ShouldEqual, services.ErrSeasonNotFound)
		_, err = env.seasons.StartSeason(env.ctx, admin, "   ")
		So(err, ShouldNotBeNil)
	})
}
