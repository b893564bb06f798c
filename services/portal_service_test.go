package services_test

import (
	"errors"
	"testing"
	"time"

	"github.com/Dosada05/faculty-league/models"
	"github.com/Dosada05/faculty-league/services"
	"github.com/Dosada05/faculty-league/standings"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPortalService_Home(t *testing.T) {
	Convey("Given a season with live, upcoming and finished fixtures", t, func() {
		env := newTestEnv(t, standings.ReversalClamp)
		sci := env.faculty(t, "Faculty of Science", "SCI")
		law := env.faculty(t, "Faculty of Law", "LAW")
		med := env.faculty(t, "Faculty of Medicine", "MED")
		_, err := env.seasons.StartSeason(env.ctx, admin, "Season 2026")
		So(err, ShouldBeNil)

		league := importance(models.ImportanceLeague)
		past := time.Now().Add(-48 * time.Hour)
		done1 := env.fixture(t, sci.ID, law.ID, league, past)
		done2 := env.fixture(t, law.ID, med.ID, importance(models.ImportanceFriendly), past.Add(time.Hour))
		env.finish(t, done1.ID, 3, 1)
		env.finish(t, done2.ID, 2, 2)

		playing := env.fixture(t, med.ID, sci.ID, league, time.Now().Add(-30*time.Minute))
		_, err = env.matches.UpdateScore(env.ctx, admin, playing.ID, services.UpdateScoreInput{
			Status: models.MatchStatusLive, ScoreHome: 0, ScoreAway: 1, MatchMinute: 25,
		})
		So(err, ShouldBeNil)

		for i := 1; i <= 8; i++ {
			env.fixture(t, sci.ID, med.ID, league, time.Now().Add(time.Duration(i)*24*time.Hour))
		}

		women, err := env.matches.CreateMatch(env.ctx, admin, services.CreateMatchInput{
			HomeFacultyID: sci.ID, AwayFacultyID: law.ID, Category: models.CategoryWomen,
			Importance: league, MatchDate: past,
		})
		So(err, ShouldBeNil)
		env.finish(t, women.ID, 0, 4)

		Convey("The men's home page aggregates its own category", func() {
			home, err := env.portal.Home(env.ctx, services.PortalScope{})
			So(err, ShouldBeNil)
			So(home.Scope.Category, ShouldEqual, models.CategoryMen)
			So(home.Scope.SeasonID, ShouldNotBeNil)

			So(home.LiveMatches, ShouldHaveLength, 1)
			So(home.LiveMatches[0].HomeFaculty.Abbreviation, ShouldEqual, "MED")
			So(home.UpcomingMatches, ShouldHaveLength, 6)
			So(home.UpcomingMatches[0].MatchDate.Before(home.UpcomingMatches[1].MatchDate), ShouldBeTrue)
			So(home.RecentMatches, ShouldHaveLength, 2)
			So(home.RecentMatches[0].ID, ShouldEqual, done2.ID)

			So(home.Stats.TotalMatches, ShouldEqual, 11)
			So(home.Stats.FinishedMatches, ShouldEqual, 2)
			So(home.Stats.LiveMatches, ShouldEqual, 1)
			So(home.Stats.UpcomingMatches, ShouldEqual, 8)
			So(home.Stats.TotalGoals, ShouldEqual, 8)
			So(home.Stats.GoalsPerMatch, ShouldEqual, 4.0)
			So(home.Stats.Faculties, ShouldEqual, 3)

			So(home.Standings, ShouldHaveLength, 2)
			So(home.Standings[0].FacultyID, ShouldEqual, sci.ID)
			So(home.Standings[0].Points, ShouldEqual, 3)
			So(home.Standings[0].Streak.Length, ShouldEqual, 1)
		})

		Convey("The women's table is separate", func() {
			rows, err := env.portal.Standings(env.ctx, services.PortalScope{Category: models.CategoryWomen})
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 2)
			So(rows[0].FacultyID, ShouldEqual, law.ID)
			So(rows[0].Points, ShouldEqual, 3)
			So(rows[1].FacultyID, ShouldEqual, sci.ID)
		})

		Convey("Fixtures can be narrowed to one faculty and status", func() {
			pending := models.MatchStatusPending
			fixtures, err := env.portal.Fixtures(env.ctx, services.FixtureQuery{
				Status:    &pending,
				FacultyID: &med.ID,
				Limit:     3,
			})
			So(err, ShouldBeNil)
			So(fixtures, ShouldHaveLength, 3)
			for _, m := range fixtures {
				So(m.Involves(med.ID), ShouldBeTrue)
				So(m.AwayFaculty, ShouldNotBeNil)
			}
		})

		Convey("Unknown categories are rejected", func() {
			_, err := env.portal.Home(env.ctx, services.PortalScope{Category: "mixed"})
			So(errors.Is(err, services.ErrValidationFailed), ShouldBeTrue)
		})
	})

	Convey("An empty portal still renders", t, func() {
		env := newTestEnv(t, standings.ReversalClamp)
		home, err := env.portal.Home(env.ctx, services.PortalScope{})
		So(err, ShouldBeNil)
		So(home.Scope.SeasonID, ShouldBeNil)
		So(home.Standings, ShouldBeEmpty)
		So(home.Stats.GoalsPerMatch, ShouldEqual, 0)
	})
}
