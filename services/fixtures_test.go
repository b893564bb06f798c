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

func TestMatchService_GenerateFixtures(t *testing.T) {
	Convey("Given four faculties and an active season", t, func() {
		env := newTestEnv(t, standings.ReversalClamp)
		sci := env.faculty(t, "Faculty of Science", "SCI")
		law := env.faculty(t, "Faculty of Law", "LAW")
		eng := env.faculty(t, "Faculty of Engineering", "ENG")
		art := env.faculty(t, "Faculty of Arts", "ART")
		season, err := env.seasons.StartSeason(env.ctx, admin, "2024/25")
		So(err, ShouldBeNil)
		start := time.Date(2024, 9, 7, 15, 0, 0, 0, time.UTC)

		Convey("A single leg over all faculties creates six pending League matches", func() {
			matches, err := env.matches.GenerateFixtures(env.ctx, admin, services.GenerateFixturesInput{
				Category:  models.CategoryMen,
				StartDate: start,
			})
			So(err, ShouldBeNil)
			So(matches, ShouldHaveLength, 6)
			for _, m := range matches {
				So(m.Status, ShouldEqual, models.MatchStatusPending)
				So(*m.Importance, ShouldEqual, models.ImportanceLeague)
				So(*m.SeasonID, ShouldEqual, season.ID)
				So(m.HomeFaculty, ShouldNotBeNil)
				So(m.AwayFaculty, ShouldNotBeNil)
			}
			So(matches[0].MatchDate, ShouldEqual, start)
			So(matches[5].MatchDate, ShouldEqual, start.Add(14*24*time.Hour))

			stored, err := env.matches.ListMatches(env.ctx, models.MatchFilter{})
			So(err, ShouldBeNil)
			So(stored, ShouldHaveLength, 6)

			created := 0
			for _, typ := range env.live.types() {
				if typ == livescore.EventMatchCreated {
					created++
				}
			}
			So(created, ShouldEqual, 6)

			log, err := env.activity.ListRecent(env.ctx, admin, 1)
			So(err, ShouldBeNil)
			So(log[0].Action, ShouldEqual, "match.generate")
		})

		Convey("A subset with two legs and a custom interval", func() {
			matches, err := env.matches.GenerateFixtures(env.ctx, admin, services.GenerateFixturesInput{
				FacultyIDs:   []int{sci.ID, law.ID, eng.ID},
				Category:     models.CategoryWomen,
				Importance:   importance(models.ImportanceCup),
				Legs:         2,
				StartDate:    start,
				IntervalDays: 3,
			})
			So(err, ShouldBeNil)
			So(matches, ShouldHaveLength, 6)
			for _, m := range matches {
				So(m.HomeFacultyID, ShouldNotEqual, art.ID)
				So(m.AwayFacultyID, ShouldNotEqual, art.ID)
				So(m.Category, ShouldEqual, models.CategoryWomen)
			}
			So(matches[len(matches)-1].MatchDate, ShouldEqual, start.Add(5*3*24*time.Hour))
		})

		Convey("Invalid requests create nothing", func() {
			_, err := env.matches.GenerateFixtures(env.ctx, viewer, services.GenerateFixturesInput{Category: models.CategoryMen, StartDate: start})
			So(errors.Is(err, services.ErrForbiddenOperation), ShouldBeTrue)

			_, err = env.matches.GenerateFixtures(env.ctx, admin, services.GenerateFixturesInput{Category: "mixed", StartDate: start})
			So(errors.Is(err, services.ErrValidationFailed), ShouldBeTrue)

			_, err = env.matches.GenerateFixtures(env.ctx, admin, services.GenerateFixturesInput{Category: models.CategoryMen})
			So(errors.Is(err, services.ErrValidationFailed), ShouldBeTrue)

			_, err = env.matches.GenerateFixtures(env.ctx, admin, services.GenerateFixturesInput{
				FacultyIDs: []int{sci.ID}, Category: models.CategoryMen, StartDate: start,
			})
			So(errors.Is(err, services.ErrValidationFailed), ShouldBeTrue)

			_, err = env.matches.GenerateFixtures(env.ctx, admin, services.GenerateFixturesInput{
				FacultyIDs: []int{sci.ID, sci.ID}, Category: models.CategoryMen, StartDate: start,
			})
			So(errors.Is(err, services.ErrValidationFailed), ShouldBeTrue)

			_, err = env.matches.GenerateFixtures(env.ctx, admin, services.GenerateFixturesInput{
				FacultyIDs: []int{sci.ID, 999}, Category: models.CategoryMen, StartDate: start,
			})
			So(errors.Is(err, services.ErrFacultyNotFound), ShouldBeTrue)

			_, err = env.matches.GenerateFixtures(env.ctx, admin, services.GenerateFixturesInput{
				Category: models.CategoryMen, StartDate: start, Legs: 3,
			})
			So(errors.Is(err, services.ErrValidationFailed), ShouldBeTrue)

			stored, err := env.matches.ListMatches(env.ctx, models.MatchFilter{})
			So(err, ShouldBeNil)
			So(stored, ShouldBeEmpty)
		})
	})
}
