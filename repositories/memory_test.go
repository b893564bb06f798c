package repositories_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dosada05/faculty-league/models"
	"github.com/Dosada05/faculty-league/repositories"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemoryTransactor(t *testing.T) {
	Convey("Given a memory store with one faculty", t, func() {
		ctx := context.Background()
		repos := repositories.NewMemoryRepositories()
		f := &models.Faculty{Name: "Faculty of Science", Abbreviation: "SCI"}
		So(repos.Faculties.Create(ctx, f), ShouldBeNil)

		Convey("a failing transaction leaves no partial writes", func() {
			err := repos.Tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
				stats := models.FacultyStats{Played: 1, Won: 1, GoalsFor: 2, GoalDifference: 2, Points: 3, CurrentStreak: 1}
				if err := repos.Faculties.UpdateStats(ctx, exec, f.ID, stats); err != nil {
					return err
				}
				return errors.New("boom")
			})
			So(err, ShouldNotBeNil)

			stored, err := repos.Faculties.GetByID(ctx, f.ID)
			So(err, ShouldBeNil)
			So(stored.FacultyStats, ShouldResemble, models.FacultyStats{})
		})

		Convey("a successful transaction is kept", func() {
			err := repos.Tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
				return repos.Faculties.UpdateStats(ctx, exec, f.ID, models.FacultyStats{Played: 1, Drawn: 1, Points: 1, CurrentStreak: 1})
			})
			So(err, ShouldBeNil)

			stored, _ := repos.Faculties.GetByID(ctx, f.ID)
			So(stored.Points, ShouldEqual, 1)
		})

		Convey("locking an unknown faculty fails with ErrFacultyNotFound", func() {
			_, err := repos.Faculties.LockForUpdate(ctx, nil, f.ID, f.ID+100)
			So(errors.Is(err, repositories.ErrFacultyNotFound), ShouldBeTrue)
		})

		Convey("a rollback keeps writes made outside the transaction", func() {
			other := &models.Faculty{Name: "Faculty of Law", Abbreviation: "LAW"}
			created := make(chan error, 1)

			err := repos.Tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
				started := make(chan struct{})
				go func() {
					close(started)
					created <- repos.Faculties.Create(ctx, other)
				}()
				<-started
				time.Sleep(20 * time.Millisecond)

				if err := repos.Faculties.UpdateStats(ctx, exec, f.ID, models.FacultyStats{Played: 1, Drawn: 1, Points: 1}); err != nil {
					return err
				}
				return errors.New("boom")
			})
			So(err, ShouldNotBeNil)
			So(<-created, ShouldBeNil)

			stored, err := repos.Faculties.GetByID(ctx, other.ID)
			So(err, ShouldBeNil)
			So(stored.Name, ShouldEqual, "Faculty of Law")

			first, _ := repos.Faculties.GetByID(ctx, f.ID)
			So(first.FacultyStats, ShouldResemble, models.FacultyStats{})

			next := &models.Faculty{Name: "Faculty of Arts", Abbreviation: "ART"}
			So(repos.Faculties.Create(ctx, next), ShouldBeNil)
			So(next.ID, ShouldNotEqual, other.ID)
		})

		Convey("negative counters are rejected", func() {
			err := repos.Faculties.UpdateStats(ctx, nil, f.ID, models.FacultyStats{Played: -1})
			So(err, ShouldNotBeNil)
		})

		Convey("duplicate names conflict", func() {
			err := repos.Faculties.Create(ctx, &models.Faculty{Name: "Faculty of Science", Abbreviation: "SC2"})
			So(err, ShouldEqual, repositories.ErrFacultyNameConflict)
		})
	})
}

func TestMemoryMatchList(t *testing.T) {
	Convey("Given fixtures across two faculties", t, func() {
		ctx := context.Background()
		repos := repositories.NewMemoryRepositories()
		home := &models.Faculty{Name: "Home", Abbreviation: "HOM"}
		away := &models.Faculty{Name: "Away", Abbreviation: "AWY"}
		So(repos.Faculties.Create(ctx, home), ShouldBeNil)
		So(repos.Faculties.Create(ctx, away), ShouldBeNil)

		base := time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC)
		for i := 0; i < 3; i++ {
			m := &models.Match{
				HomeFacultyID: home.ID,
				AwayFacultyID: away.ID,
				Category:      models.CategoryMen,
				MatchDate:     base.Add(time.Duration(i) * 24 * time.Hour),
				Status:        models.MatchStatusPending,
			}
			So(repos.Matches.Create(ctx, m), ShouldBeNil)
		}

		Convey("ascending order and limit are honoured", func() {
			matches, err := repos.Matches.List(ctx, models.MatchFilter{Order: models.OrderDateAsc, Limit: 2})
			So(err, ShouldBeNil)
			So(matches, ShouldHaveLength, 2)
			So(matches[0].MatchDate, ShouldEqual, base)
		})

		Convey("descending is the default order", func() {
			matches, _ := repos.Matches.List(ctx, models.MatchFilter{})
			So(matches[0].MatchDate.After(matches[2].MatchDate), ShouldBeTrue)
		})

		Convey("the date window is half open", func() {
			from, to := base, base.Add(48*time.Hour)
			count, err := repos.Matches.Count(ctx, models.MatchFilter{From: &from, To: &to})
			So(err, ShouldBeNil)
			So(count, ShouldEqual, 2)
		})

		Convey("a fixture with an unknown faculty is rejected", func() {
			err := repos.Matches.Create(ctx, &models.Match{HomeFacultyID: home.ID, AwayFacultyID: 999, Category: models.CategoryMen})
			So(err, ShouldEqual, repositories.ErrMatchFacultyInvalid)
		})
	})
}

func TestSeedDemo(t *testing.T) {
	Convey("Seeding an empty store", t, func() {
		ctx := context.Background()
		repos := repositories.NewMemoryRepositories()
		So(repositories.SeedDemo(ctx, repos, "admin@uni.test", "hash"), ShouldBeNil)

		faculties, _ := repos.Faculties.List(ctx)
		So(len(faculties), ShouldBeGreaterThan, 1)

		season, err := repos.Seasons.GetActive(ctx, nil)
		So(err, ShouldBeNil)
		So(season.Status, ShouldEqual, models.SeasonStatusActive)

		admin, err := repos.Users.GetByEmail(ctx, "ADMIN@uni.test")
		So(err, ShouldBeNil)
		So(admin.Role, ShouldEqual, models.RoleAdmin)

		Convey("is idempotent", func() {
			So(repositories.SeedDemo(ctx, repos, "admin@uni.test", "hash"), ShouldBeNil)
			again, _ := repos.Faculties.List(ctx)
			So(again, ShouldHaveLength, len(faculties))
		})
	})
}
