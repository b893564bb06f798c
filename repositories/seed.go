package repositories

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/faculty-league/models"
)

var demoFaculties = []models.Faculty{
	{Name: "Faculty of Science", Abbreviation: "SCI", ColorPrimary: "#1d4ed8", ColorSecondary: "#ffffff"},
	{Name: "Faculty of Law", Abbreviation: "LAW", ColorPrimary: "#7f1d1d", ColorSecondary: "#fde68a"},
	{Name: "Faculty of Engineering", Abbreviation: "ENG", ColorPrimary: "#ea580c", ColorSecondary: "#111827"},
	{Name: "Faculty of Medicine", Abbreviation: "MED", ColorPrimary: "#047857", ColorSecondary: "#ffffff"},
	{Name: "Faculty of Business", Abbreviation: "BUS", ColorPrimary: "#4c1d95", ColorSecondary: "#e5e7eb"},
	{Name: "Faculty of Arts", Abbreviation: "ART", ColorPrimary: "#be185d", ColorSecondary: "#fdf2f8"},
}

// SeedDemo fills an empty store with faculties, an active season, a round of
// pending league fixtures and an admin account. A store that already has
// faculties is left untouched.
func SeedDemo(ctx context.Context, repos *Repositories, adminEmail, adminPasswordHash string) error {
	existing, err := repos.Faculties.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	ids := make([]int, 0, len(demoFaculties))
	for _, f := range demoFaculties {
		f := f
		if err := repos.Faculties.Create(ctx, &f); err != nil {
			return fmt.Errorf("seed faculty %s: %w", f.Abbreviation, err)
		}
		ids = append(ids, f.ID)
	}

	season := &models.Season{Name: fmt.Sprintf("Season %d", time.Now().Year()), Status: models.SeasonStatusActive}
	if err := repos.Seasons.Create(ctx, nil, season); err != nil {
		return fmt.Errorf("seed season: %w", err)
	}

	league := models.ImportanceLeague
	kickoff := time.Now().UTC().Truncate(time.Hour).Add(24 * time.Hour)
	fixtures := 0
	for i := 0; i+1 < len(ids); i += 2 {
		for _, category := range models.Categories {
			m := &models.Match{
				HomeFacultyID: ids[i],
				AwayFacultyID: ids[i+1],
				Category:      category,
				Importance:    &league,
				SeasonID:      &season.ID,
				MatchDate:     kickoff.Add(time.Duration(fixtures) * 2 * time.Hour),
				Status:        models.MatchStatusPending,
			}
			if err := repos.Matches.Create(ctx, m); err != nil {
				return fmt.Errorf("seed fixture: %w", err)
			}
			fixtures++
		}
	}

	if adminEmail != "" {
		admin := &models.User{Email: adminEmail, Name: "Administrator", Role: models.RoleAdmin, PasswordHash: adminPasswordHash}
		if err := repos.Users.Create(ctx, admin); err != nil && !errors.Is(err, ErrUserEmailConflict) {
			return fmt.Errorf("seed admin: %w", err)
		}
	}

	slog.Info("Demo data seeded", "faculties", len(ids), "fixtures", fixtures, "season_id", season.ID)
	return nil
}
