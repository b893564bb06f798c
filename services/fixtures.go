package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Dosada05/faculty-league/livescore"
	"github.com/Dosada05/faculty-league/models"
	"github.com/Dosada05/faculty-league/schedule"
)

const maxFixtureIntervalDays = 60

// GenerateFixturesInput describes a league calendar. An empty FacultyIDs
// list schedules every faculty.
type GenerateFixturesInput struct {
	FacultyIDs   []int                   `json:"faculty_ids"`
	Category     models.MatchCategory    `json:"category"`
	Importance   *models.MatchImportance `json:"importance"`
	SeasonID     *int                    `json:"season_id"`
	Legs         int                     `json:"legs"`
	StartDate    time.Time               `json:"start_date"`
	IntervalDays int                     `json:"interval_days"`
	Venue        *string                 `json:"venue"`
}

func (s *matchService) GenerateFixtures(ctx context.Context, actor models.Identity, input GenerateFixturesInput) ([]*models.Match, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	importance := input.Importance
	if importance == nil {
		league := models.ImportanceLeague
		importance = &league
	}
	if err := validateClassification(input.Category, importance); err != nil {
		return nil, err
	}
	if input.StartDate.IsZero() {
		return nil, validationError("start_date is required")
	}
	if input.IntervalDays < 0 || input.IntervalDays > maxFixtureIntervalDays {
		return nil, validationError("interval_days must be between 0 and %d", maxFixtureIntervalDays)
	}
	venue, err := normalizeVenue(input.Venue)
	if err != nil {
		return nil, err
	}

	facultyIDs := input.FacultyIDs
	if len(facultyIDs) == 0 {
		faculties, err := s.facultyRepo.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, f := range faculties {
			facultyIDs = append(facultyIDs, f.ID)
		}
	} else if err := s.ensureFaculties(ctx, facultyIDs...); err != nil {
		return nil, err
	}
	seasonID, err := s.resolveSeason(ctx, input.SeasonID)
	if err != nil {
		return nil, err
	}

	fixtures, err := s.scheduler.Generate(schedule.Params{
		FacultyIDs: facultyIDs,
		Legs:       input.Legs,
		Start:      input.StartDate.UTC(),
		Interval:   time.Duration(input.IntervalDays) * 24 * time.Hour,
	})
	switch {
	case errors.Is(err, schedule.ErrNotEnoughFaculties):
		return nil, validationError("at least two faculties are required")
	case errors.Is(err, schedule.ErrDuplicateFaculty):
		return nil, validationError("faculty_ids must be unique")
	case errors.Is(err, schedule.ErrInvalidLegs):
		return nil, validationError("legs must be 1 or 2")
	case err != nil:
		return nil, err
	}

	created := make([]*models.Match, 0, len(fixtures))
	for _, f := range fixtures {
		match := &models.Match{
			HomeFacultyID: f.HomeFacultyID,
			AwayFacultyID: f.AwayFacultyID,
			Category:      input.Category,
			Importance:    importance,
			SeasonID:      seasonID,
			Venue:         venue,
			MatchDate:     f.MatchDate,
			Status:        models.MatchStatusPending,
		}
		if err := s.matchRepo.Create(ctx, match); err != nil {
			s.logger.ErrorContext(ctx, "Fixture generation stopped part way",
				slog.Int("created", len(created)), slog.Int("total", len(fixtures)), slog.Any("error", err))
			return nil, handleRepositoryError(err)
		}
		created = append(created, match)
	}

	s.activity.Record(ctx, actor, "match.generate", models.EntityMatch, 0, map[string]any{
		"faculties": len(facultyIDs),
		"matches":   len(created),
		"category":  input.Category,
		"generator": s.scheduler.GetName(),
	})
	s.attachFaculties(ctx, created...)
	for _, match := range created {
		s.live.Publish(livescore.EventMatchCreated, match.ID, match)
	}
	return created, nil
}
