package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/Dosada05/faculty-league/models"
	"github.com/Dosada05/faculty-league/repositories"
	"github.com/Dosada05/faculty-league/standings"
	"github.com/Dosada05/faculty-league/storage"
)

const (
	maxAbbreviationLength = 5
	maxFacultyNameLength  = 100
	recentFormLength      = 5

	defaultColorPrimary   = "#1f2937"
	defaultColorSecondary = "#f9fafb"
)

type FacultyInput struct {
	Name           string `json:"name"`
	Abbreviation   string `json:"abbreviation"`
	ColorPrimary   string `json:"color_primary"`
	ColorSecondary string `json:"color_secondary"`
}

type FacultyService interface {
	CreateFaculty(ctx context.Context, actor models.Identity, input FacultyInput) (*models.Faculty, error)
	UpdateFaculty(ctx context.Context, actor models.Identity, id int, input FacultyInput) (*models.Faculty, error)
	// GetFaculty returns the persisted counters together with the streak
	// recomputed from the faculty's competitive history in one category
	// (men when nil) of the active season.
	GetFaculty(ctx context.Context, id int, category *models.MatchCategory) (*models.FacultyDetails, error)
	ListFaculties(ctx context.Context) ([]*models.Faculty, error)
	UploadCrest(ctx context.Context, actor models.Identity, id int, file io.Reader, contentType string) (*models.Faculty, error)
}

type facultyService struct {
	facultyRepo repositories.FacultyRepository
	matchRepo   repositories.MatchRepository
	seasonRepo  repositories.SeasonRepository
	activity    ActivityService
	uploader    storage.FileUploader
	logger      *slog.Logger
}

func NewFacultyService(
	facultyRepo repositories.FacultyRepository,
	matchRepo repositories.MatchRepository,
	seasonRepo repositories.SeasonRepository,
	activity ActivityService,
	uploader storage.FileUploader,
	logger *slog.Logger,
) FacultyService {
	return &facultyService{
		facultyRepo: facultyRepo,
		matchRepo:   matchRepo,
		seasonRepo:  seasonRepo,
		activity:    activity,
		uploader:    uploader,
		logger:      logger,
	}
}

func normalizeFacultyInput(input FacultyInput) (FacultyInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Abbreviation = strings.ToUpper(strings.TrimSpace(input.Abbreviation))
	input.ColorPrimary = strings.TrimSpace(input.ColorPrimary)
	input.ColorSecondary = strings.TrimSpace(input.ColorSecondary)

	if input.Name == "" {
		return input, validationError("name is required")
	}
	if utf8.RuneCountInString(input.Name) > maxFacultyNameLength {
		return input, validationError("name must be at most %d characters", maxFacultyNameLength)
	}
	if input.Abbreviation == "" || utf8.RuneCountInString(input.Abbreviation) > maxAbbreviationLength {
		return input, validationError("abbreviation must be 1 to %d characters", maxAbbreviationLength)
	}
	if input.ColorPrimary == "" {
		input.ColorPrimary = defaultColorPrimary
	}
	if input.ColorSecondary == "" {
		input.ColorSecondary = defaultColorSecondary
	}
	if !hexColorRe.MatchString(input.ColorPrimary) || !hexColorRe.MatchString(input.ColorSecondary) {
		return input, validationError("colors must be hex values like #1d4ed8")
	}
	return input, nil
}

func (s *facultyService) CreateFaculty(ctx context.Context, actor models.Identity, input FacultyInput) (*models.Faculty, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	input, err := normalizeFacultyInput(input)
	if err != nil {
		return nil, err
	}
	faculty := &models.Faculty{
		Name:           input.Name,
		Abbreviation:   input.Abbreviation,
		ColorPrimary:   input.ColorPrimary,
		ColorSecondary: input.ColorSecondary,
	}
	if err := s.facultyRepo.Create(ctx, faculty); err != nil {
		return nil, handleRepositoryError(err)
	}
	s.activity.Record(ctx, actor, "faculty.create", models.EntityFaculty, faculty.ID, map[string]any{"name": faculty.Name})
	return faculty, nil
}

func (s *facultyService) UpdateFaculty(ctx context.Context, actor models.Identity, id int, input FacultyInput) (*models.Faculty, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	input, err := normalizeFacultyInput(input)
	if err != nil {
		return nil, err
	}
	faculty, err := s.facultyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	faculty.Name = input.Name
	faculty.Abbreviation = input.Abbreviation
	faculty.ColorPrimary = input.ColorPrimary
	faculty.ColorSecondary = input.ColorSecondary
	if err := s.facultyRepo.UpdateDetails(ctx, faculty); err != nil {
		return nil, handleRepositoryError(err)
	}
	populateCrestURL(faculty, s.uploader)
	s.activity.Record(ctx, actor, "faculty.update", models.EntityFaculty, faculty.ID, map[string]any{"name": faculty.Name})
	return faculty, nil
}

func (s *facultyService) GetFaculty(ctx context.Context, id int, category *models.MatchCategory) (*models.FacultyDetails, error) {
	scope := models.CategoryMen
	if category != nil {
		if !category.Valid() {
			return nil, validationError("unknown category %q", *category)
		}
		scope = *category
	}
	faculty, err := s.facultyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	populateCrestURL(faculty, s.uploader)

	// без активного сезона берём всю историю
	var seasonID *int
	active, err := s.seasonRepo.GetActive(ctx, nil)
	switch {
	case err == nil:
		seasonID = &active.ID
	case !errors.Is(err, repositories.ErrSeasonNotFound):
		return nil, err
	}

	finished := models.MatchStatusFinished
	history, err := s.matchRepo.List(ctx, models.MatchFilter{
		Status:    &finished,
		FacultyID: &id,
		Category:  &scope,
		SeasonID:  seasonID,
		Order:     models.OrderDateDesc,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load history of faculty %d: %w", id, err)
	}
	matches := matchValues(history)
	standings.SortMostRecentFirst(matches)
	streak := standings.ExactStreak(id, matches)

	return &models.FacultyDetails{
		Faculty:         *faculty,
		Category:        scope,
		SeasonID:        seasonID,
		ExactStreak:     streak.Length,
		ExactStreakKind: string(streak.Kind),
		RecentForm:      standings.Form(id, matches, recentFormLength),
	}, nil
}

func (s *facultyService) ListFaculties(ctx context.Context) ([]*models.Faculty, error) {
	faculties, err := s.facultyRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list faculties: %w", err)
	}
	for _, f := range faculties {
		populateCrestURL(f, s.uploader)
	}
	return faculties, nil
}

func (s *facultyService) UploadCrest(ctx context.Context, actor models.Identity, id int, file io.Reader, contentType string) (*models.Faculty, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if s.uploader == nil {
		return nil, ErrStorageNotConfigured
	}
	ext, err := GetExtensionFromContentType(contentType)
	if err != nil {
		return nil, err
	}
	faculty, err := s.facultyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	key := storage.CrestKey(id, ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload crest: %w", err)
	}
	if err := s.facultyRepo.UpdateCrestKey(ctx, id, &key); err != nil {
		if delErr := s.uploader.Delete(ctx, key); delErr != nil {
			s.logger.WarnContext(ctx, "Failed to delete orphaned crest", slog.String("key", key), slog.Any("error", delErr))
		}
		return nil, handleRepositoryError(err)
	}

	if oldKey := derefString(faculty.CrestKey); oldKey != "" && oldKey != key {
		if err := s.uploader.Delete(ctx, oldKey); err != nil {
			s.logger.WarnContext(ctx, "Failed to delete previous crest", slog.String("key", oldKey), slog.Any("error", err))
		}
	}

	faculty.CrestKey = &key
	populateCrestURL(faculty, s.uploader)
	s.activity.Record(ctx, actor, "faculty.crest", models.EntityFaculty, id, map[string]any{"key": key})
	return faculty, nil
}
