package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/faculty-league/livescore"
	"github.com/Dosada05/faculty-league/metrics"
	"github.com/Dosada05/faculty-league/models"
	"github.com/Dosada05/faculty-league/repositories"
	"github.com/Dosada05/faculty-league/schedule"
	"github.com/Dosada05/faculty-league/storage"
)

const maxVenueLength = 120

// LiveBroadcaster pushes events to connected live-score clients.
type LiveBroadcaster interface {
	Publish(eventType string, matchID int, payload interface{})
}

type noopBroadcaster struct{}

func (noopBroadcaster) Publish(string, int, interface{}) {}

type CreateMatchInput struct {
	HomeFacultyID int                     `json:"home_faculty_id"`
	AwayFacultyID int                     `json:"away_faculty_id"`
	Category      models.MatchCategory    `json:"category"`
	Importance    *models.MatchImportance `json:"importance"`
	SeasonID      *int                    `json:"season_id"`
	Venue         *string                 `json:"venue"`
	MatchDate     time.Time               `json:"match_date"`
}

// UpdateMatchInput is a partial update; nil fields are left unchanged.
type UpdateMatchInput struct {
	HomeFacultyID *int                    `json:"home_faculty_id"`
	AwayFacultyID *int                    `json:"away_faculty_id"`
	Category      *models.MatchCategory   `json:"category"`
	Importance    *models.MatchImportance `json:"importance"`
	SeasonID      *int                    `json:"season_id"`
	Venue         *string                 `json:"venue"`
	MatchDate     *time.Time              `json:"match_date"`
}

type UpdateScoreInput struct {
	Status      models.MatchStatus `json:"status"`
	ScoreHome   int                `json:"score_home"`
	ScoreAway   int                `json:"score_away"`
	MatchMinute int                `json:"match_minute"`
}

// ScoreUpdate is the outcome of UpdateScore. StatsEdit is empty when the
// faculty tables were not touched.
type ScoreUpdate struct {
	Match           *models.Match `json:"match"`
	StatsEdit       string        `json:"stats_edit,omitempty"`
	ClampedCounters []string      `json:"clamped_counters,omitempty"`
}

type MatchService interface {
	CreateMatch(ctx context.Context, actor models.Identity, input CreateMatchInput) (*models.Match, error)
	UpdateMatchDetails(ctx context.Context, actor models.Identity, id int, input UpdateMatchInput) (*models.Match, error)
	UpdateScore(ctx context.Context, actor models.Identity, id int, input UpdateScoreInput) (*ScoreUpdate, error)
	SetArchived(ctx context.Context, actor models.Identity, id int, archived bool) error
	GetMatch(ctx context.Context, id int) (*models.Match, error)
	ListMatches(ctx context.Context, filter models.MatchFilter) ([]*models.Match, error)
	// GenerateFixtures creates a PENDING round-robin calendar.
	GenerateFixtures(ctx context.Context, actor models.Identity, input GenerateFixturesInput) ([]*models.Match, error)
}

type matchService struct {
	tx          repositories.Transactor
	matchRepo   repositories.MatchRepository
	facultyRepo repositories.FacultyRepository
	seasonRepo  repositories.SeasonRepository
	stats       StatsService
	activity    ActivityService
	live        LiveBroadcaster
	uploader    storage.FileUploader
	scheduler   schedule.Generator
	metrics     *metrics.Manager
	logger      *slog.Logger
}

func NewMatchService(
	repos *repositories.Repositories,
	stats StatsService,
	activity ActivityService,
	live LiveBroadcaster,
	uploader storage.FileUploader,
	m *metrics.Manager,
	logger *slog.Logger,
) MatchService {
	if live == nil {
		live = noopBroadcaster{}
	}
	return &matchService{
		tx:          repos.Tx,
		matchRepo:   repos.Matches,
		facultyRepo: repos.Faculties,
		seasonRepo:  repos.Seasons,
		stats:       stats,
		activity:    activity,
		live:        live,
		uploader:    uploader,
		scheduler:   schedule.NewRoundRobinGenerator(),
		metrics:     m,
		logger:      logger,
	}
}

func isValidStatusTransition(current, next models.MatchStatus) bool {
	if current == next {
		return true
	}
	allowedTransitions := map[models.MatchStatus][]models.MatchStatus{
		models.MatchStatusPending:  {models.MatchStatusLive, models.MatchStatusFinished},
		models.MatchStatusLive:     {models.MatchStatusFinished},
		models.MatchStatusFinished: {},
	}
	for _, allowedNextStatus := range allowedTransitions[current] {
		if next == allowedNextStatus {
			return true
		}
	}
	return false
}

// statsEditFor decides which stat edit a score update implies. Matches that
// do not affect standings never touch the faculty tables.
func statsEditFor(before *models.Match, input UpdateScoreInput) ResultEdit {
	edit := ResultEdit{HomeFacultyID: before.HomeFacultyID, AwayFacultyID: before.AwayFacultyID}
	if !before.AffectsStandings() || input.Status != models.MatchStatusFinished {
		return edit
	}
	next := Score{Home: input.ScoreHome, Away: input.ScoreAway}
	if before.Status != models.MatchStatusFinished {
		edit.Next = &next
		return edit
	}
	if before.ScoreHome == input.ScoreHome && before.ScoreAway == input.ScoreAway {
		return edit
	}
	edit.Previous = &Score{Home: before.ScoreHome, Away: before.ScoreAway}
	edit.Next = &next
	return edit
}

func validateClassification(category models.MatchCategory, importance *models.MatchImportance) error {
	if !category.Valid() {
		return validationError("unknown category %q", category)
	}
	if importance != nil && !importance.Valid() {
		return validationError("unknown importance %q", *importance)
	}
	return nil
}

func normalizeVenue(venue *string) (*string, error) {
	if venue == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*venue)
	if trimmed == "" {
		return nil, nil
	}
	if len(trimmed) > maxVenueLength {
		return nil, validationError("venue must be at most %d characters", maxVenueLength)
	}
	return &trimmed, nil
}

func (s *matchService) ensureFaculties(ctx context.Context, ids ...int) error {
	for _, id := range ids {
		if _, err := s.facultyRepo.GetByID(ctx, id); err != nil {
			return handleRepositoryError(err)
		}
	}
	return nil
}

// ensureSeasonActive rejects completed seasons: their table is frozen and
// the faculty counters already belong to the next season.
func (s *matchService) ensureSeasonActive(ctx context.Context, seasonID int) error {
	season, err := s.seasonRepo.GetByID(ctx, seasonID)
	if err != nil {
		return handleRepositoryError(err)
	}
	if season.Status != models.SeasonStatusActive {
		return fmt.Errorf("%w: season %d is %s", ErrSeasonNotActive, seasonID, season.Status)
	}
	return nil
}

func (s *matchService) resolveSeason(ctx context.Context, seasonID *int) (*int, error) {
	if seasonID != nil {
		if err := s.ensureSeasonActive(ctx, *seasonID); err != nil {
			return nil, err
		}
		return seasonID, nil
	}
	active, err := s.seasonRepo.GetActive(ctx, nil)
	if errors.Is(err, repositories.ErrSeasonNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &active.ID, nil
}

func (s *matchService) CreateMatch(ctx context.Context, actor models.Identity, input CreateMatchInput) (*models.Match, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if input.HomeFacultyID <= 0 || input.AwayFacultyID <= 0 {
		return nil, validationError("home_faculty_id and away_faculty_id are required")
	}
	if input.HomeFacultyID == input.AwayFacultyID {
		return nil, ErrSameFaculty
	}
	if err := validateClassification(input.Category, input.Importance); err != nil {
		return nil, err
	}
	if input.MatchDate.IsZero() {
		return nil, validationError("match_date is required")
	}
	venue, err := normalizeVenue(input.Venue)
	if err != nil {
		return nil, err
	}

	if err := s.ensureFaculties(ctx, input.HomeFacultyID, input.AwayFacultyID); err != nil {
		return nil, err
	}
	seasonID, err := s.resolveSeason(ctx, input.SeasonID)
	if err != nil {
		return nil, err
	}

	match := &models.Match{
		HomeFacultyID: input.HomeFacultyID,
		AwayFacultyID: input.AwayFacultyID,
		Category:      input.Category,
		Importance:    input.Importance,
		SeasonID:      seasonID,
		Venue:         venue,
		MatchDate:     input.MatchDate.UTC(),
		Status:        models.MatchStatusPending,
	}
	if err := s.matchRepo.Create(ctx, match); err != nil {
		return nil, handleRepositoryError(err)
	}

	s.activity.Record(ctx, actor, "match.create", models.EntityMatch, match.ID, map[string]any{
		"home_faculty_id": match.HomeFacultyID,
		"away_faculty_id": match.AwayFacultyID,
		"category":        match.Category,
		"match_date":      match.MatchDate,
	})
	s.attachFaculties(ctx, match)
	s.live.Publish(livescore.EventMatchCreated, match.ID, match)
	return match, nil
}

func (s *matchService) UpdateMatchDetails(ctx context.Context, actor models.Identity, id int, input UpdateMatchInput) (*models.Match, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if input.Category != nil && !input.Category.Valid() {
		return nil, validationError("unknown category %q", *input.Category)
	}
	if input.Importance != nil && !input.Importance.Valid() {
		return nil, validationError("unknown importance %q", *input.Importance)
	}
	if input.MatchDate != nil && input.MatchDate.IsZero() {
		return nil, validationError("match_date must not be empty")
	}
	venue, err := normalizeVenue(input.Venue)
	if err != nil {
		return nil, err
	}

	var updated *models.Match
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		match, err := s.matchRepo.LockForUpdate(ctx, exec, id)
		if err != nil {
			return handleRepositoryError(err)
		}
		// faculties, importance and category feed the standings once finished
		if match.Status == models.MatchStatusFinished {
			return ErrMatchFinished
		}
		if input.HomeFacultyID != nil {
			match.HomeFacultyID = *input.HomeFacultyID
		}
		if input.AwayFacultyID != nil {
			match.AwayFacultyID = *input.AwayFacultyID
		}
		if match.HomeFacultyID == match.AwayFacultyID {
			return ErrSameFaculty
		}
		if input.Category != nil {
			match.Category = *input.Category
		}
		if input.Importance != nil {
			match.Importance = input.Importance
		}
		if input.SeasonID != nil {
			if err := s.ensureSeasonActive(ctx, *input.SeasonID); err != nil {
				return err
			}
			match.SeasonID = input.SeasonID
		}
		if input.Venue != nil {
			match.Venue = venue
		}
		if input.MatchDate != nil {
			match.MatchDate = input.MatchDate.UTC()
		}
		if err := s.ensureFaculties(ctx, match.HomeFacultyID, match.AwayFacultyID); err != nil {
			return err
		}
		if err := s.matchRepo.Update(ctx, exec, match); err != nil {
			return handleRepositoryError(err)
		}
		updated = match
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, actor, "match.update", models.EntityMatch, updated.ID, map[string]any{"fields": input})
	s.attachFaculties(ctx, updated)
	s.live.Publish(livescore.EventMatchUpdated, updated.ID, updated)
	return updated, nil
}

func (s *matchService) UpdateScore(ctx context.Context, actor models.Identity, id int, input UpdateScoreInput) (*ScoreUpdate, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !input.Status.Valid() {
		return nil, validationError("unknown status %q", input.Status)
	}
	if input.ScoreHome < 0 || input.ScoreAway < 0 {
		return nil, validationError("scores must not be negative")
	}
	if input.MatchMinute < 0 {
		return nil, validationError("match_minute must not be negative")
	}

	result := &ScoreUpdate{}
	var edit ResultEdit
	var previousStatus models.MatchStatus
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		match, err := s.matchRepo.LockForUpdate(ctx, exec, id)
		if err != nil {
			return handleRepositoryError(err)
		}
		if !isValidStatusTransition(match.Status, input.Status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, match.Status, input.Status)
		}
		previousStatus = match.Status

		edit = statsEditFor(match, input)
		if edit.Kind() != "" && match.SeasonID != nil {
			if err := s.ensureSeasonActive(ctx, *match.SeasonID); err != nil {
				return err
			}
		}
		change, err := s.stats.CommitResult(ctx, exec, edit)
		if err != nil {
			return err
		}
		if change != nil {
			result.ClampedCounters = append(append([]string(nil), change.Report.HomeClamped...), change.Report.AwayClamped...)
		}

		now := time.Now().UTC()
		if input.Status == models.MatchStatusLive && match.Status != models.MatchStatusLive {
			match.StartedAt = &now
		}
		if input.Status == models.MatchStatusFinished && match.Status != models.MatchStatusFinished {
			match.FinishedAt = &now
		}
		match.Status = input.Status
		match.ScoreHome = input.ScoreHome
		match.ScoreAway = input.ScoreAway
		match.MatchMinute = input.MatchMinute
		if err := s.matchRepo.Update(ctx, exec, match); err != nil {
			return handleRepositoryError(err)
		}
		result.Match = match
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.StatsEdit = edit.Kind()
	s.metrics.ScoreUpdated(string(input.Status))
	if result.StatsEdit != "" {
		s.metrics.StatCommitted(result.StatsEdit)
	}
	s.activity.Record(ctx, actor, "match.score", models.EntityMatch, id, map[string]any{
		"previous_status": previousStatus,
		"status":          input.Status,
		"score_home":      input.ScoreHome,
		"score_away":      input.ScoreAway,
		"stats_edit":      result.StatsEdit,
	})

	s.attachFaculties(ctx, result.Match)
	s.live.Publish(livescore.EventMatchUpdated, id, result.Match)
	if result.StatsEdit != "" {
		s.live.Publish(livescore.EventStandingsUpdated, 0, map[string]any{
			"category":  result.Match.Category,
			"season_id": result.Match.SeasonID,
		})
	}
	return result, nil
}

func (s *matchService) SetArchived(ctx context.Context, actor models.Identity, id int, archived bool) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.matchRepo.SetArchived(ctx, id, archived); err != nil {
		return handleRepositoryError(err)
	}
	action := "match.archive"
	if !archived {
		action = "match.unarchive"
	}
	s.activity.Record(ctx, actor, action, models.EntityMatch, id, nil)
	s.live.Publish(livescore.EventMatchUpdated, id, map[string]any{"id": id, "is_archived": archived})
	return nil
}

func (s *matchService) GetMatch(ctx context.Context, id int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	s.attachFaculties(ctx, match)
	return match, nil
}

func (s *matchService) ListMatches(ctx context.Context, filter models.MatchFilter) ([]*models.Match, error) {
	matches, err := s.matchRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	s.attachFaculties(ctx, matches...)
	return matches, nil
}

// attachFaculties fills HomeFaculty/AwayFaculty. Failures only cost the
// embedded details, so they are logged rather than returned.
func (s *matchService) attachFaculties(ctx context.Context, matches ...*models.Match) {
	if len(matches) == 0 {
		return
	}
	faculties, err := s.facultyRepo.List(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to load faculties for matches", slog.Any("error", err))
		return
	}
	for _, f := range faculties {
		populateCrestURL(f, s.uploader)
	}
	attachFacultyMap(faculties, matches)
}
