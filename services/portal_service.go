package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/faculty-league/metrics"
	"github.com/Dosada05/faculty-league/models"
	"github.com/Dosada05/faculty-league/repositories"
	"github.com/Dosada05/faculty-league/standings"
	"github.com/Dosada05/faculty-league/storage"
	"golang.org/x/sync/errgroup"
)

const (
	homeUpcomingLimit = 6
	homeRecentLimit   = 6
)

// PortalScope selects the category and season of a public view. A nil
// SeasonID means the active season; an empty category means men.
type PortalScope struct {
	Category models.MatchCategory `json:"category"`
	SeasonID *int                 `json:"season_id,omitempty"`
}

type HomeData struct {
	Scope           PortalScope        `json:"scope"`
	LiveMatches     []*models.Match    `json:"live_matches"`
	UpcomingMatches []*models.Match    `json:"upcoming_matches"`
	RecentMatches   []*models.Match    `json:"recent_matches"`
	Standings       []standings.Row    `json:"standings"`
	Stats           models.PortalStats `json:"stats"`
}

// FixtureQuery filters the public fixture list. Nil fields do not filter.
type FixtureQuery struct {
	Scope     PortalScope
	Status    *models.MatchStatus
	FacultyID *int
	From      *time.Time
	To        *time.Time
	Limit     int
}

type PortalService interface {
	Home(ctx context.Context, scope PortalScope) (*HomeData, error)
	Standings(ctx context.Context, scope PortalScope) ([]standings.Row, error)
	Fixtures(ctx context.Context, query FixtureQuery) ([]*models.Match, error)
}

type portalService struct {
	facultyRepo repositories.FacultyRepository
	matchRepo   repositories.MatchRepository
	seasonRepo  repositories.SeasonRepository
	uploader    storage.FileUploader
	metrics     *metrics.Manager
	logger      *slog.Logger
	now         func() time.Time
}

func NewPortalService(repos *repositories.Repositories, uploader storage.FileUploader, m *metrics.Manager, logger *slog.Logger) PortalService {
	return &portalService{
		facultyRepo: repos.Faculties,
		matchRepo:   repos.Matches,
		seasonRepo:  repos.Seasons,
		uploader:    uploader,
		metrics:     m,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *portalService) resolveScope(ctx context.Context, scope PortalScope) (PortalScope, error) {
	if scope.Category == "" {
		scope.Category = models.CategoryMen
	}
	if !scope.Category.Valid() {
		return scope, validationError("unknown category %q", scope.Category)
	}
	if scope.SeasonID != nil {
		return scope, nil
	}
	active, err := s.seasonRepo.GetActive(ctx, nil)
	if err != nil {
		if errors.Is(err, repositories.ErrSeasonNotFound) {
			return scope, nil
		}
		return scope, err
	}
	scope.SeasonID = &active.ID
	return scope, nil
}

func (s *portalService) Home(ctx context.Context, scope PortalScope) (*HomeData, error) {
	started := time.Now()
	scope, err := s.resolveScope(ctx, scope)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	notArchived := false
	live, pending, finished := models.MatchStatusLive, models.MatchStatusPending, models.MatchStatusFinished

	data := &HomeData{Scope: scope}
	var faculties []*models.Faculty
	var finishedMatches []*models.Match

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		faculties, err = s.facultyRepo.List(gCtx)
		if err != nil {
			return fmt.Errorf("failed to load faculties: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		data.LiveMatches, err = s.matchRepo.List(gCtx, models.MatchFilter{
			Status:   &live,
			Category: &scope.Category,
			Order:    models.OrderDateAsc,
		})
		if err != nil {
			return fmt.Errorf("failed to load live matches: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		data.UpcomingMatches, err = s.matchRepo.List(gCtx, models.MatchFilter{
			Status:   &pending,
			Category: &scope.Category,
			Archived: &notArchived,
			From:     &now,
			Order:    models.OrderDateAsc,
			Limit:    homeUpcomingLimit,
		})
		if err != nil {
			return fmt.Errorf("failed to load upcoming matches: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		finishedMatches, err = s.matchRepo.List(gCtx, models.MatchFilter{
			Status:   &finished,
			Category: &scope.Category,
			SeasonID: scope.SeasonID,
			Order:    models.OrderDateDesc,
		})
		if err != nil {
			return fmt.Errorf("failed to load finished matches: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		data.Stats.TotalMatches, err = s.matchRepo.Count(gCtx, models.MatchFilter{Category: &scope.Category, SeasonID: scope.SeasonID})
		if err != nil {
			return fmt.Errorf("failed to count matches: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		data.Stats.UpcomingMatches, err = s.matchRepo.Count(gCtx, models.MatchFilter{Status: &pending, Category: &scope.Category, SeasonID: scope.SeasonID})
		if err != nil {
			return fmt.Errorf("failed to count upcoming matches: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, f := range faculties {
		populateCrestURL(f, s.uploader)
	}
	data.Standings = standings.Build(facultyValues(faculties), matchValues(finishedMatches), standings.Scope{
		SeasonID: scope.SeasonID,
		Category: &scope.Category,
	})

	data.RecentMatches = make([]*models.Match, 0, homeRecentLimit)
	for _, m := range finishedMatches {
		data.Stats.TotalGoals += m.ScoreHome + m.ScoreAway
		if !m.IsArchived && len(data.RecentMatches) < homeRecentLimit {
			data.RecentMatches = append(data.RecentMatches, m)
		}
	}
	data.Stats.FinishedMatches = len(finishedMatches)
	data.Stats.LiveMatches = len(data.LiveMatches)
	data.Stats.Faculties = len(faculties)
	if data.Stats.FinishedMatches > 0 {
		data.Stats.GoalsPerMatch = float64(data.Stats.TotalGoals) / float64(data.Stats.FinishedMatches)
	}

	attachFacultyMap(faculties, data.LiveMatches, data.UpcomingMatches, data.RecentMatches)
	s.metrics.ObservePortalLoad(time.Since(started))
	return data, nil
}

func (s *portalService) Standings(ctx context.Context, scope PortalScope) ([]standings.Row, error) {
	scope, err := s.resolveScope(ctx, scope)
	if err != nil {
		return nil, err
	}
	finished := models.MatchStatusFinished

	var faculties []*models.Faculty
	var matches []*models.Match
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		faculties, err = s.facultyRepo.List(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		matches, err = s.matchRepo.List(gCtx, models.MatchFilter{Status: &finished, Category: &scope.Category, SeasonID: scope.SeasonID})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load standings data: %w", err)
	}

	for _, f := range faculties {
		populateCrestURL(f, s.uploader)
	}
	return standings.Build(facultyValues(faculties), matchValues(matches), standings.Scope{
		SeasonID: scope.SeasonID,
		Category: &scope.Category,
	}), nil
}

func (s *portalService) Fixtures(ctx context.Context, query FixtureQuery) ([]*models.Match, error) {
	scope, err := s.resolveScope(ctx, query.Scope)
	if err != nil {
		return nil, err
	}
	if query.Status != nil && !query.Status.Valid() {
		return nil, validationError("unknown status %q", *query.Status)
	}
	notArchived := false
	matches, err := s.matchRepo.List(ctx, models.MatchFilter{
		Status:    query.Status,
		Category:  &scope.Category,
		SeasonID:  scope.SeasonID,
		FacultyID: query.FacultyID,
		Archived:  &notArchived,
		From:      query.From,
		To:        query.To,
		Order:     models.OrderDateAsc,
		Limit:     query.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list fixtures: %w", err)
	}
	faculties, err := s.facultyRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load faculties: %w", err)
	}
	for _, f := range faculties {
		populateCrestURL(f, s.uploader)
	}
	attachFacultyMap(faculties, matches)
	return matches, nil
}

func attachFacultyMap(faculties []*models.Faculty, groups ...[]*models.Match) {
	byID := make(map[int]*models.Faculty, len(faculties))
	for _, f := range faculties {
		byID[f.ID] = f
	}
	for _, matches := range groups {
		for _, m := range matches {
			m.HomeFaculty = byID[m.HomeFacultyID]
			m.AwayFaculty = byID[m.AwayFacultyID]
		}
	}
}
