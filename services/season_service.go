package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/faculty-league/livescore"
	"github.com/Dosada05/faculty-league/models"
	"github.com/Dosada05/faculty-league/repositories"
	"github.com/Dosada05/faculty-league/standings"
)

// SeasonSummary is returned when a season is closed.
type SeasonSummary struct {
	Season    *models.Season           `json:"season"`
	Standings []*models.SeasonStanding `json:"standings"`
}

type SeasonService interface {
	StartSeason(ctx context.Context, actor models.Identity, name string) (*models.Season, error)
	// EndSeason freezes the table of every category, awards honours to the
	// top three, resets all faculty counters and marks the season COMPLETED.
	EndSeason(ctx context.Context, actor models.Identity, id int) (*SeasonSummary, error)
	ListSeasons(ctx context.Context) ([]*models.Season, error)
	GetActiveSeason(ctx context.Context) (*models.Season, error)
	GetSeasonStandings(ctx context.Context, id int, category *models.MatchCategory) ([]*models.SeasonStanding, error)
}

type seasonService struct {
	tx          repositories.Transactor
	seasonRepo  repositories.SeasonRepository
	facultyRepo repositories.FacultyRepository
	matchRepo   repositories.MatchRepository
	activity    ActivityService
	live        LiveBroadcaster
	logger      *slog.Logger
}

func NewSeasonService(repos *repositories.Repositories, activity ActivityService, live LiveBroadcaster, logger *slog.Logger) SeasonService {
	if live == nil {
		live = noopBroadcaster{}
	}
	return &seasonService{
		tx:          repos.Tx,
		seasonRepo:  repos.Seasons,
		facultyRepo: repos.Faculties,
		matchRepo:   repos.Matches,
		activity:    activity,
		live:        live,
		logger:      logger,
	}
}

func (s *seasonService) StartSeason(ctx context.Context, actor models.Identity, name string) (*models.Season, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("season name is required")
	}

	if _, err := s.seasonRepo.GetActive(ctx, nil); err == nil {
		return nil, ErrSeasonAlreadyActive
	} else if !errors.Is(err, repositories.ErrSeasonNotFound) {
		return nil, err
	}

	season := &models.Season{Name: name, Status: models.SeasonStatusActive, StartedAt: time.Now().UTC()}
	if err := s.seasonRepo.Create(ctx, nil, season); err != nil {
		return nil, handleRepositoryError(err)
	}
	s.activity.Record(ctx, actor, "season.start", models.EntitySeason, season.ID, map[string]any{"name": season.Name})
	s.live.Publish(livescore.EventSeasonChanged, 0, season)
	return season, nil
}

// honoursByPosition maps a final position to the badge it earns.
func honoursByPosition(position int) (repositories.Honours, bool) {
	switch position {
	case 1:
		return repositories.Honours{Championships: 1}, true
	case 2:
		return repositories.Honours{RunnerUp: 1}, true
	case 3:
		return repositories.Honours{ThirdPlace: 1}, true
	}
	return repositories.Honours{}, false
}

func (s *seasonService) EndSeason(ctx context.Context, actor models.Identity, id int) (*SeasonSummary, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	season, err := s.seasonRepo.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if season.Status != models.SeasonStatusActive {
		return nil, ErrSeasonNotActive
	}

	var snapshot []*models.SeasonStanding
	endedAt := time.Now().UTC()
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		faculties, err := s.facultyRepo.List(ctx)
		if err != nil {
			return err
		}
		finished := models.MatchStatusFinished
		matches, err := s.matchRepo.List(ctx, models.MatchFilter{SeasonID: &id, Status: &finished})
		if err != nil {
			return err
		}
		allFaculties, allMatches := facultyValues(faculties), matchValues(matches)

		honours := make(map[int]repositories.Honours)
		for _, category := range models.Categories {
			category := category
			rows := standings.Build(allFaculties, allMatches, standings.Scope{SeasonID: &id, Category: &category})
			for _, row := range rows {
				snapshot = append(snapshot, &models.SeasonStanding{
					SeasonID:     id,
					FacultyID:    row.FacultyID,
					Category:     category,
					Position:     row.Position,
					FacultyStats: row.FacultyStats,
				})
				if award, ok := honoursByPosition(row.Position); ok {
					h := honours[row.FacultyID]
					h.Championships += award.Championships
					h.RunnerUp += award.RunnerUp
					h.ThirdPlace += award.ThirdPlace
					honours[row.FacultyID] = h
				}
			}
		}

		if err := s.seasonRepo.SaveStandings(ctx, exec, snapshot); err != nil {
			return fmt.Errorf("failed to save season standings: %w", err)
		}
		for facultyID, h := range honours {
			if err := s.facultyRepo.AddHonours(ctx, exec, facultyID, h); err != nil {
				return handleRepositoryError(err)
			}
		}
		if err := s.facultyRepo.ResetStats(ctx, exec); err != nil {
			return fmt.Errorf("failed to reset faculty stats: %w", err)
		}
		if err := s.seasonRepo.Complete(ctx, exec, id, endedAt); err != nil {
			if errors.Is(err, repositories.ErrSeasonNotFound) {
				return ErrSeasonNotActive
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	season.Status = models.SeasonStatusCompleted
	season.EndedAt = &endedAt
	s.activity.Record(ctx, actor, "season.end", models.EntitySeason, id, map[string]any{"rows": len(snapshot)})
	s.live.Publish(livescore.EventSeasonChanged, 0, season)
	s.live.Publish(livescore.EventStandingsUpdated, 0, map[string]any{"season_id": id})
	return &SeasonSummary{Season: season, Standings: snapshot}, nil
}

func (s *seasonService) ListSeasons(ctx context.Context) ([]*models.Season, error) {
	return s.seasonRepo.List(ctx)
}

func (s *seasonService) GetActiveSeason(ctx context.Context) (*models.Season, error) {
	season, err := s.seasonRepo.GetActive(ctx, nil)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return season, nil
}

func (s *seasonService) GetSeasonStandings(ctx context.Context, id int, category *models.MatchCategory) ([]*models.SeasonStanding, error) {
	if category != nil && !category.Valid() {
		return nil, validationError("unknown category %q", *category)
	}
	if _, err := s.seasonRepo.GetByID(ctx, id); err != nil {
		return nil, handleRepositoryError(err)
	}
	return s.seasonRepo.ListStandings(ctx, id, category)
}
