package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/faculty-league/metrics"
	"github.com/Dosada05/faculty-league/models"
	"github.com/Dosada05/faculty-league/repositories"
	"github.com/Dosada05/faculty-league/standings"
)

// Score is a final result as home/away goals.
type Score struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// ResultEdit describes one change to the stats of a pair of faculties:
// Previous is reversed (if set), then Next is applied (if set).
type ResultEdit struct {
	HomeFacultyID int
	AwayFacultyID int
	Previous      *Score
	Next          *Score
}

// Kind names the edit for metrics; empty when the edit does nothing.
func (e ResultEdit) Kind() string {
	switch {
	case e.Previous != nil && e.Next != nil:
		return metrics.EditReplace
	case e.Previous != nil:
		return metrics.EditReverse
	case e.Next != nil:
		return metrics.EditApply
	}
	return ""
}

type StatsChange struct {
	Home   models.FacultyStats
	Away   models.FacultyStats
	Report standings.ReversalReport
}

// StatsService is the single entry point that mutates faculty cumulative stats.
type StatsService interface {
	// CommitResult locks both faculty rows and writes the edit through exec.
	// It must run inside the caller's transaction.
	CommitResult(ctx context.Context, exec repositories.SQLExecutor, edit ResultEdit) (*StatsChange, error)
	ApplyMatchResult(ctx context.Context, homeFacultyID, awayFacultyID int, score Score) error
	ReverseMatchResult(ctx context.Context, homeFacultyID, awayFacultyID int, score Score) error
}

type statsService struct {
	tx          repositories.Transactor
	facultyRepo repositories.FacultyRepository
	mode        standings.ReversalMode
	metrics     *metrics.Manager
	logger      *slog.Logger
}

func NewStatsService(
	tx repositories.Transactor,
	facultyRepo repositories.FacultyRepository,
	mode standings.ReversalMode,
	m *metrics.Manager,
	logger *slog.Logger,
) StatsService {
	return &statsService{
		tx:          tx,
		facultyRepo: facultyRepo,
		mode:        mode,
		metrics:     m,
		logger:      logger,
	}
}

func validateScore(s *Score) error {
	if s == nil {
		return nil
	}
	if s.Home < 0 || s.Away < 0 {
		return fmt.Errorf("%w: %w", ErrValidationFailed, standings.ErrNegativeScore)
	}
	return nil
}

func (s *statsService) CommitResult(ctx context.Context, exec repositories.SQLExecutor, edit ResultEdit) (*StatsChange, error) {
	if edit.Kind() == "" {
		return nil, nil
	}
	if edit.HomeFacultyID == edit.AwayFacultyID {
		return nil, ErrSameFaculty
	}
	if err := validateScore(edit.Previous); err != nil {
		return nil, err
	}
	if err := validateScore(edit.Next); err != nil {
		return nil, err
	}

	locked, err := s.facultyRepo.LockForUpdate(ctx, exec, edit.HomeFacultyID, edit.AwayFacultyID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	home := locked[edit.HomeFacultyID].FacultyStats
	away := locked[edit.AwayFacultyID].FacultyStats

	change := &StatsChange{}
	if edit.Previous != nil {
		var report standings.ReversalReport
		home, away, report, err = standings.ReverseResult(home, away, edit.Previous.Home, edit.Previous.Away, s.mode)
		change.Report = report
		if err != nil {
			s.metrics.ReversalRejected()
			s.logger.WarnContext(ctx, "Stat reversal rejected",
				slog.Int("home_faculty_id", edit.HomeFacultyID),
				slog.Int("away_faculty_id", edit.AwayFacultyID),
				slog.Any("error", err),
			)
			if errors.Is(err, standings.ErrReversalUnderflow) {
				return nil, fmt.Errorf("%w: %w", ErrStatsReversalRejected, err)
			}
			return nil, err
		}
		if report.Clamped() {
			s.metrics.ReversalClamped()
			s.logger.WarnContext(ctx, "Stat reversal clamped counters at zero",
				slog.Int("home_faculty_id", edit.HomeFacultyID),
				slog.Int("away_faculty_id", edit.AwayFacultyID),
				slog.Any("home_clamped", report.HomeClamped),
				slog.Any("away_clamped", report.AwayClamped),
			)
		}
	}
	if edit.Next != nil {
		home, away = standings.ApplyResult(home, away, edit.Next.Home, edit.Next.Away)
	}

	if err := s.facultyRepo.UpdateStats(ctx, exec, edit.HomeFacultyID, home); err != nil {
		return nil, handleRepositoryError(err)
	}
	if err := s.facultyRepo.UpdateStats(ctx, exec, edit.AwayFacultyID, away); err != nil {
		return nil, handleRepositoryError(err)
	}
	change.Home, change.Away = home, away
	return change, nil
}

func (s *statsService) commitAlone(ctx context.Context, edit ResultEdit) error {
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		_, err := s.CommitResult(ctx, exec, edit)
		return err
	})
	if err != nil {
		return err
	}
	s.metrics.StatCommitted(edit.Kind())
	return nil
}

func (s *statsService) ApplyMatchResult(ctx context.Context, homeFacultyID, awayFacultyID int, score Score) error {
	return s.commitAlone(ctx, ResultEdit{HomeFacultyID: homeFacultyID, AwayFacultyID: awayFacultyID, Next: &score})
}

func (s *statsService) ReverseMatchResult(ctx context.Context, homeFacultyID, awayFacultyID int, score Score) error {
	return s.commitAlone(ctx, ResultEdit{HomeFacultyID: homeFacultyID, AwayFacultyID: awayFacultyID, Previous: &score})
}
