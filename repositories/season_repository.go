package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/faculty-league/models"
)

var (
	ErrSeasonNotFound      = errors.New("season not found")
	ErrSeasonActiveExists  = errors.New("an active season already exists")
	ErrSeasonStandingExist = errors.New("season standings already recorded")
)

type SeasonRepository interface {
	Create(ctx context.Context, exec SQLExecutor, season *models.Season) error
	GetByID(ctx context.Context, id int) (*models.Season, error)
	// GetActive returns ErrSeasonNotFound when no season is running.
	GetActive(ctx context.Context, exec SQLExecutor) (*models.Season, error)
	List(ctx context.Context) ([]*models.Season, error)
	Complete(ctx context.Context, exec SQLExecutor, id int, endedAt time.Time) error

	SaveStandings(ctx context.Context, exec SQLExecutor, standings []*models.SeasonStanding) error
	ListStandings(ctx context.Context, seasonID int, category *models.MatchCategory) ([]*models.SeasonStanding, error)
}

const seasonColumns = `id, name, status, started_at, ended_at`

type postgresSeasonRepository struct {
	db *sql.DB
}

func NewPostgresSeasonRepository(db *sql.DB) SeasonRepository {
	return &postgresSeasonRepository{db: db}
}

func (r *postgresSeasonRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func scanSeason(scanner rowScanner) (*models.Season, error) {
	var s models.Season
	if err := scanner.Scan(&s.ID, &s.Name, &s.Status, &s.StartedAt, &s.EndedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeasonNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *postgresSeasonRepository) Create(ctx context.Context, exec SQLExecutor, season *models.Season) error {
	query := `
		INSERT INTO seasons (name, status, started_at)
		VALUES ($1, $2, $3)
		RETURNING id`
	if season.StartedAt.IsZero() {
		season.StartedAt = time.Now().UTC()
	}
	err := r.getExecutor(exec).QueryRowContext(ctx, query, season.Name, season.Status, season.StartedAt).Scan(&season.ID)
	if err != nil {
		// seasons_one_active_idx is a partial unique index on status = 'ACTIVE'
		if constraint, ok := uniqueViolation(err); ok && constraint == "seasons_one_active_idx" {
			return ErrSeasonActiveExists
		}
		return err
	}
	return nil
}

func (r *postgresSeasonRepository) GetByID(ctx context.Context, id int) (*models.Season, error) {
	s, err := scanSeason(r.db.QueryRowContext(ctx, `SELECT `+seasonColumns+` FROM seasons WHERE id = $1`, id))
	if err != nil && !errors.Is(err, ErrSeasonNotFound) {
		return nil, fmt.Errorf("failed to scan season by id %d: %w", id, err)
	}
	return s, err
}

func (r *postgresSeasonRepository) GetActive(ctx context.Context, exec SQLExecutor) (*models.Season, error) {
	query := `SELECT ` + seasonColumns + ` FROM seasons WHERE status = $1 ORDER BY started_at DESC LIMIT 1`
	s, err := scanSeason(r.getExecutor(exec).QueryRowContext(ctx, query, models.SeasonStatusActive))
	if err != nil && !errors.Is(err, ErrSeasonNotFound) {
		return nil, fmt.Errorf("failed to load active season: %w", err)
	}
	return s, err
}

func (r *postgresSeasonRepository) List(ctx context.Context) ([]*models.Season, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+seasonColumns+` FROM seasons ORDER BY started_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list seasons: %w", err)
	}
	defer rows.Close()

	seasons := make([]*models.Season, 0)
	for rows.Next() {
		s, err := scanSeason(rows)
		if err != nil {
			return nil, err
		}
		seasons = append(seasons, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return seasons, nil
}

func (r *postgresSeasonRepository) Complete(ctx context.Context, exec SQLExecutor, id int, endedAt time.Time) error {
	query := `UPDATE seasons SET status = $1, ended_at = $2 WHERE id = $3 AND status = $4`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, models.SeasonStatusCompleted, endedAt, id, models.SeasonStatusActive)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrSeasonNotFound)
}

// SaveStandings writes the snapshot through one prepared statement. It is
// expected to run inside a transaction.
func (r *postgresSeasonRepository) SaveStandings(ctx context.Context, exec SQLExecutor, standings []*models.SeasonStanding) error {
	if len(standings) == 0 {
		return nil
	}
	tx, ok := r.getExecutor(exec).(*sql.Tx)
	if !ok {
		return errors.New("SaveStandings requires a transaction")
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO season_standings
			(season_id, faculty_id, category, position, played, won, drawn, lost,
			 goals_for, goals_against, goal_difference, points, current_streak)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at`)
	if err != nil {
		return fmt.Errorf("SaveStandings failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, s := range standings {
		err = stmt.QueryRowContext(ctx,
			s.SeasonID, s.FacultyID, s.Category, s.Position, s.Played, s.Won, s.Drawn, s.Lost,
			s.GoalsFor, s.GoalsAgainst, s.GoalDifference, s.Points, s.CurrentStreak,
		).Scan(&s.ID, &s.CreatedAt)
		if err != nil {
			if _, dup := uniqueViolation(err); dup {
				return ErrSeasonStandingExist
			}
			return fmt.Errorf("SaveStandings failed for faculty %d: %w", s.FacultyID, err)
		}
	}
	return nil
}

func (r *postgresSeasonRepository) ListStandings(ctx context.Context, seasonID int, category *models.MatchCategory) ([]*models.SeasonStanding, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT ss.id, ss.season_id, ss.faculty_id, ss.category, ss.position,
		       ss.played, ss.won, ss.drawn, ss.lost, ss.goals_for, ss.goals_against,
		       ss.goal_difference, ss.points, ss.current_streak, ss.created_at,
		       f.name, f.abbreviation, f.color_primary, f.color_secondary
		FROM season_standings ss
		JOIN faculties f ON f.id = ss.faculty_id
		WHERE ss.season_id = $1`)
	args := []interface{}{seasonID}
	if category != nil {
		args = append(args, *category)
		queryBuilder.WriteString(" AND ss.category = $2")
	}
	queryBuilder.WriteString(" ORDER BY ss.category ASC, ss.position ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list standings of season %d: %w", seasonID, err)
	}
	defer rows.Close()

	standings := make([]*models.SeasonStanding, 0)
	for rows.Next() {
		var s models.SeasonStanding
		f := &models.Faculty{}
		err := rows.Scan(
			&s.ID, &s.SeasonID, &s.FacultyID, &s.Category, &s.Position,
			&s.Played, &s.Won, &s.Drawn, &s.Lost, &s.GoalsFor, &s.GoalsAgainst,
			&s.GoalDifference, &s.Points, &s.CurrentStreak, &s.CreatedAt,
			&f.Name, &f.Abbreviation, &f.ColorPrimary, &f.ColorSecondary,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan season standing: %w", err)
		}
		f.ID = s.FacultyID
		s.Faculty = f
		standings = append(standings, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return standings, nil
}
