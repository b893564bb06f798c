package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Dosada05/faculty-league/models"
)

var (
	ErrMatchNotFound       = errors.New("match not found")
	ErrMatchFacultyInvalid = errors.New("match faculty or season reference is invalid")
)

type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	List(ctx context.Context, filter models.MatchFilter) ([]*models.Match, error)
	Count(ctx context.Context, filter models.MatchFilter) (int, error)
	SetArchived(ctx context.Context, id int, archived bool) error

	LockForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	Update(ctx context.Context, exec SQLExecutor, match *models.Match) error
}

const matchColumns = `id, home_faculty_id, away_faculty_id, category, importance, season_id, venue,
	match_date, started_at, finished_at, status, score_home, score_away, match_minute, is_archived,
	created_at, updated_at`

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func scanMatch(scanner rowScanner) (*models.Match, error) {
	var m models.Match
	err := scanner.Scan(
		&m.ID, &m.HomeFacultyID, &m.AwayFacultyID, &m.Category, &m.Importance, &m.SeasonID, &m.Venue,
		&m.MatchDate, &m.StartedAt, &m.FinishedAt, &m.Status, &m.ScoreHome, &m.ScoreAway, &m.MatchMinute, &m.IsArchived,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if foreignKeyViolation(err) {
		return ErrMatchFacultyInvalid
	}
	return err
}

func (r *postgresMatchRepository) Create(ctx context.Context, match *models.Match) error {
	query := `
		INSERT INTO matches
			(home_faculty_id, away_faculty_id, category, importance, season_id, venue,
			 match_date, status, score_home, score_away, match_minute)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		match.HomeFacultyID, match.AwayFacultyID, match.Category, match.Importance, match.SeasonID, match.Venue,
		match.MatchDate, match.Status, match.ScoreHome, match.ScoreAway, match.MatchMinute,
	).Scan(&match.ID, &match.CreatedAt, &match.UpdatedAt)
	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	m, err := scanMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil && !errors.Is(err, ErrMatchNotFound) {
		return nil, fmt.Errorf("failed to scan match by id %d: %w", id, err)
	}
	return m, err
}

func (r *postgresMatchRepository) LockForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1 FOR UPDATE`
	m, err := scanMatch(r.getExecutor(exec).QueryRowContext(ctx, query, id))
	if err != nil && !errors.Is(err, ErrMatchNotFound) {
		return nil, fmt.Errorf("failed to lock match %d: %w", id, err)
	}
	return m, err
}

func (r *postgresMatchRepository) Update(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		UPDATE matches SET
			home_faculty_id = $1, away_faculty_id = $2, category = $3, importance = $4, season_id = $5, venue = $6,
			match_date = $7, started_at = $8, finished_at = $9, status = $10,
			score_home = $11, score_away = $12, match_minute = $13, updated_at = NOW()
		WHERE id = $14
		RETURNING updated_at`
	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		match.HomeFacultyID, match.AwayFacultyID, match.Category, match.Importance, match.SeasonID, match.Venue,
		match.MatchDate, match.StartedAt, match.FinishedAt, match.Status,
		match.ScoreHome, match.ScoreAway, match.MatchMinute, match.ID,
	).Scan(&match.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrMatchNotFound
	}
	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) SetArchived(ctx context.Context, id int, archived bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE matches SET is_archived = $1, updated_at = NOW() WHERE id = $2`, archived, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

// buildMatchWhere renders the filter as a WHERE clause with numbered placeholders.
func buildMatchWhere(filter models.MatchFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, strings.Replace(cond, "?", "$"+strconv.Itoa(len(args)), -1))
	}

	if filter.Status != nil {
		add("status = ?", *filter.Status)
	}
	if filter.Category != nil {
		add("category = ?", *filter.Category)
	}
	if filter.SeasonID != nil {
		add("season_id = ?", *filter.SeasonID)
	}
	if filter.Importance != nil {
		add("importance = ?", *filter.Importance)
	}
	if filter.FacultyID != nil {
		add("(home_faculty_id = ? OR away_faculty_id = ?)", *filter.FacultyID)
	}
	if filter.Archived != nil {
		add("is_archived = ?", *filter.Archived)
	}
	if filter.From != nil {
		add("match_date >= ?", *filter.From)
	}
	if filter.To != nil {
		add("match_date < ?", *filter.To)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func (r *postgresMatchRepository) List(ctx context.Context, filter models.MatchFilter) ([]*models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + matchColumns + ` FROM matches`)
	where, args := buildMatchWhere(filter)
	queryBuilder.WriteString(where)

	if filter.Order == models.OrderDateAsc {
		queryBuilder.WriteString(" ORDER BY match_date ASC, id ASC")
	} else {
		queryBuilder.WriteString(" ORDER BY match_date DESC, id DESC")
	}
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		queryBuilder.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	}

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *postgresMatchRepository) Count(ctx context.Context, filter models.MatchFilter) (int, error) {
	where, args := buildMatchWhere(filter)
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM matches`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count matches: %w", err)
	}
	return count, nil
}
