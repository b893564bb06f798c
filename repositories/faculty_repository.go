package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/Dosada05/faculty-league/models"
	"github.com/lib/pq"
)

var (
	ErrFacultyNotFound     = errors.New("faculty not found")
	ErrFacultyNameConflict = errors.New("faculty name conflict")
)

// Honours are added to a faculty's badge counters at season end.
type Honours struct {
	Championships int
	RunnerUp      int
	ThirdPlace    int
}

type FacultyRepository interface {
	Create(ctx context.Context, faculty *models.Faculty) error
	GetByID(ctx context.Context, id int) (*models.Faculty, error)
	List(ctx context.Context) ([]*models.Faculty, error)
	UpdateDetails(ctx context.Context, faculty *models.Faculty) error
	UpdateCrestKey(ctx context.Context, id int, crestKey *string) error

	// LockForUpdate loads the rows and holds them until the transaction ends.
	// Missing ids yield ErrFacultyNotFound.
	LockForUpdate(ctx context.Context, exec SQLExecutor, ids ...int) (map[int]*models.Faculty, error)
	UpdateStats(ctx context.Context, exec SQLExecutor, id int, stats models.FacultyStats) error
	ResetStats(ctx context.Context, exec SQLExecutor) error
	AddHonours(ctx context.Context, exec SQLExecutor, id int, honours Honours) error
}

const facultyColumns = `id, name, abbreviation, color_primary, color_secondary,
	played, won, drawn, lost, goals_for, goals_against, goal_difference, points, current_streak,
	championships_won, runner_up_count, third_place_count, crest_key, created_at, updated_at`

type postgresFacultyRepository struct {
	db *sql.DB
}

func NewPostgresFacultyRepository(db *sql.DB) FacultyRepository {
	return &postgresFacultyRepository{db: db}
}

func (r *postgresFacultyRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func scanFaculty(scanner rowScanner) (*models.Faculty, error) {
	var f models.Faculty
	err := scanner.Scan(
		&f.ID, &f.Name, &f.Abbreviation, &f.ColorPrimary, &f.ColorSecondary,
		&f.Played, &f.Won, &f.Drawn, &f.Lost, &f.GoalsFor, &f.GoalsAgainst, &f.GoalDifference, &f.Points, &f.CurrentStreak,
		&f.ChampionshipsWon, &f.RunnerUpCount, &f.ThirdPlaceCount, &f.CrestKey, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFacultyNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (r *postgresFacultyRepository) handleFacultyError(err error) error {
	if err == nil {
		return nil
	}
	if constraint, ok := uniqueViolation(err); ok && constraint == "faculties_name_key" {
		return ErrFacultyNameConflict
	}
	return err
}

func (r *postgresFacultyRepository) Create(ctx context.Context, faculty *models.Faculty) error {
	query := `
		INSERT INTO faculties (name, abbreviation, color_primary, color_secondary)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		faculty.Name, faculty.Abbreviation, faculty.ColorPrimary, faculty.ColorSecondary,
	).Scan(&faculty.ID, &faculty.CreatedAt, &faculty.UpdatedAt)
	return r.handleFacultyError(err)
}

func (r *postgresFacultyRepository) GetByID(ctx context.Context, id int) (*models.Faculty, error) {
	query := `SELECT ` + facultyColumns + ` FROM faculties WHERE id = $1`
	f, err := scanFaculty(r.db.QueryRowContext(ctx, query, id))
	if err != nil && !errors.Is(err, ErrFacultyNotFound) {
		return nil, fmt.Errorf("failed to scan faculty by id %d: %w", id, err)
	}
	return f, err
}

func (r *postgresFacultyRepository) List(ctx context.Context) ([]*models.Faculty, error) {
	query := `SELECT ` + facultyColumns + ` FROM faculties ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list faculties: %w", err)
	}
	defer rows.Close()

	faculties := make([]*models.Faculty, 0)
	for rows.Next() {
		f, err := scanFaculty(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan faculty row: %w", err)
		}
		faculties = append(faculties, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return faculties, nil
}

func (r *postgresFacultyRepository) UpdateDetails(ctx context.Context, faculty *models.Faculty) error {
	query := `
		UPDATE faculties SET name = $1, abbreviation = $2, color_primary = $3, color_secondary = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		faculty.Name, faculty.Abbreviation, faculty.ColorPrimary, faculty.ColorSecondary, faculty.ID,
	).Scan(&faculty.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrFacultyNotFound
	}
	return r.handleFacultyError(err)
}

func (r *postgresFacultyRepository) UpdateCrestKey(ctx context.Context, id int, crestKey *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE faculties SET crest_key = $1, updated_at = NOW() WHERE id = $2`, crestKey, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrFacultyNotFound)
}

func (r *postgresFacultyRepository) LockForUpdate(ctx context.Context, exec SQLExecutor, ids ...int) (map[int]*models.Faculty, error) {
	unique := dedupeIDs(ids)
	// rows are locked in id order so two edits on the same pair cannot deadlock
	query := `SELECT ` + facultyColumns + ` FROM faculties WHERE id = ANY($1) ORDER BY id FOR UPDATE`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, pq.Array(unique))
	if err != nil {
		return nil, fmt.Errorf("failed to lock faculties %v: %w", unique, err)
	}
	defer rows.Close()

	locked := make(map[int]*models.Faculty, len(unique))
	for rows.Next() {
		f, err := scanFaculty(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan locked faculty: %w", err)
		}
		locked[f.ID] = f
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, id := range unique {
		if _, ok := locked[id]; !ok {
			return nil, fmt.Errorf("%w: id %d", ErrFacultyNotFound, id)
		}
	}
	return locked, nil
}

func (r *postgresFacultyRepository) UpdateStats(ctx context.Context, exec SQLExecutor, id int, stats models.FacultyStats) error {
	query := `
		UPDATE faculties SET
			played = $1, won = $2, drawn = $3, lost = $4, goals_for = $5, goals_against = $6,
			goal_difference = $7, points = $8, current_streak = $9, updated_at = NOW()
		WHERE id = $10`
	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		stats.Played, stats.Won, stats.Drawn, stats.Lost, stats.GoalsFor, stats.GoalsAgainst,
		stats.GoalDifference, stats.Points, stats.CurrentStreak, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update stats of faculty %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrFacultyNotFound)
}

func (r *postgresFacultyRepository) ResetStats(ctx context.Context, exec SQLExecutor) error {
	query := `
		UPDATE faculties SET
			played = 0, won = 0, drawn = 0, lost = 0, goals_for = 0, goals_against = 0,
			goal_difference = 0, points = 0, current_streak = 0, updated_at = NOW()`
	_, err := r.getExecutor(exec).ExecContext(ctx, query)
	return err
}

func (r *postgresFacultyRepository) AddHonours(ctx context.Context, exec SQLExecutor, id int, honours Honours) error {
	query := `
		UPDATE faculties SET
			championships_won = championships_won + $1,
			runner_up_count = runner_up_count + $2,
			third_place_count = third_place_count + $3,
			updated_at = NOW()
		WHERE id = $4`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, honours.Championships, honours.RunnerUp, honours.ThirdPlace, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrFacultyNotFound)
}

func dedupeIDs(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	unique := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	sort.Ints(unique)
	return unique
}
