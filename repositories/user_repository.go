package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/faculty-league/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserEmailConflict = errors.New("user email conflict")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// UpdateLogin stores profile data from the identity provider and the login time.
	UpdateLogin(ctx context.Context, user *models.User) error
}

const userColumns = `id, email, name, role, password_hash, google_subject, avatar_url, created_at, last_login_at`

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func scanUser(scanner rowScanner) (*models.User, error) {
	var u models.User
	err := scanner.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.PasswordHash, &u.GoogleSubject, &u.AvatarURL, &u.CreatedAt, &u.LastLoginAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

func (r *postgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, name, role, password_hash, google_subject, avatar_url, last_login_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Email,
		user.Name,
		user.Role,
		user.PasswordHash,
		user.GoogleSubject,
		user.AvatarURL,
		user.LastLoginAt,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok && constraint == "users_email_key" {
			return ErrUserEmailConflict
		}
		return err
	}
	return nil
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *postgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
}

func (r *postgresUserRepository) UpdateLogin(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	query := `
		UPDATE users SET
			name = $1,
			role = $2,
			google_subject = COALESCE($3, google_subject),
			avatar_url = COALESCE($4, avatar_url),
			last_login_at = $5
		WHERE id = $6`
	result, err := r.db.ExecContext(ctx, query, user.Name, user.Role, user.GoogleSubject, user.AvatarURL, now, user.ID)
	if err != nil {
		return err
	}
	if err := checkAffectedRows(result, ErrUserNotFound); err != nil {
		return err
	}
	user.LastLoginAt = &now
	return nil
}
