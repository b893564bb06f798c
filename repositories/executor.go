package repositories

import (
	"context"
	"database/sql"
)

// SQLExecutor is satisfied by both *sql.DB and *sql.Tx.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// Repositories bundles every store the services need.
type Repositories struct {
	Tx        Transactor
	Faculties FacultyRepository
	Matches   MatchRepository
	Seasons   SeasonRepository
	Users     UserRepository
	Activity  ActivityRepository
}

func NewPostgresRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		Tx:        NewSQLTransactor(db),
		Faculties: NewPostgresFacultyRepository(db),
		Matches:   NewPostgresMatchRepository(db),
		Seasons:   NewPostgresSeasonRepository(db),
		Users:     NewPostgresUserRepository(db),
		Activity:  NewPostgresActivityRepository(db),
	}
}
