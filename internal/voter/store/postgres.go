package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"registrar/internal/voter/models"
	id "registrar/pkg/domain"
)

// Schema is the voters table. The UNIQUE constraint on email closes the
// check-then-insert race in the registration workflow.
const Schema = `
CREATE TABLE IF NOT EXISTS voters (
	id            BIGSERIAL PRIMARY KEY,
	email         TEXT NOT NULL,
	name          TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	CONSTRAINT voters_email_key UNIQUE (email)
)`

const uniqueViolation = "23505"

// PostgresStore persists voters in PostgreSQL through database/sql. It works
// with either the pgx stdlib driver or lib/pq.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed voter store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the voters table when it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure voters schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindAll(ctx context.Context) ([]*models.Voter, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, email, name, password_hash FROM voters ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list voters: %w", err)
	}
	defer rows.Close()

	voters := make([]*models.Voter, 0)
	for rows.Next() {
		v, err := scanVoter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan voter: %w", err)
		}
		voters = append(voters, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate voters: %w", err)
	}
	return voters, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, voterID id.VoterID) (*models.Voter, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash FROM voters WHERE id = $1`, voterID.Int64())
	v, err := scanVoter(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find voter by id: %w", err)
	}
	return v, nil
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.Voter, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash FROM voters WHERE email = $1`, email)
	v, err := scanVoter(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find voter by email: %w", err)
	}
	return v, nil
}

// Save inserts when the ID is unassigned and updates otherwise.
func (s *PostgresStore) Save(ctx context.Context, voter *models.Voter) (*models.Voter, error) {
	if voter == nil {
		return nil, fmt.Errorf("voter is required")
	}
	saved := *voter
	if saved.ID.IsNil() {
		var newID int64
		err := s.db.QueryRowContext(ctx, `
			INSERT INTO voters (email, name, password_hash)
			VALUES ($1, $2, $3)
			RETURNING id`,
			saved.Email, saved.Name, saved.PasswordHash,
		).Scan(&newID)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, ErrConflict
			}
			return nil, fmt.Errorf("insert voter: %w", err)
		}
		saved.ID = id.VoterID(newID)
		return &saved, nil
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE voters SET email = $2, name = $3, password_hash = $4
		WHERE id = $1`,
		saved.ID.Int64(), saved.Email, saved.Name, saved.PasswordHash,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("update voter: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update voter rows affected: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return &saved, nil
}

func (s *PostgresStore) Delete(ctx context.Context, voterID id.VoterID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM voters WHERE id = $1`, voterID.Int64())
	if err != nil {
		return fmt.Errorf("delete voter: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete voter rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Health verifies the connection pool.
func (s *PostgresStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVoter(row rowScanner) (*models.Voter, error) {
	var (
		v     models.Voter
		rawID int64
	)
	if err := row.Scan(&rawID, &v.Email, &v.Name, &v.PasswordHash); err != nil {
		return nil, err
	}
	v.ID = id.VoterID(rawID)
	return &v, nil
}

// isUniqueViolation recognizes SQLSTATE 23505 from either driver.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}
	return false
}
