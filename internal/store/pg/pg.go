// Package pg implements the PostgreSQL credential store adapter.
// It uses pgxpool directly; the (user_id, platform) uniqueness
// constraint makes upserts atomic without application-level locking.
package pg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/postbridge/connect/internal/domain/repository"
	"github.com/postbridge/connect/internal/store"
	migrations "github.com/postbridge/connect/migrations/postgres"
)

func init() {
	store.Register("postgres", func(ctx context.Context, cfg store.Config) (repository.CredentialStore, error) {
		return Open(ctx, cfg.DSN)
	})
}

// Store is the PostgreSQL-backed credential store.
type Store struct {
	pool *pgxpool.Pool
}

var _ repository.CredentialStore = (*Store)(nil)

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Migrate applies the embedded schema files in lexical order.
// Statements are idempotent, so re-running is safe.
func (s *Store) Migrate(ctx context.Context) error {
	entries, err := fs.Glob(migrations.FS, "*.sql")
	if err != nil {
		return err
	}
	sort.Strings(entries)
	for _, name := range entries {
		sql, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			return err
		}
		if _, err := s.pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("pg: migrate %s: %w", name, err)
		}
	}
	return nil
}

// Upsert inserts the record or replaces every mutable field of an
// existing (user_id, platform) record, preserving id and created_at.
func (s *Store) Upsert(ctx context.Context, cred *repository.Credential) error {
	var metadata []byte
	if cred.Metadata != nil {
		b, err := json.Marshal(cred.Metadata)
		if err != nil {
			return &repository.PersistenceError{Op: "upsert", Err: err}
		}
		metadata = b
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return &repository.PersistenceError{Op: "upsert", Err: err}
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO app_user (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`,
		cred.UserID,
	); err != nil {
		return &repository.PersistenceError{Op: "upsert", Err: err}
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO credential (id, user_id, platform, platform_user_id, access_token, refresh_token, metadata, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, platform) DO UPDATE SET
			platform_user_id = EXCLUDED.platform_user_id,
			access_token     = EXCLUDED.access_token,
			refresh_token    = EXCLUDED.refresh_token,
			metadata         = EXCLUDED.metadata,
			expires_at       = EXCLUDED.expires_at,
			updated_at       = now()`,
		uuid.NewString(), cred.UserID, string(cred.Platform),
		nullIfEmpty(cred.PlatformUserID), cred.AccessToken, nullIfEmpty(cred.RefreshToken),
		metadata, cred.ExpiresAt,
	); err != nil {
		return &repository.PersistenceError{Op: "upsert", Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return &repository.PersistenceError{Op: "upsert", Err: err}
	}
	return nil
}

const credentialColumns = `id, user_id, platform, platform_user_id, access_token, refresh_token, metadata, expires_at, created_at`

// List returns every record for the user; empty slice when none exist.
func (s *Store) List(ctx context.Context, userID string) ([]repository.Credential, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+credentialColumns+` FROM credential WHERE user_id = $1`, userID)
	if err != nil {
		return nil, &repository.PersistenceError{Op: "list", Err: err}
	}
	defer rows.Close()

	creds := []repository.Credential{}
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, &repository.PersistenceError{Op: "list", Err: err}
		}
		creds = append(creds, *cred)
	}
	if err := rows.Err(); err != nil {
		return nil, &repository.PersistenceError{Op: "list", Err: err}
	}
	return creds, nil
}

// Get returns the record for the pair, or repository.ErrNotFound.
func (s *Store) Get(ctx context.Context, userID string, platform repository.Platform) (*repository.Credential, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+credentialColumns+` FROM credential WHERE user_id = $1 AND platform = $2`,
		userID, string(platform))

	cred, err := scanCredential(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, &repository.PersistenceError{Op: "get", Err: err}
	}
	return cred, nil
}

// Delete removes the record if present; no-op otherwise.
func (s *Store) Delete(ctx context.Context, userID string, platform repository.Platform) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM credential WHERE user_id = $1 AND platform = $2`,
		userID, string(platform)); err != nil {
		return &repository.PersistenceError{Op: "delete", Err: err}
	}
	return nil
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanCredential(row scannable) (*repository.Credential, error) {
	var (
		cred           repository.Credential
		platform       string
		platformUserID *string
		refreshToken   *string
		metadata       []byte
		expiresAt      *time.Time
	)
	if err := row.Scan(
		&cred.ID, &cred.UserID, &platform, &platformUserID,
		&cred.AccessToken, &refreshToken, &metadata, &expiresAt, &cred.CreatedAt,
	); err != nil {
		return nil, err
	}
	cred.Platform = repository.Platform(platform)
	if platformUserID != nil {
		cred.PlatformUserID = *platformUserID
	}
	if refreshToken != nil {
		cred.RefreshToken = *refreshToken
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &cred.Metadata); err != nil {
			return nil, err
		}
	}
	cred.ExpiresAt = expiresAt
	return &cred, nil
}

// nullIfEmpty maps an empty string to SQL NULL.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
