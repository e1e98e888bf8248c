// Package postgres implements store.Store against PostgreSQL via
// database/sql, using the pgx/v5/stdlib driver. The sqlc-generated query
// layer the teacher uses elsewhere has no equivalent here (no sqlc schema
// shipped with this domain), so queries are written directly with
// database/sql placeholders.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ltdomains/domain-analyzer/internal/store"
	"github.com/ltdomains/domain-analyzer/pkg/domain"
)

// Store persists domain/result/discovery rows in PostgreSQL.
type Store struct {
	db *sql.DB
}

// New builds a PostgreSQL-backed Store. Callers are responsible for
// registering the pgx stdlib driver (`_ "github.com/jackc/pgx/v5/stdlib"`)
// and opening db via sql.Open("pgx", dsn).
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the schema if it does not already exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS domains (
	id            UUID PRIMARY KEY,
	name          TEXT NOT NULL UNIQUE,
	is_registered SMALLINT NOT NULL DEFAULT 0,
	is_active     SMALLINT NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS results (
	id                 BIGSERIAL PRIMARY KEY,
	domain_id          UUID NOT NULL REFERENCES domains(id),
	task_id            UUID NOT NULL,
	status             TEXT NOT NULL,
	skip_reason        TEXT NOT NULL DEFAULT '',
	profiles_requested JSONB NOT NULL,
	profiles_executed  JSONB NOT NULL,
	data               JSONB NOT NULL,
	created_at         TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS discoveries (
	id              BIGSERIAL PRIMARY KEY,
	name            TEXT NOT NULL,
	discovered_from TEXT NOT NULL,
	method          TEXT NOT NULL,
	metadata        JSONB NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL
);
`

func (s *Store) GetOrCreateDomain(ctx context.Context, name string) (domain.DomainID, error) {
	key := strings.ToLower(name)

	var rawID uuid.UUID
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM domains WHERE name = $1`, key,
	).Scan(&rawID)
	if err == nil {
		return domain.DomainID(rawID), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.DomainID{}, fmt.Errorf("get domain: %w", err)
	}

	id := domain.NewDomainID()
	now := time.Now()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO domains (id, name, created_at, updated_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (name) DO NOTHING`,
		uuid.UUID(id), key, now, now)
	if err != nil {
		return domain.DomainID{}, fmt.Errorf("create domain: %w", err)
	}

	// A concurrent insert may have won the race; re-read authoritatively.
	err = s.db.QueryRowContext(ctx, `SELECT id FROM domains WHERE name = $1`, key).Scan(&rawID)
	if err != nil {
		return domain.DomainID{}, fmt.Errorf("get domain after insert: %w", err)
	}
	return domain.DomainID(rawID), nil
}

func (s *Store) UpdateDomainFlags(ctx context.Context, id domain.DomainID, update store.FlagUpdate) error {
	if update.IsRegistered == nil && update.IsActive == nil {
		return nil
	}

	setClauses := make([]string, 0, 3)
	args := make([]any, 0, 3)
	argN := 1

	if update.IsRegistered != nil {
		setClauses = append(setClauses, fmt.Sprintf("is_registered = $%d", argN))
		args = append(args, tristateOf(*update.IsRegistered))
		argN++
	}
	if update.IsActive != nil {
		setClauses = append(setClauses, fmt.Sprintf("is_active = $%d", argN))
		args = append(args, tristateOf(*update.IsActive))
		argN++
	}
	setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", argN))
	args = append(args, time.Now())
	argN++

	args = append(args, uuid.UUID(id))
	query := fmt.Sprintf("UPDATE domains SET %s WHERE id = $%d", strings.Join(setClauses, ", "), argN)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update domain flags: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update domain flags: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update domain flags: domain %s not found", id.String())
	}
	return nil
}

func (s *Store) SaveResult(ctx context.Context, domainID domain.DomainID, taskID domain.TaskID, result store.ResultRecord) error {
	requested, err := json.Marshal(result.ProfilesRequested)
	if err != nil {
		return fmt.Errorf("marshal profiles_requested: %w", err)
	}
	executed, err := json.Marshal(result.ProfilesExecuted)
	if err != nil {
		return fmt.Errorf("marshal profiles_executed: %w", err)
	}
	data, err := json.Marshal(result.Data)
	if err != nil {
		return fmt.Errorf("marshal data: %w", err)
	}

	createdAt := result.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO results (domain_id, task_id, status, skip_reason, profiles_requested, profiles_executed, data, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.UUID(domainID), uuid.UUID(taskID), result.Status, result.SkipReason, requested, executed, data, createdAt)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

func (s *Store) InsertCapturedDomain(ctx context.Context, name, discoveredFrom, method string, metadata map[string]any) (bool, error) {
	key := strings.ToLower(name)

	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return false, fmt.Errorf("marshal discovery metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO discoveries (name, discovered_from, method, metadata, created_at) VALUES ($1, $2, $3, $4, $5)`,
		key, discoveredFrom, method, metadataJSON, time.Now())
	if err != nil {
		return false, fmt.Errorf("insert discovery: %w", err)
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM domains WHERE name = $1)`, key).Scan(&exists); err != nil {
		return false, fmt.Errorf("check captured domain existence: %w", err)
	}
	if exists {
		return false, nil
	}

	if _, err := s.GetOrCreateDomain(ctx, key); err != nil {
		return false, fmt.Errorf("upsert captured domain: %w", err)
	}
	return true, nil
}

func tristateOf(b bool) int {
	if b {
		return int(store.TristateTrue)
	}
	return int(store.TristateFalse)
}
