package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartconfig/configurator-engine/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	} else {
		poolConfig.MaxConns = 25 // default
	}

	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	} else {
		poolConfig.MinConns = 5 // default
	}

	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// CreateSession creates a new session record
func (r *PostgresRepository) CreateSession(ctx context.Context, s *models.Session) error {
	filtersJSON, selectionJSON, cartJSON, err := marshalSessionState(s)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO sessions (id, language, entry_mode, current_step, previous_step, last_step_before_summary, filters, selection, cart, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = r.pool.Exec(ctx, query,
		s.ID,
		s.Language,
		nullString(string(s.EntryMode)),
		string(s.CurrentStep),
		nullString(string(s.PreviousStep)),
		nullString(string(s.LastStepBeforeSummary)),
		filtersJSON,
		selectionJSON,
		cartJSON,
		s.CreatedAt,
		s.UpdatedAt,
		s.ExpiresAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetSession retrieves a session by ID
func (r *PostgresRepository) GetSession(ctx context.Context, id string) (*models.Session, error) {
	query := `
		SELECT id, language, entry_mode, current_step, previous_step, last_step_before_summary, filters, selection, cart, created_at, updated_at, expires_at
		FROM sessions
		WHERE id = $1
	`

	s, err := scanSession(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return s, nil
}

// UpdateSession updates an existing session
func (r *PostgresRepository) UpdateSession(ctx context.Context, s *models.Session) error {
	filtersJSON, selectionJSON, cartJSON, err := marshalSessionState(s)
	if err != nil {
		return err
	}

	query := `
		UPDATE sessions
		SET language = $2, entry_mode = $3, current_step = $4, previous_step = $5, last_step_before_summary = $6, filters = $7, selection = $8, cart = $9, updated_at = $10, expires_at = $11
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		s.ID,
		s.Language,
		nullString(string(s.EntryMode)),
		string(s.CurrentStep),
		nullString(string(s.PreviousStep)),
		nullString(string(s.LastStepBeforeSummary)),
		filtersJSON,
		selectionJSON,
		cartJSON,
		s.UpdatedAt,
		s.ExpiresAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("session not found: %s", s.ID)
	}

	return nil
}

// DeleteSession deletes a session by ID
func (r *PostgresRepository) DeleteSession(ctx context.Context, id string) error {
	query := `DELETE FROM sessions WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("session not found: %s", id)
	}

	return nil
}

// BumpRangeGen increments the range generation counter inside the filters
// document in a single statement, so concurrent derivations always observe
// distinct generations
func (r *PostgresRepository) BumpRangeGen(ctx context.Context, id string) (int, error) {
	query := `
		UPDATE sessions
		SET filters = jsonb_set(filters, '{range_gen}', to_jsonb(COALESCE((filters->>'range_gen')::int, 0) + 1)),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING (filters->>'range_gen')::int
	`

	var gen int
	if err := r.pool.QueryRow(ctx, query, id).Scan(&gen); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("session not found: %s", id)
		}
		return 0, fmt.Errorf("failed to bump range generation: %w", err)
	}

	return gen, nil
}

// GetExpiredSessions returns all sessions past their expiry
func (r *PostgresRepository) GetExpiredSessions(ctx context.Context) ([]*models.Session, error) {
	query := `
		SELECT id, language, entry_mode, current_step, previous_step, last_step_before_summary, filters, selection, cart, created_at, updated_at, expires_at
		FROM sessions
		WHERE expires_at < NOW()
		ORDER BY expires_at ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get expired sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expired sessions: %w", err)
	}

	return sessions, nil
}

// GetClientByAPIKey retrieves an API client by its key
func (r *PostgresRepository) GetClientByAPIKey(ctx context.Context, apiKey string) (*models.APIClient, error) {
	query := `
		SELECT id, name, api_key, is_active, created_at, last_used_at, permissions, metadata
		FROM api_clients
		WHERE api_key = $1
	`

	var client models.APIClient
	var lastUsedAt sql.NullTime
	var permissionsJSON, metadataJSON []byte

	err := r.pool.QueryRow(ctx, query, apiKey).Scan(
		&client.ID,
		&client.Name,
		&client.APIKey,
		&client.IsActive,
		&client.CreatedAt,
		&lastUsedAt,
		&permissionsJSON,
		&metadataJSON,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get api client: %w", err)
	}

	if lastUsedAt.Valid {
		client.LastUsedAt = &lastUsedAt.Time
	}

	if permissionsJSON != nil {
		if err := json.Unmarshal(permissionsJSON, &client.Permissions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal permissions: %w", err)
		}
	}

	if metadataJSON != nil {
		if err := json.Unmarshal(metadataJSON, &client.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return &client, nil
}

// UpdateClientLastUsed updates the last_used_at timestamp for a client
func (r *PostgresRepository) UpdateClientLastUsed(ctx context.Context, apiKey string) error {
	query := `UPDATE api_clients SET last_used_at = NOW() WHERE api_key = $1`

	_, err := r.pool.Exec(ctx, query, apiKey)
	if err != nil {
		return fmt.Errorf("failed to update client last_used_at: %w", err)
	}

	return nil
}

// Helpers

func marshalSessionState(s *models.Session) (filters, selection, cart []byte, err error) {
	filters, err = json.Marshal(s.Filters)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal filters: %w", err)
	}

	selection, err = json.Marshal(s.Selection)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal selection: %w", err)
	}

	cart, err = json.Marshal(s.Cart)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal cart: %w", err)
	}

	return filters, selection, cart, nil
}

func scanSession(row pgx.Row) (*models.Session, error) {
	var s models.Session
	var entryMode, previousStep, lastStep sql.NullString
	var currentStep string
	var filtersJSON, selectionJSON, cartJSON []byte

	err := row.Scan(
		&s.ID,
		&s.Language,
		&entryMode,
		&currentStep,
		&previousStep,
		&lastStep,
		&filtersJSON,
		&selectionJSON,
		&cartJSON,
		&s.CreatedAt,
		&s.UpdatedAt,
		&s.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	s.EntryMode = models.EntryMode(entryMode.String)
	s.CurrentStep = models.Step(currentStep)
	s.PreviousStep = models.Step(previousStep.String)
	s.LastStepBeforeSummary = models.Step(lastStep.String)

	if err := json.Unmarshal(filtersJSON, &s.Filters); err != nil {
		return nil, fmt.Errorf("failed to unmarshal filters: %w", err)
	}
	if err := json.Unmarshal(selectionJSON, &s.Selection); err != nil {
		return nil, fmt.Errorf("failed to unmarshal selection: %w", err)
	}
	if err := json.Unmarshal(cartJSON, &s.Cart); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cart: %w", err)
	}

	return &s, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
