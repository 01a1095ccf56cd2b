package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dtroode/erp-sessions/internal/model"
)

var _ model.SessionStore = (*SessionRepository)(nil)

const sessionColumns = `
	id, principal_id, access_token_id, refresh_token_id,
	device_id, device_name, device_type, ip_address, location,
	user_agent, browser, os, is_active,
	login_at, last_activity_at, expires_at, logout_at,
	is_suspicious, risk_score`

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type SessionRepository struct {
	db querier
}

func NewSessionRepository(db *Connection) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, s model.Session) error {
	const query = `
		INSERT INTO sessions (` + sessionColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
	`

	_, err := r.db.Exec(ctx, query,
		s.ID, s.PrincipalID, s.AccessTokenID, s.RefreshTokenID,
		s.DeviceID, s.DeviceName, s.DeviceType, s.IPAddress, s.Location,
		s.UserAgent, s.Browser, s.OS, s.IsActive,
		s.LoginAt, s.LastActivityAt, s.ExpiresAt, s.LogoutAt,
		s.IsSuspicious, s.RiskScore,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrDuplicateTokenID
		}
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (model.Session, error) {
	const query = `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	return r.getOne(ctx, "id", query, id)
}

func (r *SessionRepository) GetByAccessTokenID(ctx context.Context, tokenID string) (model.Session, error) {
	const query = `SELECT ` + sessionColumns + ` FROM sessions WHERE access_token_id = $1`
	return r.getOne(ctx, "access token id", query, tokenID)
}

func (r *SessionRepository) GetByRefreshTokenID(ctx context.Context, tokenID string) (model.Session, error) {
	const query = `SELECT ` + sessionColumns + ` FROM sessions WHERE refresh_token_id = $1`
	return r.getOne(ctx, "refresh token id", query, tokenID)
}

func (r *SessionRepository) ListByPrincipal(ctx context.Context, principalID string, activeOnly bool) ([]model.Session, error) {
	const query = `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE principal_id = $1 AND (is_active OR NOT $2)
		ORDER BY last_activity_at DESC
	`

	rows, err := r.db.Query(ctx, query, principalID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return collectSessions(rows)
}

func (r *SessionRepository) ListRecent(ctx context.Context, principalID string, since time.Time, limit int) ([]model.Session, error) {
	const query = `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE principal_id = $1 AND login_at >= $2
		ORDER BY login_at DESC
		LIMIT $3
	`

	rows, err := r.db.Query(ctx, query, principalID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent sessions: %w", err)
	}
	return collectSessions(rows)
}

func (r *SessionRepository) Touch(ctx context.Context, id string, at time.Time, newAccessTokenID string) error {
	const query = `
		UPDATE sessions
		SET last_activity_at = $2,
		    access_token_id = COALESCE(NULLIF($3, ''), access_token_id)
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, id, at, newAccessTokenID)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrDuplicateTokenID
		}
		return fmt.Errorf("failed to touch session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *SessionRepository) Deactivate(ctx context.Context, id string, at time.Time) (bool, error) {
	const query = `
		UPDATE sessions SET is_active = FALSE, logout_at = $2
		WHERE id = $1 AND is_active
	`

	tag, err := r.db.Exec(ctx, query, id, at)
	if err != nil {
		return false, fmt.Errorf("failed to deactivate session: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *SessionRepository) ExpireBefore(ctx context.Context, now time.Time, limit int) ([]model.Session, error) {
	const query = `
		UPDATE sessions SET is_active = FALSE, logout_at = $1
		WHERE id IN (
			SELECT id FROM sessions
			WHERE is_active AND expires_at < $1
			ORDER BY expires_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + sessionColumns

	rows, err := r.db.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to expire sessions: %w", err)
	}
	return collectSessions(rows)
}

func (r *SessionRepository) getOne(ctx context.Context, by, query string, arg string) (model.Session, error) {
	s, err := scanSession(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Session{}, model.ErrNotFound
		}
		return model.Session{}, fmt.Errorf("failed to get session by %s: %w", by, err)
	}
	return s, nil
}

func collectSessions(rows pgx.Rows) ([]model.Session, error) {
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return sessions, nil
}

func scanSession(row pgx.Row) (model.Session, error) {
	var s model.Session
	err := row.Scan(
		&s.ID, &s.PrincipalID, &s.AccessTokenID, &s.RefreshTokenID,
		&s.DeviceID, &s.DeviceName, &s.DeviceType, &s.IPAddress, &s.Location,
		&s.UserAgent, &s.Browser, &s.OS, &s.IsActive,
		&s.LoginAt, &s.LastActivityAt, &s.ExpiresAt, &s.LogoutAt,
		&s.IsSuspicious, &s.RiskScore,
	)
	return s, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
