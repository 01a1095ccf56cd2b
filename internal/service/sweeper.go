package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dtroode/erp-sessions/internal/logger"
	"github.com/dtroode/erp-sessions/internal/model"
)

// ExpiredSweeper is the part of the lifecycle manager the sweeper drives.
type ExpiredSweeper interface {
	SweepExpired(ctx context.Context, onBatch func([]model.Session)) (int, error)
}

// Sweeper periodically retires expired sessions and optionally archives every retired batch.
type Sweeper struct {
	manager  ExpiredSweeper
	archive  model.Archive
	clock    model.Clock
	interval time.Duration
	logger   *logger.Logger
}

// NewSweeper builds a sweeper. archive may be nil.
func NewSweeper(manager ExpiredSweeper, archive model.Archive, clock model.Clock, interval time.Duration, logger *logger.Logger) *Sweeper {
	return &Sweeper{
		manager:  manager,
		archive:  archive,
		clock:    clock,
		interval: interval,
		logger:   logger,
	}
}

// Run sweeps once immediately and then every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("Sweeper: run failed", "error", err.Error())
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

// RunOnce performs a single sweep pass.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	var onBatch func([]model.Session)
	if s.archive != nil {
		onBatch = func(batch []model.Session) { s.archiveBatch(ctx, batch) }
	}

	n, err := s.manager.SweepExpired(ctx, onBatch)
	if err != nil {
		return n, fmt.Errorf("failed to sweep expired sessions: %w", err)
	}
	return n, nil
}

type auditRecord struct {
	SessionID      string     `json:"session_id"`
	PrincipalID    string     `json:"principal_id"`
	DeviceID       string     `json:"device_id,omitempty"`
	IPAddress      string     `json:"ip_address,omitempty"`
	Location       string     `json:"location,omitempty"`
	LoginAt        time.Time  `json:"login_at"`
	LastActivityAt time.Time  `json:"last_activity_at"`
	ExpiresAt      time.Time  `json:"expires_at"`
	LogoutAt       *time.Time `json:"logout_at,omitempty"`
	RiskScore      int        `json:"risk_score"`
	IsSuspicious   bool       `json:"is_suspicious"`
	Reason         string     `json:"reason"`
}

// archiveBatch writes batch as JSON lines to sweeps/YYYY/MM/DD/<ulid>.jsonl. Failures are logged only.
func (s *Sweeper) archiveBatch(ctx context.Context, batch []model.Session) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, session := range batch {
		rec := auditRecord{
			SessionID:      session.ID,
			PrincipalID:    session.PrincipalID,
			DeviceID:       session.DeviceID,
			IPAddress:      session.IPAddress,
			Location:       session.Location,
			LoginAt:        session.LoginAt,
			LastActivityAt: session.LastActivityAt,
			ExpiresAt:      session.ExpiresAt,
			LogoutAt:       session.LogoutAt,
			RiskScore:      session.RiskScore,
			IsSuspicious:   session.IsSuspicious,
			Reason:         string(model.RevokeReasonExpired),
		}
		if err := enc.Encode(rec); err != nil {
			s.logger.Warn("Sweeper: failed to encode audit record",
				"session_id", session.ID,
				"error", err.Error())
			return
		}
	}

	now := s.clock.Now()
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		s.logger.Warn("Sweeper: failed to generate archive key", "error", err.Error())
		return
	}
	key := fmt.Sprintf("sweeps/%s/%s.jsonl", now.UTC().Format("2006/01/02"), id.String())

	if err := s.archive.Upload(ctx, key, &buf); err != nil {
		s.logger.Warn("Sweeper: failed to archive batch",
			"key", key,
			"count", len(batch),
			"error", err.Error())
		return
	}

	s.logger.Debug("Sweeper: batch archived",
		"key", key,
		"count", len(batch))
}
