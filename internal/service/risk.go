package service

import (
	"context"
	"strings"

	"github.com/dtroode/erp-sessions/internal/config"
	"github.com/dtroode/erp-sessions/internal/logger"
	"github.com/dtroode/erp-sessions/internal/model"
)

const (
	riskNewIP       = 30
	riskNewDevice   = 20
	riskNewLocation = 25
	riskFrequent    = 25

	maxRiskScore = 100
)

// RiskAssessment is the outcome of scoring one login.
type RiskAssessment struct {
	Score      int
	Suspicious bool
}

// RiskAssessor scores a login against the principal's recent session history.
type RiskAssessor struct {
	store  model.SessionStore
	clock  model.Clock
	cfg    config.Risk
	logger *logger.Logger
}

func NewRiskAssessor(store model.SessionStore, clock model.Clock, cfg config.Risk, logger *logger.Logger) *RiskAssessor {
	return &RiskAssessor{
		store:  store,
		clock:  clock,
		cfg:    cfg,
		logger: logger,
	}
}

// Assess adds up the signals that differ from recent history. Missing inputs never add risk.
// A principal without history scores 0.
func (r *RiskAssessor) Assess(ctx context.Context, principalID, ip string, device *model.DeviceInfo, location string) (RiskAssessment, error) {
	now := r.clock.Now()

	history, err := r.store.ListRecent(ctx, principalID, now.Add(-r.cfg.Lookback), r.cfg.HistoryLimit)
	if err != nil {
		r.logger.Error("Risk assessor: failed to load session history",
			"principal_id", principalID,
			"error", err.Error())
		return RiskAssessment{}, &model.StorageError{Op: "list_recent", Err: err}
	}
	if len(history) == 0 {
		return RiskAssessment{}, nil
	}

	var (
		ips       = make(map[string]struct{}, len(history))
		devices   = make(map[string]struct{}, len(history))
		locations = make(map[string]struct{}, len(history))
		recent    int
	)
	windowStart := now.Add(-r.cfg.FrequencyWindow)
	for _, s := range history {
		ips[s.IPAddress] = struct{}{}
		devices[s.DeviceID] = struct{}{}
		locations[s.Location] = struct{}{}
		if !s.LoginAt.Before(windowStart) {
			recent++
		}
	}

	score := 0
	if ip != "" {
		if _, ok := ips[ip]; !ok {
			score += riskNewIP
		}
	}
	if device != nil && device.ID != "" {
		if _, ok := devices[device.ID]; !ok {
			score += riskNewDevice
		}
	}
	if location != "" && !strings.EqualFold(location, model.UnknownLocation) {
		if _, ok := locations[location]; !ok {
			score += riskNewLocation
		}
	}
	if recent > r.cfg.FrequencyLimit {
		score += riskFrequent
	}

	score = clampScore(score)
	assessment := RiskAssessment{
		Score:      score,
		Suspicious: score >= r.cfg.Threshold,
	}

	r.logger.Debug("Risk assessor: login scored",
		"principal_id", principalID,
		"score", assessment.Score,
		"suspicious", assessment.Suspicious,
		"history", len(history),
		"recent", recent)

	return assessment, nil
}

func clampScore(score int) int {
	switch {
	case score < 0:
		return 0
	case score > maxRiskScore:
		return maxRiskScore
	default:
		return score
	}
}
