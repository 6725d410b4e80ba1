// Package assessment wraps the risk calculator with result caching,
// persistence, audit events and the HTTP surface.
package assessment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/synaptica-ai/mobility-risk/pkg/common/logger"
	"github.com/synaptica-ai/mobility-risk/pkg/common/models"
	"github.com/synaptica-ai/mobility-risk/pkg/observability/metrics"
	"github.com/synaptica-ai/mobility-risk/pkg/risk"
)

const (
	EventAssessed = "risk.assessed"
	eventSource   = "risk-service"
)

var (
	ErrInvalidID        = errors.New("invalid assessment id")
	ErrMissingPatientID = errors.New("patient id is required")
)

// Publisher emits audit events. *kafka.Producer satisfies it.
type Publisher interface {
	PublishEvent(ctx context.Context, eventType, source, key string, data map[string]interface{}) error
}

type Option func(*Service)

func WithStore(s Store) Option {
	return func(svc *Service) { svc.store = s }
}

func WithCache(c Cache) Option {
	return func(svc *Service) { svc.cache = c }
}

func WithPublisher(p Publisher) Option {
	return func(svc *Service) { svc.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(svc *Service) { svc.now = now }
}

type Service struct {
	assessor  *risk.Assessor
	store     Store
	cache     Cache
	publisher Publisher
	now       func() time.Time
}

func NewService(assessor *risk.Assessor, opts ...Option) *Service {
	s := &Service{
		assessor: assessor,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Assess returns the cached assessment for an identical input or computes,
// records and announces a new one. Only invalid input fails the call; cache,
// store and publisher errors are logged.
func (s *Service) Assess(ctx context.Context, in models.RiskAssessmentInput) (models.StoredAssessment, error) {
	key, keyErr := CacheKey(in)
	if s.cache != nil && keyErr == nil {
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			logger.Log.WithError(err).Warn("result cache lookup failed")
		}
		metrics.ObserveCache(ok)
		if ok {
			cached.Cached = true
			return cached, nil
		}
	}

	result, err := s.assessor.Assess(ctx, in)
	if err != nil {
		if risk.IsValidationError(err) {
			metrics.IncRejected()
		}
		return models.StoredAssessment{}, err
	}

	stored := models.StoredAssessment{
		ID:        uuid.New().String(),
		PatientID: in.PatientID,
		Result:    result,
		CreatedAt: s.now(),
	}
	observe(result)

	if s.store != nil {
		if err := s.store.Save(ctx, stored); err != nil {
			metrics.IncPersistFailures()
			logger.Log.WithError(err).WithField("assessment_id", stored.ID).Error("failed to persist assessment")
		}
	}
	if s.cache != nil && keyErr == nil {
		if err := s.cache.Set(ctx, key, stored); err != nil {
			logger.Log.WithError(err).WithField("assessment_id", stored.ID).Warn("failed to cache assessment")
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishEvent(ctx, EventAssessed, eventSource, stored.ID, eventData(stored)); err != nil {
			metrics.IncPublishFailures()
			logger.Log.WithError(err).WithField("assessment_id", stored.ID).Error("failed to publish assessment event")
		}
	}

	logger.Log.WithFields(map[string]interface{}{
		"assessment_id": stored.ID,
		"falls":         result.Falls.RiskLevel,
		"vte":           result.VTE.RiskLevel,
		"watt_goal":     result.MobilityRecommendation.WattGoal,
	}).Info("assessment computed")

	return stored, nil
}

// Get reads a persisted assessment. Without a store nothing is ever found.
func (s *Service) Get(ctx context.Context, rawID string) (models.StoredAssessment, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return models.StoredAssessment{}, ErrInvalidID
	}
	if s.store == nil {
		return models.StoredAssessment{}, ErrNotFound
	}
	return s.store.Get(ctx, id)
}

// Recent lists a patient's persisted assessments, newest first.
func (s *Service) Recent(ctx context.Context, patientID string, limit int) ([]models.StoredAssessment, error) {
	if patientID == "" {
		return nil, ErrMissingPatientID
	}
	if s.store == nil {
		return []models.StoredAssessment{}, nil
	}
	return s.store.Recent(ctx, patientID, limit)
}

func (s *Service) ScoreOutcome(key string, in models.RiskAssessmentInput) (models.OutcomeResult, error) {
	return s.assessor.ScoreOutcome(key, in)
}

func (s *Service) Prescribe(in models.RiskAssessmentInput) (models.MobilityRecommendation, error) {
	return s.assessor.Prescribe(in)
}

// ReportStayFailure is installed as the assessor's stay-prediction error
// handler.
func ReportStayFailure(err error) {
	metrics.IncStayFailures()
	logger.Log.WithError(err).Warn("stay prediction failed; returning base result")
}

func observe(result models.RiskAssessmentResult) {
	metrics.IncAssessments()
	metrics.ObserveRiskLevel(risk.Deconditioning.String(), result.Deconditioning.RiskLevel)
	metrics.ObserveRiskLevel(risk.VTE.String(), result.VTE.RiskLevel)
	metrics.ObserveRiskLevel(risk.Falls.String(), result.Falls.RiskLevel)
	metrics.ObserveRiskLevel(risk.Pressure.String(), result.Pressure.RiskLevel)
}

func eventData(stored models.StoredAssessment) map[string]interface{} {
	res := stored.Result
	return map[string]interface{}{
		"assessment_id": stored.ID,
		"patient_id":    stored.PatientID,
		"risk_levels": map[string]string{
			risk.Deconditioning.String(): res.Deconditioning.RiskLevel,
			risk.VTE.String():            res.VTE.RiskLevel,
			risk.Falls.String():          res.Falls.RiskLevel,
			risk.Pressure.String():       res.Pressure.RiskLevel,
		},
		"watt_goal":          res.MobilityRecommendation.WattGoal,
		"total_daily_energy": res.MobilityRecommendation.TotalDailyEnergy,
	}
}
