package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/synaptica-ai/mobility-risk/pkg/common/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("assessment not found")

// Store persists computed assessments.
type Store interface {
	Save(ctx context.Context, stored models.StoredAssessment) error
	Get(ctx context.Context, id uuid.UUID) (models.StoredAssessment, error)
	Recent(ctx context.Context, patientID string, limit int) ([]models.StoredAssessment, error)
}

// AssessmentRecord is the persistence model for computed assessments. Risk
// levels and the watt goal are denormalized for reporting queries.
type AssessmentRecord struct {
	ID                  uuid.UUID         `gorm:"primaryKey;column:id;type:uuid"`
	PatientID           string            `gorm:"column:patient_id;index"`
	DeconditioningLevel string            `gorm:"column:deconditioning_level"`
	VTELevel            string            `gorm:"column:vte_level"`
	FallsLevel          string            `gorm:"column:falls_level"`
	PressureLevel       string            `gorm:"column:pressure_level"`
	WattGoal            float64           `gorm:"column:watt_goal"`
	Result              datatypes.JSONMap `gorm:"column:result"`
	CreatedAt           time.Time         `gorm:"column:created_at;index"`
}

func (AssessmentRecord) TableName() string {
	return "risk_assessments"
}

var _ Store = (*Repository)(nil)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&AssessmentRecord{})
}

func (r *Repository) Save(ctx context.Context, stored models.StoredAssessment) error {
	rec, err := toRecord(stored)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&rec).Error
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (models.StoredAssessment, error) {
	var rec AssessmentRecord
	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.StoredAssessment{}, ErrNotFound
	}
	if err != nil {
		return models.StoredAssessment{}, err
	}
	return fromRecord(rec)
}

// Recent returns the latest assessments for a patient, newest first.
func (r *Repository) Recent(ctx context.Context, patientID string, limit int) ([]models.StoredAssessment, error) {
	if limit <= 0 {
		limit = 50
	}
	var recs []AssessmentRecord
	err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("created_at DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	out := make([]models.StoredAssessment, 0, len(recs))
	for _, rec := range recs {
		stored, err := fromRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, stored)
	}
	return out, nil
}

func toRecord(stored models.StoredAssessment) (AssessmentRecord, error) {
	id, err := uuid.Parse(stored.ID)
	if err != nil {
		return AssessmentRecord{}, fmt.Errorf("assessment id: %w", err)
	}
	raw, err := json.Marshal(stored.Result)
	if err != nil {
		return AssessmentRecord{}, fmt.Errorf("encode result: %w", err)
	}
	var result map[string]interface{}
	if err := json.Unmarshal(raw, &result); err != nil {
		return AssessmentRecord{}, fmt.Errorf("encode result: %w", err)
	}

	res := stored.Result
	return AssessmentRecord{
		ID:                  id,
		PatientID:           stored.PatientID,
		DeconditioningLevel: res.Deconditioning.RiskLevel,
		VTELevel:            res.VTE.RiskLevel,
		FallsLevel:          res.Falls.RiskLevel,
		PressureLevel:       res.Pressure.RiskLevel,
		WattGoal:            res.MobilityRecommendation.WattGoal,
		Result:              datatypes.JSONMap(result),
		CreatedAt:           stored.CreatedAt,
	}, nil
}

func fromRecord(rec AssessmentRecord) (models.StoredAssessment, error) {
	raw, err := json.Marshal(map[string]interface{}(rec.Result))
	if err != nil {
		return models.StoredAssessment{}, fmt.Errorf("decode result: %w", err)
	}
	var result models.RiskAssessmentResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return models.StoredAssessment{}, fmt.Errorf("decode result: %w", err)
	}
	return models.StoredAssessment{
		ID:        rec.ID.String(),
		PatientID: rec.PatientID,
		Result:    result,
		CreatedAt: rec.CreatedAt,
	}, nil
}
