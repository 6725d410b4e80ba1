package risk

import (
	"context"
	"fmt"

	"github.com/synaptica-ai/mobility-risk/pkg/common/models"
	"github.com/synaptica-ai/mobility-risk/pkg/mobility"
)

// StayPredictor augments a merged result with length-of-stay style keys.
// The returned keys are passed through unmodified.
type StayPredictor interface {
	Predict(ctx context.Context, base models.RiskAssessmentResult) (map[string]interface{}, error)
}

type Option func(*Assessor)

// WithPrescriber overrides the anthropometric prescription variant.
func WithPrescriber(fn mobility.Func) Option {
	return func(a *Assessor) {
		if fn != nil {
			a.prescribe = fn
		}
	}
}

// WithStayPredictor installs the stay-prediction extension.
func WithStayPredictor(p StayPredictor) Option {
	return func(a *Assessor) {
		a.stay = p
	}
}

// WithStayErrorHandler is called when the extension fails. The base result is
// returned regardless.
func WithStayErrorHandler(fn func(error)) Option {
	return func(a *Assessor) {
		a.onStayError = fn
	}
}

// Assessor runs the full pipeline: normalize, extract flags, score the four
// outcomes, prescribe, merge, augment.
type Assessor struct {
	cal         *Calibration
	prescribe   mobility.Func
	stay        StayPredictor
	onStayError func(error)
}

func NewAssessor(cal *Calibration, opts ...Option) *Assessor {
	if cal == nil {
		cal = DefaultCalibration()
	}
	a := &Assessor{cal: cal, prescribe: mobility.Prescribe}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assess computes the full result. It fails only on invalid input; a failing
// stay predictor leaves the base result intact.
func (a *Assessor) Assess(ctx context.Context, in models.RiskAssessmentInput) (models.RiskAssessmentResult, error) {
	result, err := a.Base(in)
	if err != nil {
		return models.RiskAssessmentResult{}, err
	}
	if a.stay == nil {
		return result, nil
	}

	extra, err := a.stay.Predict(ctx, result)
	if err != nil {
		if a.onStayError != nil {
			a.onStayError(err)
		}
		return result, nil
	}
	if len(extra) > 0 {
		result.Extensions = extra
	}
	return result, nil
}

// Base computes the four outcomes and the prescription without the extension.
func (a *Assessor) Base(in models.RiskAssessmentInput) (models.RiskAssessmentResult, error) {
	patient, err := Normalize(in)
	if err != nil {
		return models.RiskAssessmentResult{}, err
	}
	flags := Extract(patient)

	var outcomes [outcomeCount]models.OutcomeResult
	for _, o := range Outcomes {
		outcomes[o] = a.cal.Scorer(o).Evaluate(flags)
	}

	rec, err := a.prescribe(patient.Prescription())
	if err != nil {
		return models.RiskAssessmentResult{}, fmt.Errorf("prescription: %w", err)
	}

	return models.RiskAssessmentResult{
		Deconditioning:         outcomes[Deconditioning],
		VTE:                    outcomes[VTE],
		Falls:                  outcomes[Falls],
		Pressure:               outcomes[Pressure],
		MobilityRecommendation: rec,
		InputEcho:              in,
	}, nil
}

// ScoreOutcome evaluates a single outcome by key.
func (a *Assessor) ScoreOutcome(key string, in models.RiskAssessmentInput) (models.OutcomeResult, error) {
	o, err := ParseOutcome(key)
	if err != nil {
		return models.OutcomeResult{}, err
	}
	patient, err := Normalize(in)
	if err != nil {
		return models.OutcomeResult{}, err
	}
	return a.cal.Scorer(o).Evaluate(Extract(patient)), nil
}

// Prescribe returns only the mobility recommendation.
func (a *Assessor) Prescribe(in models.RiskAssessmentInput) (models.MobilityRecommendation, error) {
	patient, err := Normalize(in)
	if err != nil {
		return models.MobilityRecommendation{}, err
	}
	return a.prescribe(patient.Prescription())
}
