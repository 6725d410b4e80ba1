package risk

import (
	"math"

	"github.com/synaptica-ai/mobility-risk/pkg/common/models"
	"github.com/synaptica-ai/mobility-risk/pkg/ml/linear"
)

// Reported probabilities never round down to zero.
const minReportedProbability = 0.0001

// Score is an outcome's summed log-odds contribution (intercept excluded)
// with the factor tags in the order they were applied.
type Score struct {
	Value   float64
	Factors []string
}

// Scorer evaluates a single outcome against a shared calibration table.
type Scorer struct {
	outcome Outcome
	cal     *Calibration
}

// Scorer returns the scorer for an outcome.
func (c *Calibration) Scorer(o Outcome) Scorer {
	return Scorer{outcome: o, cal: c}
}

func (s Scorer) Outcome() Outcome {
	return s.outcome
}

func (s Scorer) model() *outcomeModel {
	return &s.cal.models[s.outcome]
}

// Score sums the mobility term, the outcome's shared and specific factors and,
// where configured, the mobility × cognition interaction.
func (s Scorer) Score(f FeatureFlags) Score {
	m := s.model()
	score := Score{
		Value:   m.mobility[f.Mobility],
		Factors: []string{"mobility:" + f.Mobility},
	}
	for _, factor := range m.factors {
		if f.Has(factor.name) {
			score.Value += factor.weight
			score.Factors = append(score.Factors, factor.name)
		}
	}
	if m.interaction.applies(f) {
		score.Value += m.interaction.weight
		score.Factors = append(score.Factors, "interaction:"+f.Mobility+"_x_"+f.Cognitive)
	}
	return score
}

// Probability converts a score to a capped probability.
func (s Scorer) Probability(score float64) float64 {
	p := linear.Sigmoid(s.model().intercept + score)
	return math.Min(p, s.cal.probabilityCap)
}

// Evaluate scores the patient and its fully-mobile reference case and bands
// the result.
func (s Scorer) Evaluate(f FeatureFlags) models.OutcomeResult {
	actual := s.Score(f)
	p := s.Probability(actual.Value)
	ref := s.Probability(s.Score(f.ReferenceCase()).Value)

	prob := math.Max(linear.Round(p, 4), minReportedProbability)
	return models.OutcomeResult{
		Probability:         prob,
		OddsRatioVsMobile:   linear.Round(linear.OddsRatio(p, ref), 2),
		RiskLevel:           s.model().bands.Level(prob),
		ContributingFactors: actual.Factors,
	}
}
