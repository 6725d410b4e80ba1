package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synaptica-ai/mobility-risk/pkg/common/models"
)

func TestScenarioAIsLowRiskEverywhere(t *testing.T) {
	cal := DefaultCalibration()
	f := mustFlags(scenarioA())

	for _, o := range Outcomes {
		res := cal.Scorer(o).Evaluate(f)
		assert.Equal(t, models.RiskLow, res.RiskLevel, o.String())
	}

	decond := cal.Scorer(Deconditioning).Evaluate(f)
	assert.Equal(t, 0.0911, decond.Probability)
	assert.Equal(t, 1.35, decond.OddsRatioVsMobile)
	assert.Equal(t, []string{"mobility:walking_assist"}, decond.ContributingFactors)

	vte := cal.Scorer(VTE).Evaluate(f)
	assert.Equal(t, 0.0171, vte.Probability)
	assert.Equal(t, 1.28, vte.OddsRatioVsMobile)
	assert.Equal(t, []string{"mobility:walking_assist", FlagPostoperative}, vte.ContributingFactors)

	falls := cal.Scorer(Falls).Evaluate(f)
	assert.Equal(t, 0.0163, falls.Probability)

	pressure := cal.Scorer(Pressure).Evaluate(f)
	assert.Equal(t, 0.009, pressure.Probability)
}

func TestScenarioBFallsInteraction(t *testing.T) {
	cal := DefaultCalibration()
	a := cal.Scorer(Falls).Evaluate(mustFlags(scenarioA()))
	b := cal.Scorer(Falls).Evaluate(mustFlags(scenarioB()))

	assert.Greater(t, b.Probability, a.Probability)
	assert.Equal(t, 0.2315, b.Probability)
	assert.Equal(t, models.RiskHigh, b.RiskLevel)
	assert.Equal(t, 18.17, b.OddsRatioVsMobile)
	assert.Equal(t, []string{
		"mobility:bedbound",
		FlagCognitiveDeliriumDementia,
		"interaction:bedbound_x_delirium_dementia",
	}, b.ContributingFactors)
}

func TestInteractionAddsOnTopOfIndividualTerms(t *testing.T) {
	cal := DefaultCalibration()
	s := cal.Scorer(Falls)

	in := scenarioA()
	in.MobilityStatus = "chair_bound"
	withoutDelirium := s.Score(mustFlags(in))

	in.CognitiveStatus = "delirium_dementia"
	withDelirium := s.Score(mustFlags(in))

	assert.InDelta(t, 0.70+0.60, withDelirium.Value-withoutDelirium.Value, 1e-9)
	assert.Contains(t, withDelirium.Factors, "interaction:chair_bound_x_delirium_dementia")

	in.MobilityStatus = "standing_assist"
	assert.NotContains(t, s.Score(mustFlags(in)).Factors, "interaction:standing_assist_x_delirium_dementia")
}

func TestScenarioBDeconditioningFactorsInOrder(t *testing.T) {
	res := DefaultCalibration().Scorer(Deconditioning).Evaluate(mustFlags(scenarioB()))
	assert.Equal(t, []string{
		"mobility:bedbound",
		FlagICU,
		FlagCognitiveDeliriumDementia,
		FlagImmobileGE3,
	}, res.ContributingFactors)
	assert.Equal(t, 0.5987, res.Probability)
	assert.Equal(t, 6.05, res.OddsRatioVsMobile)
	assert.Equal(t, models.RiskHigh, res.RiskLevel)
}

func TestFallsIgnoresCareSetting(t *testing.T) {
	s := DefaultCalibration().Scorer(Falls)
	ward := s.Score(mustFlags(scenarioA()))

	in := scenarioA()
	in.LevelOfCare = "icu"
	icu := s.Score(mustFlags(in))
	assert.Equal(t, ward, icu)
}

func TestAgeBandsContributeEachWeight(t *testing.T) {
	s := DefaultCalibration().Scorer(Deconditioning)
	young := s.Score(mustFlags(scenarioA()))

	in := scenarioA()
	in.Age = intPtr(82)
	old := s.Score(mustFlags(in))

	assert.InDelta(t, 0.25+0.20+0.30, old.Value-young.Value, 1e-9)
	assert.Equal(t, []string{"mobility:walking_assist", FlagAgeGE65, FlagAgeGE70, FlagAgeGE80}, old.Factors)
}

func TestFullyMobileOddsRatioIsOne(t *testing.T) {
	cal := DefaultCalibration()
	inputs := []models.RiskAssessmentInput{scenarioA(), scenarioB()}
	for _, in := range inputs {
		in.MobilityStatus = "independent"
		in.DaysImmobile = intPtr(2)
		f := mustFlags(in)
		for _, o := range Outcomes {
			assert.InDelta(t, 1.0, cal.Scorer(o).Evaluate(f).OddsRatioVsMobile, 0.01, o.String())
		}
	}
}

func TestDecreasingMobilityNeverLowersRisk(t *testing.T) {
	cal := DefaultCalibration()
	bases := []models.RiskAssessmentInput{scenarioA(), scenarioB()}

	loaded := scenarioB()
	loaded.Age = intPtr(84)
	loaded.BaselineFunction = "dependent"
	loaded.Comorbidities = []string{"diabetes", "obesity", "active breast cancer"}
	loaded.Medications = []string{"oxycodone", "dexamethasone"}
	loaded.OnVTEProphylaxis = boolPtr(false)
	loaded.HasIncontinence = true
	bases = append(bases, loaded)

	// independent → bedbound
	levels := []string{
		models.MobilityIndependent,
		models.MobilityWalkingAssist,
		models.MobilityStandingAssist,
		models.MobilityChairBound,
		models.MobilityBedbound,
	}
	for _, base := range bases {
		for _, o := range Outcomes {
			prev := 0.0
			for _, level := range levels {
				in := base
				in.MobilityStatus = level
				p := cal.Scorer(o).Evaluate(mustFlags(in)).Probability
				assert.GreaterOrEqual(t, p, prev, "%s at %s", o, level)
				prev = p
			}
		}
	}
}

func TestProbabilityStaysWithinBounds(t *testing.T) {
	cal := DefaultCalibration()
	for _, mob := range models.MobilityLevels {
		for _, cog := range models.CognitiveStatuses {
			for _, care := range models.LevelsOfCare {
				for _, age := range []int{18, 66, 75, 95} {
					in := scenarioB()
					in.MobilityStatus = mob
					in.CognitiveStatus = cog
					in.LevelOfCare = care
					in.Age = intPtr(age)
					in.Comorbidities = []string{"cancer", "dvt", "stroke", "diabetes", "malnutrition"}
					in.OnVTEProphylaxis = boolPtr(false)
					f := mustFlags(in)
					for _, o := range Outcomes {
						p := cal.Scorer(o).Evaluate(f).Probability
						assert.Greater(t, p, 0.0)
						assert.LessOrEqual(t, p, 0.95)
					}
				}
			}
		}
	}
}

func TestBandBoundariesAreInclusive(t *testing.T) {
	cal := DefaultCalibration()
	decond := cal.Bands(Deconditioning)
	assert.Equal(t, models.RiskHigh, decond.Level(0.25))
	assert.Equal(t, models.RiskModerate, decond.Level(0.2499))
	assert.Equal(t, models.RiskModerate, decond.Level(0.15))
	assert.Equal(t, models.RiskLow, decond.Level(0.1499))

	for _, o := range []Outcome{VTE, Falls, Pressure} {
		b := cal.Bands(o)
		assert.Equal(t, models.RiskModerate, b.Level(0.02), o.String())
		assert.Equal(t, models.RiskLow, b.Level(0.0199), o.String())
		assert.Equal(t, models.RiskHigh, b.Level(0.04), o.String())
	}
}

func TestProbabilityCapApplies(t *testing.T) {
	file := defaultCalibrationFile()
	falls := file.Outcomes["falls"]
	falls.Intercept = 5
	file.Outcomes["falls"] = falls
	cal, err := file.compile()
	require.NoError(t, err)

	res := cal.Scorer(Falls).Evaluate(mustFlags(scenarioB()))
	assert.Equal(t, 0.95, res.Probability)
	assert.Equal(t, 1.0, res.OddsRatioVsMobile)
	assert.Equal(t, models.RiskHigh, res.RiskLevel)
}
