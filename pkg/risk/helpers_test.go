package risk

import "github.com/synaptica-ai/mobility-risk/pkg/common/models"

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }

// scenarioA is a young post-appendectomy ward patient walking with assistance.
func scenarioA() models.RiskAssessmentInput {
	return models.RiskAssessmentInput{
		Age:                intPtr(35),
		Sex:                "M",
		WeightKg:           floatPtr(75),
		HeightCm:           floatPtr(178),
		MobilityStatus:     "walking_assist",
		CognitiveStatus:    "normal",
		LevelOfCare:        "ward",
		BaselineFunction:   "independent",
		AdmissionDiagnosis: "appendectomy",
		Comorbidities:      []string{},
		Medications:        []string{},
		DaysImmobile:       intPtr(1),
		OnVTEProphylaxis:   boolPtr(true),
	}
}

// scenarioB is scenarioA bedbound and delirious in the ICU.
func scenarioB() models.RiskAssessmentInput {
	in := scenarioA()
	in.MobilityStatus = "bedbound"
	in.LevelOfCare = "icu"
	in.CognitiveStatus = "delirium_dementia"
	in.DaysImmobile = intPtr(5)
	return in
}

func mustFlags(in models.RiskAssessmentInput) FeatureFlags {
	p, err := Normalize(in)
	if err != nil {
		panic(err)
	}
	return Extract(p)
}
