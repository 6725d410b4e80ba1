package risk

import (
	"sort"
	"strings"

	"github.com/synaptica-ai/mobility-risk/pkg/common/models"
	"github.com/synaptica-ai/mobility-risk/pkg/mobility"
)

// Flag names. These are also the tags reported in contributing_factors and the
// keys used by the calibration table.
const (
	FlagAgeGE65                   = "age_ge65"
	FlagAgeGE70                   = "age_ge70"
	FlagAgeGE80                   = "age_ge80"
	FlagICU                       = "icu"
	FlagStepdown                  = "stepdown"
	FlagMalnutrition              = "malnutrition"
	FlagLowAlbumin                = "low_albumin"
	FlagBaselineWalker            = "baseline_walker"
	FlagBaselineDependent         = "baseline_dependent"
	FlagCognitiveMildImpairment   = "cognitive_mild_impairment"
	FlagCognitiveDeliriumDementia = "cognitive_delirium_dementia"
	FlagSteroids                  = "steroids"
	FlagSedatingMeds              = "sedating_meds"
	FlagAnticoagulant             = "anticoagulant"
	FlagImmobileGE3               = "immobile_ge3"
	FlagActiveCancer              = "active_cancer"
	FlagVTEHistory                = "vte_history"
	FlagPostoperative             = "postoperative"
	FlagTrauma                    = "trauma"
	FlagNoProphylaxis             = "no_prophylaxis"
	FlagStrokeHistory             = "stroke_history"
	FlagDeviceLine                = "device_line"
	FlagOrthopedic                = "orthopedic"
	FlagDiabetes                  = "diabetes"
	FlagMoisture                  = "moisture"
	FlagObesity                   = "obesity"
)

var knownFlags = map[string]struct{}{
	FlagAgeGE65: {}, FlagAgeGE70: {}, FlagAgeGE80: {},
	FlagICU: {}, FlagStepdown: {},
	FlagMalnutrition: {}, FlagLowAlbumin: {},
	FlagBaselineWalker: {}, FlagBaselineDependent: {},
	FlagCognitiveMildImpairment: {}, FlagCognitiveDeliriumDementia: {},
	FlagSteroids: {}, FlagSedatingMeds: {}, FlagAnticoagulant: {},
	FlagImmobileGE3:  {},
	FlagActiveCancer: {}, FlagVTEHistory: {}, FlagPostoperative: {}, FlagTrauma: {}, FlagNoProphylaxis: {},
	FlagStrokeHistory: {}, FlagDeviceLine: {}, FlagOrthopedic: {},
	FlagDiabetes: {}, FlagMoisture: {}, FlagObesity: {},
}

// lowAlbuminThreshold is in g/dL.
const lowAlbuminThreshold = 3.0

var (
	sedatingTokens = []string{
		"lorazepam", "diazepam", "midazolam", "alprazolam", "clonazepam", "temazepam", "zolpidem",
		"haloperidol", "quetiapine", "olanzapine", "risperidone",
		"morphine", "hydromorphone", "oxycodone", "fentanyl", "tramadol", "methadone",
		"diphenhydramine", "hydroxyzine", "trazodone", "gabapentin", "pregabalin",
	}
	anticoagulantTokens = []string{
		"heparin", "enoxaparin", "dalteparin", "fondaparinux",
		"warfarin", "apixaban", "rivaroxaban", "dabigatran", "edoxaban",
	}
	steroidTokens = []string{
		"prednisone", "prednisolone", "methylprednisolone", "dexamethasone", "hydrocortisone", "budesonide",
	}

	cancerTokens   = []string{"cancer", "malignan", "carcinoma", "lymphoma", "leukemia", "myeloma", "metasta"}
	vteTokens      = []string{"dvt", "deep vein thrombosis", "pulmonary embolism", "vte", "thromboembolism"}
	strokeTokens   = []string{"stroke", "cva", "cerebrovascular accident"}
	diabetesTokens = []string{"diabetes", "diabetic", "dm2", "t2dm", "iddm"}
)

// FeatureFlags is the deterministic projection of a Patient onto the flags
// the outcome scorers read.
type FeatureFlags struct {
	Mobility          string
	Cognitive         string
	LevelOfCare       string
	BaselineFunction  string
	DiagnosisCategory string
	BMI               *float64

	flags map[string]bool
}

// Has reports whether a named flag is set.
func (f FeatureFlags) Has(name string) bool {
	return f.flags[name]
}

// Active returns the set flags in lexical order.
func (f FeatureFlags) Active() []string {
	out := make([]string, 0, len(f.flags))
	for name, on := range f.flags {
		if on {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// ReferenceCase is the same patient fully mobile and not recently immobile.
func (f FeatureFlags) ReferenceCase() FeatureFlags {
	ref := f
	ref.Mobility = models.MobilityIndependent
	ref.flags = make(map[string]bool, len(f.flags))
	for name, on := range f.flags {
		ref.flags[name] = on
	}
	ref.flags[FlagImmobileGE3] = false
	return ref
}

// Extract derives feature flags from a normalized patient.
func Extract(p Patient) FeatureFlags {
	f := FeatureFlags{
		Mobility:          p.Mobility,
		Cognitive:         p.Cognitive,
		LevelOfCare:       p.LevelOfCare,
		BaselineFunction:  p.BaselineFunction,
		DiagnosisCategory: diagnosisCategory(p),
		flags:             make(map[string]bool, len(knownFlags)),
	}

	bmi, hasBMI := mobility.BMI(p.WeightKg, p.HeightCm)
	if hasBMI {
		f.BMI = &bmi
	}

	set := func(name string, on bool) {
		f.flags[name] = on
	}

	// Age bands are cumulative.
	set(FlagAgeGE65, p.Age >= 65)
	set(FlagAgeGE70, p.Age >= 70)
	set(FlagAgeGE80, p.Age >= 80)

	set(FlagICU, p.LevelOfCare == models.CareICU)
	set(FlagStepdown, p.LevelOfCare == models.CareStepdown)
	set(FlagBaselineWalker, p.BaselineFunction == models.BaselineWalker)
	set(FlagBaselineDependent, p.BaselineFunction == models.BaselineDependent)
	set(FlagCognitiveMildImpairment, p.Cognitive == models.CognitiveMildImpairment)
	set(FlagCognitiveDeliriumDementia, p.Cognitive == models.CognitiveDeliriumDementia)

	set(FlagMalnutrition, p.Malnutrition || containsAny(p.Comorbidities, "malnutrition", "cachexia"))
	set(FlagLowAlbumin, p.LowAlbumin || (p.AlbuminGDL != nil && *p.AlbuminGDL < lowAlbuminThreshold))

	set(FlagSedatingMeds, medicationBucket(p.Sedating, p.Medications, sedatingTokens))
	anticoagulant := medicationBucket(p.Anticoagulant, p.Medications, anticoagulantTokens)
	set(FlagAnticoagulant, anticoagulant)
	set(FlagSteroids, medicationBucket(p.Steroids, p.Medications, steroidTokens))

	set(FlagImmobileGE3, p.DaysImmobile >= 3)

	set(FlagActiveCancer, p.ActiveCancer || f.DiagnosisCategory == CategoryOncology || containsAny(p.Comorbidities, cancerTokens...))
	set(FlagVTEHistory, p.VTEHistory || containsAny(p.Comorbidities, vteTokens...))
	set(FlagPostoperative, p.Postoperative || f.DiagnosisCategory == CategoryPostOp)
	set(FlagTrauma, p.Trauma || f.DiagnosisCategory == CategoryTrauma)
	set(FlagNoProphylaxis, !p.OnProphylaxis && !anticoagulant)

	set(FlagStrokeHistory, p.StrokeHistory || containsAny(p.Comorbidities, strokeTokens...))
	set(FlagDeviceLine, p.HasDevices || p.Foley || p.CentralLine || p.FeedingTube || p.Ventilator)
	set(FlagOrthopedic, f.DiagnosisCategory == CategoryOrthopedic)

	set(FlagDiabetes, p.Diabetes || containsAny(p.Comorbidities, diabetesTokens...))
	set(FlagMoisture, p.Incontinence)
	set(FlagObesity, p.Obese || containsAny(p.Comorbidities, "obesity") || (hasBMI && bmi >= 30))

	return f
}

// Structured admission-type booleans win over the text-derived category.
func diagnosisCategory(p Patient) string {
	switch {
	case p.Trauma:
		return CategoryTrauma
	case p.Postoperative:
		return CategoryPostOp
	default:
		return Categorize(p.Diagnosis)
	}
}

// medicationBucket prefers the explicit structured answer when one was given.
func medicationBucket(explicit *bool, medications []string, tokens []string) bool {
	if explicit != nil {
		return *explicit
	}
	return containsAny(medications, tokens...)
}

func containsAny(values []string, tokens ...string) bool {
	for _, v := range values {
		for _, token := range tokens {
			if strings.Contains(v, token) {
				return true
			}
		}
	}
	return false
}
