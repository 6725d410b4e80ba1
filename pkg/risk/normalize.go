package risk

import (
	"strings"

	"github.com/synaptica-ai/mobility-risk/pkg/common/models"
	"github.com/synaptica-ai/mobility-risk/pkg/mobility"
)

// Patient is a fully-resolved input: every optional field carries its
// default and every categorical value has been checked against its table.
type Patient struct {
	Age              int
	Male             bool
	WeightKg         *float64
	HeightCm         *float64
	Mobility         string
	Cognitive        string
	LevelOfCare      string
	BaselineFunction string
	Diagnosis        string
	Comorbidities    []string
	Medications      []string
	Devices          []string
	HasDevices       bool
	DaysImmobile     int
	AlbuminGDL       *float64

	OnProphylaxis bool
	Sedating      *bool
	Anticoagulant *bool
	Steroids      *bool

	Postoperative bool
	Trauma        bool
	Foley         bool
	CentralLine   bool
	FeedingTube   bool
	Ventilator    bool
	Obese         bool
	Incontinence  bool
	Malnutrition  bool
	LowAlbumin    bool
	ActiveCancer  bool
	VTEHistory    bool
	StrokeHistory bool
	Diabetes      bool
}

// Normalize validates the snapshot and resolves defaults in a single pass.
func Normalize(in models.RiskAssessmentInput) (Patient, error) {
	if in.Age == nil {
		return Patient{}, missing("age")
	}
	if *in.Age < 0 || *in.Age > 130 {
		return Patient{}, outOfRange("age", *in.Age)
	}

	sex := lower(in.Sex)
	if sex == "" {
		return Patient{}, missing("sex")
	}

	mob, err := category("mobility_status", in.MobilityStatus, "", models.MobilityLevels)
	if err != nil {
		return Patient{}, err
	}
	care, err := category("level_of_care", in.LevelOfCare, "", models.LevelsOfCare)
	if err != nil {
		return Patient{}, err
	}
	cog, err := category("cognitive_status", in.CognitiveStatus, models.CognitiveNormal, models.CognitiveStatuses)
	if err != nil {
		return Patient{}, err
	}
	baseline, err := category("baseline_function", in.BaselineFunction, models.BaselineIndependent, models.BaselineFunctions)
	if err != nil {
		return Patient{}, err
	}

	if in.WeightKg != nil && *in.WeightKg <= 0 {
		return Patient{}, outOfRange("weight_kg", *in.WeightKg)
	}
	if in.HeightCm != nil && *in.HeightCm <= 0 {
		return Patient{}, outOfRange("height_cm", *in.HeightCm)
	}

	days := 0
	if in.DaysImmobile != nil {
		if *in.DaysImmobile < 0 {
			return Patient{}, outOfRange("days_immobile", *in.DaysImmobile)
		}
		days = *in.DaysImmobile
	}

	p := Patient{
		Age:              *in.Age,
		Male:             sex == "m" || sex == "male",
		WeightKg:         in.WeightKg,
		HeightCm:         in.HeightCm,
		Mobility:         mob,
		Cognitive:        cog,
		LevelOfCare:      care,
		BaselineFunction: baseline,
		Diagnosis:        lower(in.AdmissionDiagnosis),
		Comorbidities:    lowerAll(in.Comorbidities),
		Medications:      lowerAll(in.Medications),
		Devices:          lowerAll(in.Devices),
		HasDevices:       len(in.Devices) > 0,
		DaysImmobile:     days,
		AlbuminGDL:       in.AlbuminGDL,
		OnProphylaxis:    in.OnVTEProphylaxis == nil || *in.OnVTEProphylaxis,
		Sedating:         in.OnSedatingMeds,
		Anticoagulant:    in.OnAnticoagulant,
		Steroids:         in.OnSteroids,
		Postoperative:    in.IsPostoperative,
		Trauma:           in.IsTrauma,
		Foley:            in.HasFoleyCatheter,
		CentralLine:      in.HasCentralLine,
		FeedingTube:      in.HasFeedingTube,
		Ventilator:       in.OnVentilator,
		Obese:            in.IsObese,
		Incontinence:     in.HasIncontinence,
		Malnutrition:     in.Malnutrition,
		LowAlbumin:       in.LowAlbumin,
		ActiveCancer:     in.ActiveCancer,
		VTEHistory:       in.VTEHistory,
		StrokeHistory:    in.StrokeHistory,
		Diabetes:         in.Diabetes,
	}
	return p, nil
}

// Prescription returns the subset of the patient the dose generator reads.
func (p Patient) Prescription() mobility.Patient {
	return mobility.Patient{
		Age:         p.Age,
		Male:        p.Male,
		WeightKg:    p.WeightKg,
		HeightCm:    p.HeightCm,
		LevelOfCare: p.LevelOfCare,
		Mobility:    p.Mobility,
	}
}

var separators = strings.NewReplacer("-", "_", " ", "_")

func category(field, value, fallback string, allowed []string) (string, error) {
	v := separators.Replace(lower(value))
	if v == "" {
		if fallback == "" {
			return "", missing(field)
		}
		return fallback, nil
	}
	for _, a := range allowed {
		if v == a {
			return v, nil
		}
	}
	return "", unknown(field, value)
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if l := lower(v); l != "" {
			out = append(out, l)
		}
	}
	return out
}
