package models

import (
	"encoding/json"
	"time"
)

// Mobility status, most to least impaired.
const (
	MobilityBedbound       = "bedbound"
	MobilityChairBound     = "chair_bound"
	MobilityStandingAssist = "standing_assist"
	MobilityWalkingAssist  = "walking_assist"
	MobilityIndependent    = "independent"
)

// MobilityLevels lists the ordinal scale from bedbound to independent.
var MobilityLevels = []string{
	MobilityBedbound,
	MobilityChairBound,
	MobilityStandingAssist,
	MobilityWalkingAssist,
	MobilityIndependent,
}

const (
	CognitiveNormal           = "normal"
	CognitiveMildImpairment   = "mild_impairment"
	CognitiveDeliriumDementia = "delirium_dementia"
)

var CognitiveStatuses = []string{CognitiveNormal, CognitiveMildImpairment, CognitiveDeliriumDementia}

const (
	CareICU      = "icu"
	CareStepdown = "stepdown"
	CareWard     = "ward"
	CareRehab    = "rehab"
)

var LevelsOfCare = []string{CareICU, CareStepdown, CareWard, CareRehab}

const (
	BaselineIndependent = "independent"
	BaselineWalker      = "walker"
	BaselineDependent   = "dependent"
)

var BaselineFunctions = []string{BaselineIndependent, BaselineWalker, BaselineDependent}

// Risk levels reported per outcome.
const (
	RiskLow      = "low"
	RiskModerate = "moderate"
	RiskHigh     = "high"
)

// RiskAssessmentInput is the patient snapshot submitted for scoring. Pointer
// fields distinguish "not supplied" from a zero value.
type RiskAssessmentInput struct {
	PatientID          string   `json:"patient_id,omitempty"`
	Age                *int     `json:"age"`
	Sex                string   `json:"sex"`
	WeightKg           *float64 `json:"weight_kg,omitempty"`
	HeightCm           *float64 `json:"height_cm,omitempty"`
	MobilityStatus     string   `json:"mobility_status"`
	CognitiveStatus    string   `json:"cognitive_status,omitempty"`
	LevelOfCare        string   `json:"level_of_care"`
	BaselineFunction   string   `json:"baseline_function,omitempty"`
	AdmissionDiagnosis string   `json:"admission_diagnosis,omitempty"`
	Comorbidities      []string `json:"comorbidities,omitempty"`
	Medications        []string `json:"medications,omitempty"`
	Devices            []string `json:"devices,omitempty"`
	DaysImmobile       *int     `json:"days_immobile,omitempty"`
	AlbuminGDL         *float64 `json:"albumin_g_dl,omitempty"`

	OnVTEProphylaxis *bool `json:"on_vte_prophylaxis,omitempty"`
	OnSedatingMeds   *bool `json:"on_sedating_meds,omitempty"`
	OnAnticoagulant  *bool `json:"on_anticoagulant,omitempty"`
	OnSteroids       *bool `json:"on_steroids,omitempty"`

	IsPostoperative  bool `json:"is_postoperative,omitempty"`
	IsTrauma         bool `json:"is_trauma,omitempty"`
	HasFoleyCatheter bool `json:"has_foley_catheter,omitempty"`
	HasCentralLine   bool `json:"has_central_line,omitempty"`
	HasFeedingTube   bool `json:"has_feeding_tube,omitempty"`
	OnVentilator     bool `json:"on_ventilator,omitempty"`
	IsObese          bool `json:"is_obese,omitempty"`
	HasIncontinence  bool `json:"has_incontinence,omitempty"`
	Malnutrition     bool `json:"malnutrition,omitempty"`
	LowAlbumin       bool `json:"low_albumin,omitempty"`
	ActiveCancer     bool `json:"active_cancer,omitempty"`
	VTEHistory       bool `json:"vte_history,omitempty"`
	StrokeHistory    bool `json:"stroke_history,omitempty"`
	Diabetes         bool `json:"diabetes,omitempty"`

	raw json.RawMessage
}

type inputAlias RiskAssessmentInput

// UnmarshalJSON keeps the request bytes so the input echo is verbatim,
// including explicit false values and keys this type does not know.
func (in *RiskAssessmentInput) UnmarshalJSON(data []byte) error {
	var alias inputAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	*in = RiskAssessmentInput(alias)
	in.raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON returns the decoded bytes when the input came from JSON and
// the field encoding otherwise.
func (in RiskAssessmentInput) MarshalJSON() ([]byte, error) {
	if len(in.raw) > 0 {
		return in.raw, nil
	}
	return json.Marshal(inputAlias(in))
}

// OutcomeResult is the calibrated result for one outcome.
type OutcomeResult struct {
	Probability         float64  `json:"probability"`
	OddsRatioVsMobile   float64  `json:"odds_ratio_vs_mobile"`
	RiskLevel           string   `json:"risk_level"`
	ContributingFactors []string `json:"contributing_factors"`
}

type PrescriptionDebug struct {
	UsedWkg     *float64 `json:"used_wkg,omitempty"`
	BMI         *float64 `json:"bmi,omitempty"`
	Age         int      `json:"age"`
	LevelOfCare string   `json:"level_of_care"`
	Mobility    string   `json:"mobility"`
}

// MobilityRecommendation is a cycle-ergometer dose. TotalDailyEnergy is in watt-minutes.
type MobilityRecommendation struct {
	WattGoal              float64           `json:"watt_goal"`
	DurationMinPerSession int               `json:"duration_min_per_session"`
	SessionsPerDay        int               `json:"sessions_per_day"`
	TotalDailyEnergy      int               `json:"total_daily_energy"`
	Notes                 string            `json:"notes"`
	Debug                 PrescriptionDebug `json:"debug"`
}

// RiskAssessmentResult merges the four outcomes, the prescription and any keys
// contributed by the stay-prediction extension. Extension keys are flattened
// into the top-level JSON object and never overwrite the base keys.
type RiskAssessmentResult struct {
	Deconditioning         OutcomeResult          `json:"deconditioning"`
	VTE                    OutcomeResult          `json:"vte"`
	Falls                  OutcomeResult          `json:"falls"`
	Pressure               OutcomeResult          `json:"pressure"`
	MobilityRecommendation MobilityRecommendation `json:"mobility_recommendation"`
	InputEcho              RiskAssessmentInput    `json:"input_echo"`
	Extensions             map[string]interface{} `json:"-"`
}

type resultAlias RiskAssessmentResult

func (r RiskAssessmentResult) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(resultAlias(r))
	if err != nil {
		return nil, err
	}
	if len(r.Extensions) == 0 {
		return base, nil
	}
	merged := map[string]json.RawMessage{}
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for key, value := range r.Extensions {
		if _, exists := merged[key]; exists {
			continue
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		merged[key] = raw
	}
	return json.Marshal(merged)
}

func (r *RiskAssessmentResult) UnmarshalJSON(data []byte) error {
	var alias resultAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, key := range baseResultKeys {
		delete(all, key)
	}
	if len(all) > 0 {
		alias.Extensions = make(map[string]interface{}, len(all))
		for key, raw := range all {
			var value interface{}
			if err := json.Unmarshal(raw, &value); err != nil {
				return err
			}
			alias.Extensions[key] = value
		}
	}
	*r = RiskAssessmentResult(alias)
	return nil
}

var baseResultKeys = []string{"deconditioning", "vte", "falls", "pressure", "mobility_recommendation", "input_echo"}

// StoredAssessment is a persisted assessment as returned to API callers.
type StoredAssessment struct {
	ID        string               `json:"id"`
	PatientID string               `json:"patient_id,omitempty"`
	Result    RiskAssessmentResult `json:"result"`
	Cached    bool                 `json:"cached,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}

// Event Bus models
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}
