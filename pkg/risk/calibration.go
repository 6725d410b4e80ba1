package risk

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/synaptica-ai/mobility-risk/pkg/common/models"
	"gopkg.in/yaml.v3"
)

// Bands are the probability thresholds at which an outcome is reported as
// moderate or high risk. Both bounds are inclusive.
type Bands struct {
	High     float64 `yaml:"high" json:"high"`
	Moderate float64 `yaml:"moderate" json:"moderate"`
}

// Level maps a probability onto low / moderate / high.
func (b Bands) Level(p float64) string {
	switch {
	case p >= b.High:
		return models.RiskHigh
	case p >= b.Moderate:
		return models.RiskModerate
	default:
		return models.RiskLow
	}
}

type factorFile struct {
	Name   string  `yaml:"name"`
	Weight float64 `yaml:"weight"`
}

type interactionFile struct {
	Mobility  []string `yaml:"mobility"`
	Cognitive []string `yaml:"cognitive"`
	Weight    float64  `yaml:"weight"`
}

type outcomeFile struct {
	Intercept       float64            `yaml:"intercept"`
	Mobility        map[string]float64 `yaml:"mobility"`
	SharedFactors   []string           `yaml:"shared_factors"`
	SpecificFactors []factorFile       `yaml:"specific_factors"`
	Interaction     *interactionFile   `yaml:"interaction,omitempty"`
	Bands           Bands              `yaml:"bands"`
}

type calibrationFile struct {
	ProbabilityCap float64                `yaml:"probability_cap"`
	SharedWeights  map[string]float64     `yaml:"shared_weights"`
	Outcomes       map[string]outcomeFile `yaml:"outcomes"`
}

type weightedFactor struct {
	name   string
	weight float64
}

type interaction struct {
	mobility  map[string]bool
	cognitive map[string]bool
	weight    float64
}

func (i *interaction) applies(f FeatureFlags) bool {
	return i != nil && i.mobility[f.Mobility] && i.cognitive[f.Cognitive]
}

type outcomeModel struct {
	intercept   float64
	mobility    map[string]float64
	factors     []weightedFactor
	interaction *interaction
	bands       Bands
}

// Calibration is the read-only model configuration shared by every scorer.
// It is built once and never mutated.
type Calibration struct {
	probabilityCap float64
	models         [outcomeCount]outcomeModel
}

func (c *Calibration) ProbabilityCap() float64 {
	return c.probabilityCap
}

func (c *Calibration) Intercept(o Outcome) float64 {
	return c.models[o].intercept
}

func (c *Calibration) Bands(o Outcome) Bands {
	return c.models[o].bands
}

// LoadCalibration reads a YAML calibration table. An empty path selects the
// built-in table.
func LoadCalibration(path string) (*Calibration, error) {
	if path == "" {
		return DefaultCalibration(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("reading calibration: %w", err)
	}
	return ParseCalibration(content)
}

// ParseCalibration compiles a YAML calibration table.
func ParseCalibration(content []byte) (*Calibration, error) {
	var file calibrationFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("parsing calibration: %w", err)
	}
	return file.compile()
}

// DefaultCalibration returns the built-in table.
func DefaultCalibration() *Calibration {
	cal, err := defaultCalibrationFile().compile()
	if err != nil {
		panic(fmt.Sprintf("built-in calibration invalid: %v", err))
	}
	return cal
}

func (file calibrationFile) compile() (*Calibration, error) {
	if file.ProbabilityCap <= 0 || file.ProbabilityCap > 1 {
		return nil, fmt.Errorf("%w: probability_cap %v not in (0, 1]", errBadCalibration, file.ProbabilityCap)
	}
	for name := range file.SharedWeights {
		if _, ok := knownFlags[name]; !ok {
			return nil, fmt.Errorf("%w: unknown shared factor %q", errBadCalibration, name)
		}
	}
	for key := range file.Outcomes {
		if _, err := ParseOutcome(key); err != nil {
			return nil, fmt.Errorf("%w: %v", errBadCalibration, err)
		}
	}

	cal := &Calibration{probabilityCap: file.ProbabilityCap}
	for _, o := range Outcomes {
		def, ok := file.Outcomes[o.String()]
		if !ok {
			return nil, fmt.Errorf("%w: outcome %s missing", errBadCalibration, o)
		}
		model, err := def.compile(file.SharedWeights)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", errBadCalibration, o, err)
		}
		cal.models[o] = model
	}
	return cal, nil
}

func (def outcomeFile) compile(shared map[string]float64) (outcomeModel, error) {
	model := outcomeModel{
		intercept: def.Intercept,
		mobility:  make(map[string]float64, len(models.MobilityLevels)),
		bands:     def.Bands,
	}
	for _, level := range models.MobilityLevels {
		w, ok := def.Mobility[level]
		if !ok {
			return outcomeModel{}, fmt.Errorf("mobility weight for %q missing", level)
		}
		model.mobility[level] = w
	}
	if len(def.Mobility) != len(models.MobilityLevels) {
		return outcomeModel{}, fmt.Errorf("unexpected mobility levels in %v", def.Mobility)
	}

	for _, name := range def.SharedFactors {
		w, ok := shared[name]
		if !ok {
			return outcomeModel{}, fmt.Errorf("shared factor %q has no weight", name)
		}
		model.factors = append(model.factors, weightedFactor{name: name, weight: w})
	}
	for _, f := range def.SpecificFactors {
		if _, ok := knownFlags[f.Name]; !ok {
			return outcomeModel{}, fmt.Errorf("unknown factor %q", f.Name)
		}
		model.factors = append(model.factors, weightedFactor{name: f.Name, weight: f.Weight})
	}

	if def.Interaction != nil {
		in := &interaction{
			mobility:  map[string]bool{},
			cognitive: map[string]bool{},
			weight:    def.Interaction.Weight,
		}
		for _, m := range def.Interaction.Mobility {
			if _, ok := model.mobility[m]; !ok {
				return outcomeModel{}, fmt.Errorf("interaction mobility %q unknown", m)
			}
			in.mobility[m] = true
		}
		for _, c := range def.Interaction.Cognitive {
			if !isOneOf(c, models.CognitiveStatuses) {
				return outcomeModel{}, fmt.Errorf("interaction cognitive status %q unknown", c)
			}
			in.cognitive[c] = true
		}
		if len(in.mobility) == 0 || len(in.cognitive) == 0 {
			return outcomeModel{}, fmt.Errorf("interaction needs mobility and cognitive terms")
		}
		model.interaction = in
	}

	b := def.Bands
	if !(0 < b.Moderate && b.Moderate <= b.High && b.High <= 1) {
		return outcomeModel{}, fmt.Errorf("bands %+v must satisfy 0 < moderate <= high <= 1", b)
	}
	return model, nil
}

func isOneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

var ageBands = []string{FlagAgeGE65, FlagAgeGE70, FlagAgeGE80}

func withAge(names ...string) []string {
	return append(append([]string{}, ageBands...), names...)
}

func defaultCalibrationFile() calibrationFile {
	return calibrationFile{
		ProbabilityCap: 0.95,
		SharedWeights: map[string]float64{
			FlagAgeGE65:           0.25,
			FlagAgeGE70:           0.20,
			FlagAgeGE80:           0.30,
			FlagICU:               0.60,
			FlagStepdown:          0.30,
			FlagMalnutrition:      0.40,
			FlagLowAlbumin:        0.35,
			FlagBaselineWalker:    0.30,
			FlagBaselineDependent: 0.60,
		},
		Outcomes: map[string]outcomeFile{
			"deconditioning": {
				Intercept: -2.6,
				Mobility: map[string]float64{
					models.MobilityIndependent:    0,
					models.MobilityWalkingAssist:  0.30,
					models.MobilityStandingAssist: 0.60,
					models.MobilityChairBound:     0.90,
					models.MobilityBedbound:       1.30,
				},
				SharedFactors: withAge(FlagICU, FlagStepdown, FlagMalnutrition, FlagLowAlbumin, FlagBaselineWalker, FlagBaselineDependent),
				SpecificFactors: []factorFile{
					{FlagCognitiveMildImpairment, 0.30},
					{FlagCognitiveDeliriumDementia, 0.60},
					{FlagSteroids, 0.25},
					{FlagImmobileGE3, 0.50},
				},
				Bands: Bands{High: 0.25, Moderate: 0.15},
			},
			"vte": {
				Intercept: -4.8,
				Mobility: map[string]float64{
					models.MobilityIndependent:    0,
					models.MobilityWalkingAssist:  0.25,
					models.MobilityStandingAssist: 0.50,
					models.MobilityChairBound:     0.80,
					models.MobilityBedbound:       1.10,
				},
				SharedFactors: withAge(FlagICU, FlagStepdown),
				SpecificFactors: []factorFile{
					{FlagActiveCancer, 0.70},
					{FlagVTEHistory, 0.90},
					{FlagPostoperative, 0.50},
					{FlagTrauma, 0.60},
					{FlagNoProphylaxis, 0.80},
				},
				Bands: Bands{High: 0.04, Moderate: 0.02},
			},
			"falls": {
				Intercept: -4.8,
				Mobility: map[string]float64{
					models.MobilityIndependent:    0,
					models.MobilityWalkingAssist:  0.70,
					models.MobilityStandingAssist: 1.40,
					models.MobilityChairBound:     1.90,
					models.MobilityBedbound:       2.30,
				},
				SharedFactors: withAge(FlagBaselineWalker, FlagBaselineDependent),
				SpecificFactors: []factorFile{
					{FlagCognitiveMildImpairment, 0.30},
					{FlagCognitiveDeliriumDementia, 0.70},
					{FlagSedatingMeds, 0.50},
					{FlagStrokeHistory, 0.40},
					{FlagDeviceLine, 0.30},
					{FlagOrthopedic, 0.35},
				},
				Interaction: &interactionFile{
					Mobility:  []string{models.MobilityBedbound, models.MobilityChairBound},
					Cognitive: []string{models.CognitiveDeliriumDementia},
					Weight:    0.60,
				},
				Bands: Bands{High: 0.04, Moderate: 0.02},
			},
			"pressure": {
				Intercept: -4.9,
				Mobility: map[string]float64{
					models.MobilityIndependent:    0,
					models.MobilityWalkingAssist:  0.20,
					models.MobilityStandingAssist: 0.50,
					models.MobilityChairBound:     0.90,
					models.MobilityBedbound:       1.40,
				},
				SharedFactors: withAge(FlagICU, FlagStepdown, FlagMalnutrition, FlagLowAlbumin, FlagBaselineDependent),
				SpecificFactors: []factorFile{
					{FlagDiabetes, 0.35},
					{FlagMoisture, 0.50},
					{FlagImmobileGE3, 0.55},
					{FlagObesity, 0.30},
				},
				Bands: Bands{High: 0.04, Moderate: 0.02},
			},
		},
	}
}
