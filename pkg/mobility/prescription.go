package mobility

import (
	"errors"
	"fmt"
	"math"

	"github.com/synaptica-ai/mobility-risk/pkg/common/models"
	"github.com/synaptica-ai/mobility-risk/pkg/ml/linear"
)

// Device limits for the electromechanical flywheel ergometer.
const (
	MinWatts = 25.0
	MaxWatts = 70.0

	deviceGain = 1.4

	minWkg = 0.18
	maxWkg = 0.48

	sessionsPerDay = 2
)

var ErrUnknownMobility = errors.New("unknown mobility status")

// Patient carries the resolved inputs the prescription depends on.
type Patient struct {
	Age         int
	Male        bool
	WeightKg    *float64
	HeightCm    *float64
	LevelOfCare string
	Mobility    string
}

// Func produces a recommendation for a resolved patient.
type Func func(Patient) (models.MobilityRecommendation, error)

type band struct {
	low, high float64
}

func (b band) mid() float64 {
	return (b.low + b.high) / 2
}

// Watts per kilogram, by mobility status.
var intensityBands = map[string]band{
	models.MobilityBedbound:       {0.20, 0.28},
	models.MobilityChairBound:     {0.22, 0.32},
	models.MobilityStandingAssist: {0.26, 0.36},
	models.MobilityWalkingAssist:  {0.30, 0.40},
	models.MobilityIndependent:    {0.32, 0.45},
}

// Used when body weight is unknown.
var fallbackWatts = map[string]float64{
	models.MobilityBedbound:       15,
	models.MobilityChairBound:     20,
	models.MobilityStandingAssist: 25,
	models.MobilityWalkingAssist:  30,
	models.MobilityIndependent:    35,
}

var careFactors = map[string]float64{
	models.CareICU:      0.85,
	models.CareStepdown: 0.93,
	models.CareWard:     1.0,
	models.CareRehab:    1.0,
}

// Prescribe computes the anthropometric-aware cycle-ergometer dose.
func Prescribe(p Patient) (models.MobilityRecommendation, error) {
	b, ok := intensityBands[p.Mobility]
	if !ok {
		return models.MobilityRecommendation{}, fmt.Errorf("%w: %q", ErrUnknownMobility, p.Mobility)
	}

	bmi, hasBMI := BMI(p.WeightKg, p.HeightCm)
	debug := models.PrescriptionDebug{
		Age:         p.Age,
		LevelOfCare: p.LevelOfCare,
		Mobility:    p.Mobility,
	}
	if hasBMI {
		rounded := linear.Round(bmi, 1)
		debug.BMI = &rounded
	}

	var watts float64
	fallback := p.WeightKg == nil || *p.WeightKg <= 0
	if fallback {
		watts = fallbackWatts[p.Mobility] * careFactor(p.LevelOfCare) * ageFactor(p.Age)
	} else {
		wkg := b.mid()
		wkg *= careFactor(p.LevelOfCare)
		wkg *= ageFactor(p.Age)
		wkg *= sexFactor(p.Male)
		if hasBMI {
			if limit, capped := bmiCap(bmi); capped {
				wkg = math.Min(wkg, limit)
			}
		}
		wkg = clamp(wkg, minWkg, maxWkg)
		used := linear.Round(wkg, 3)
		debug.UsedWkg = &used
		watts = wkg * *p.WeightKg
	}

	watts = recalibrate(watts)
	watts = linear.Round(clamp(watts, MinWatts, MaxWatts), 1)

	rec := dose(watts, Duration(p.Mobility, p.LevelOfCare))
	if fallback {
		rec.Notes += " Body weight unavailable; flat-watt fallback used."
	}
	rec.Debug = debug
	return rec, nil
}

// Duration returns the per-session minutes for a mobility status and care setting.
func Duration(mobility, levelOfCare string) int {
	if levelOfCare == models.CareICU {
		if mobility == models.MobilityBedbound {
			return 8
		}
		return 10
	}
	switch mobility {
	case models.MobilityBedbound, models.MobilityChairBound:
		return 10
	case models.MobilityStandingAssist, models.MobilityWalkingAssist:
		return 12
	default:
		return 15
	}
}

// ResistanceLevel maps a watt target onto the device's resistance dial.
func ResistanceLevel(watts float64) int {
	return int(math.Round((watts-MinWatts)/45*8 + 3))
}

// BMI returns weight / height² when both are known and positive.
func BMI(weightKg, heightCm *float64) (float64, bool) {
	if weightKg == nil || heightCm == nil || *weightKg <= 0 || *heightCm <= 0 {
		return 0, false
	}
	m := *heightCm / 100
	return *weightKg / (m * m), true
}

func dose(watts float64, duration int) models.MobilityRecommendation {
	return models.MobilityRecommendation{
		WattGoal:              watts,
		DurationMinPerSession: duration,
		SessionsPerDay:        sessionsPerDay,
		TotalDailyEnergy:      int(math.Round(watts * float64(duration) * sessionsPerDay)),
		Notes: fmt.Sprintf("Cycle at %.1f W (equivalent resistance level %d) for %d min, %d sessions/day.",
			watts, ResistanceLevel(watts), duration, sessionsPerDay),
	}
}

// recalibrate models the flywheel's minimum usable resistance.
func recalibrate(watts float64) float64 {
	return math.Max(watts*deviceGain, MinWatts)
}

func careFactor(levelOfCare string) float64 {
	if f, ok := careFactors[levelOfCare]; ok {
		return f
	}
	return 1.0
}

// First match wins.
func ageFactor(age int) float64 {
	switch {
	case age >= 80:
		return 0.88
	case age >= 70:
		return 0.93
	case age <= 45:
		return 1.05
	default:
		return 1.0
	}
}

func sexFactor(male bool) float64 {
	if male {
		return 1.03
	}
	return 1.0
}

func bmiCap(bmi float64) (float64, bool) {
	switch {
	case bmi >= 40:
		return 0.28, true
	case bmi >= 35:
		return 0.30, true
	case bmi < 18.5:
		return 0.26, true
	default:
		return 0, false
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
