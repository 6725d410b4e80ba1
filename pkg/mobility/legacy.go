package mobility

import (
	"fmt"
	"strings"

	"github.com/synaptica-ai/mobility-risk/pkg/common/models"
)

const (
	VariantAnthropometric = "anthropometric"
	VariantLegacy         = "legacy"
)

// Flat targets from before body-mass scaling was introduced.
var legacyWatts = map[string]float64{
	models.MobilityBedbound:       25,
	models.MobilityChairBound:     30,
	models.MobilityStandingAssist: 35,
	models.MobilityWalkingAssist:  40,
	models.MobilityIndependent:    45,
}

// PrescribeLegacy keys the watt target on mobility status alone.
func PrescribeLegacy(p Patient) (models.MobilityRecommendation, error) {
	watts, ok := legacyWatts[p.Mobility]
	if !ok {
		return models.MobilityRecommendation{}, fmt.Errorf("%w: %q", ErrUnknownMobility, p.Mobility)
	}
	rec := dose(watts, Duration(p.Mobility, p.LevelOfCare))
	rec.Debug = models.PrescriptionDebug{
		Age:         p.Age,
		LevelOfCare: p.LevelOfCare,
		Mobility:    p.Mobility,
	}
	return rec, nil
}

// ForVariant resolves a configured variant name. Empty selects the anthropometric variant.
func ForVariant(name string) (Func, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", VariantAnthropometric:
		return Prescribe, nil
	case VariantLegacy:
		return PrescribeLegacy, nil
	default:
		return nil, fmt.Errorf("unknown prescription variant %q", name)
	}
}
