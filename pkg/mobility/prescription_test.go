package mobility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synaptica-ai/mobility-risk/pkg/common/models"
)

func ptr(v float64) *float64 { return &v }

func TestPrescribeWalkingAssistWard(t *testing.T) {
	rec, err := Prescribe(Patient{
		Age:         35,
		Male:        true,
		WeightKg:    ptr(75),
		HeightCm:    ptr(178),
		LevelOfCare: models.CareWard,
		Mobility:    models.MobilityWalkingAssist,
	})
	require.NoError(t, err)

	assert.Equal(t, 39.7, rec.WattGoal)
	assert.Equal(t, 12, rec.DurationMinPerSession)
	assert.Equal(t, 2, rec.SessionsPerDay)
	assert.Equal(t, 953, rec.TotalDailyEnergy)
	assert.Contains(t, rec.Notes, "equivalent resistance level 6")

	require.NotNil(t, rec.Debug.UsedWkg)
	assert.InDelta(t, 0.379, *rec.Debug.UsedWkg, 0.0005)
	require.NotNil(t, rec.Debug.BMI)
	assert.Equal(t, 23.7, *rec.Debug.BMI)
	assert.Equal(t, 35, rec.Debug.Age)
	assert.Equal(t, models.CareWard, rec.Debug.LevelOfCare)
	assert.Equal(t, models.MobilityWalkingAssist, rec.Debug.Mobility)
}

func TestPrescribeBedboundICUHitsDeviceFloor(t *testing.T) {
	rec, err := Prescribe(Patient{
		Age:         35,
		Male:        true,
		WeightKg:    ptr(75),
		HeightCm:    ptr(178),
		LevelOfCare: models.CareICU,
		Mobility:    models.MobilityBedbound,
	})
	require.NoError(t, err)

	assert.Equal(t, 25.0, rec.WattGoal)
	assert.Equal(t, 8, rec.DurationMinPerSession)
	assert.Equal(t, 400, rec.TotalDailyEnergy)
	assert.Contains(t, rec.Notes, "equivalent resistance level 3")
}

func TestPrescribeClampsIntensityToGlobalFloor(t *testing.T) {
	rec, err := Prescribe(Patient{
		Age:         85,
		WeightKg:    ptr(60),
		HeightCm:    ptr(160),
		LevelOfCare: models.CareICU,
		Mobility:    models.MobilityBedbound,
	})
	require.NoError(t, err)
	require.NotNil(t, rec.Debug.UsedWkg)
	assert.Equal(t, 0.18, *rec.Debug.UsedWkg)
	assert.Equal(t, 25.0, rec.WattGoal)
}

func TestPrescribeAppliesBMICap(t *testing.T) {
	rec, err := Prescribe(Patient{
		Age:         50,
		WeightKg:    ptr(130),
		HeightCm:    ptr(170),
		LevelOfCare: models.CareWard,
		Mobility:    models.MobilityIndependent,
	})
	require.NoError(t, err)

	require.NotNil(t, rec.Debug.UsedWkg)
	assert.Equal(t, 0.28, *rec.Debug.UsedWkg)
	assert.Equal(t, 51.0, rec.WattGoal)
	assert.Equal(t, 15, rec.DurationMinPerSession)
	assert.Equal(t, 1530, rec.TotalDailyEnergy)
}

func TestPrescribeClampsToDeviceMaximum(t *testing.T) {
	rec, err := Prescribe(Patient{
		Age:         30,
		Male:        true,
		WeightKg:    ptr(140),
		HeightCm:    ptr(210),
		LevelOfCare: models.CareRehab,
		Mobility:    models.MobilityIndependent,
	})
	require.NoError(t, err)
	assert.Equal(t, MaxWatts, rec.WattGoal)
	assert.Equal(t, 2100, rec.TotalDailyEnergy)
}

func TestPrescribeWithoutWeightUsesFallback(t *testing.T) {
	rec, err := Prescribe(Patient{
		Age:         35,
		Male:        true,
		LevelOfCare: models.CareWard,
		Mobility:    models.MobilityWalkingAssist,
	})
	require.NoError(t, err)

	assert.Equal(t, 44.1, rec.WattGoal)
	assert.Nil(t, rec.Debug.UsedWkg)
	assert.Nil(t, rec.Debug.BMI)
	assert.Contains(t, rec.Notes, "fallback")
}

func TestPrescribeWithoutHeightSkipsBMI(t *testing.T) {
	rec, err := Prescribe(Patient{
		Age:         50,
		WeightKg:    ptr(130),
		LevelOfCare: models.CareWard,
		Mobility:    models.MobilityIndependent,
	})
	require.NoError(t, err)
	assert.Nil(t, rec.Debug.BMI)
	require.NotNil(t, rec.Debug.UsedWkg)
	assert.InDelta(t, 0.385, *rec.Debug.UsedWkg, 1e-9)
}

func TestPrescribeRejectsUnknownMobility(t *testing.T) {
	_, err := Prescribe(Patient{Mobility: "crawling"})
	assert.ErrorIs(t, err, ErrUnknownMobility)
}

func TestPrescriptionBoundsAcrossPatients(t *testing.T) {
	weights := []*float64{nil, ptr(40), ptr(75), ptr(160)}
	heights := []*float64{nil, ptr(150), ptr(185)}
	for _, mob := range models.MobilityLevels {
		for _, care := range models.LevelsOfCare {
			for _, age := range []int{20, 45, 60, 72, 90} {
				for _, w := range weights {
					for _, h := range heights {
						rec, err := Prescribe(Patient{Age: age, Male: age%2 == 0, WeightKg: w, HeightCm: h, LevelOfCare: care, Mobility: mob})
						require.NoError(t, err)
						assert.GreaterOrEqual(t, rec.WattGoal, MinWatts)
						assert.LessOrEqual(t, rec.WattGoal, MaxWatts)
						assert.Contains(t, []int{8, 10, 12, 15}, rec.DurationMinPerSession)
						assert.Equal(t, 2, rec.SessionsPerDay)
					}
				}
			}
		}
	}
}

func TestDuration(t *testing.T) {
	cases := []struct {
		mobility, care string
		want           int
	}{
		{models.MobilityBedbound, models.CareICU, 8},
		{models.MobilityChairBound, models.CareICU, 10},
		{models.MobilityIndependent, models.CareICU, 10},
		{models.MobilityBedbound, models.CareWard, 10},
		{models.MobilityChairBound, models.CareStepdown, 10},
		{models.MobilityStandingAssist, models.CareWard, 12},
		{models.MobilityWalkingAssist, models.CareRehab, 12},
		{models.MobilityIndependent, models.CareWard, 15},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Duration(tc.mobility, tc.care), "%s/%s", tc.mobility, tc.care)
	}
}

func TestResistanceLevel(t *testing.T) {
	assert.Equal(t, 3, ResistanceLevel(25))
	assert.Equal(t, 11, ResistanceLevel(70))
	assert.Equal(t, 7, ResistanceLevel(47.5))
}

func TestLegacyVariant(t *testing.T) {
	fn, err := ForVariant("LEGACY")
	require.NoError(t, err)

	rec, err := fn(Patient{Age: 60, LevelOfCare: models.CareWard, Mobility: models.MobilityStandingAssist})
	require.NoError(t, err)
	assert.Equal(t, 35.0, rec.WattGoal)
	assert.Equal(t, 12, rec.DurationMinPerSession)
	assert.Equal(t, 840, rec.TotalDailyEnergy)
	assert.Nil(t, rec.Debug.UsedWkg)

	_, err = ForVariant("turbo")
	assert.Error(t, err)
}
