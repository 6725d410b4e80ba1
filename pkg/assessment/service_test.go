package assessment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synaptica-ai/mobility-risk/pkg/common/models"
	"github.com/synaptica-ai/mobility-risk/pkg/risk"
)

var fixedNow = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

func newTestService(opts ...Option) *Service {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewService(risk.NewAssessor(nil), opts...)
}

func TestAssessStoresAndPublishes(t *testing.T) {
	store := newMemoryStore()
	pub := &recordingPublisher{}
	svc := newTestService(WithStore(store), WithPublisher(pub))

	stored, err := svc.Assess(context.Background(), deliriousICUPatient())
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID)
	assert.Equal(t, "p-100", stored.PatientID)
	assert.Equal(t, fixedNow, stored.CreatedAt)
	assert.Equal(t, models.RiskHigh, stored.Result.Falls.RiskLevel)
	assert.False(t, stored.Cached)

	got, err := svc.Get(context.Background(), stored.ID)
	require.NoError(t, err)
	assert.Equal(t, stored, got)

	require.Len(t, pub.events, 1)
	ev := pub.events[0]
	assert.Equal(t, EventAssessed, ev.eventType)
	assert.Equal(t, stored.ID, ev.key)
	assert.Equal(t, 25.0, ev.data["watt_goal"])
	assert.Equal(t, models.RiskHigh, ev.data["risk_levels"].(map[string]string)["falls"])
}

func TestAssessServesRepeatsFromCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	pub := &recordingPublisher{}
	svc := newTestService(WithCache(NewRedisCache(client, time.Minute)), WithPublisher(pub))

	first, err := svc.Assess(context.Background(), wardPatient())
	require.NoError(t, err)
	second, err := svc.Assess(context.Background(), wardPatient())
	require.NoError(t, err)

	assert.True(t, second.Cached)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Result.VTE, second.Result.VTE)
	assert.Equal(t, first.Result.MobilityRecommendation, second.Result.MobilityRecommendation)
	assert.Len(t, pub.events, 1)
}

func TestAssessToleratesSideEffectFailures(t *testing.T) {
	store := newMemoryStore()
	store.err = errors.New("db down")
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := newTestService(WithStore(store), WithPublisher(pub))

	stored, err := svc.Assess(context.Background(), wardPatient())
	require.NoError(t, err)
	assert.Equal(t, models.RiskLow, stored.Result.Falls.RiskLevel)
}

func TestAssessRejectsInvalidInput(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(WithStore(store))

	in := wardPatient()
	in.Age = nil
	_, err := svc.Assess(context.Background(), in)
	require.Error(t, err)
	assert.True(t, risk.IsValidationError(err))
	assert.Empty(t, store.items)
}

func TestGetErrors(t *testing.T) {
	svc := newTestService()
	_, err := svc.Get(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = svc.Get(context.Background(), "2f1d7c7e-3b1a-4c55-9f0e-1a2b3c4d5e6f")
	assert.ErrorIs(t, err, ErrNotFound)

	svc = newTestService(WithStore(newMemoryStore()))
	_, err = svc.Get(context.Background(), "2f1d7c7e-3b1a-4c55-9f0e-1a2b3c4d5e6f")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecent(t *testing.T) {
	_, err := newTestService().Recent(context.Background(), "", 10)
	assert.ErrorIs(t, err, ErrMissingPatientID)

	items, err := newTestService().Recent(context.Background(), "p-100", 10)
	require.NoError(t, err)
	assert.Empty(t, items)

	store := newMemoryStore()
	svc := newTestService(WithStore(store), WithClock(tickingClock(fixedNow)))
	a, err := svc.Assess(context.Background(), wardPatient())
	require.NoError(t, err)
	b, err := svc.Assess(context.Background(), deliriousICUPatient())
	require.NoError(t, err)

	items, err = svc.Recent(context.Background(), "p-100", 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, b.ID, items[0].ID)
	assert.Equal(t, a.ID, items[1].ID)
}

func TestRecordConversionKeepsResult(t *testing.T) {
	svc := newTestService()
	stored, err := svc.Assess(context.Background(), deliriousICUPatient())
	require.NoError(t, err)
	stored.Result.Extensions = map[string]interface{}{"length_of_stay": map[string]interface{}{"predicted_days": 6.0}}

	rec, err := toRecord(stored)
	require.NoError(t, err)
	assert.Equal(t, models.RiskHigh, rec.FallsLevel)
	assert.Equal(t, 25.0, rec.WattGoal)
	assert.Equal(t, "risk_assessments", rec.TableName())

	back, err := fromRecord(rec)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, back.ID)
	assert.Equal(t, stored.Result.Falls, back.Result.Falls)
	assert.Equal(t, stored.Result.MobilityRecommendation, back.Result.MobilityRecommendation)
	assert.Equal(t, stored.Result.Extensions, back.Result.Extensions)

	_, err = toRecord(models.StoredAssessment{ID: "nope"})
	assert.Error(t, err)
}
