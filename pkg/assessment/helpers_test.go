package assessment

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/synaptica-ai/mobility-risk/pkg/common/models"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }

func wardPatient() models.RiskAssessmentInput {
	return models.RiskAssessmentInput{
		PatientID:          "p-100",
		Age:                intPtr(35),
		Sex:                "M",
		WeightKg:           floatPtr(75),
		HeightCm:           floatPtr(178),
		MobilityStatus:     "walking_assist",
		CognitiveStatus:    "normal",
		LevelOfCare:        "ward",
		BaselineFunction:   "independent",
		AdmissionDiagnosis: "appendectomy",
		DaysImmobile:       intPtr(1),
		OnVTEProphylaxis:   boolPtr(true),
	}
}

func deliriousICUPatient() models.RiskAssessmentInput {
	in := wardPatient()
	in.MobilityStatus = "bedbound"
	in.LevelOfCare = "icu"
	in.CognitiveStatus = "delirium_dementia"
	in.DaysImmobile = intPtr(5)
	return in
}

type memoryStore struct {
	mu    sync.Mutex
	items map[uuid.UUID]models.StoredAssessment
	err   error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{items: map[uuid.UUID]models.StoredAssessment{}}
}

func (m *memoryStore) Save(_ context.Context, stored models.StoredAssessment) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[uuid.MustParse(stored.ID)] = stored
	return nil
}

func (m *memoryStore) Get(_ context.Context, id uuid.UUID) (models.StoredAssessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.items[id]
	if !ok {
		return models.StoredAssessment{}, ErrNotFound
	}
	return stored, nil
}

func (m *memoryStore) Recent(_ context.Context, patientID string, limit int) ([]models.StoredAssessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.StoredAssessment{}
	for _, stored := range m.items {
		if stored.PatientID == patientID {
			out = append(out, stored)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// tickingClock advances one minute per call.
func tickingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := next
		next = next.Add(time.Minute)
		return now
	}
}

type publishedEvent struct {
	eventType string
	key       string
	data      map[string]interface{}
}

type recordingPublisher struct {
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, eventType, _ string, key string, data map[string]interface{}) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{eventType: eventType, key: key, data: data})
	return nil
}
