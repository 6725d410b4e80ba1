package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

var (
	assessmentsTotal    atomic.Int64
	assessmentsRejected atomic.Int64
	stayFailures        atomic.Int64
	cacheHits           atomic.Int64
	cacheMisses         atomic.Int64
	persistFailures     atomic.Int64
	publishFailures     atomic.Int64
)

var outcomeOrder = []string{"deconditioning", "vte", "falls", "pressure"}
var levelOrder = []string{"low", "moderate", "high"}

var riskLevels = func() map[string]map[string]*atomic.Int64 {
	m := make(map[string]map[string]*atomic.Int64, len(outcomeOrder))
	for _, o := range outcomeOrder {
		m[o] = make(map[string]*atomic.Int64, len(levelOrder))
		for _, l := range levelOrder {
			m[o][l] = new(atomic.Int64)
		}
	}
	return m
}()

func IncAssessments()     { assessmentsTotal.Add(1) }
func IncRejected()        { assessmentsRejected.Add(1) }
func IncStayFailures()    { stayFailures.Add(1) }
func IncPersistFailures() { persistFailures.Add(1) }
func IncPublishFailures() { publishFailures.Add(1) }
func ObserveCache(hit bool) {
	if hit {
		cacheHits.Add(1)
		return
	}
	cacheMisses.Add(1)
}

// ObserveRiskLevel counts one banded outcome. Unknown pairs are ignored.
func ObserveRiskLevel(outcome, level string) {
	if byLevel, ok := riskLevels[outcome]; ok {
		if c, ok := byLevel[level]; ok {
			c.Add(1)
		}
	}
}

// Reset zeroes every counter.
func Reset() {
	for _, c := range []*atomic.Int64{&assessmentsTotal, &assessmentsRejected, &stayFailures, &cacheHits, &cacheMisses, &persistFailures, &publishFailures} {
		c.Store(0)
	}
	for _, byLevel := range riskLevels {
		for _, c := range byLevel {
			c.Store(0)
		}
	}
}

func Handler(w http.ResponseWriter, _ *http.Request) {
	WritePrometheus(w)
}

func WritePrometheus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	writeCounter(w, "mobility_risk_assessments_total", "Number of assessments computed.", assessmentsTotal.Load())
	writeCounter(w, "mobility_risk_assessments_rejected_total", "Number of assessment requests rejected by input validation.", assessmentsRejected.Load())
	writeCounter(w, "mobility_risk_stay_prediction_failures_total", "Number of stay-prediction calls that failed.", stayFailures.Load())
	writeCounter(w, "mobility_risk_cache_hits_total", "Number of assessments served from the result cache.", cacheHits.Load())
	writeCounter(w, "mobility_risk_cache_misses_total", "Number of assessments not found in the result cache.", cacheMisses.Load())
	writeCounter(w, "mobility_risk_persist_failures_total", "Number of assessments that could not be persisted.", persistFailures.Load())
	writeCounter(w, "mobility_risk_publish_failures_total", "Number of assessment events that could not be published.", publishFailures.Load())

	fmt.Fprintf(w, "# HELP mobility_risk_outcome_level_total Number of outcomes reported per risk level.\n")
	fmt.Fprintf(w, "# TYPE mobility_risk_outcome_level_total counter\n")
	for _, o := range outcomeOrder {
		for _, l := range levelOrder {
			fmt.Fprintf(w, "mobility_risk_outcome_level_total{outcome=%q,level=%q} %d\n", o, l, riskLevels[o][l].Load())
		}
	}
}

func writeCounter(w http.ResponseWriter, name, help string, value int64) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s counter\n", name)
	fmt.Fprintf(w, "%s %d\n", name, value)
}
