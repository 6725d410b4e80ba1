package risk

import (
	"fmt"
	"strings"
)

// Outcome identifies one of the four scored adverse events.
type Outcome int

const (
	Deconditioning Outcome = iota
	VTE
	Falls
	Pressure

	outcomeCount
)

// Outcomes lists every outcome in reporting order.
var Outcomes = []Outcome{Deconditioning, VTE, Falls, Pressure}

var outcomeKeys = [outcomeCount]string{
	Deconditioning: "deconditioning",
	VTE:            "vte",
	Falls:          "falls",
	Pressure:       "pressure",
}

func (o Outcome) String() string {
	if o < 0 || o >= outcomeCount {
		return fmt.Sprintf("outcome(%d)", int(o))
	}
	return outcomeKeys[o]
}

// ParseOutcome resolves an outcome key such as "vte".
func ParseOutcome(key string) (Outcome, error) {
	normalized := strings.ToLower(strings.TrimSpace(key))
	for o, k := range outcomeKeys {
		if k == normalized {
			return Outcome(o), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOutcome, key)
}
