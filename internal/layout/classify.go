package layout

// classify.go scores a file's column header set against every registered
// layout and picks the best match.
//
// Confidence is a 0-1 heuristic:
//
//	confidence = (2*|required∩present| + |optional∩present|) /
//	             (2*|required| + |optional|)
//
// A layout is eligible only when every required column is present, so an
// eligible layout's confidence reflects how many of its optional columns the
// file also carries. Ties go to the first-registered layout. An "unknown"
// result with confidence 0 is a valid outcome, not an error; callers decide
// the acceptance threshold.

// LayoutUnknown is the name reported when no registered layout is eligible.
const LayoutUnknown = "unknown"

// DefaultConfidenceThreshold is the recommended minimum confidence for
// accepting a classification. Configurable by callers.
const DefaultConfidenceThreshold = 0.7

// Match is the classifier's verdict for one file.
type Match struct {
	Layout     Definition
	Confidence float64
}

// Unknown reports whether no registered layout was eligible.
func (m Match) Unknown() bool {
	return m.Layout.Name == LayoutUnknown
}

// Classify inspects a column header set and returns the eligible layout with
// the highest confidence. Deterministic for identical column sets.
func (r *Registry) Classify(columns []string) Match {
	present := make(map[string]bool, len(columns))
	for _, col := range columns {
		if norm := NormalizeColumn(col); norm != "" {
			present[norm] = true
		}
	}

	best := Match{Layout: Definition{Name: LayoutUnknown}}

	for _, def := range r.All() {
		requiredHits := 0
		for _, col := range def.Required {
			if present[NormalizeColumn(col)] {
				requiredHits++
			}
		}
		if requiredHits < len(def.Required) {
			continue
		}

		optionalHits := 0
		for _, col := range def.Optional {
			if present[NormalizeColumn(col)] {
				optionalHits++
			}
		}

		confidence := float64(2*requiredHits+optionalHits) / float64(2*len(def.Required)+len(def.Optional))

		// Strict > keeps the first-registered layout on ties.
		if confidence > best.Confidence {
			best = Match{Layout: def, Confidence: confidence}
		}
	}

	return best
}
