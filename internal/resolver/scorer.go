package resolver

import (
	"encoding/json"
	"math"
	"os"
	"time"

	"github.com/rotisserie/eris"
)

// Scorer produces a match probability for a candidate feature vector.
// A nil Scorer means no trained artifact is available; callers fall
// back to rule-based scoring instead of treating nil as an error.
type Scorer interface {
	PredictProbability(features []float64) float64
}

// LogisticScorer is the JSON scoring artifact written by the trainer:
// a logistic regression over the feature vocabulary in features.go.
type LogisticScorer struct {
	Weights   []float64 `json:"weights"`
	Bias      float64   `json:"bias"`
	Dim       int       `json:"dim"`
	Samples   int       `json:"samples"`
	TrainedAt time.Time `json:"trained_at"`
}

// PredictProbability applies the sigmoid of the linear score. A vector
// of the wrong dimension scores 0.5 so a stale artifact degrades to
// neutral rather than nonsense.
func (s *LogisticScorer) PredictProbability(features []float64) float64 {
	if len(features) != len(s.Weights) {
		return 0.5
	}
	z := s.Bias
	for i, w := range s.Weights {
		z += w * features[i]
	}
	return 1.0 / (1.0 + math.Exp(-z))
}

// LoadScorer reads a scoring artifact from path. A missing file is not
// an error: it returns (nil, nil) and the resolver runs rule-only.
func LoadScorer(path string) (Scorer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "resolver: read model %s", path)
	}
	var s LogisticScorer
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, eris.Wrapf(err, "resolver: parse model %s", path)
	}
	if len(s.Weights) == 0 {
		return nil, eris.Errorf("resolver: model %s has no weights", path)
	}
	return &s, nil
}

// SaveScorer writes the artifact as indented JSON.
func SaveScorer(path string, s *LogisticScorer) error {
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return eris.Wrap(err, "resolver: encode model")
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return eris.Wrapf(err, "resolver: write model %s", path)
	}
	return nil
}
