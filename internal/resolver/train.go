package resolver

import (
	"context"
	"math"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/provider-verify/internal/credibility"
	"github.com/sells-group/provider-verify/internal/model"
	"github.com/sells-group/provider-verify/internal/store"
)

// ErrNoTrainingData is returned when the snapshot history has no
// consecutive pairs to learn from.
var ErrNoTrainingData = eris.New("resolver: no snapshot pairs to train on")

// Near-identity thresholds for the heuristic labeler.
const (
	labelTextThreshold  = 0.95
	labelPhoneThreshold = 1.0
)

// TrainOptions tune the offline gradient-descent fit.
type TrainOptions struct {
	Epochs       int
	LearningRate float64
}

// DefaultTrainOptions returns the fit parameters used by the train
// command.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{Epochs: 500, LearningRate: 0.1}
}

// Trainer fits the logistic scoring artifact from recorded snapshot
// history. Labels are heuristic, not ground truth: a consecutive
// snapshot pair counts as a match only when name and address
// similarity both exceed 0.95 and the phones agree exactly. Treat the
// resulting model as a re-ranker trained on "did this record stay
// stable", not on human-verified matches.
type Trainer struct {
	store       store.Store
	credibility *credibility.Store
	opts        TrainOptions
}

// NewTrainer creates an offline trainer over the given store.
func NewTrainer(st store.Store, cred *credibility.Store, opts TrainOptions) *Trainer {
	return &Trainer{store: st, credibility: cred, opts: opts}
}

// Train builds the labeled set from every entity's consecutive snapshot
// pairs and fits a logistic regression by full-batch gradient descent.
func (t *Trainer) Train(ctx context.Context) (*LogisticScorer, error) {
	X, y, err := t.buildExamples(ctx)
	if err != nil {
		return nil, err
	}
	if len(X) == 0 {
		return nil, ErrNoTrainingData
	}

	weights, bias := fit(X, y, t.opts)
	scorer := &LogisticScorer{
		Weights:   weights,
		Bias:      bias,
		Dim:       FeatureDim,
		Samples:   len(X),
		TrainedAt: time.Now().UTC(),
	}
	zap.L().Info("resolver: model trained",
		zap.Int("samples", len(X)),
		zap.Int("positives", countOnes(y)),
		zap.Int("epochs", t.opts.Epochs),
	)
	return scorer, nil
}

// buildExamples turns each consecutive snapshot pair into one example:
// the older snapshot plays the listed record, the newer one the
// candidate.
func (t *Trainer) buildExamples(ctx context.Context) ([][]float64, []float64, error) {
	histories, err := t.store.ListHistories(ctx)
	if err != nil {
		return nil, nil, eris.Wrap(err, "resolver: list histories")
	}

	var (
		X [][]float64
		y []float64
	)
	for _, h := range histories {
		for i := 0; i+1 < len(h.Snapshots); i++ {
			old := h.Snapshots[i].Candidate
			cur := h.Snapshots[i+1].Candidate

			src := cur.Source
			if src == "" {
				src = "Unknown"
			}
			w, err := t.credibility.Weight(ctx, src)
			if err != nil {
				return nil, nil, eris.Wrapf(err, "resolver: weight for %s", src)
			}

			listed := model.Listed{
				Name:          old.Name,
				ListedAddress: old.Address,
				ListedPhone:   old.Phone,
			}
			feats := Features(listed, cur, w)

			label := 0.0
			if feats[0] > labelTextThreshold &&
				feats[1] > labelTextThreshold &&
				feats[2] >= labelPhoneThreshold {
				label = 1.0
			}
			X = append(X, feats)
			y = append(y, label)
		}
	}
	return X, y, nil
}

// fit runs full-batch gradient descent on the logistic loss. The
// training sets here are tiny, so there is no need for minibatching or
// early stopping.
func fit(X [][]float64, y []float64, opts TrainOptions) ([]float64, float64) {
	dim := len(X[0])
	weights := make([]float64, dim)
	bias := 0.0
	n := float64(len(X))

	for epoch := 0; epoch < opts.Epochs; epoch++ {
		gradW := make([]float64, dim)
		gradB := 0.0
		for i, feats := range X {
			z := bias
			for j, w := range weights {
				z += w * feats[j]
			}
			p := 1.0 / (1.0 + math.Exp(-z))
			diff := p - y[i]
			for j := range gradW {
				gradW[j] += diff * feats[j]
			}
			gradB += diff
		}
		for j := range weights {
			weights[j] -= opts.LearningRate * gradW[j] / n
		}
		bias -= opts.LearningRate * gradB / n
	}
	return weights, bias
}

func countOnes(y []float64) int {
	n := 0
	for _, v := range y {
		if v == 1.0 {
			n++
		}
	}
	return n
}
