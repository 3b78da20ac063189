// Package allocation scores caller/ambulance pairings with a logistic
// regression model trained on the allocation dataset.
package allocation

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/SevaDrive/service-ambulance/internal/domain/ambulance"
	"github.com/SevaDrive/service-ambulance/internal/polyline"
)

// FeatureCount is the width of a feature vector.
const FeatureCount = 6

// Feature order: user lat, user lng, ambulance lat, ambulance lng, travel
// time in minutes, distance in km.
type Features [FeatureCount]float64

// AssumedSpeedKmh converts distance to travel time when no route is known.
const AssumedSpeedKmh = 40.0

// ErrInsufficientData is returned when fewer than two complete rows exist.
var ErrInsufficientData = errors.New("not enough complete rows to train")

// FeaturesFor estimates the feature vector for a live request.
func FeaturesFor(user, amb polyline.Point) Features {
	km := ambulance.HaversineKm(user, amb)
	return Features{user.Lat, user.Lng, amb.Lat, amb.Lng, km / AssumedSpeedKmh * 60, km}
}

func featuresOf(r ambulance.Record) Features {
	return Features{
		r.User.Lat, r.User.Lng,
		r.Ambulance.Location.Lat, r.Ambulance.Location.Lng,
		r.TravelTimeMin, r.DistanceKm,
	}
}

// Model is a trained classifier. Inputs are standardized with Mean and Std
// before the linear layer.
type Model struct {
	Weights   Features  `json:"weights"`
	Bias      float64   `json:"bias"`
	Mean      Features  `json:"mean"`
	Std       Features  `json:"std"`
	Accuracy  float64   `json:"accuracy"`
	Samples   int       `json:"samples"`
	TrainedAt time.Time `json:"trained_at"`
}

// Predict returns the probability that the pairing should be allocated.
func (m *Model) Predict(f Features) float64 {
	z := m.Bias
	for i := range f {
		z += m.Weights[i] * (f[i] - m.Mean[i]) / m.Std[i]
	}
	return sigmoid(z)
}

// TrainOptions controls Train.
type TrainOptions struct {
	Epochs       int
	LearningRate float64
	TestFraction float64
	Seed         int64
}

// DefaultTrainOptions returns the settings used by the service.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		Epochs:       2000,
		LearningRate: 0.5,
		TestFraction: 0.2,
		Seed:         42,
	}
}

// Train fits a model on the complete rows of records and reports accuracy on
// a held-out split.
func Train(records []ambulance.Record, opts TrainOptions) (*Model, error) {
	var xs []Features
	var ys []float64
	for _, r := range records {
		if !r.Complete {
			continue
		}
		xs = append(xs, featuresOf(r))
		if r.Allocatable() {
			ys = append(ys, 1)
		} else {
			ys = append(ys, 0)
		}
	}
	if len(xs) < 2 {
		return nil, ErrInsufficientData
	}

	perm := rand.New(rand.NewSource(opts.Seed)).Perm(len(xs))
	nTest := int(math.Ceil(float64(len(xs)) * opts.TestFraction))
	if nTest < 1 {
		nTest = 1
	}
	if nTest >= len(xs) {
		nTest = len(xs) - 1
	}
	testIdx, trainIdx := perm[:nTest], perm[nTest:]

	m := &Model{Samples: len(xs), TrainedAt: time.Now().UTC()}
	m.Mean, m.Std = standardization(xs, trainIdx)

	scaled := make([]Features, len(xs))
	for i, x := range xs {
		for j := range x {
			scaled[i][j] = (x[j] - m.Mean[j]) / m.Std[j]
		}
	}

	n := float64(len(trainIdx))
	for epoch := 0; epoch < opts.Epochs; epoch++ {
		var gradW Features
		var gradB float64
		for _, i := range trainIdx {
			z := m.Bias
			for j := range scaled[i] {
				z += m.Weights[j] * scaled[i][j]
			}
			diff := sigmoid(z) - ys[i]
			for j := range scaled[i] {
				gradW[j] += diff * scaled[i][j]
			}
			gradB += diff
		}
		for j := range m.Weights {
			m.Weights[j] -= opts.LearningRate * gradW[j] / n
		}
		m.Bias -= opts.LearningRate * gradB / n
	}

	correct := 0
	for _, i := range testIdx {
		predicted := 0.0
		if m.Predict(xs[i]) >= 0.5 {
			predicted = 1
		}
		if predicted == ys[i] {
			correct++
		}
	}
	m.Accuracy = float64(correct) / float64(len(testIdx))

	return m, nil
}

func standardization(xs []Features, idx []int) (mean, std Features) {
	n := float64(len(idx))
	for _, i := range idx {
		for j := range xs[i] {
			mean[j] += xs[i][j]
		}
	}
	for j := range mean {
		mean[j] /= n
	}
	for _, i := range idx {
		for j := range xs[i] {
			d := xs[i][j] - mean[j]
			std[j] += d * d
		}
	}
	for j := range std {
		std[j] = math.Sqrt(std[j] / n)
		if std[j] == 0 {
			std[j] = 1
		}
	}
	return mean, std
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// Save writes m as JSON to path, replacing any existing file atomically.
func (m *Model) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".model-*.json")
	if err != nil {
		return fmt.Errorf("failed to create model file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write model: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace model: %w", err)
	}
	return nil
}

// Load reads a model written by Save.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	for i, s := range m.Std {
		if s == 0 || math.IsNaN(s) {
			return nil, fmt.Errorf("failed to decode model: zero std for feature %d", i)
		}
	}
	return &m, nil
}
