package application

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/SevaDrive/service-ambulance/internal/domain/allocation"
	"github.com/SevaDrive/service-ambulance/internal/domain/ambulance"
	"github.com/SevaDrive/service-ambulance/internal/platform/domain"
)

// DatasetLoader reads the allocation dataset.
type DatasetLoader func(path string) ([]ambulance.Record, error)

// RetrainResultDTO is the response of a retrain.
type RetrainResultDTO struct {
	Accuracy  float64   `json:"accuracy"`
	Samples   int       `json:"samples"`
	TrainedAt time.Time `json:"trained_at"`
}

// ModelService owns the current allocation model and swaps it on retrain.
type ModelService struct {
	mu    sync.RWMutex
	model *allocation.Model

	// trainMu serializes retrains.
	trainMu sync.Mutex

	datasetPath string
	modelPath   string
	loadDataset DatasetLoader
	opts        allocation.TrainOptions
	logger      *zap.Logger
}

// NewModelService creates a ModelService with no model loaded.
func NewModelService(datasetPath, modelPath string, loadDataset DatasetLoader, logger *zap.Logger) *ModelService {
	return &ModelService{
		datasetPath: datasetPath,
		modelPath:   modelPath,
		loadDataset: loadDataset,
		opts:        allocation.DefaultTrainOptions(),
		logger:      logger,
	}
}

// LoadOrTrain loads the persisted model, training a fresh one when none exists.
func (s *ModelService) LoadOrTrain(ctx context.Context) error {
	m, err := allocation.Load(s.modelPath)
	if err == nil {
		s.swap(m)
		s.logger.Info("allocation model loaded",
			zap.String("path", s.modelPath),
			zap.Float64("accuracy", m.Accuracy),
		)
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("stored allocation model unusable, retraining", zap.Error(err))
	}

	_, err = s.Retrain(ctx)
	return err
}

// Current returns the active model, or nil.
func (s *ModelService) Current() *allocation.Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// Retrain trains on the dataset, persists the model and makes it current.
// The previous model stays active if any step fails.
func (s *ModelService) Retrain(ctx context.Context) (*RetrainResultDTO, error) {
	s.trainMu.Lock()
	defer s.trainMu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records, err := s.loadDataset(s.datasetPath)
	if err != nil {
		return nil, domain.NewUnavailableError(fmt.Sprintf("dataset not available: %v", err))
	}

	m, err := allocation.Train(records, s.opts)
	if err != nil {
		if errors.Is(err, allocation.ErrInsufficientData) {
			return nil, domain.NewUnavailableError(err.Error())
		}
		return nil, fmt.Errorf("failed to train model: %w", err)
	}

	if err := m.Save(s.modelPath); err != nil {
		return nil, err
	}
	s.swap(m)

	s.logger.Info("allocation model retrained",
		zap.Int("samples", m.Samples),
		zap.Float64("accuracy", m.Accuracy),
	)

	return &RetrainResultDTO{
		Accuracy:  m.Accuracy,
		Samples:   m.Samples,
		TrainedAt: m.TrainedAt,
	}, nil
}

func (s *ModelService) swap(m *allocation.Model) {
	s.mu.Lock()
	s.model = m
	s.mu.Unlock()
}
