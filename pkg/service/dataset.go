package service

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gilchrisn/influence-spread-service/pkg/models"
	"github.com/gilchrisn/influence-spread-service/pkg/parser"
	"github.com/gilchrisn/influence-spread-service/pkg/validation"
)

// ErrDatasetNotLoaded is returned while no dataset is available
var ErrDatasetNotLoaded = errors.New("dataset not loaded")

// Upload form fields
const (
	FriendshipsFile = "friendships"
	HatersFile      = "haters"
	CostsFile       = "costs"
)

// DatasetInfo describes the dataset currently served
type DatasetInfo struct {
	ID       string                `json:"id"`
	Source   string                `json:"source"`
	LoadedAt time.Time             `json:"loadedAt"`
	Summary  models.DatasetSummary `json:"summary"`
	Warnings []string              `json:"warnings,omitempty"`
}

// DatasetService holds the single dataset every job runs against. Loading a
// new dataset replaces the old one; running jobs keep the one they started
// with.
type DatasetService struct {
	dataset *models.Dataset
	info    *DatasetInfo
	mutex   sync.RWMutex
}

// NewDatasetService creates an empty dataset service
func NewDatasetService() *DatasetService {
	return &DatasetService{}
}

// LoadFiles loads the dataset from disk. Parts that fail to load stay
// missing; the dataset is still stored and reported as incomplete.
func (s *DatasetService) LoadFiles(friendships, haters, costs string) (*DatasetInfo, error) {
	if friendships == "" || haters == "" || costs == "" {
		return nil, fmt.Errorf("all three dataset files are required")
	}

	dataset := parser.LoadDataset(friendships, haters, costs, log.Logger)
	return s.Set(dataset, "files"), nil
}

// Upload parses the three uploaded CSV files. Unlike LoadFiles every part
// must parse, otherwise the current dataset is kept.
func (s *DatasetService) Upload(files map[string]*multipart.FileHeader) (*DatasetInfo, error) {
	for _, required := range []string{FriendshipsFile, HatersFile, CostsFile} {
		if _, exists := files[required]; !exists {
			return nil, fmt.Errorf("missing required file: %s", required)
		}
	}

	dataset := &models.Dataset{}

	if err := readUpload(files[FriendshipsFile], func(r io.Reader) (err error) {
		dataset.Graph, err = parser.ReadGraph(r)
		return err
	}); err != nil {
		return nil, fmt.Errorf("invalid %s file: %w", FriendshipsFile, err)
	}
	if err := readUpload(files[HatersFile], func(r io.Reader) (err error) {
		dataset.Haters, err = parser.ReadHaters(r)
		return err
	}); err != nil {
		return nil, fmt.Errorf("invalid %s file: %w", HatersFile, err)
	}
	if err := readUpload(files[CostsFile], func(r io.Reader) (err error) {
		dataset.Costs, err = parser.ReadCosts(r)
		return err
	}); err != nil {
		return nil, fmt.Errorf("invalid %s file: %w", CostsFile, err)
	}

	return s.Set(dataset, "upload"), nil
}

func readUpload(header *multipart.FileHeader, read func(io.Reader) error) error {
	f, err := header.Open()
	if err != nil {
		return fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()
	return read(f)
}

// Set replaces the served dataset
func (s *DatasetService) Set(dataset *models.Dataset, source string) *DatasetInfo {
	info := &DatasetInfo{
		ID:       uuid.New().String(),
		Source:   source,
		LoadedAt: time.Now(),
		Summary:  dataset.Summary(),
	}
	if report, err := validation.ValidateDataset(dataset); err != nil {
		info.Warnings = append(info.Warnings, err.Error())
	} else {
		info.Warnings = append(info.Warnings, report.Warnings...)
	}

	s.mutex.Lock()
	s.dataset = dataset
	s.info = info
	s.mutex.Unlock()

	log.Info().
		Str("dataset_id", info.ID).
		Str("source", source).
		Int("nodes", info.Summary.NumNodes).
		Int("edges", info.Summary.NumEdges).
		Int("haters", info.Summary.NumHaters).
		Int("costs", info.Summary.NumCosts).
		Bool("complete", info.Summary.Complete).
		Msg("Dataset loaded")

	return info
}

// Get returns the served dataset and its id
func (s *DatasetService) Get() (*models.Dataset, string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.dataset == nil {
		return nil, "", ErrDatasetNotLoaded
	}
	return s.dataset, s.info.ID, nil
}

// Info describes the served dataset
func (s *DatasetService) Info() (*DatasetInfo, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.info == nil {
		return nil, ErrDatasetNotLoaded
	}
	info := *s.info
	return &info, nil
}
