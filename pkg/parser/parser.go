package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gilchrisn/influence-spread-service/pkg/graph"
	"github.com/gilchrisn/influence-spread-service/pkg/models"
)

// ErrMissingColumn is returned when a required CSV column is absent
var ErrMissingColumn = errors.New("missing required column")

// Friendship CSV column names
const (
	UserColumn   = "user"
	FriendColumn = "friend"
)

func newReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true
	// rows may carry extra columns
	reader.FieldsPerRecord = -1
	return reader
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

func parseID(raw string, line int) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: invalid user id %q: %w", line, raw, err)
	}
	return id, nil
}

func field(record []string, idx, line int) (string, error) {
	if idx >= len(record) {
		return "", fmt.Errorf("line %d: expected at least %d columns, got %d", line, idx+1, len(record))
	}
	return record[idx], nil
}

// ReadGraph parses a friendship list. The header must name a "user" and a
// "friend" column; other columns are ignored.
func ReadGraph(r io.Reader) (*graph.Graph, error) {
	reader := newReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	userIdx := columnIndex(header, UserColumn)
	friendIdx := columnIndex(header, FriendColumn)
	if userIdx < 0 || friendIdx < 0 {
		return nil, fmt.Errorf("%w: expected %q and %q, got %v", ErrMissingColumn, UserColumn, FriendColumn, header)
	}

	b := graph.NewBuilder()
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		rawUser, err := field(record, userIdx, line)
		if err != nil {
			return nil, err
		}
		rawFriend, err := field(record, friendIdx, line)
		if err != nil {
			return nil, err
		}

		u, err := parseID(rawUser, line)
		if err != nil {
			return nil, err
		}
		v, err := parseID(rawFriend, line)
		if err != nil {
			return nil, err
		}
		b.AddEdge(u, v)
	}

	return b.Build(), nil
}

// readWeights parses a headed two column id,value file
func readWeights(r io.Reader, check func(float64) error) (map[int64]float64, error) {
	reader := newReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("%w: expected two columns, got %v", ErrMissingColumn, header)
	}

	values := make(map[int64]float64)
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(record) < 2 {
			return nil, fmt.Errorf("line %d: expected 2 columns, got %d", line, len(record))
		}

		id, err := parseID(record[0], line)
		if err != nil {
			return nil, err
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid value %q: %w", line, record[1], err)
		}
		if err := check(value); err != nil {
			return nil, fmt.Errorf("line %d: user %d: %w", line, id, err)
		}
		values[id] = value
	}

	return values, nil
}

// ReadHaters parses a user_id,weight file. Weights must lie in (0, 1].
func ReadHaters(r io.Reader) (models.HaterMap, error) {
	values, err := readWeights(r, func(w float64) error {
		if math.IsNaN(w) || w <= 0 || w > 1 {
			return fmt.Errorf("hater weight %v outside (0, 1]", w)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return models.HaterMap(values), nil
}

// ReadCosts parses a user_id,cost file. Costs must be non-negative.
func ReadCosts(r io.Reader) (models.CostMap, error) {
	values, err := readWeights(r, func(c float64) error {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("cost %v is not a finite number", c)
		}
		if c < 0 {
			return fmt.Errorf("negative cost %v", c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return models.CostMap(values), nil
}

// LoadGraph reads a friendship CSV file
func LoadGraph(path string) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open friendships file: %w", err)
	}
	defer f.Close()

	g, err := ReadGraph(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return g, nil
}

// LoadHaters reads a haters CSV file
func LoadHaters(path string) (models.HaterMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open haters file: %w", err)
	}
	defer f.Close()

	h, err := ReadHaters(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return h, nil
}

// LoadCosts reads a costs CSV file
func LoadCosts(path string) (models.CostMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open costs file: %w", err)
	}
	defer f.Close()

	c, err := ReadCosts(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return c, nil
}

// LoadDataset reads the three input files. A part that fails to load is
// logged and left nil; downstream stages treat it as missing data.
func LoadDataset(graphFile, hatersFile, costsFile string, logger zerolog.Logger) *models.Dataset {
	dataset := &models.Dataset{}

	if g, err := LoadGraph(graphFile); err != nil {
		logger.Error().Err(err).Str("file", graphFile).Msg("Failed to load friendships")
	} else {
		dataset.Graph = g
		logger.Info().
			Str("file", graphFile).
			Int("nodes", g.NumNodes()).
			Int("edges", g.NumEdges()).
			Msg("Friendships loaded")
	}

	if h, err := LoadHaters(hatersFile); err != nil {
		logger.Error().Err(err).Str("file", hatersFile).Msg("Failed to load haters")
	} else {
		dataset.Haters = h
		logger.Info().Str("file", hatersFile).Int("haters", len(h)).Msg("Haters loaded")
	}

	if c, err := LoadCosts(costsFile); err != nil {
		logger.Error().Err(err).Str("file", costsFile).Msg("Failed to load costs")
	} else {
		dataset.Costs = c
		logger.Info().Str("file", costsFile).Int("costs", len(c)).Msg("Costs loaded")
	}

	return dataset
}
