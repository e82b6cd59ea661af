package submission

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gilchrisn/influence-spread-service/pkg/models"
	"github.com/gilchrisn/influence-spread-service/pkg/validation"
)

// Header is the only column of a submission file
const Header = "user_id"

// DefaultFilename names a submission after the ids of its two authors
func DefaultFilename(id1, id2 string) string {
	return fmt.Sprintf("%s_%s.csv", id1, id2)
}

// Parse reads the ids of a submission without validating them
func Parse(r io.Reader) ([]int64, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) != 1 || strings.TrimSpace(header[0]) != Header {
		return nil, fmt.Errorf("invalid header %v, expected [%s]", header, Header)
	}

	var ids []int64
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
		if len(record) != 1 {
			return nil, fmt.Errorf("line %d: expected a single user id, got %v", line, record)
		}
		id, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid user id %q: %w", line, record[0], err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ReadFrom parses and validates a submission
func ReadFrom(r io.Reader, costs models.CostMap, haters models.HaterMap, budget float64) (models.SeedSet, error) {
	ids, err := Parse(r)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateSeedSet(ids, costs, haters, budget); err != nil {
		return nil, err
	}
	return models.NewSeedSet(ids), nil
}

// Read loads and validates the submission file at path
func Read(path string, costs models.CostMap, haters models.HaterMap, budget float64) (models.SeedSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open submission: %w", err)
	}
	defer f.Close()

	seeds, err := ReadFrom(f, costs, haters, budget)
	if err != nil {
		return nil, fmt.Errorf("invalid submission %s: %w", path, err)
	}
	return seeds, nil
}

// WriteTo validates seeds and writes them one per row in ascending order
func WriteTo(w io.Writer, seeds []int64, costs models.CostMap, haters models.HaterMap, budget float64) error {
	if err := validation.ValidateSeedSet(seeds, costs, haters, budget); err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{Header}); err != nil {
		return err
	}
	for _, id := range models.NewSeedSet(seeds) {
		if err := writer.Write([]string{strconv.FormatInt(id, 10)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// Write validates seeds and stores them as a submission file at path
func Write(path string, seeds []int64, costs models.CostMap, haters models.HaterMap, budget float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}

	if err := WriteTo(f, seeds, costs, haters, budget); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to write submission %s: %w", path, err)
	}
	return f.Close()
}
