package submission

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gilchrisn/influence-spread-service/pkg/models"
)

var (
	costs  = models.CostMap{1: 500, 2: 700, 3: 300, 4: 100}
	haters = models.HaterMap{4: 0.5}
)

func TestDefaultFilename(t *testing.T) {
	if got := DefaultFilename("123", "456"); got != "123_456.csv" {
		t.Errorf("unexpected filename %s", got)
	}
}

func TestWriteThenRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFilename("1", "2"))

	if err := Write(path, []int64{3, 1, 2}, costs, haters, 1500); err != nil {
		t.Fatalf("failed to write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read back: %v", err)
	}
	if string(data) != "user_id\n1\n2\n3\n" {
		t.Errorf("unexpected file content %q", string(data))
	}

	seeds, err := Read(path, costs, haters, 1500)
	if err != nil {
		t.Fatalf("failed to read: %v", err)
	}
	if seeds.Key() != "1,2,3" {
		t.Errorf("unexpected seeds %v", seeds)
	}
}

func TestWriteRejectsInvalidSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")

	err := Write(path, []int64{4}, costs, haters, 1500)
	var ve models.ValidationErrors
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation errors, got %v", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("an invalid submission must not leave a file behind")
	}
}

func TestReadFrom(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "user_id\n1\n3\n", false},
		{"header only", "user_id\n", false},
		{"wrong header", "id\n1\n", true},
		{"extra header column", "user_id,cost\n1,2\n", true},
		{"two columns in a row", "user_id\n1,2\n", true},
		{"not a number", "user_id\nabc\n", true},
		{"hater", "user_id\n4\n", true},
		{"duplicate", "user_id\n1\n1\n", true},
		{"unknown user", "user_id\n42\n", true},
		{"over budget", "user_id\n1\n2\n3\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			budget := 1500.0
			if tt.name == "over budget" {
				budget = 1000
			}
			_, err := ReadFrom(strings.NewReader(tt.input), costs, haters, budget)
			if (err != nil) != tt.wantErr {
				t.Errorf("wantErr %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestWriteToBuffer(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTo(&buf, nil, costs, haters, 1500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "user_id\n" {
		t.Errorf("expected only the header, got %q", buf.String())
	}
}
