package parser

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestReadGraph(t *testing.T) {
	input := "friend,user,since\n2,1,2020\n1,2,2021\n3,1,2019\n4,4,2018\n"

	g, err := ReadGraph(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.NumNodes() != 4 {
		t.Errorf("expected 4 nodes, got %d", g.NumNodes())
	}
	if g.NumEdges() != 2 {
		t.Errorf("expected 2 edges, got %d", g.NumEdges())
	}
	if g.Degree(1) != 2 || g.Degree(4) != 0 {
		t.Errorf("unexpected degrees: 1=%d 4=%d", g.Degree(1), g.Degree(4))
	}
}

func TestReadGraphErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		missing bool
	}{
		{"missing friend column", "user,other\n1,2\n", true},
		{"empty input", "", false},
		{"bad id", "user,friend\n1,abc\n", false},
		{"short row", "user,friend\n1\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadGraph(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.missing != errors.Is(err, ErrMissingColumn) {
				t.Errorf("unexpected error kind: %v", err)
			}
		})
	}
}

func TestReadHaters(t *testing.T) {
	h, err := ReadHaters(strings.NewReader("user_id,weight\n7,0.5\n9, 1.0\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(h) != 2 || h[7] != 0.5 || h[9] != 1.0 {
		t.Errorf("unexpected haters %v", h)
	}

	for _, bad := range []string{"0", "-0.1", "1.5", "x", "NaN", "Inf", "-Inf"} {
		if _, err := ReadHaters(strings.NewReader("user_id,weight\n7," + bad + "\n")); err == nil {
			t.Errorf("weight %s must be rejected", bad)
		}
	}

	empty, err := ReadHaters(strings.NewReader("user_id,weight\n"))
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("header only file must give an empty map, got %v, %v", empty, err)
	}
}

func TestReadCosts(t *testing.T) {
	c, err := ReadCosts(strings.NewReader("user_id,cost\n1,100\n2,0\n3,12.5\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c) != 3 || c[3] != 12.5 || c[2] != 0 {
		t.Errorf("unexpected costs %v", c)
	}

	for _, bad := range []string{"-5", "NaN", "Inf", "+Inf", "-Inf"} {
		if _, err := ReadCosts(strings.NewReader("user_id,cost\n1," + bad + "\n")); err == nil {
			t.Errorf("cost %s must be rejected", bad)
		}
	}
	if _, err := ReadCosts(strings.NewReader("user_id\n1\n")); !errors.Is(err, ErrMissingColumn) {
		t.Errorf("expected ErrMissingColumn, got %v", err)
	}
}

func TestLoadDataset(t *testing.T) {
	dir := t.TempDir()
	friends := writeFile(t, dir, "friendships.csv", "user,friend\n1,2\n2,3\n")
	haters := writeFile(t, dir, "haters.csv", "user_id,weight\n3,0.4\n")
	costs := writeFile(t, dir, "costs.csv", "user_id,cost\n1,10\n2,20\n")

	dataset := LoadDataset(friends, haters, costs, zerolog.Nop())
	if !dataset.Complete() {
		t.Fatalf("expected a complete dataset, got %+v", dataset.Summary())
	}
	summary := dataset.Summary()
	if summary.NumNodes != 3 || summary.NumEdges != 2 || summary.NumHaters != 1 || summary.NumCosts != 2 {
		t.Errorf("unexpected summary %+v", summary)
	}

	partial := LoadDataset(filepath.Join(dir, "missing.csv"), haters, costs, zerolog.Nop())
	if partial.Graph != nil || partial.Haters == nil || partial.Costs == nil {
		t.Error("a failed part must be nil while the others load")
	}
	if partial.Complete() {
		t.Error("partial dataset must not be complete")
	}
}
